// internal/workers/application/create-draft-application/models.go
package createdraftapplication

import "gradabroad-workers/internal/models"

type Input struct {
	AccessToken string `json:"accessToken"`
	ProgrammeID int64  `json:"programmeId"`
	StudentID   string `json:"studentId,omitempty"`
}

type Output struct {
	ApplicationID   int64                  `json:"applicationId"`
	SubmissionStage models.SubmissionStage `json:"submissionStage"`
}
