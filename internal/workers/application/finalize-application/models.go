// internal/workers/application/finalize-application/models.go
package finalizeapplication

import (
	"time"

	"gradabroad-workers/internal/models"
)

type Input struct {
	AccessToken   string `json:"accessToken"`
	ApplicationID int64  `json:"applicationId"`
	StudentID     string `json:"studentId,omitempty"`
	ProgrammeID   int64  `json:"programmeId,omitempty"`
}

type Output struct {
	ApplicationID   int64                  `json:"applicationId"`
	SubmissionStage models.SubmissionStage `json:"submissionStage"`
	SubmittedAt     time.Time              `json:"submittedAt"`
}
