// internal/workers/application/upload-essays/models.go
package uploadessays

import "gradabroad-workers/internal/models"

type Input struct {
	AccessToken   string `json:"accessToken"`
	ApplicationID int64  `json:"applicationId"`
	StudentID     string `json:"studentId,omitempty"`
	ProgrammeID   int64  `json:"programmeId,omitempty"`
	// EssayAnswers are keyed by requirement id.
	EssayAnswers       map[int64]string `json:"essayAnswers,omitempty"`
	EssayRequirementID *int64           `json:"essayRequirementId,omitempty"`
	Motivation         string           `json:"motivation,omitempty"`
	WhyThisUniversity  string           `json:"whyThisUniversity,omitempty"`
}

type Output struct {
	SubmissionStage models.SubmissionStage `json:"submissionStage"`
}
