// internal/workers/application/submit-application/models.go
package submitapplication

import (
	"time"

	"gradabroad-workers/internal/models"
)

type Input struct {
	AccessToken string                  `json:"accessToken"`
	StudentID   string                  `json:"studentId"`
	Draft       models.DraftApplication `json:"draft"`
	// SubmissionStage and ApplicationID come from an earlier, failed run.
	SubmissionStage models.SubmissionStage `json:"submissionStage,omitempty"`
	ApplicationID   *int64                 `json:"applicationId,omitempty"`
	// Readiness, when present, gates the submission.
	Readiness *models.Readiness `json:"readiness,omitempty"`
}

type Output struct {
	ApplicationID   int64                  `json:"applicationId"`
	SubmissionStage models.SubmissionStage `json:"submissionStage"`
	SubmittedAt     *time.Time             `json:"submittedAt,omitempty"`
	Resumed         bool                   `json:"resumed"`
}
