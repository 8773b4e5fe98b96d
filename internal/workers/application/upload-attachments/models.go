// internal/workers/application/upload-attachments/models.go
package uploadattachments

import "gradabroad-workers/internal/models"

type Input struct {
	AccessToken   string `json:"accessToken"`
	ApplicationID int64  `json:"applicationId"`
	StudentID     string `json:"studentId,omitempty"`
	ProgrammeID   int64  `json:"programmeId,omitempty"`
	// Attachments maps a requirement label to its staged file.
	Attachments    map[string]models.FileRef `json:"attachments,omitempty"`
	PaymentReceipt *models.FileRef           `json:"paymentReceipt,omitempty"`
}

type Output struct {
	SubmissionStage models.SubmissionStage `json:"submissionStage"`
	UploadedLabels  []string               `json:"uploadedLabels"`
}
