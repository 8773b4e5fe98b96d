// internal/models/application.go
package models

// SubmissionStage is the last completed step of the submission workflow.
type SubmissionStage string

const (
	StageDraftNotCreated     SubmissionStage = "DRAFT_NOT_CREATED"
	StageDraftCreated        SubmissionStage = "DRAFT_CREATED"
	StageAttachmentsUploaded SubmissionStage = "ATTACHMENTS_UPLOADED"
	StageEssaysUploaded      SubmissionStage = "ESSAYS_UPLOADED"
	StageSubmitted           SubmissionStage = "SUBMITTED"
)

// Valid reports whether s is a known stage. The empty stage is valid and
// means nothing has happened yet.
func (s SubmissionStage) Valid() bool {
	switch s {
	case "", StageDraftNotCreated, StageDraftCreated, StageAttachmentsUploaded, StageEssaysUploaded, StageSubmitted:
		return true
	}
	return false
}

// Legacy fixed-slot essay doc types.
const (
	EssayDocTypeMotivation    = "motivation"
	EssayDocTypeWhyUniversity = "why_university"
)

// PaymentReceiptFileType is the attachment file_type used for the receipt.
const PaymentReceiptFileType = "payment_receipt"

// FileRef points at a staged upload in object storage.
type FileRef struct {
	Key         string `json:"key"`
	FileName    string `json:"fileName,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// DraftApplication is the in-progress local state of one application.
type DraftApplication struct {
	ProgrammeID        int64              `json:"programmeId"`
	Attachments        map[string]FileRef `json:"attachments,omitempty"`
	EssayAnswers       map[int64]string   `json:"essayAnswers,omitempty"`
	Motivation         string             `json:"motivation,omitempty"`
	WhyThisUniversity  string             `json:"whyThisUniversity,omitempty"`
	EssayRequirementID *int64             `json:"essayRequirementId,omitempty"`
	PaymentReceipt     *FileRef           `json:"paymentReceipt,omitempty"`
}

// UploadedLabels returns the requirement labels that have a local upload.
func (d DraftApplication) UploadedLabels() []string {
	labels := make([]string, 0, len(d.Attachments))
	for label := range d.Attachments {
		labels = append(labels, label)
	}
	return labels
}
