// internal/workers/application/send-notification/models.go
package sendnotification

type Input struct {
	ApplicationID   int64  `json:"applicationId"`
	ProgrammeName   string `json:"programmeName,omitempty"`
	SubmissionStage string `json:"submissionStage"`
	StudentName     string `json:"studentName,omitempty"`
	StudentEmail    string `json:"studentEmail,omitempty"`
	StudentPhone    string `json:"studentPhone,omitempty"`
	// ErrorCode is set when the submission stopped at a failed step.
	ErrorCode string `json:"errorCode,omitempty"`
}

type Output struct {
	NotificationID   string `json:"notificationId"`
	NotificationType string `json:"notificationType"`
	Status           string `json:"status"` // "sent" or "disabled"
	SMSSent          bool   `json:"smsSent"`
	SentAt           string `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeApplicationSubmitted = "application_submitted"
	TypeSubmissionFailed     = "submission_failed"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)
