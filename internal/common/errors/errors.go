// Package errors maps worker failures onto BPMN errors and job retries.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode is an internal error code. It doubles as the BPMN error code
// thrown to the engine.
type ErrorCode string

const (
	// Preconditions
	ErrCodeTokenMissing      ErrorCode = "TOKEN_MISSING"
	ErrCodeTokenExpired      ErrorCode = "TOKEN_EXPIRED"
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeProgrammeNotFound ErrorCode = "PROGRAMME_NOT_FOUND"

	// Documents / readiness
	ErrCodeDocumentsUnavailable ErrorCode = "DOCUMENTS_UNAVAILABLE"
	ErrCodeProgrammeFetchFailed ErrorCode = "PROGRAMME_FETCH_FAILED"

	// Submission steps
	ErrCodeDraftCreationFailed    ErrorCode = "DRAFT_CREATION_FAILED"
	ErrCodeAttachmentUploadFailed ErrorCode = "ATTACHMENT_UPLOAD_FAILED"
	ErrCodeEssayUploadFailed      ErrorCode = "ESSAY_UPLOAD_FAILED"
	ErrCodeFinalizeFailed         ErrorCode = "FINALIZE_FAILED"
	ErrCodeSubmissionBlocked      ErrorCode = "SUBMISSION_BLOCKED"
	ErrCodeSubmissionInProgress   ErrorCode = "SUBMISSION_IN_PROGRESS"

	// Infrastructure
	ErrCodeStorageReadFailed      ErrorCode = "STORAGE_READ_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError is a structured worker error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata sets a metadata entry and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError is thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the variables attached to a thrown or failed job.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewTokenMissingError() *StandardError {
	return newError(ErrCodeTokenMissing, "Student access token is missing", nil, false)
}

func NewTokenExpiredError(cause error) *StandardError {
	return newError(ErrCodeTokenExpired, "Student access token has expired", cause, false)
}

func NewInvalidInputError(details string) *StandardError {
	e := newError(ErrCodeInvalidInput, "Job variables failed validation", nil, false)
	e.Details = details
	return e
}

func NewProgrammeNotFoundError(programmeID int64) *StandardError {
	e := newError(ErrCodeProgrammeNotFound, "Programme not found", nil, false)
	e.Details = fmt.Sprintf("programmeId: %d", programmeID)
	return e
}

// NewProgrammeFetchFailedError is retryable: the programme endpoint is a
// plain read.
func NewProgrammeFetchFailedError(cause error) *StandardError {
	return newError(ErrCodeProgrammeFetchFailed, "Could not load programme requirements", cause, true)
}

// NewDocumentsUnavailableError is retryable: every category failed and the
// engine may try the read again.
func NewDocumentsUnavailableError(cause error) *StandardError {
	return newError(ErrCodeDocumentsUnavailable, "Document status unavailable", cause, true)
}

// Submission step failures are never retried by the engine. The process
// resumes from the last completed stage when the student retries.

func NewDraftCreationFailedError(cause error) *StandardError {
	return newError(ErrCodeDraftCreationFailed, "Draft application could not be created", cause, false)
}

func NewAttachmentUploadFailedError(label string, cause error) *StandardError {
	e := newError(ErrCodeAttachmentUploadFailed, fmt.Sprintf("Attachment %q could not be uploaded", label), cause, false)
	return e.WithMetadata("label", label)
}

func NewEssayUploadFailedError(cause error) *StandardError {
	return newError(ErrCodeEssayUploadFailed, "Essay could not be uploaded", cause, false)
}

func NewFinalizeFailedError(cause error) *StandardError {
	return newError(ErrCodeFinalizeFailed, "Application could not be submitted", cause, false)
}

func NewSubmissionBlockedError(missing []int64) *StandardError {
	e := newError(ErrCodeSubmissionBlocked, "Required items are missing", nil, false)
	e.Details = fmt.Sprintf("missingRequired: %v", missing)
	return e.WithMetadata("missingRequired", missing)
}

func NewSubmissionInProgressError(key string) *StandardError {
	e := newError(ErrCodeSubmissionInProgress, "A submission for this programme is already running", nil, false)
	e.Details = key
	return e
}

func NewStorageReadFailedError(key string, cause error) *StandardError {
	e := newError(ErrCodeStorageReadFailed, "Staged file could not be read", cause, true)
	return e.WithMetadata("objectKey", key)
}

func NewNotificationSendFailedError(channel string, cause error) *StandardError {
	e := newError(ErrCodeNotificationSendFailed, "Notification delivery failed", cause, true)
	e.Details = fmt.Sprintf("type: %s, error: %v", channel, cause)
	return e
}

func NewInternalError(cause error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", cause, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns how many engine retries a code is worth.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDocumentsUnavailable,
		ErrCodeProgrammeFetchFailed,
		ErrCodeNotificationSendFailed:
		return 3
	case ErrCodeStorageReadFailed:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for the engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// AsStandardError finds a StandardError in err's chain or wraps err as an
// internal error.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logs and dashboards.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "TOKEN"):
		return "AUTH"
	case strings.Contains(codeStr, "DOCUMENTS") || strings.Contains(codeStr, "PROGRAMME"):
		return "READINESS"
	case strings.Contains(codeStr, "SUBMISSION") || strings.Contains(codeStr, "DRAFT") ||
		strings.Contains(codeStr, "UPLOAD") || strings.Contains(codeStr, "FINALIZE"):
		return "SUBMISSION"
	case strings.Contains(codeStr, "STORAGE"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
