// internal/submission/errors.go
package submission

import (
	"errors"
	"fmt"

	apperrors "gradabroad-workers/internal/common/errors"
	"gradabroad-workers/internal/models"
)

// Steps of the submission sequence, as recorded in metrics and the audit log.
const (
	StepCreateDraft       = "create_draft"
	StepUploadAttachments = "upload_attachments"
	StepUploadEssays      = "upload_essays"
	StepFinalize          = "finalize"
)

var (
	ErrDraftCreation    = errors.New("draft creation failed")
	ErrAttachmentUpload = errors.New("attachment upload failed")
	ErrEssayUpload      = errors.New("essay upload failed")
	ErrFinalize         = errors.New("finalize failed")

	// ErrFileUnavailable means a staged attachment could not be opened.
	// No upload has been issued when it is returned.
	ErrFileUnavailable = errors.New("attachment file unavailable")

	// ErrSubmissionInProgress is returned by Guard when another submission
	// for the same student and programme holds the lock.
	ErrSubmissionInProgress = errors.New("submission already in progress")
)

var stepSentinels = map[string]error{
	StepCreateDraft:       ErrDraftCreation,
	StepUploadAttachments: ErrAttachmentUpload,
	StepUploadEssays:      ErrEssayUpload,
	StepFinalize:          ErrFinalize,
}

// StepError names the step that failed and, for attachments, the label.
// It matches both the step sentinel and the underlying cause with errors.Is.
type StepError struct {
	Step  string
	Label string
	Err   error
}

func (e *StepError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%s %q: %v", e.Step, e.Label, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() []error {
	errs := []error{e.Err}
	if sentinel, ok := stepSentinels[e.Step]; ok {
		errs = append(errs, sentinel)
	}
	return errs
}

func stepError(step, label string, err error) *StepError {
	return &StepError{Step: step, Label: label, Err: err}
}

// ToStandardError maps submission failures onto worker error codes.
func ToStandardError(err error) *apperrors.StandardError {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSubmissionInProgress) {
		return apperrors.NewSubmissionInProgressError(err.Error())
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		return apperrors.AsStandardError(err)
	}
	if errors.Is(err, ErrFileUnavailable) {
		return apperrors.NewStorageReadFailedError(stepErr.Label, err)
	}
	switch stepErr.Step {
	case StepCreateDraft:
		return apperrors.NewDraftCreationFailedError(err)
	case StepUploadAttachments:
		return apperrors.NewAttachmentUploadFailedError(stepErr.Label, err)
	case StepUploadEssays:
		return apperrors.NewEssayUploadFailedError(err)
	case StepFinalize:
		return apperrors.NewFinalizeFailedError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

// FailedAt is ToStandardError with the last good state attached, so the
// process can resume the submission from the variables of the thrown error.
func FailedAt(err error, state State) *apperrors.StandardError {
	stdErr := ToStandardError(err)
	if stdErr == nil {
		return nil
	}
	stage := state.Stage
	if stage == "" {
		stage = models.StageDraftNotCreated
	}
	stdErr.WithMetadata("submissionStage", string(stage))
	if state.ApplicationID > 0 {
		stdErr.WithMetadata("applicationId", state.ApplicationID)
	}
	return stdErr
}
