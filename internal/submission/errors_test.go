package submission

import (
	"errors"
	"testing"

	apperrors "gradabroad-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
)

func TestStepError_MatchesSentinelAndCause(t *testing.T) {
	cause := errors.New("503 service unavailable")
	err := stepError(StepFinalize, "", cause)

	assert.ErrorIs(t, err, ErrFinalize)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrDraftCreation)
}

func TestToStandardError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.ErrorCode
	}{
		{"draft", stepError(StepCreateDraft, "", errors.New("x")), apperrors.ErrCodeDraftCreationFailed},
		{"attachment", stepError(StepUploadAttachments, "Passport", errors.New("x")), apperrors.ErrCodeAttachmentUploadFailed},
		{"unreadable file", stepError(StepUploadAttachments, "Passport", ErrFileUnavailable), apperrors.ErrCodeStorageReadFailed},
		{"essay", stepError(StepUploadEssays, "", errors.New("x")), apperrors.ErrCodeEssayUploadFailed},
		{"finalize", stepError(StepFinalize, "", errors.New("x")), apperrors.ErrCodeFinalizeFailed},
		{"not a step", errors.New("boom"), apperrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToStandardError(tt.err).Code)
		})
	}
	assert.Nil(t, ToStandardError(nil))
}

func TestFailedAt_AttachesLastGoodState(t *testing.T) {
	stdErr := FailedAt(stepError(StepFinalize, "", errors.New("x")), EssaysUploaded(501))
	assert.Equal(t, "ESSAYS_UPLOADED", stdErr.Metadata["submissionStage"])
	assert.Equal(t, int64(501), stdErr.Metadata["applicationId"])

	vars := apperrors.ConvertToBPMNError(stdErr).ToErrorVariables()
	assert.Equal(t, "ESSAYS_UPLOADED", vars["submissionStage"])

	stdErr = FailedAt(stepError(StepCreateDraft, "", errors.New("x")), State{})
	assert.Equal(t, "DRAFT_NOT_CREATED", stdErr.Metadata["submissionStage"])
	_, hasID := stdErr.Metadata["applicationId"]
	assert.False(t, hasID)

	assert.Nil(t, FailedAt(nil, NotStarted()))
}
