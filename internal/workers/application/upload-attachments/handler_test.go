package uploadattachments

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"gradabroad-workers/internal/common/auth"
	"gradabroad-workers/internal/common/camunda"
	apperrors "gradabroad-workers/internal/common/errors"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/common/storage"
	"gradabroad-workers/internal/common/storage/mocks"
	"gradabroad-workers/internal/common/validation"
	"gradabroad-workers/internal/models"
	"gradabroad-workers/internal/submission"
	"gradabroad-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockAdvancer struct {
	mock.Mock
}

func (m *MockAdvancer) AdvanceTo(ctx context.Context, token string, state submission.State, draft submission.Draft, target models.SubmissionStage) (submission.State, error) {
	args := m.Called(ctx, token, state, draft, target)
	return args.Get(0).(submission.State), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func newTestHandler(t *testing.T, adv Advancer, store storage.Store) *Handler {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	v, err := validation.NewInputValidator(reg)
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	cfg := &Config{Enabled: true, MaxJobsActive: 5, Timeout: 2 * time.Minute}
	return NewHandler(cfg, camunda.NewRunner(TaskType, v, nil, log), adv, store, auth.NewTokenChecker(0), log)
}

func sampleInput() *Input {
	return &Input{
		AccessToken:   "tok",
		ApplicationID: 501,
		StudentID:     "stu-1",
		ProgrammeID:   42,
		Attachments: map[string]models.FileRef{
			"Passport":       {Key: "staged/passport.pdf"},
			"Bank Statement": {Key: "staged/bank.pdf"},
		},
		PaymentReceipt: &models.FileRef{Key: "staged/receipt.png"},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_UploadsFromStore(t *testing.T) {
	store := new(mocks.MockStore)
	store.On("Get", mock.Anything, "staged/bank.pdf").
		Return(io.NopCloser(strings.NewReader("B")), storage.ObjectInfo{}, nil)

	adv := new(MockAdvancer)
	adv.On("AdvanceTo", mock.Anything, "tok", submission.DraftCreated(501),
		mock.MatchedBy(func(d submission.Draft) bool {
			if d.StudentID != "stu-1" || d.ProgrammeID != 42 || len(d.Attachments) != 2 || d.PaymentReceipt == nil {
				return false
			}
			// Files are opened lazily by the orchestrator.
			rc, err := d.Attachments[0].Open(context.Background())
			if err != nil {
				return false
			}
			defer rc.Close()
			b, _ := io.ReadAll(rc)
			return string(b) == "B"
		}),
		models.StageAttachmentsUploaded,
	).Return(submission.AttachmentsUploaded(501), nil)

	out, err := newTestHandler(t, adv, store).Execute(context.Background(), sampleInput())

	require.NoError(t, err)
	assert.Equal(t, models.StageAttachmentsUploaded, out.SubmissionStage)
	assert.Equal(t, []string{"Bank Statement", "Passport", models.PaymentReceiptFileType}, out.UploadedLabels)
	adv.AssertExpectations(t)
}

func TestHandler_Execute_NothingToUpload(t *testing.T) {
	adv := new(MockAdvancer)
	adv.On("AdvanceTo", mock.Anything, "tok", submission.DraftCreated(9), mock.Anything, models.StageAttachmentsUploaded).
		Return(submission.AttachmentsUploaded(9), nil)

	out, err := newTestHandler(t, adv, nil).Execute(context.Background(), &Input{AccessToken: "tok", ApplicationID: 9})
	require.NoError(t, err)
	assert.Empty(t, out.UploadedLabels)
	assert.NotNil(t, out.UploadedLabels)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  apperrors.ErrorCode
		retryable bool
	}{
		{
			name:     "backend rejects a file",
			err:      &submission.StepError{Step: submission.StepUploadAttachments, Label: "Passport", Err: errors.New("413")},
			wantCode: apperrors.ErrCodeAttachmentUploadFailed,
		},
		{
			name:      "staged file unreadable",
			err:       &submission.StepError{Step: submission.StepUploadAttachments, Label: "Passport", Err: submission.ErrFileUnavailable},
			wantCode:  apperrors.ErrCodeStorageReadFailed,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adv := new(MockAdvancer)
			adv.On("AdvanceTo", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(submission.DraftCreated(501), tt.err)

			_, err := newTestHandler(t, adv, new(mocks.MockStore)).Execute(context.Background(), sampleInput())

			require.Error(t, err)
			stdErr := apperrors.AsStandardError(err)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
			assert.Equal(t, "DRAFT_CREATED", stdErr.Metadata["submissionStage"])
			assert.Equal(t, int64(501), stdErr.Metadata["applicationId"])
		})
	}
}

func TestHandler_Execute_MissingToken(t *testing.T) {
	adv := new(MockAdvancer)
	input := sampleInput()
	input.AccessToken = ""

	_, err := newTestHandler(t, adv, nil).Execute(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenMissing, apperrors.AsStandardError(err).Code)
	adv.AssertNotCalled(t, "AdvanceTo", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
