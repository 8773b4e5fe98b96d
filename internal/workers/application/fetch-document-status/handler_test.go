package fetchdocumentstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"gradabroad-workers/internal/common/auth"
	"gradabroad-workers/internal/common/camunda"
	"gradabroad-workers/internal/common/config"
	apperrors "gradabroad-workers/internal/common/errors"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/common/validation"
	"gradabroad-workers/internal/documents"
	"gradabroad-workers/internal/models"
	"gradabroad-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, token string) (*documents.Result, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documents.Result), args.Error(1)
}

func (m *MockFetcher) Invalidate(ctx context.Context, token string) {
	m.Called(ctx, token)
}

// ==========================
// Test Helpers
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func newTestHandler(t *testing.T, cfg *Config, fetcher DocumentFetcher) *Handler {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	v, err := validation.NewInputValidator(reg)
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	if cfg == nil {
		cfg = &Config{Enabled: true, MaxJobsActive: 5, Timeout: 30 * time.Second}
	}
	return NewHandler(cfg, camunda.NewRunner(TaskType, v, nil, log), fetcher, auth.NewTokenChecker(0), log)
}

func sampleStatus() *models.DocumentStatus {
	return &models.DocumentStatus{
		Personal:     models.DocumentList{{ID: 1, DocType: "passport"}},
		Education:    models.DocumentList{},
		Certificates: models.DocumentList{},
		Financial:    models.DocumentList{},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, "tok").
		Return(&documents.Result{Status: sampleStatus(), FailedCategories: []string{"financial"}}, nil)

	h := newTestHandler(t, nil, fetcher)
	out, err := h.Execute(context.Background(), &Input{AccessToken: "Bearer tok"})

	require.NoError(t, err)
	assert.True(t, out.DocumentsAvailable)
	assert.Equal(t, sampleStatus(), out.DocumentStatus)
	assert.Equal(t, []string{"financial"}, out.FailedCategories)
	fetcher.AssertExpectations(t)
	fetcher.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestHandler_Execute_RefreshInvalidatesFirst(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Invalidate", mock.Anything, "tok").Return().Once()
	fetcher.On("Fetch", mock.Anything, "tok").Return(&documents.Result{Status: sampleStatus()}, nil).Once()

	_, err := newTestHandler(t, nil, fetcher).Execute(context.Background(), &Input{AccessToken: "tok", Refresh: true})
	require.NoError(t, err)
	fetcher.AssertExpectations(t)
}

func TestHandler_Execute_UnavailableCompletesWithNullStatus(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, "tok").
		Return(nil, fmt.Errorf("%w: network down", documents.ErrDocumentsUnavailable))

	out, err := newTestHandler(t, nil, fetcher).Execute(context.Background(), &Input{AccessToken: "tok"})
	require.NoError(t, err)
	assert.Nil(t, out.DocumentStatus)
	assert.False(t, out.DocumentsAvailable)
}

func TestHandler_Execute_UnavailableFailsWhenConfigured(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, "tok").Return(nil, documents.ErrDocumentsUnavailable)

	cfg := &Config{Timeout: time.Second, FailWhenUnavailable: true}
	_, err := newTestHandler(t, cfg, fetcher).Execute(context.Background(), &Input{AccessToken: "tok"})

	require.Error(t, err)
	stdErr := apperrors.AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeDocumentsUnavailable, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_Execute_MissingToken(t *testing.T) {
	fetcher := new(MockFetcher)

	_, err := newTestHandler(t, nil, fetcher).Execute(context.Background(), &Input{AccessToken: "Bearer "})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenMissing, apperrors.AsStandardError(err).Code)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, nil, new(MockFetcher))

	input, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"accessToken": "tok",
		"refresh":     true,
	}))
	require.NoError(t, err)
	assert.Equal(t, "tok", input.AccessToken)
	assert.True(t, input.Refresh)

	_, err = h.parseInput(createMockJob(2, map[string]interface{}{"accessToken": ""}))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.AsStandardError(err).Code)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig(&config.Config{})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.False(t, cfg.FailWhenUnavailable)

	cfg = LoadConfig(&config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: true, MaxJobsActive: 2, Timeout: 5000, MaxRetries: 3},
	}})
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.FailWhenUnavailable)
}
