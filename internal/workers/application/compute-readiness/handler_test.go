package computereadiness

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gradabroad-workers/internal/common/auth"
	"gradabroad-workers/internal/common/camunda"
	apperrors "gradabroad-workers/internal/common/errors"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/common/observability"
	"gradabroad-workers/internal/common/validation"
	"gradabroad-workers/internal/documents"
	"gradabroad-workers/internal/models"
	"gradabroad-workers/internal/readiness"
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

type MockProgrammes struct {
	mock.Mock
}

func (m *MockProgrammes) Load(ctx context.Context, token string, programmeID int64) (*models.Programme, error) {
	args := m.Called(ctx, token, programmeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Programme), args.Error(1)
}

type MockDocuments struct {
	mock.Mock
}

func (m *MockDocuments) FetchDocumentStatus(ctx context.Context, token string) (*models.DocumentStatus, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DocumentStatus), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func programme() *models.Programme {
	return &models.Programme{
		ID:   42,
		Name: "MSc Data Science",
		Requirements: models.RequirementList{
			{ID: 1, RequirementType: models.RequirementTypeDocument, Label: "Passport"},
			{ID: 2, RequirementType: models.RequirementTypeDocument, Label: "Bank Statement"},
			{ID: 3, RequirementType: models.RequirementTypeEssay, Label: "Motivation", Note: "Max 50 characters"},
			{ID: 4, RequirementType: models.RequirementTypeFile, Label: "CV", Required: models.BoolPtr(false)},
		},
	}
}

func docs() *models.DocumentStatus {
	return &models.DocumentStatus{
		Personal:     models.DocumentList{{ID: 10, DocType: "passport"}},
		Education:    models.DocumentList{},
		Certificates: models.DocumentList{},
		Financial:    models.DocumentList{{ID: 11, Name: "Bank statement 2026"}},
	}
}

func newTestHandler(t *testing.T, programmes ProgrammeSource, docSource DocumentSource) *Handler {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	v, err := validation.NewInputValidator(reg)
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	cfg := &Config{Enabled: true, MaxJobsActive: 5, Timeout: 30 * time.Second}
	runner := camunda.NewRunner(TaskType, v, nil, log)
	return NewHandler(cfg, runner, programmes, docSource, nil, observability.NewNoop(), log)
}

func createMockJob(variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       1,
		Type:      TaskType,
		Retries:   3,
		Variables: string(variablesJSON),
	}}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_FetchesProgrammeAndDocuments(t *testing.T) {
	programmes := new(MockProgrammes)
	programmes.On("Load", mock.Anything, "tok", int64(42)).Return(programme(), nil)
	docSource := new(MockDocuments)
	docSource.On("FetchDocumentStatus", mock.Anything, "tok").Return(docs(), nil)

	out, err := newTestHandler(t, programmes, docSource).Execute(context.Background(), &Input{
		AccessToken:  "tok",
		ProgrammeID:  42,
		EssayAnswers: map[int64]string{3: "I love data."},
	})

	require.NoError(t, err)
	assert.True(t, out.ReadyToSubmit)
	assert.Empty(t, out.MissingRequired)
	assert.Equal(t, "MSc Data Science", out.ProgrammeName)
	require.Len(t, out.Readiness.Requirements, 4)
	assert.Equal(t, models.StatusSatisfied, out.Readiness.Requirements[0].Status)
	assert.Equal(t, models.StatusMissing, out.Readiness.Requirements[3].Status, "optional CV is missing but not blocking")
	programmes.AssertExpectations(t)
	docSource.AssertExpectations(t)
}

func TestHandler_Execute_UsesSuppliedProgrammeAndDocuments(t *testing.T) {
	programmes := new(MockProgrammes)
	docSource := new(MockDocuments)

	out, err := newTestHandler(t, programmes, docSource).Execute(context.Background(), &Input{
		ProgrammeID:    42,
		Programme:      programme(),
		DocumentStatus: &models.DocumentStatus{},
		UploadedLabels: []string{"Passport"},
	})

	require.NoError(t, err)
	assert.False(t, out.ReadyToSubmit)
	assert.Equal(t, []int64{2, 3}, out.MissingRequired)
	programmes.AssertNotCalled(t, "Load", mock.Anything, mock.Anything, mock.Anything)
	docSource.AssertNotCalled(t, "FetchDocumentStatus", mock.Anything, mock.Anything)
}

func TestHandler_Execute_DocumentsUnavailable(t *testing.T) {
	unavailable := false

	tests := []struct {
		name  string
		input *Input
		setup func(*MockDocuments)
	}{
		{
			name:  "flagged unavailable by an earlier task",
			input: &Input{ProgrammeID: 42, Programme: programme(), DocumentsAvailable: &unavailable},
			setup: func(*MockDocuments) {},
		},
		{
			name:  "every category failed",
			input: &Input{AccessToken: "tok", ProgrammeID: 42, Programme: programme()},
			setup: func(m *MockDocuments) {
				m.On("FetchDocumentStatus", mock.Anything, "tok").Return(nil, documents.ErrDocumentsUnavailable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docSource := new(MockDocuments)
			tt.setup(docSource)

			out, err := newTestHandler(t, new(MockProgrammes), docSource).Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.False(t, out.ReadyToSubmit)
			assert.Equal(t, []int64{1, 2, 3}, out.MissingRequired)
			assert.Equal(t, "Document status is unavailable", out.Readiness.Requirements[0].Reason)
			docSource.AssertExpectations(t)
		})
	}
}

func TestHandler_Execute_ZeroRequirements(t *testing.T) {
	out, err := newTestHandler(t, new(MockProgrammes), new(MockDocuments)).Execute(context.Background(), &Input{
		ProgrammeID:    7,
		Programme:      &models.Programme{Requirements: models.RequirementList{}},
		DocumentStatus: docs(),
	})
	require.NoError(t, err)
	assert.True(t, out.ReadyToSubmit)
	assert.Equal(t, int64(7), out.Readiness.ProgrammeID)
	assert.Empty(t, out.Readiness.Requirements)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		setup    func(*MockProgrammes, *MockDocuments)
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "programme fetch without token",
			input:    &Input{ProgrammeID: 42},
			setup:    func(*MockProgrammes, *MockDocuments) {},
			wantCode: apperrors.ErrCodeTokenMissing,
		},
		{
			name:  "programme not found",
			input: &Input{AccessToken: "tok", ProgrammeID: 99},
			setup: func(p *MockProgrammes, _ *MockDocuments) {
				p.On("Load", mock.Anything, "tok", int64(99)).Return(nil, readiness.ErrProgrammeNotFound)
			},
			wantCode: apperrors.ErrCodeProgrammeNotFound,
		},
		{
			name:  "programme endpoint failing",
			input: &Input{AccessToken: "tok", ProgrammeID: 42},
			setup: func(p *MockProgrammes, _ *MockDocuments) {
				p.On("Load", mock.Anything, "tok", int64(42)).Return(nil, errors.New("502 bad gateway"))
			},
			wantCode: apperrors.ErrCodeProgrammeFetchFailed,
		},
		{
			name:     "document fetch without token",
			input:    &Input{ProgrammeID: 42, Programme: programme()},
			setup:    func(*MockProgrammes, *MockDocuments) {},
			wantCode: apperrors.ErrCodeTokenMissing,
		},
		{
			name:  "token rejected by accessor",
			input: &Input{AccessToken: "tok", ProgrammeID: 42, Programme: programme()},
			setup: func(_ *MockProgrammes, d *MockDocuments) {
				d.On("FetchDocumentStatus", mock.Anything, "tok").Return(nil, auth.ErrTokenMissing)
			},
			wantCode: apperrors.ErrCodeTokenMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			programmes, docSource := new(MockProgrammes), new(MockDocuments)
			tt.setup(programmes, docSource)

			_, err := newTestHandler(t, programmes, docSource).Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.AsStandardError(err).Code)
		})
	}
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, new(MockProgrammes), new(MockDocuments))

	input, err := h.parseInput(createMockJob(map[string]interface{}{
		"accessToken":        "tok",
		"programmeId":        42,
		"documentStatus":     nil,
		"documentsAvailable": false,
		"essayAnswers":       map[string]string{"3": "answer"},
		"uploadedLabels":     []string{"Passport"},
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(42), input.ProgrammeID)
	assert.Nil(t, input.DocumentStatus)
	require.NotNil(t, input.DocumentsAvailable)
	assert.False(t, *input.DocumentsAvailable)
	assert.Equal(t, "answer", input.EssayAnswers[3])

	_, err = h.parseInput(createMockJob(map[string]interface{}{"programmeId": 0}))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.AsStandardError(err).Code)
}
