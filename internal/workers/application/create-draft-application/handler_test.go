package createdraftapplication

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gradabroad-workers/internal/common/auth"
	"gradabroad-workers/internal/common/camunda"
	apperrors "gradabroad-workers/internal/common/errors"
	apphttp "gradabroad-workers/internal/common/http"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/common/validation"
	"gradabroad-workers/internal/models"
	"gradabroad-workers/internal/submission"
	"gradabroad-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

// backend answers POST /api/applications/ with id, or with status when it
// is not 2xx.
func backend(t *testing.T, status int, id int64) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()
	var bodies []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/applications/", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)

		w.WriteHeader(status)
		if status < 300 {
			_ = json.NewEncoder(w).Encode(map[string]int64{"id": id})
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &bodies
}

func newTestHandler(t *testing.T, baseURL string) *Handler {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	v, err := validation.NewInputValidator(reg)
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	orch := submission.NewOrchestrator(apphttp.NewClient(baseURL, 5*time.Second), log)
	cfg := &Config{Enabled: true, MaxJobsActive: 5, Timeout: 30 * time.Second}
	return NewHandler(cfg, camunda.NewRunner(TaskType, v, nil, log), orch, auth.NewTokenChecker(0), log)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_CreatesDraft(t *testing.T) {
	srv, bodies := backend(t, http.StatusCreated, 501)

	out, err := newTestHandler(t, srv.URL).Execute(context.Background(), &Input{
		AccessToken: "Bearer tok",
		ProgrammeID: 42,
		StudentID:   "stu-1",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(501), out.ApplicationID)
	assert.Equal(t, models.StageDraftCreated, out.SubmissionStage)
	require.Len(t, *bodies, 1)
	assert.Equal(t, float64(42), (*bodies)[0]["programme_id"])
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_BackendRejects(t *testing.T) {
	srv, _ := backend(t, http.StatusBadRequest, 0)

	_, err := newTestHandler(t, srv.URL).Execute(context.Background(), &Input{AccessToken: "tok", ProgrammeID: 42})

	require.Error(t, err)
	stdErr := apperrors.AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeDraftCreationFailed, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.Equal(t, "DRAFT_NOT_CREATED", stdErr.Metadata["submissionStage"])
}

func TestHandler_Execute_MissingIDInResponse(t *testing.T) {
	srv, _ := backend(t, http.StatusCreated, 0)

	_, err := newTestHandler(t, srv.URL).Execute(context.Background(), &Input{AccessToken: "tok", ProgrammeID: 42})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDraftCreationFailed, apperrors.AsStandardError(err).Code)
}

func TestHandler_Execute_MissingToken(t *testing.T) {
	srv, bodies := backend(t, http.StatusCreated, 501)

	_, err := newTestHandler(t, srv.URL).Execute(context.Background(), &Input{ProgrammeID: 42})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenMissing, apperrors.AsStandardError(err).Code)
	assert.Empty(t, *bodies)
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, "http://unused")

	job := func(vars map[string]interface{}) entities.Job {
		raw, _ := json.Marshal(vars)
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Type: TaskType, Variables: string(raw)}}
	}

	input, err := h.parseInput(job(map[string]interface{}{"accessToken": "tok", "programmeId": 42, "studentId": "stu-1"}))
	require.NoError(t, err)
	assert.Equal(t, int64(42), input.ProgrammeID)
	assert.Equal(t, "stu-1", input.StudentID)

	_, err = h.parseInput(job(map[string]interface{}{"accessToken": "tok"}))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.AsStandardError(err).Code)
}
