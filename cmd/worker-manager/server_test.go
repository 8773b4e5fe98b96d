package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubZeebe struct{ err error }

func (s stubZeebe) HealthCheck(ctx context.Context) error { return s.err }

func TestHealthMux(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		zeebeErr   error
		wantCode   int
		wantStatus string
	}{
		{"health", "/health", nil, http.StatusOK, "healthy"},
		{"health ignores broker", "/health", errors.New("down"), http.StatusOK, "healthy"},
		{"ready", "/ready", nil, http.StatusOK, "ready"},
		{"not ready", "/ready", errors.New("zeebe health check failed"), http.StatusServiceUnavailable, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHealthMux(stubZeebe{err: tt.zeebeErr}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
		})
	}
}

func TestHealthMux_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealthMux(stubZeebe{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, zap.NewNop(), "op")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryWithBackoff(func() error {
		calls++
		return errors.New("always")
	}, 2, time.Millisecond, zap.NewNop(), "op")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "op failed after 2 attempts")
}
