package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gradabroad-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test helpers
// ==========================

func backend(t *testing.T, programme string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer opaque-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/api/programmes/") {
			_, _ = w.Write([]byte(programme))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ==========================
// check
// ==========================

func TestCheck_NotReady(t *testing.T) {
	srv := backend(t, `{"id":42,"name":"MSc Data Science","requirements":[
		{"id":1,"requirementType":"passport","label":"Passport"}
	]}`)

	var out bytes.Buffer
	err := run([]string{"check", "-base-url", srv.URL, "-programme", "42", "-token", "opaque-token"}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Programme 42: MSc Data Science")
	assert.Contains(t, out.String(), "Passport")
	assert.Contains(t, out.String(), "Not ready: 1 required item(s) missing [1]")
}

func TestCheck_JSONReady(t *testing.T) {
	srv := backend(t, `{"id":7,"name":"BSc Physics","requirements":[]}`)

	var out bytes.Buffer
	err := run([]string{"check", "-base-url", srv.URL, "-programme", "7", "-token", "opaque-token", "-json"}, &out)
	require.NoError(t, err)

	var r models.Readiness
	require.NoError(t, json.Unmarshal(out.Bytes(), &r))
	assert.True(t, r.ReadyToSubmit)
	assert.Empty(t, r.MissingRequired)
}

func TestCheck_TokenFromEnv(t *testing.T) {
	srv := backend(t, `{"id":7,"name":"BSc Physics","requirements":[]}`)
	t.Setenv(tokenEnv, "opaque-token")

	var out bytes.Buffer
	require.NoError(t, run([]string{"check", "-base-url", srv.URL, "-programme", "7"}, &out))
	assert.Contains(t, out.String(), "Ready to submit.")
}

func TestCheck_FlagErrors(t *testing.T) {
	t.Setenv(tokenEnv, "")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing programme", []string{"check", "-token", "opaque-token"}, "-programme is required"},
		{"missing token", []string{"check", "-programme", "1"}, "token"},
		{"bad strategy", []string{"check", "-programme", "1", "-token", "opaque-token", "-strategy", "fuzzy"}, "unknown matching strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, strings.ToLower(err.Error()), strings.ToLower(tt.wantErr))
		})
	}
}

// ==========================
// validate / dispatch
// ==========================

func TestValidate_BuiltinRegistry(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"validate"}, &out))

	assert.Contains(t, out.String(), "Registry validation passed")
	for _, tt := range []string{"compute-readiness", "submit-application", "send-notification"} {
		assert.Contains(t, out.String(), tt)
	}
}

func TestValidate_MissingFile(t *testing.T) {
	err := run([]string{"validate", "-path", t.TempDir() + "/missing.json"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load registry")
}

func TestRun_Dispatch(t *testing.T) {
	var out bytes.Buffer
	assert.NoError(t, run([]string{"help"}, &out))
	assert.Contains(t, out.String(), "Usage: readiness-check")

	assert.Error(t, run(nil, &bytes.Buffer{}))
	assert.Error(t, run([]string{"frobnicate"}, &bytes.Buffer{}))
}
