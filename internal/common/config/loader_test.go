package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_DefaultsAndExpansion(t *testing.T) {
	t.Setenv("TEST_BACKEND_URL", "https://api.gradabroad.test")

	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
backend:
  base_url: ${TEST_BACKEND_URL}
documents:
  cache_ttl: 120
workers:
  upload-essays:
    enabled: false
  fetch-document-status:
    enabled: true
    max_retries: 3
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.gradabroad.test", cfg.Backend.BaseURL)
	assert.Equal(t, 30000, cfg.Backend.Timeout)
	assert.Equal(t, "substring", cfg.Matching.Strategy)
	assert.Equal(t, 120, int(cfg.Documents.TTL().Seconds()))
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Database.Postgres.Enabled())
	assert.False(t, cfg.Storage.Enabled())

	assert.False(t, IsWorkerEnabled(cfg, "upload-essays"))
	assert.True(t, IsWorkerEnabled(cfg, "finalize-application"))

	fetch := GetWorkerConfig(cfg, "fetch-document-status")
	assert.Equal(t, 5, fetch.MaxJobsActive)
	assert.Equal(t, 3, fetch.MaxRetries)
	assert.Equal(t, 0, GetWorkerConfig(cfg, "submit-application").MaxRetries)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://override:8000")

	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
backend:
  base_url: http://from-file:8000
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override:8000", cfg.Backend.BaseURL)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "backend:\n  base_url: http://x\n",
			wantErr: "camunda.broker_address",
		},
		{
			name:    "missing backend",
			body:    "camunda:\n  broker_address: b:1\n",
			wantErr: "backend.base_url",
		},
		{
			name:    "bad strategy",
			body:    "camunda:\n  broker_address: b:1\nbackend:\n  base_url: http://x\nmatching:\n  strategy: fuzzy\n",
			wantErr: "matching.strategy",
		},
		{
			name:    "storage without bucket",
			body:    "camunda:\n  broker_address: b:1\nbackend:\n  base_url: http://x\nstorage:\n  endpoint: minio:9000\n",
			wantErr: "storage.bucket",
		},
		{
			name:    "postgres without database",
			body:    "camunda:\n  broker_address: b:1\nbackend:\n  base_url: http://x\ndatabase:\n  postgres:\n    host: db\n    user: u\n",
			wantErr: "database.postgres.database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "apps", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=apps sslmode=disable", p.GetDSN())
}
