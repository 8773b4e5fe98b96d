// internal/workers/application/fetch-document-status/config.go
package fetchdocumentstatus

import (
	"time"

	"gradabroad-workers/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	// FailWhenUnavailable throws DOCUMENTS_UNAVAILABLE instead of completing
	// with a null document status when every category failed.
	FailWhenUnavailable bool
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Enabled:             wc.Enabled,
		MaxJobsActive:       wc.MaxJobsActive,
		Timeout:             config.GetDuration(wc.Timeout),
		FailWhenUnavailable: wc.MaxRetries > 0,
	}
}
