// internal/workers/application/submit-application/config.go
package submitapplication

import (
	"time"

	"gradabroad-workers/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	// ResumeFromAudit looks up the last completed stage in the audit log
	// when the process variables carry none.
	ResumeFromAudit bool
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Enabled:         wc.Enabled,
		MaxJobsActive:   wc.MaxJobsActive,
		Timeout:         config.GetDuration(wc.Timeout),
		ResumeFromAudit: cfg.Database.Postgres.Enabled(),
	}
}
