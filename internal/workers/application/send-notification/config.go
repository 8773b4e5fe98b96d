// internal/workers/application/send-notification/config.go
package sendnotification

import (
	"time"

	"gradabroad-workers/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	EmailEnabled  bool
	SMSEnabled    bool
	FromEmail     string
	SMSSenderID   string
	AWSRegion     string
	Timeout       time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	n := cfg.Notifications
	return &Config{
		Enabled:       wc.Enabled,
		MaxJobsActive: wc.MaxJobsActive,
		EmailEnabled:  n.Email.Enabled,
		SMSEnabled:    n.SMS.Enabled,
		FromEmail:     n.Email.FromEmail,
		SMSSenderID:   n.SMS.SenderID,
		AWSRegion:     n.AWS.Region,
		Timeout:       config.GetDuration(wc.Timeout),
	}
}
