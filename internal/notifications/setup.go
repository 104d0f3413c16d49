package notifications

import (
	"log/slog"

	"github.com/albapepper/safecheck/internal/config"
	"github.com/albapepper/safecheck/internal/store"
)

// NewFromConfig builds a Runner that emails through Resend with the job
// settings from cfg.
func NewFromConfig(s store.Store, cfg *config.Config, logger *slog.Logger) *Runner {
	sender := NewResendSender(ResendConfig{
		BaseURL:    cfg.ResendBaseURL,
		APIKey:     cfg.ResendAPIKey,
		From:       cfg.EmailFrom,
		Timeout:    cfg.SendTimeout,
		RetryCount: 2,
	}, logger)

	return NewRunner(s, sender, RunnerConfig{
		DispatchWorkers: cfg.DispatchWorkers,
		ScanWorkers:     cfg.ScanWorkers,
		SendRatePerSec:  cfg.SendRatePerSec,
		SendTimeout:     cfg.SendTimeout,
		Timeout:         cfg.JobTimeout,
	}, logger)
}
