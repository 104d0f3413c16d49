package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

// Email addresses one inactivity notice.
type Email struct {
	To          string
	ContactName string
	UserName    string
}

// Sender delivers one email. A nil error means the provider accepted it.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// validator is implemented by senders that need credentials.
type validator interface {
	Validate() error
}

// ResendConfig configures ResendSender.
type ResendConfig struct {
	BaseURL    string
	APIKey     string
	From       string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
}

// ResendSender sends email through the Resend HTTP API.
type ResendSender struct {
	client *resty.Client
	apiKey string
	from   string
	logger *slog.Logger
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// NewResendSender creates a sender. Missing credentials are reported by
// Validate, not here, so the job can fail with a ConfigurationError.
func NewResendSender(cfg ResendConfig, logger *slog.Logger) *ResendSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.resend.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(5*cfg.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ResendSender{
		client: client,
		apiKey: cfg.APIKey,
		from:   cfg.From,
		logger: logger,
	}
}

// Validate reports missing credentials.
func (s *ResendSender) Validate() error {
	if strings.TrimSpace(s.apiKey) == "" {
		return &ConfigurationError{Reason: "RESEND_API_KEY is required"}
	}
	if strings.TrimSpace(s.from) == "" {
		return &ConfigurationError{Reason: "EMAIL_FROM is required"}
	}
	return nil
}

// Send renders the inactivity notice and posts it to /emails.
func (s *ResendSender) Send(ctx context.Context, e Email) error {
	msg, err := RenderInactivityEmail(e)
	if err != nil {
		return err
	}

	var out resendResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.apiKey).
		SetBody(resendRequest{
			From:    s.from,
			To:      []string{e.To},
			Subject: msg.Subject,
			HTML:    msg.HTML,
			Text:    msg.Text,
		}).
		SetResult(&out).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("post email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("resend returned status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	s.logger.Debug("email accepted", "to", e.To, "resend_id", out.ID)
	return nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
