package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"interpreter-booking/internal/config"
	"interpreter-booking/internal/domain/ports/adapter"
	"interpreter-booking/internal/infra/metrics"
)

// Mailer delivers templated emails through an HTTP mail provider. The
// template is rendered provider-side from its id and data.
type Mailer struct {
	cfg    config.MailConfig
	http   *http.Client
	logger zerolog.Logger
}

var _ adapter.Mailer = (*Mailer)(nil)

func NewMailer(cfg config.MailConfig, logger *zerolog.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		http:   &http.Client{Timeout: 20 * time.Second},
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

func (m *Mailer) Send(ctx context.Context, toEmail, toName, subject, template string, data map[string]interface{}) (err error) {
	defer func() { metrics.IncNotificationSent("email", err) }()

	body, err := json.Marshal(map[string]interface{}{
		"from_email": m.cfg.FromEmail,
		"from_name":  m.cfg.FromName,
		"to_email":   toEmail,
		"to_name":    toName,
		"subject":    subject,
		"template":   template,
		"data":       data,
	})
	if err != nil {
		return fmt.Errorf("marshal mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		m.logger.Error().Int("status", resp.StatusCode).Bytes("body", detail).Str("to", toEmail).Msg("mail rejected")
		return fmt.Errorf("mail rejected: status %d", resp.StatusCode)
	}
	m.logger.Debug().Str("to", toEmail).Str("template", template).Msg("mail sent")
	return nil
}

// NoopMailer logs instead of sending, for development runs.
type NoopMailer struct {
	logger zerolog.Logger
}

var _ adapter.Mailer = (*NoopMailer)(nil)

func NewNoopMailer(logger *zerolog.Logger) *NoopMailer {
	return &NoopMailer{logger: logger.With().Str("component", "mail_noop").Logger()}
}

func (m *NoopMailer) Send(_ context.Context, toEmail, _, subject, template string, _ map[string]interface{}) error {
	m.logger.Info().Str("to", toEmail).Str("subject", subject).Str("template", template).Msg("mail suppressed")
	return nil
}
