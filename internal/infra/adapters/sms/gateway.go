package sms

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

// Gateway delivers texts through an HTTP SMS provider.
type Gateway struct {
	cfg    config.SMSConfig
	http   *http.Client
	logger zerolog.Logger
}

var _ adapter.SMSGateway = (*Gateway)(nil)

func NewGateway(cfg config.SMSConfig, logger *zerolog.Logger) *Gateway {
	return &Gateway{
		cfg:    cfg,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger.With().Str("component", "sms_gateway").Logger(),
	}
}

func (g *Gateway) Send(ctx context.Context, from, to, message string) (err error) {
	defer func() { metrics.IncNotificationSent("sms", err) }()

	body, err := json.Marshal(map[string]string{
		"from":    from,
		"to":      to,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("marshal sms: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.Token)

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		g.logger.Error().Int("status", resp.StatusCode).Bytes("body", detail).Str("to", to).Msg("sms rejected")
		return fmt.Errorf("sms rejected: status %d", resp.StatusCode)
	}
	g.logger.Debug().Str("to", to).Msg("sms sent")
	return nil
}

// NoopGateway logs instead of sending, for development runs.
type NoopGateway struct {
	logger zerolog.Logger
}

var _ adapter.SMSGateway = (*NoopGateway)(nil)

func NewNoopGateway(logger *zerolog.Logger) *NoopGateway {
	return &NoopGateway{logger: logger.With().Str("component", "sms_noop").Logger()}
}

func (g *NoopGateway) Send(_ context.Context, from, to, message string) error {
	g.logger.Info().Str("from", from).Str("to", to).Str("message", message).Msg("sms suppressed")
	return nil
}
