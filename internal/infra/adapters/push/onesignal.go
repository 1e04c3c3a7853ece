package push

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

const defaultAPIURL = "https://onesignal.com/api/v1/notifications"

// OneSignalGateway delivers batched pushes through the OneSignal REST API.
// Recipients are targeted by their email tag.
type OneSignalGateway struct {
	cfg    config.PushConfig
	http   *http.Client
	logger zerolog.Logger
}

var _ adapter.PushGateway = (*OneSignalGateway)(nil)

func NewOneSignalGateway(cfg config.PushConfig, logger *zerolog.Logger) *OneSignalGateway {
	if cfg.URL == "" {
		cfg.URL = defaultAPIURL
	}
	return &OneSignalGateway{
		cfg:    cfg,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger.With().Str("component", "onesignal").Logger(),
	}
}

func (g *OneSignalGateway) Send(ctx context.Context, p *adapter.PushPayload) (err error) {
	defer func() { metrics.IncNotificationSent("push", err) }()
	if len(p.Emails) == 0 {
		return nil
	}
	if p.SendAfter != "" {
		metrics.IncNotificationDelayed()
	}

	body, err := json.Marshal(buildNotification(g.cfg, p))
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Basic "+g.cfg.APIKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		g.logger.Error().Int("status", resp.StatusCode).Bytes("body", detail).Msg("push rejected")
		return fmt.Errorf("push rejected: status %d", resp.StatusCode)
	}
	g.logger.Debug().Int("recipients", len(p.Emails)).Bool("emergency", p.Emergency).Msg("push sent")
	return nil
}

// buildNotification translates a payload into the OneSignal wire format.
// Each recipient becomes an email-tag filter, OR-combined.
func buildNotification(cfg config.PushConfig, p *adapter.PushPayload) map[string]interface{} {
	filters := make([]map[string]string, 0, len(p.Emails)*2)
	for i, email := range p.Emails {
		if i > 0 {
			filters = append(filters, map[string]string{"operator": "OR"})
		}
		filters = append(filters, map[string]string{
			"field":    "tag",
			"key":      "email",
			"relation": "=",
			"value":    email,
		})
	}

	sound := cfg.NormalSound
	if p.Emergency {
		sound = cfg.EmergencySound
	}

	n := map[string]interface{}{
		"app_id":         cfg.AppID,
		"filters":        filters,
		"headings":       map[string]string{"en": p.Title},
		"contents":       map[string]string{"en": p.Body},
		"data":           p.Data,
		"android_sound":  sound,
		"ios_sound":      sound + ".mp3",
		"ios_badgeType":  "Increase",
		"ios_badgeCount": 1,
	}
	if p.SendAfter != "" {
		n["send_after"] = p.SendAfter
	}
	return n
}
