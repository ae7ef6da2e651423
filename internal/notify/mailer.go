// Package notify handles outbound customer and staff email. Rendering
// happens at event time; delivery runs through the broker so a slow or
// failing mail provider never backs up the order pipeline.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type MailerConfig struct {
	APIKey    string
	FromName  string
	FromEmail string
	Endpoint  string
	Timeout   time.Duration
}

// Mailer sends transactional email through the Brevo HTTP API.
type Mailer struct {
	cfg    MailerConfig
	client *http.Client
}

func NewMailer(cfg MailerConfig) *Mailer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = brevoEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Mailer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (m *Mailer) Send(ctx context.Context, toEmail, toName, subject, html string) error {
	payload := map[string]any{
		"sender": map[string]string{
			"name":  m.cfg.FromName,
			"email": m.cfg.FromEmail,
		},
		"to": []map[string]string{
			{"email": toEmail, "name": toName},
		},
		"subject":     subject,
		"htmlContent": html,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.cfg.APIKey)

	res, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("mail provider returned %d: %s", res.StatusCode, string(raw))
	}
	return nil
}
