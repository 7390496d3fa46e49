package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Taswoor2507/movie-api/internal/config"
)

type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// Brevo sends mail through the Brevo transactional email API.
type Brevo struct {
	url      string
	apiKey   string
	from     string
	fromName string
	client   *http.Client
}

// NewBrevo constructs a Brevo mailer from configuration.
func NewBrevo(cfg config.MailConfig) *Brevo {
	return &Brevo{
		url:      cfg.BrevoURL,
		apiKey:   cfg.BrevoAPIKey,
		from:     cfg.From,
		fromName: cfg.FromName,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts msg to the Brevo API.
func (b *Brevo) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(brevoRequest{
		Sender:      brevoContact{Name: b.fromName, Email: b.from},
		To:          []brevoContact{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("encode brevo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build brevo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("call brevo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, body)
	}
	return nil
}
