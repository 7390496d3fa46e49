package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/Taswoor2507/movie-api/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers messages through some transport.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New selects the transport named by cfg.Driver.
func New(cfg config.MailConfig) (Mailer, error) {
	switch cfg.Driver {
	case config.MailDriverSMTP:
		return NewSMTP(cfg), nil
	case config.MailDriverBrevo:
		return NewBrevo(cfg), nil
	case config.MailDriverLog, "":
		return Log{}, nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

// OTPMessage renders the verification email carrying code.
func OTPMessage(to, name, code, sender string, validFor time.Duration) (Message, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "otp.html", struct {
		Name     string
		Code     string
		ValidFor string
		Sender   string
	}{
		Name:     name,
		Code:     code,
		ValidFor: validFor.String(),
		Sender:   sender,
	})
	if err != nil {
		return Message{}, fmt.Errorf("render otp email: %w", err)
	}
	return Message{To: to, Subject: "Your verification code", HTML: buf.String()}, nil
}
