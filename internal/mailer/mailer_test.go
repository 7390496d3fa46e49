package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/Taswoor2507/movie-api/internal/config"
)

func TestOTPMessage(t *testing.T) {
	msg, err := OTPMessage("a@x.com", "<Alice>", "042042", "Movie API", 40*time.Second)
	if err != nil {
		t.Fatalf("OTPMessage returned error: %v", err)
	}
	if msg.To != "a@x.com" || msg.Subject == "" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if !strings.Contains(msg.HTML, "042042") || !strings.Contains(msg.HTML, "40s") {
		t.Fatalf("expected code and validity in body, got %s", msg.HTML)
	}
	if strings.Contains(msg.HTML, "<Alice>") {
		t.Fatal("expected name to be escaped")
	}
}

func TestNewSelectsDriver(t *testing.T) {
	cases := map[string]any{
		config.MailDriverLog:   Log{},
		config.MailDriverSMTP:  &SMTP{},
		config.MailDriverBrevo: &Brevo{},
	}
	for driver, want := range cases {
		m, err := New(config.MailConfig{Driver: driver, SMTPHost: "localhost", SMTPPort: 25})
		if err != nil {
			t.Fatalf("New(%q) returned error: %v", driver, err)
		}
		switch want.(type) {
		case Log:
			if _, ok := m.(Log); !ok {
				t.Fatalf("expected Log mailer, got %T", m)
			}
		case *SMTP:
			if _, ok := m.(*SMTP); !ok {
				t.Fatalf("expected SMTP mailer, got %T", m)
			}
		case *Brevo:
			if _, ok := m.(*Brevo); !ok {
				t.Fatalf("expected Brevo mailer, got %T", m)
			}
		}
	}
	if _, err := New(config.MailConfig{Driver: "pigeon"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestBrevoSend(t *testing.T) {
	var got brevoRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	b := NewBrevo(config.MailConfig{BrevoURL: srv.URL, BrevoAPIKey: "key", From: "noreply@x.com", FromName: "Movie API"})
	if err := b.Send(context.Background(), Message{To: "a@x.com", Subject: "hi", HTML: "<p>x</p>"}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if got.Sender.Email != "noreply@x.com" || len(got.To) != 1 || got.To[0].Email != "a@x.com" || got.HTMLContent != "<p>x</p>" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestBrevoSendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	b := NewBrevo(config.MailConfig{BrevoURL: srv.URL})
	if err := b.Send(context.Background(), Message{To: "a@x.com"}); err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSMTPSend(t *testing.T) {
	s := NewSMTP(config.MailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, From: "noreply@x.com", FromName: "Movie API"})

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	s.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	if err := s.Send(context.Background(), Message{To: "a@x.com", Subject: "Code", HTML: "<b>1</b>"}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || len(gotTo) != 1 || gotTo[0] != "a@x.com" {
		t.Fatalf("unexpected envelope %s %v", gotAddr, gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: Code\r\n") || !strings.HasSuffix(gotMsg, "<b>1</b>") {
		t.Fatalf("unexpected message %q", gotMsg)
	}

	s.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	if err := s.Send(context.Background(), Message{To: "a@x.com"}); err == nil {
		t.Fatal("expected send error")
	}
}
