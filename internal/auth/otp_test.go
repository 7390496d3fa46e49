package auth

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/Taswoor2507/movie-api/internal/cache"
)

func TestGenerateOTP(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP returned error: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("unexpected code %q", code)
		}
	}
}

func newTestOTPStore(now *time.Time) *OTPStore {
	store := NewOTPStore(cache.NewMemory(), 40*time.Second, 10*time.Minute)
	store.now = func() time.Time { return *now }
	return store
}

func TestOTPStoreVerify(t *testing.T) {
	now := time.Now()
	store := newTestOTPStore(&now)
	ctx := context.Background()

	if _, err := store.Put(ctx, PendingRegistration{Email: "a@x.com", Username: "alice", Code: "123456"}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if _, err := store.Verify(ctx, "a@x.com", "000000"); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("expected ErrOTPMismatch, got %v", err)
	}

	pending, err := store.Verify(ctx, "A@X.com", "123456")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if pending.Username != "alice" {
		t.Fatalf("unexpected pending registration %+v", pending)
	}

	if _, err := store.Verify(ctx, "a@x.com", "123456"); err != nil {
		t.Fatalf("expected record to survive until consumed, got %v", err)
	}
	if err := store.Consume(ctx, "a@x.com"); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if _, err := store.Verify(ctx, "a@x.com", "123456"); !errors.Is(err, ErrOTPMissing) {
		t.Fatalf("expected consumed code to be missing, got %v", err)
	}
}

func TestOTPStoreExpiry(t *testing.T) {
	now := time.Now()
	store := newTestOTPStore(&now)
	ctx := context.Background()

	if _, err := store.Put(ctx, PendingRegistration{Email: "a@x.com", Code: "123456"}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	now = now.Add(41 * time.Second)
	if _, err := store.Verify(ctx, "a@x.com", "123456"); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
	if _, err := store.Verify(ctx, "a@x.com", "123456"); !errors.Is(err, ErrOTPMissing) {
		t.Fatalf("expected expired record to be discarded, got %v", err)
	}
}

func TestOTPStoreNewestWins(t *testing.T) {
	now := time.Now()
	store := newTestOTPStore(&now)
	ctx := context.Background()

	_, _ = store.Put(ctx, PendingRegistration{Email: "a@x.com", Code: "111111"})
	_, _ = store.Put(ctx, PendingRegistration{Email: "a@x.com", Code: "222222"})

	if _, err := store.Verify(ctx, "a@x.com", "111111"); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("expected older code to be replaced, got %v", err)
	}
	if _, err := store.Verify(ctx, "a@x.com", "222222"); err != nil {
		t.Fatalf("expected newest code to verify, got %v", err)
	}
}
