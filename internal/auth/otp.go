package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Taswoor2507/movie-api/internal/cache"
)

var (
	// ErrOTPMissing indicates no pending registration exists for the email.
	ErrOTPMissing = errors.New("otp not found")
	// ErrOTPExpired indicates the code is older than the validity window.
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPMismatch indicates the submitted code does not match.
	ErrOTPMismatch = errors.New("otp mismatch")
)

// PendingRegistration is the registration held until the email owner proves
// control of the address.
type PendingRegistration struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"passwordHash"`
	Code         string    `json:"code"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GenerateOTP returns a uniformly random six digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// OTPStore keeps pending registrations in the shared cache keyed by email.
// Records outlive their validity window so that late submissions can be told
// apart from unknown ones.
type OTPStore struct {
	cache     cache.Cache
	validity  time.Duration
	retention time.Duration

	now func() time.Time
}

// NewOTPStore constructs an OTPStore. retention is raised to validity when shorter.
func NewOTPStore(c cache.Cache, validity, retention time.Duration) *OTPStore {
	if retention < validity {
		retention = validity
	}
	return &OTPStore{cache: c, validity: validity, retention: retention, now: time.Now}
}

// Validity reports how long a code is accepted.
func (s *OTPStore) Validity() time.Duration {
	return s.validity
}

// Put stores the registration, replacing any earlier one for the same email.
func (s *OTPStore) Put(ctx context.Context, pending PendingRegistration) (PendingRegistration, error) {
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = s.now().UTC()
	}
	if err := cache.SetJSON(ctx, s.cache, cache.OTPKey(pending.Email), pending, s.retention); err != nil {
		return PendingRegistration{}, fmt.Errorf("store otp: %w", err)
	}
	return pending, nil
}

// Verify checks code against the pending registration for email. Expired
// records are discarded. A matching record is left in place until Consume.
func (s *OTPStore) Verify(ctx context.Context, email, code string) (PendingRegistration, error) {
	key := cache.OTPKey(email)

	var pending PendingRegistration
	if err := cache.GetJSON(ctx, s.cache, key, &pending); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return PendingRegistration{}, ErrOTPMissing
		}
		return PendingRegistration{}, fmt.Errorf("load otp: %w", err)
	}

	if s.now().Sub(pending.CreatedAt) > s.validity {
		if err := s.cache.Delete(ctx, key); err != nil {
			return PendingRegistration{}, fmt.Errorf("discard expired otp: %w", err)
		}
		return PendingRegistration{}, ErrOTPExpired
	}

	if subtle.ConstantTimeCompare([]byte(pending.Code), []byte(code)) != 1 {
		return PendingRegistration{}, ErrOTPMismatch
	}
	return pending, nil
}

// Consume drops the pending registration for email.
func (s *OTPStore) Consume(ctx context.Context, email string) error {
	if err := s.cache.Delete(ctx, cache.OTPKey(email)); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}
