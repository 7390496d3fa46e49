package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Taswoor2507/movie-api/internal/models"
)

var (
	// ErrInvalidToken indicates the token is malformed, tampered with, or signed with another key.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates the token signature is valid but its lifetime has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Manager issues and verifies signed access and refresh tokens. Each kind is
// signed with its own secret so one can never stand in for the other.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// NewManager constructs a Manager with the provided secrets and lifetimes.
func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	if accessSecret == "" || refreshSecret == "" {
		panic("auth: token secrets must not be empty")
	}
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// RefreshTTL reports how long refresh tokens stay valid.
func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// Issue creates a new pair of access and refresh tokens for the provided user identifier.
func (m *Manager) Issue(userID string) (models.TokenPair, error) {
	access, accessExp, err := m.IssueAccess(userID)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, refreshExp, err := m.sign(userID, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAccess creates a standalone access token.
func (m *Manager) IssueAccess(userID string) (string, time.Time, error) {
	return m.sign(userID, m.accessSecret, m.accessTTL)
}

// ParseAccess verifies an access token and returns its subject.
func (m *Manager) ParseAccess(token string) (string, error) {
	return m.parse(token, m.accessSecret)
}

// ParseRefresh verifies a refresh token and returns its subject.
func (m *Manager) ParseRefresh(token string) (string, error) {
	return m.parse(token, m.refreshSecret)
}

func (m *Manager) sign(userID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}

	now := m.now().UTC()
	expires := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

func (m *Manager) parse(token string, secret []byte) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case err != nil || !parsed.Valid:
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
