package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Taswoor2507/movie-api/internal/cache"
	"github.com/Taswoor2507/movie-api/internal/config"
	"github.com/Taswoor2507/movie-api/internal/handlers"
)

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Tokens.AccessSecret = "access-secret"
	cfg.Tokens.RefreshSecret = "refresh-secret"
	return cfg
}

func testBackends() *backends {
	// Stores are only reached by requests, which these tests do not make.
	return &backends{cache: cache.NewMemory()}
}

func TestBuildDependencies(t *testing.T) {
	cfg := testConfig()
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps, cleanup, err := buildDependencies(context.Background(), cfg, testBackends(), logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := cleanup(ctx); err != nil {
			t.Errorf("cleanup: %v", err)
		}
	}()

	if deps.Movies == nil {
		t.Fatal("expected movie service to be configured")
	}
	if deps.Users == nil {
		t.Fatal("expected user service to be configured")
	}
	if deps.RateLimiter == nil {
		t.Fatal("expected rate limiter to be configured")
	}
	if deps.RefreshTTL != cfg.Tokens.RefreshTTL {
		t.Fatalf("expected refresh ttl %s, got %s", cfg.Tokens.RefreshTTL, deps.RefreshTTL)
	}
}

func TestBuildDependenciesRejectsUnknownMailDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Mail.Driver = "carrier-pigeon"

	_, _, err := buildDependencies(context.Background(), cfg, testBackends(), slog.Default())
	if err == nil {
		t.Fatal("expected error for unknown mail driver")
	}
}

func TestBuiltRouterServesHealth(t *testing.T) {
	deps, cleanup, err := buildDependencies(context.Background(), testConfig(), testBackends(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup(context.Background())

	rec := httptest.NewRecorder()
	handlers.NewRouter(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("expected error without a command")
	}
	if err := Run(context.Background(), []string{"launch"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
