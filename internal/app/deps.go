package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Taswoor2507/movie-api/internal/auth"
	"github.com/Taswoor2507/movie-api/internal/cache"
	"github.com/Taswoor2507/movie-api/internal/config"
	"github.com/Taswoor2507/movie-api/internal/db"
	"github.com/Taswoor2507/movie-api/internal/handlers"
	"github.com/Taswoor2507/movie-api/internal/mailer"
	"github.com/Taswoor2507/movie-api/internal/middleware"
	"github.com/Taswoor2507/movie-api/internal/movies"
	"github.com/Taswoor2507/movie-api/internal/omdb"
	"github.com/Taswoor2507/movie-api/internal/posters"
	"github.com/Taswoor2507/movie-api/internal/repositories"
	"github.com/Taswoor2507/movie-api/internal/storage"
	"github.com/Taswoor2507/movie-api/internal/users"
)

// backends holds the stores and cache selected by configuration.
type backends struct {
	users  repositories.UserRepository
	movies repositories.MovieRepository
	cache  cache.Cache
	mongo  *mongo.Database
	health []handlers.HealthCheck
	close  []func(context.Context) error
}

func (b *backends) Close(ctx context.Context) error {
	var errs []error
	for i := len(b.close) - 1; i >= 0; i-- {
		errs = append(errs, b.close[i](ctx))
	}
	return errors.Join(errs...)
}

// openBackends connects the primary store and cache named by cfg.
func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}

	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, database, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		b.close = append(b.close, client.Disconnect)
		b.mongo = database
		b.users = repositories.NewMongoUserRepository(database)
		b.movies = repositories.NewMongoMovieRepository(database)
		b.health = append(b.health, handlers.HealthCheck{Name: "store", Check: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}})
	case config.StoreDriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.close = append(b.close, func(context.Context) error {
			pool.Close()
			return nil
		})
		b.users = repositories.NewPostgresUserRepository(pool)
		b.movies = repositories.NewPostgresMovieRepository(pool)
		b.health = append(b.health, handlers.HealthCheck{Name: "store", Check: pool.Ping})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.RedisURL == "" {
		b.cache = cache.NewMemory()
		return b, nil
	}

	redisCache, err := cache.DialRedis(ctx, cfg.RedisURL)
	if err != nil {
		_ = b.Close(ctx)
		return nil, err
	}
	b.cache = redisCache
	b.close = append(b.close, func(context.Context) error { return redisCache.Close() })
	b.health = append(b.health, handlers.HealthCheck{Name: "cache", Check: redisCache.Ping})
	return b, nil
}

func newMovieService(cfg config.Config, b *backends) *movies.Service {
	source := omdb.NewClient(cfg.OMDb.BaseURL, cfg.OMDb.APIKey, cfg.OMDb.Timeout)
	return movies.NewService(b.movies, b.cache, source, movies.Config{
		MovieTTL:   cfg.MovieCacheTTL,
		ListingTTL: cfg.ListingCacheTTL,
	})
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup drains background work and must run after the server stops.
func buildDependencies(ctx context.Context, cfg config.Config, b *backends, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	mail, err := mailer.New(cfg.Mail)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	tokens := auth.NewManager(cfg.Tokens.AccessSecret, cfg.Tokens.RefreshSecret, cfg.Tokens.AccessTTL, cfg.Tokens.RefreshTTL)
	userService := users.NewService(users.Deps{
		Users:      b.users,
		Tokens:     tokens,
		OTPs:       auth.NewOTPStore(b.cache, cfg.OTP.Validity, cfg.OTP.Retention),
		Mailer:     mail,
		SenderName: cfg.Mail.FromName,
	})

	movieService := newMovieService(cfg, b)
	cleanup := func(context.Context) error { return nil }

	if cfg.ObjectStore.Enabled() {
		store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		mirror := posters.NewMirror(store, movieService, posters.Config{
			QueueSize: cfg.PosterQueueSize,
			Workers:   cfg.PosterWorkers,
		}, logger)
		movieService.SetPosterQueue(mirror)
		cleanup = mirror.Shutdown
	}

	deps := handlers.Dependencies{
		Logger:        logger,
		Movies:        movieService,
		Users:         userService,
		RateLimiter:   middleware.NewIPRateLimiter(cfg.RateLimitCount, cfg.RateLimitWindow, cfg.RateLimitBurst, cfg.RateLimitWindow),
		Health:        b.health,
		CORSOrigins:   cfg.CORSOrigins,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		SecureCookies: cfg.SecureCookies,
		TrustProxy:    cfg.TrustProxy,
		RefreshTTL:    tokens.RefreshTTL(),
	}
	return deps, cleanup, nil
}
