package handlers

import (
	"context"

	"github.com/Taswoor2507/movie-api/internal/models"
	"github.com/Taswoor2507/movie-api/internal/movies"
	"github.com/Taswoor2507/movie-api/internal/users"
)

// MovieService captures the catalog operations exposed over HTTP.
type MovieService interface {
	Search(ctx context.Context, title string) (models.Movie, error)
	GetByID(ctx context.Context, id string) (models.Movie, error)
	ListByGenre(ctx context.Context, genre string) (movies.Listing, error)
	ListAll(ctx context.Context) (movies.Listing, error)
	Rate(ctx context.Context, in movies.RateInput) (models.Movie, error)
}

// UserService captures the account lifecycle exposed over HTTP.
type UserService interface {
	Register(ctx context.Context, in users.RegisterInput) (users.RegisterResult, error)
	VerifyOTP(ctx context.Context, in users.VerifyInput) (models.User, error)
	Login(ctx context.Context, in users.LoginInput) (users.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (users.RefreshResult, error)
	Authenticate(ctx context.Context, accessToken string) (models.User, error)
	Identify(ctx context.Context, accessToken string) (string, error)
	Logout(ctx context.Context, actorID, userID string) error
	Deactivate(ctx context.Context, actorID, userID string) (models.User, error)
	Delete(ctx context.Context, actorID, userID string) error
	FindAll(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, userID string) (models.User, error)
	Update(ctx context.Context, actorID, userID string, in users.UpdateInput) (models.User, error)
}

// HealthCheck probes one backing service.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}
