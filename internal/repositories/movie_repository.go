package repositories

import (
	"context"

	"github.com/Taswoor2507/movie-api/internal/models"
)

// MovieRepository defines the data access contract for the catalog.
type MovieRepository interface {
	FindByTitle(ctx context.Context, title string) (models.Movie, error)
	FindByID(ctx context.Context, id string) (models.Movie, error)
	ListByGenre(ctx context.Context, genre string) ([]models.Movie, error)
	ListAll(ctx context.Context) ([]models.Movie, error)
	// Upsert inserts the movie unless one with the same case-folded title
	// exists, and returns whichever document is stored.
	Upsert(ctx context.Context, movie models.Movie) (models.Movie, error)
	// Save replaces the movie if its stored version still equals movie.Version
	// and returns it with the incremented version. A stale version yields
	// ErrVersionConflict.
	Save(ctx context.Context, movie models.Movie) (models.Movie, error)
	// MarkPosterMirrored records where a copy of the poster was stored.
	MarkPosterMirrored(ctx context.Context, id, location string) error
	// NormalizeGenres rewrites legacy comma separated genres as lists and
	// backfills lookup keys. It returns the number of documents changed.
	NormalizeGenres(ctx context.Context) (int, error)
}
