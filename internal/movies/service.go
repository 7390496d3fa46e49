// Package movies implements catalog lookups backed by a cache, the primary
// store and OMDb, plus the review aggregator.
package movies

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Taswoor2507/movie-api/internal/apperr"
	"github.com/Taswoor2507/movie-api/internal/cache"
	"github.com/Taswoor2507/movie-api/internal/logging"
	"github.com/Taswoor2507/movie-api/internal/models"
	"github.com/Taswoor2507/movie-api/internal/omdb"
	"github.com/Taswoor2507/movie-api/internal/repositories"
	"github.com/Taswoor2507/movie-api/internal/validate"
)

// Store captures the persistence operations the service needs.
type Store interface {
	FindByTitle(ctx context.Context, title string) (models.Movie, error)
	FindByID(ctx context.Context, id string) (models.Movie, error)
	ListByGenre(ctx context.Context, genre string) ([]models.Movie, error)
	ListAll(ctx context.Context) ([]models.Movie, error)
	Upsert(ctx context.Context, movie models.Movie) (models.Movie, error)
	Save(ctx context.Context, movie models.Movie) (models.Movie, error)
	MarkPosterMirrored(ctx context.Context, id, location string) error
	NormalizeGenres(ctx context.Context) (int, error)
}

// Source resolves titles missing from the store.
type Source interface {
	FetchByTitle(ctx context.Context, title string) (omdb.Record, error)
}

// PosterQueue schedules background poster mirroring.
type PosterQueue interface {
	Enqueue(ctx context.Context, movie models.Movie) error
}

// Config tunes cache lifetimes and write retries.
type Config struct {
	MovieTTL        time.Duration
	ListingTTL      time.Duration
	MaxSaveAttempts int
}

// Listing is a counted list of movies.
type Listing struct {
	Count  int            `json:"count"`
	Movies []models.Movie `json:"movies"`
}

// Service answers movie queries and records reviews.
type Service struct {
	store   Store
	cache   cache.Cache
	source  Source
	posters PosterQueue
	cfg     Config

	now func() time.Time
}

// NewService constructs a Service.
func NewService(store Store, c cache.Cache, source Source, cfg Config) *Service {
	if cfg.MovieTTL <= 0 {
		cfg.MovieTTL = time.Hour
	}
	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = 10 * time.Minute
	}
	if cfg.MaxSaveAttempts <= 0 {
		cfg.MaxSaveAttempts = 3
	}
	return &Service{store: store, cache: c, source: source, cfg: cfg, now: time.Now}
}

// SetPosterQueue enables poster mirroring for newly hydrated movies.
func (s *Service) SetPosterQueue(q PosterQueue) {
	s.posters = q
}

// Search returns the movie with the given title, hydrating it from OMDb and
// persisting it when the store does not have it yet.
func (s *Service) Search(ctx context.Context, title string) (models.Movie, error) {
	ctx, span := logging.StartSpan(ctx, "movies.search")
	defer span.End()

	title = strings.TrimSpace(title)
	if title == "" {
		return models.Movie{}, apperr.Validation("Title query parameter is required")
	}

	key := cache.MovieTitleKey(title)
	var movie models.Movie
	if s.readCache(ctx, key, &movie) {
		return movie, nil
	}

	movie, err := s.store.FindByTitle(ctx, title)
	switch {
	case err == nil:
		s.cacheMovie(ctx, movie)
		return movie, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return models.Movie{}, span.Fail(apperr.Internal(fmt.Errorf("find movie by title: %w", err)))
	}

	record, err := s.source.FetchByTitle(ctx, title)
	if err != nil {
		var notFound *omdb.NotFoundError
		if errors.As(err, &notFound) && notFound.Reason != "" {
			return models.Movie{}, apperr.NotFound(notFound.Reason)
		}
		if errors.Is(err, omdb.ErrNotFound) {
			return models.Movie{}, apperr.NotFound("Movie not found")
		}
		return models.Movie{}, span.Fail(apperr.Internal(fmt.Errorf("fetch movie from omdb: %w", err)))
	}

	hydrated := omdb.Normalize(record)
	if hydrated.Title == "" {
		hydrated.Title = title
	}
	now := s.now().UTC()
	hydrated.CreatedAt = now
	hydrated.UpdatedAt = now

	stored, err := s.store.Upsert(ctx, hydrated)
	if err != nil {
		return models.Movie{}, span.Fail(apperr.Internal(fmt.Errorf("persist movie: %w", err)))
	}

	s.cacheMovie(ctx, stored)
	s.invalidate(ctx, listingKeys(stored)...)

	if s.posters != nil {
		if err := s.posters.Enqueue(ctx, stored); err != nil {
			logging.FromContext(ctx).Warn("poster mirror not scheduled", "movie_id", stored.ID, "error", err)
		}
	}

	return stored, nil
}

// GetByID returns a single movie.
func (s *Service) GetByID(ctx context.Context, id string) (models.Movie, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Movie{}, apperr.Validation("Movie id is required")
	}

	key := cache.MovieIDKey(id)
	var movie models.Movie
	if s.readCache(ctx, key, &movie) {
		return movie, nil
	}

	movie, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.Movie{}, storeError(err)
	}
	s.writeCache(ctx, key, movie, s.cfg.MovieTTL)
	return movie, nil
}

// ListByGenre lists movies tagged with genre, ignoring case.
func (s *Service) ListByGenre(ctx context.Context, genre string) (Listing, error) {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return Listing{}, apperr.Validation("Genre query parameter is required")
	}
	return s.listing(ctx, cache.GenreKey(genre), func(ctx context.Context) ([]models.Movie, error) {
		return s.store.ListByGenre(ctx, genre)
	})
}

// ListAll lists the whole catalog.
func (s *Service) ListAll(ctx context.Context) (Listing, error) {
	return s.listing(ctx, cache.AllMoviesKey, s.store.ListAll)
}

func (s *Service) listing(ctx context.Context, key string, load func(context.Context) ([]models.Movie, error)) (Listing, error) {
	var listing Listing
	if s.readCache(ctx, key, &listing) {
		return listing, nil
	}

	movies, err := load(ctx)
	if err != nil {
		return Listing{}, apperr.Internal(fmt.Errorf("list movies: %w", err))
	}
	if movies == nil {
		movies = []models.Movie{}
	}

	listing = Listing{Count: len(movies), Movies: movies}
	s.writeCache(ctx, key, listing, s.cfg.ListingTTL)
	return listing, nil
}

// RateInput is a review submission.
type RateInput struct {
	MovieID  string `json:"-" validate:"required"`
	UserID   string `json:"-" validate:"required"`
	Username string `json:"-"`
	Rating   int    `json:"rating" validate:"min=1,max=5"`
	Comment  string `json:"review" validate:"required,min=4,max=300"`
}

// Rate records the user's review, replacing any earlier review by the same
// user, and recomputes the aggregate rating. Saves are conditional on the
// loaded version and retried on conflict.
func (s *Service) Rate(ctx context.Context, in RateInput) (models.Movie, error) {
	ctx, span := logging.StartSpan(ctx, "movies.rate")
	defer span.End()

	in.Comment = strings.TrimSpace(in.Comment)
	if err := validate.Struct(in); err != nil {
		return models.Movie{}, err
	}

	for attempt := 1; attempt <= s.cfg.MaxSaveAttempts; attempt++ {
		movie, err := s.store.FindByID(ctx, in.MovieID)
		if err != nil {
			return models.Movie{}, span.Fail(storeError(err))
		}

		now := s.now().UTC()
		ApplyReview(&movie, models.Review{
			UserID:  in.UserID,
			Name:    in.Username,
			Rating:  in.Rating,
			Comment: in.Comment,
			Date:    now,
		})
		movie.UpdatedAt = now

		saved, err := s.store.Save(ctx, movie)
		if errors.Is(err, repositories.ErrVersionConflict) {
			logging.FromContext(ctx).Info("movie changed during rating, retrying", "movie_id", in.MovieID, "attempt", attempt)
			continue
		}
		if err != nil {
			return models.Movie{}, span.Fail(storeError(err))
		}

		s.invalidate(ctx, movieKeys(saved)...)
		return saved, nil
	}

	return models.Movie{}, span.Fail(apperr.Conflict("Movie was updated concurrently, please retry"))
}

// ApplyReview inserts review or replaces the one by the same user, then
// refreshes the derived counters.
func ApplyReview(movie *models.Movie, review models.Review) {
	replaced := false
	for i := range movie.Reviews {
		if movie.Reviews[i].UserID == review.UserID {
			movie.Reviews[i].Name = review.Name
			movie.Reviews[i].Rating = review.Rating
			movie.Reviews[i].Comment = review.Comment
			movie.Reviews[i].Date = review.Date
			replaced = true
			break
		}
	}
	if !replaced {
		movie.Reviews = append(movie.Reviews, review)
	}
	movie.NoOfReviews = len(movie.Reviews)
	movie.Ratings = AverageRating(movie.Reviews)
}

// AverageRating is the mean rating rounded to two decimals, or 0 without reviews.
func AverageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(reviews))
	return math.Round(mean*100) / 100
}

// RecordPosterMirror stores the mirrored poster location and drops cached
// copies of the movie.
func (s *Service) RecordPosterMirror(ctx context.Context, movieID, location string) error {
	if err := s.store.MarkPosterMirrored(ctx, movieID, location); err != nil {
		return fmt.Errorf("mark poster mirrored: %w", err)
	}
	movie, err := s.store.FindByID(ctx, movieID)
	if err != nil {
		s.invalidate(ctx, cache.MovieIDKey(movieID), cache.AllMoviesKey)
		return nil
	}
	s.invalidate(ctx, movieKeys(movie)...)
	return nil
}

// NormalizeGenres migrates legacy string genres into lists.
func (s *Service) NormalizeGenres(ctx context.Context) (int, error) {
	ctx, span := logging.StartSpan(ctx, "movies.normalize_genres")
	defer span.End()

	changed, err := s.store.NormalizeGenres(ctx)
	if err != nil {
		return changed, span.Fail(err)
	}
	if changed > 0 {
		s.invalidate(ctx, cache.AllMoviesKey)
	}
	return changed, nil
}

func (s *Service) readCache(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	err := cache.GetJSON(ctx, s.cache, key, dst)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		logging.FromContext(ctx).Warn("cache read failed", "key", key, "error", err)
	}
	return false
}

func (s *Service) writeCache(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, key, value, ttl); err != nil {
		logging.FromContext(ctx).Warn("cache write failed", "key", key, "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil || len(keys) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logging.FromContext(ctx).Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}

// cacheMovie stores movie under its canonical title and id keys only. Those
// are the keys a rating invalidates; a query that differs from the stored
// title always falls through to the store.
func (s *Service) cacheMovie(ctx context.Context, movie models.Movie) {
	s.writeCache(ctx, cache.MovieTitleKey(movie.Title), movie, s.cfg.MovieTTL)
	s.writeCache(ctx, cache.MovieIDKey(movie.ID), movie, s.cfg.MovieTTL)
}

func listingKeys(movie models.Movie) []string {
	keys := []string{cache.AllMoviesKey}
	for _, genre := range movie.GenreKeys() {
		keys = append(keys, cache.GenreKey(genre))
	}
	return keys
}

func movieKeys(movie models.Movie) []string {
	keys := []string{cache.MovieIDKey(movie.ID), cache.MovieTitleKey(movie.Title)}
	return append(keys, listingKeys(movie)...)
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound("Movie not found")
	case errors.Is(err, repositories.ErrInvalidID):
		return apperr.Validation("Invalid movie id")
	default:
		return apperr.Internal(err)
	}
}
