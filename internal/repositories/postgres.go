package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Taswoor2507/movie-api/internal/db"
	"github.com/Taswoor2507/movie-api/internal/models"
)

func translatePgError(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "22P02":
			return ErrInvalidID
		}
	}
	return fmt.Errorf("%s: %w", action, err)
}

func checkUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, username, email, full_name, password_hash, status, refresh_token, login_date, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user         models.User
		status       string
		refreshToken *string
	)
	if err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.Password,
		&status, &refreshToken, &user.LoginDate, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return models.User{}, err
	}
	user.Status = models.UserStatus(status)
	if refreshToken != nil {
		user.RefreshToken = *refreshToken
	}
	return user, nil
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// Create persists a new user record, assigning an id when none is set.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, user.ID, user.Username, models.NormalizeKey(user.Email), user.FullName, user.Password,
		string(user.Status), nullableString(user.RefreshToken), user.LoginDate, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return models.User{}, translatePgError(err, "insert user")
	}

	user.Email = models.NormalizeKey(user.Email)
	return user, nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	if err := checkUUID(id); err != nil {
		return models.User{}, err
	}
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, models.NormalizeKey(email))
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, arg))
	if err != nil {
		return models.User{}, translatePgError(err, "select user")
	}
	return user, nil
}

// List returns all users ordered by creation time.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	if err := checkUUID(user.ID); err != nil {
		return err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET username = $2, email = $3, full_name = $4, password_hash = $5, status = $6,
            refresh_token = $7, login_date = $8, updated_at = $9
        WHERE id = $1
    `, user.ID, user.Username, models.NormalizeKey(user.Email), user.FullName, user.Password,
		string(user.Status), nullableString(user.RefreshToken), user.LoginDate, user.UpdatedAt)
	if err != nil {
		return translatePgError(err, "update user")
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the user permanently.
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	if err := checkUUID(id); err != nil {
		return err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translatePgError(err, "delete user")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresMovieRepository stores movies as JSONB documents keyed by title.
type PostgresMovieRepository struct {
	pool db.Pool
}

// NewPostgresMovieRepository constructs a movie repository backed by PostgreSQL.
func NewPostgresMovieRepository(pool db.Pool) *PostgresMovieRepository {
	return &PostgresMovieRepository{pool: pool}
}

const movieColumns = `id, document, version, created_at, updated_at`

func scanMovie(row pgx.Row) (models.Movie, error) {
	var (
		id       string
		document []byte
		movie    models.Movie
		version  int
		created  time.Time
		updated  time.Time
	)
	if err := row.Scan(&id, &document, &version, &created, &updated); err != nil {
		return models.Movie{}, err
	}
	if err := json.Unmarshal(document, &movie); err != nil {
		return models.Movie{}, fmt.Errorf("decode movie document %s: %w", id, err)
	}
	movie.ID = id
	movie.Version = version
	movie.CreatedAt = created
	movie.UpdatedAt = updated
	return movie, nil
}

func encodeMovie(movie models.Movie) (string, error) {
	if movie.Genre == nil {
		movie.Genre = []string{}
	}
	if movie.Actors == nil {
		movie.Actors = []string{}
	}
	if movie.Reviews == nil {
		movie.Reviews = []models.Review{}
	}
	raw, err := json.Marshal(movie)
	if err != nil {
		return "", fmt.Errorf("encode movie document: %w", err)
	}
	return string(raw), nil
}

func (r *PostgresMovieRepository) queryOne(ctx context.Context, query string, args ...any) (models.Movie, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Movie{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	movie, err := scanMovie(conn.QueryRow(ctx, query, args...))
	if err != nil {
		return models.Movie{}, translatePgError(err, "select movie")
	}
	return movie, nil
}

func (r *PostgresMovieRepository) queryMany(ctx context.Context, query string, args ...any) ([]models.Movie, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	movies := []models.Movie{}
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

// FindByTitle matches the whole title case-insensitively.
func (r *PostgresMovieRepository) FindByTitle(ctx context.Context, title string) (models.Movie, error) {
	return r.queryOne(ctx, `SELECT `+movieColumns+` FROM movies WHERE title_key = $1`, models.NormalizeKey(title))
}

// FindByID fetches a movie by identifier.
func (r *PostgresMovieRepository) FindByID(ctx context.Context, id string) (models.Movie, error) {
	if err := checkUUID(id); err != nil {
		return models.Movie{}, err
	}
	return r.queryOne(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = $1`, id)
}

// ListByGenre returns movies tagged with the genre, ignoring case.
func (r *PostgresMovieRepository) ListByGenre(ctx context.Context, genre string) ([]models.Movie, error) {
	return r.queryMany(ctx, `
        SELECT `+movieColumns+`
        FROM movies
        WHERE $1 = ANY(genre_keys)
        ORDER BY created_at, id
    `, models.NormalizeKey(genre))
}

// ListAll returns every movie ordered by creation time.
func (r *PostgresMovieRepository) ListAll(ctx context.Context) ([]models.Movie, error) {
	return r.queryMany(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY created_at, id`)
}

// Upsert inserts the movie unless its title is already stored.
func (r *PostgresMovieRepository) Upsert(ctx context.Context, movie models.Movie) (models.Movie, error) {
	document, err := encodeMovie(movie)
	if err != nil {
		return models.Movie{}, err
	}

	inserted, err := r.queryOne(ctx, `
        INSERT INTO movies (id, title_key, genre_keys, document, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, 0, $5, $6)
        ON CONFLICT (title_key) DO NOTHING
        RETURNING `+movieColumns,
		uuid.NewString(), movie.TitleKey(), movie.GenreKeys(), document, movie.CreatedAt, movie.UpdatedAt)
	if errors.Is(err, ErrNotFound) {
		return r.FindByTitle(ctx, movie.Title)
	}
	return inserted, err
}

// Save replaces the document when its version is unchanged.
func (r *PostgresMovieRepository) Save(ctx context.Context, movie models.Movie) (models.Movie, error) {
	if err := checkUUID(movie.ID); err != nil {
		return models.Movie{}, err
	}
	document, err := encodeMovie(movie)
	if err != nil {
		return models.Movie{}, err
	}

	saved, err := r.queryOne(ctx, `
        UPDATE movies
        SET document = $2, genre_keys = $3, version = version + 1, updated_at = $4
        WHERE id = $1 AND version = $5
        RETURNING `+movieColumns,
		movie.ID, document, movie.GenreKeys(), movie.UpdatedAt, movie.Version)
	if !errors.Is(err, ErrNotFound) {
		return saved, err
	}

	if _, err := r.FindByID(ctx, movie.ID); err != nil {
		return models.Movie{}, err
	}
	return models.Movie{}, ErrVersionConflict
}

// MarkPosterMirrored records the mirrored poster location inside the document.
func (r *PostgresMovieRepository) MarkPosterMirrored(ctx context.Context, id, location string) error {
	if err := checkUUID(id); err != nil {
		return err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE movies
        SET document = jsonb_set(document, '{posterMirror}', to_jsonb($2::TEXT)),
            version = version + 1
        WHERE id = $1
    `, id, location)
	if err != nil {
		return translatePgError(err, "update poster mirror")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NormalizeGenres rewrites documents whose genre is still a comma separated string.
func (r *PostgresMovieRepository) NormalizeGenres(ctx context.Context) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, document->>'title', document->>'genre'
        FROM movies
        WHERE jsonb_typeof(document->'genre') = 'string'
    `)
	if err != nil {
		return 0, fmt.Errorf("query legacy movies: %w", err)
	}

	type legacyMovie struct {
		id    string
		title string
		genre string
	}
	var legacy []legacyMovie
	for rows.Next() {
		var m legacyMovie
		if err := rows.Scan(&m.id, &m.title, &m.genre); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan legacy movie: %w", err)
		}
		legacy = append(legacy, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate legacy movies: %w", err)
	}

	var changed int
	for _, m := range legacy {
		movie := models.Movie{Title: m.title, Genre: models.SplitList(m.genre)}
		genres, err := json.Marshal(movie.Genre)
		if err != nil {
			return changed, fmt.Errorf("encode genres: %w", err)
		}
		if _, err := conn.Exec(ctx, `
            UPDATE movies
            SET document = jsonb_set(document, '{genre}', $2::JSONB),
                genre_keys = $3,
                version = version + 1
            WHERE id = $1
        `, m.id, string(genres), movie.GenreKeys()); err != nil {
			return changed, translatePgError(err, "normalize movie "+m.id)
		}
		changed++
	}
	return changed, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ MovieRepository = (*PostgresMovieRepository)(nil)
