package posters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/Taswoor2507/movie-api/internal/models"
)

var (
	// ErrMirrorClosed is returned by Enqueue after Shutdown.
	ErrMirrorClosed = errors.New("poster mirror closed")
	// ErrQueueFull is returned when no worker can accept the job right away.
	ErrQueueFull = errors.New("poster mirror queue full")
)

// Storage persists poster bytes and returns their public location.
type Storage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// Recorder stores the mirrored location on the movie.
type Recorder interface {
	RecordPosterMirror(ctx context.Context, movieID, location string) error
}

// Config controls the concurrency and limits of the mirror.
type Config struct {
	QueueSize    int
	Workers      int
	FetchTimeout time.Duration
	MaxBytes     int64
}

// Mirror copies OMDb posters into object storage in the background so the
// catalog does not depend on hotlinking third-party images.
type Mirror struct {
	storage  Storage
	recorder Recorder
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger

	jobs   chan models.Movie
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewMirror starts cfg.Workers goroutines consuming the job queue.
func NewMirror(storage Storage, recorder Recorder, cfg Config, logger *slog.Logger) *Mirror {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Mirror{
		storage:  storage,
		recorder: recorder,
		client:   &http.Client{Timeout: cfg.FetchTimeout},
		maxBytes: cfg.MaxBytes,
		logger:   logger,
		jobs:     make(chan models.Movie, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	m.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go m.worker()
	}

	return m
}

// Enqueue schedules the movie's poster for mirroring without blocking.
// Movies without a usable poster URL are ignored.
func (m *Mirror) Enqueue(ctx context.Context, movie models.Movie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !mirrorable(movie.Poster) || movie.PosterMirror != "" {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrMirrorClosed
	}

	select {
	case m.jobs <- movie:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish. When ctx
// expires first, in-flight downloads are cancelled.
func (m *Mirror) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.jobs)
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		m.cancel()
		return ctx.Err()
	case <-done:
		m.cancel()
		return nil
	}
}

func (m *Mirror) worker() {
	defer m.wg.Done()
	for movie := range m.jobs {
		if m.ctx.Err() != nil {
			return
		}
		m.handle(movie)
	}
}

func (m *Mirror) handle(movie models.Movie) {
	logger := m.logger.With("movie_id", movie.ID, "poster", movie.Poster)
	if m.storage == nil || m.recorder == nil {
		logger.Error("poster mirror missing dependencies", "hasStorage", m.storage != nil, "hasRecorder", m.recorder != nil)
		return
	}

	location, err := m.copy(m.ctx, movie)
	if err != nil {
		logger.Error("poster mirroring failed", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
	defer cancel()
	if err := m.recorder.RecordPosterMirror(ctx, movie.ID, location); err != nil {
		logger.Error("record poster mirror", "error", err)
		return
	}
	logger.Info("poster mirrored", "location", location)
}

func (m *Mirror) copy(ctx context.Context, movie models.Movie) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, movie.Poster, nil)
	if err != nil {
		return "", fmt.Errorf("build poster request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download poster: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download poster: status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("download poster: unexpected content type %q", contentType)
	}

	if resp.ContentLength > m.maxBytes {
		return "", fmt.Errorf("download poster: %d bytes exceeds limit of %d", resp.ContentLength, m.maxBytes)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, m.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read poster: %w", err)
	}
	if int64(len(body)) > m.maxBytes {
		return "", fmt.Errorf("download poster: body exceeds limit of %d bytes", m.maxBytes)
	}

	key := "posters/" + movie.ID + extension(movie.Poster, contentType)
	return m.storage.Save(ctx, key, contentType, bytes.NewReader(body))
}

func mirrorable(poster string) bool {
	u, err := url.Parse(strings.TrimSpace(poster))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func extension(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" && len(ext) <= 5 {
			return strings.ToLower(ext)
		}
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".img"
}
