package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Taswoor2507/movie-api/internal/logging"
)

// ErrNotFound indicates OMDb has no record for the requested title.
var ErrNotFound = errors.New("omdb: movie not found")

// ErrUnavailable indicates the client is not configured.
var ErrUnavailable = errors.New("omdb: client unavailable")

// Record mirrors the subset of the OMDb title response the catalog consumes.
type Record struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Awards     string `json:"Awards"`
	Poster     string `json:"Poster"`
	Metascore  string `json:"Metascore"`
	ImdbRating string `json:"imdbRating"`
	ImdbVotes  string `json:"imdbVotes"`
	Type       string `json:"Type"`
	BoxOffice  string `json:"BoxOffice"`
	Production string `json:"Production"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// NotFoundError carries the message OMDb returned for a failed lookup.
type NotFoundError struct {
	Title  string
	Reason string
}

func (e *NotFoundError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("omdb: %q not found", e.Title)
	}
	return fmt.Sprintf("omdb: %q: %s", e.Title, e.Reason)
}

// Is lets errors.Is match NotFoundError against ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Client queries the OMDb HTTP API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient constructs a client with its own timeout-bound HTTP client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// FetchByTitle looks up a single title. A "Response":"False" payload yields an
// error matching ErrNotFound.
func (c *Client) FetchByTitle(ctx context.Context, title string) (Record, error) {
	if c == nil || strings.TrimSpace(c.BaseURL) == "" {
		return Record{}, ErrUnavailable
	}

	endpoint, err := url.Parse(c.BaseURL)
	if err != nil {
		return Record{}, fmt.Errorf("parse omdb base url: %w", err)
	}
	query := endpoint.Query()
	query.Set("t", title)
	query.Set("apikey", c.APIKey)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Record{}, fmt.Errorf("build omdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("call omdb: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logging.FromContext(ctx).Warn("omdb returned non-200", "status", resp.StatusCode, "body", string(body))
		return Record{}, fmt.Errorf("omdb responded with status %d", resp.StatusCode)
	}

	var record Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return Record{}, fmt.Errorf("decode omdb response: %w", err)
	}
	if !strings.EqualFold(record.Response, "True") {
		return Record{}, &NotFoundError{Title: title, Reason: record.Error}
	}
	return record, nil
}
