package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Taswoor2507/movie-api/internal/apperr"
	"github.com/Taswoor2507/movie-api/internal/auth"
	"github.com/Taswoor2507/movie-api/internal/cache"
	"github.com/Taswoor2507/movie-api/internal/middleware"
	"github.com/Taswoor2507/movie-api/internal/models"
	"github.com/Taswoor2507/movie-api/internal/movies"
	"github.com/Taswoor2507/movie-api/internal/repositories"
	"github.com/Taswoor2507/movie-api/internal/users"
)

const validToken = "valid-access-token"

type stubMovies struct {
	movie   models.Movie
	listing movies.Listing
	err     error

	lastTitle string
	lastGenre string
	lastID    string
	lastRate  movies.RateInput
}

func (s *stubMovies) Search(_ context.Context, title string) (models.Movie, error) {
	s.lastTitle = title
	return s.movie, s.err
}

func (s *stubMovies) GetByID(_ context.Context, id string) (models.Movie, error) {
	s.lastID = id
	return s.movie, s.err
}

func (s *stubMovies) ListByGenre(_ context.Context, genre string) (movies.Listing, error) {
	s.lastGenre = genre
	return s.listing, s.err
}

func (s *stubMovies) ListAll(context.Context) (movies.Listing, error) {
	return s.listing, s.err
}

func (s *stubMovies) Rate(_ context.Context, in movies.RateInput) (models.Movie, error) {
	s.lastRate = in
	return s.movie, s.err
}

type stubUsers struct {
	caller models.User
	user   models.User
	login  users.LoginResult
	err    error

	lastRefresh string
	lastActor   string
	lastTarget  string
	lastUpdate  users.UpdateInput
	lastVerify  users.VerifyInput
}

func (s *stubUsers) Register(_ context.Context, in users.RegisterInput) (users.RegisterResult, error) {
	if s.err != nil {
		return users.RegisterResult{}, s.err
	}
	return users.RegisterResult{Email: in.Email, ExpiresIn: 40 * time.Second}, nil
}

func (s *stubUsers) VerifyOTP(_ context.Context, in users.VerifyInput) (models.User, error) {
	s.lastVerify = in
	return s.user, s.err
}

func (s *stubUsers) Login(context.Context, users.LoginInput) (users.LoginResult, error) {
	return s.login, s.err
}

func (s *stubUsers) Refresh(_ context.Context, token string) (users.RefreshResult, error) {
	s.lastRefresh = token
	if s.err != nil {
		return users.RefreshResult{}, s.err
	}
	return users.RefreshResult{AccessToken: "new-access"}, nil
}

func (s *stubUsers) Authenticate(_ context.Context, token string) (models.User, error) {
	if token != validToken {
		return models.User{}, apperr.Auth("Invalid or expired access token")
	}
	return s.caller, nil
}

func (s *stubUsers) Identify(_ context.Context, token string) (string, error) {
	if token != validToken {
		return "", apperr.Auth("Invalid or expired access token")
	}
	return s.caller.ID, nil
}

func (s *stubUsers) Logout(_ context.Context, actorID, userID string) error {
	s.lastActor, s.lastTarget = actorID, userID
	return s.err
}

func (s *stubUsers) Deactivate(_ context.Context, actorID, userID string) (models.User, error) {
	s.lastActor, s.lastTarget = actorID, userID
	return s.user, s.err
}

func (s *stubUsers) Delete(_ context.Context, actorID, userID string) error {
	s.lastActor, s.lastTarget = actorID, userID
	return s.err
}

func (s *stubUsers) FindAll(context.Context) ([]models.User, error) {
	return []models.User{s.user}, s.err
}

func (s *stubUsers) FindByID(_ context.Context, userID string) (models.User, error) {
	s.lastTarget = userID
	return s.user, s.err
}

func (s *stubUsers) Update(_ context.Context, actorID, userID string, in users.UpdateInput) (models.User, error) {
	s.lastActor, s.lastTarget, s.lastUpdate = actorID, userID, in
	return s.user, s.err
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

type responseEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newTestRouter(m *stubMovies, u *stubUsers) http.Handler {
	return NewRouter(Dependencies{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Movies:        m,
		Users:         u,
		RateLimiter:   allowAll{},
		MaxBodyBytes:  1 << 10,
		SecureCookies: true,
		RefreshTTL:    time.Hour,
	})
}

func do(t *testing.T, handler http.Handler, method, target, body string, authed bool) (*httptest.ResponseRecorder, responseEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+validToken)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var env responseEnvelope
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return rec, env
}

func TestMovieSearch(t *testing.T) {
	m := &stubMovies{movie: models.Movie{ID: "m1", Title: "Inception"}}
	router := newTestRouter(m, &stubUsers{})

	rec, env := do(t, router, http.MethodGet, "/api/movies/search?title=Inception", "", false)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("expected success, got %d %+v", rec.Code, env)
	}
	if m.lastTitle != "Inception" {
		t.Fatalf("expected title to be forwarded, got %q", m.lastTitle)
	}

	var movie models.Movie
	if err := json.Unmarshal(env.Data, &movie); err != nil {
		t.Fatalf("decode movie: %v", err)
	}
	if movie.ID != "m1" {
		t.Fatalf("unexpected movie %+v", movie)
	}
}

func TestMovieErrorsUseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "validation", err: apperr.Validation("Title query parameter is required"), status: http.StatusBadRequest, message: "Title query parameter is required"},
		{name: "not found", err: apperr.NotFound("Movie not found!"), status: http.StatusNotFound, message: "Movie not found!"},
		{name: "conflict", err: apperr.Conflict("retry"), status: http.StatusConflict, message: "retry"},
		{name: "internal", err: apperr.Internal(errors.New("mongo exploded")), status: http.StatusInternalServerError, message: "Internal server error"},
		{name: "raw duplicate", err: repositories.ErrConflict, status: http.StatusBadRequest, message: "Duplicate value for a unique field"},
		{name: "raw invalid id", err: repositories.ErrInvalidID, status: http.StatusBadRequest, message: "Invalid identifier"},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, message: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubMovies{err: tt.err}, &stubUsers{})
			rec, env := do(t, router, http.MethodGet, "/api/movies/search?title=x", "", false)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if env.Success || string(env.Data) != "null" || env.Message != tt.message {
				t.Fatalf("unexpected envelope %+v", env)
			}
		})
	}
}

func TestMovieListings(t *testing.T) {
	m := &stubMovies{listing: movies.Listing{Count: 1, Movies: []models.Movie{{Title: "Heat"}}}}
	router := newTestRouter(m, &stubUsers{})

	rec, env := do(t, router, http.MethodGet, "/api/movies?genre=Drama", "", false)
	if rec.Code != http.StatusOK || m.lastGenre != "Drama" {
		t.Fatalf("unexpected genre listing response %d genre=%q", rec.Code, m.lastGenre)
	}
	var listing movies.Listing
	if err := json.Unmarshal(env.Data, &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if listing.Count != 1 || len(listing.Movies) != 1 {
		t.Fatalf("unexpected listing %+v", listing)
	}

	rec, _ = do(t, router, http.MethodGet, "/api/movies/all", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for all movies, got %d", rec.Code)
	}

	rec, _ = do(t, router, http.MethodGet, "/api/movies/getById/abc123", "", false)
	if rec.Code != http.StatusOK || m.lastID != "abc123" {
		t.Fatalf("unexpected getById response %d id=%q", rec.Code, m.lastID)
	}
}

func TestMovieRateRequiresAuth(t *testing.T) {
	m := &stubMovies{}
	router := newTestRouter(m, &stubUsers{caller: models.User{ID: "u1", Username: "alice"}})

	rec, env := do(t, router, http.MethodPost, "/api/movies/m1/rate", `{"rating":5,"review":"Great"}`, false)
	if rec.Code != http.StatusUnauthorized || env.Success {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec, _ = do(t, router, http.MethodPost, "/api/movies/m1/rate", `{"rating":5,"review":"Great"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := movies.RateInput{MovieID: "m1", UserID: "u1", Username: "alice", Rating: 5, Comment: "Great"}
	if m.lastRate != want {
		t.Fatalf("expected %+v, got %+v", want, m.lastRate)
	}
}

func TestMovieRateRejectsBadBodies(t *testing.T) {
	router := newTestRouter(&stubMovies{}, &stubUsers{caller: models.User{ID: "u1"}})

	rec, env := do(t, router, http.MethodPost, "/api/movies/m1/rate", `{"rating":`, true)
	if rec.Code != http.StatusBadRequest || env.Message != "Invalid request body" {
		t.Fatalf("expected invalid body, got %d %+v", rec.Code, env)
	}

	rec, env = do(t, router, http.MethodPost, "/api/movies/m1/rate", `{"review":"`+strings.Repeat("a", 2048)+`"}`, true)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d %+v", rec.Code, env)
	}
}

func TestRegisterAndVerify(t *testing.T) {
	u := &stubUsers{user: models.User{ID: "u1", Email: "a@x.com", Status: models.UserStatusActive}}
	router := newTestRouter(&stubMovies{}, u)

	rec, env := do(t, router, http.MethodPost, "/api/users/register", `{"username":"a","email":"a@x.com","fullName":"A","password":"pw1"}`, false)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("expected register success, got %d %+v", rec.Code, env)
	}

	rec, env = do(t, router, http.MethodPost, "/api/users/verify-otp", `{"email":"a@x.com","otp":"123456"}`, false)
	if rec.Code != http.StatusCreated || !env.Success {
		t.Fatalf("expected verify success, got %d %+v", rec.Code, env)
	}
	if u.lastVerify.OTP != "123456" {
		t.Fatalf("expected otp to be forwarded, got %+v", u.lastVerify)
	}
	if strings.Contains(string(env.Data), "password") {
		t.Fatalf("password must never be serialized: %s", env.Data)
	}

	rec, env = do(t, router, http.MethodPost, "/api/users/register", "", false)
	if rec.Code != http.StatusBadRequest || env.Message != "Request body is required" {
		t.Fatalf("expected missing body error, got %d %+v", rec.Code, env)
	}
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	u := &stubUsers{login: users.LoginResult{
		User: models.User{ID: "u1", Email: "a@x.com", RefreshToken: "refresh-secret"},
		Tokens: models.TokenPair{
			AccessToken:      "access",
			AccessExpiresAt:  time.Now().Add(time.Hour),
			RefreshToken:     "refresh-secret",
			RefreshExpiresAt: time.Now().Add(24 * time.Hour),
		},
	}}
	router := newTestRouter(&stubMovies{}, u)

	rec, env := do(t, router, http.MethodPost, "/api/users/login", `{"email":"a@x.com","password":"pw1"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(string(env.Data), "refresh-secret") {
		t.Fatalf("refresh token leaked into body: %s", env.Data)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != RefreshCookieName || cookie.Value != "refresh-secret" || !cookie.HttpOnly || !cookie.Secure {
		t.Fatalf("unexpected cookie %+v", cookie)
	}

	var body loginResponse
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if body.AccessToken != "access" || body.User.ID != "u1" {
		t.Fatalf("unexpected login body %+v", body)
	}
}

func TestRefreshAcceptsBodyOrCookie(t *testing.T) {
	u := &stubUsers{}
	router := newTestRouter(&stubMovies{}, u)

	rec, _ := do(t, router, http.MethodPost, "/api/users/refresh-token", `{"refreshToken":"from-body"}`, false)
	if rec.Code != http.StatusOK || u.lastRefresh != "from-body" {
		t.Fatalf("expected body token, got %d %q", rec.Code, u.lastRefresh)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "from-cookie"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || u.lastRefresh != "from-cookie" {
		t.Fatalf("expected cookie token, got %d %q", rec.Code, u.lastRefresh)
	}

	rec, env := do(t, router, http.MethodPost, "/api/users/refresh-token", "", false)
	if rec.Code != http.StatusUnauthorized || env.Message != "Refresh token is required" {
		t.Fatalf("expected 401, got %d %+v", rec.Code, env)
	}

	u.err = apperr.Forbidden("Refresh token has been revoked")
	rec, _ = do(t, router, http.MethodPost, "/api/users/refresh-token", `{"refreshToken":"stale"}`, false)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestGatedUserRoutesPassCaller(t *testing.T) {
	u := &stubUsers{caller: models.User{ID: "u1"}, user: models.User{ID: "u1"}}
	router := newTestRouter(&stubMovies{}, u)

	tests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodPost, "/api/users/logout/u1", ""},
		{http.MethodPut, "/api/users/update/u1", `{"fullName":"Alice A"}`},
		{http.MethodDelete, "/api/users/delete/u1", ""},
		{http.MethodDelete, "/api/users/u1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec, _ := do(t, router, tt.method, tt.target, tt.body, false)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401 without token, got %d", rec.Code)
			}

			u.lastActor, u.lastTarget = "", ""
			rec, env := do(t, router, tt.method, tt.target, tt.body, true)
			if rec.Code != http.StatusOK || !env.Success {
				t.Fatalf("expected 200, got %d %+v", rec.Code, env)
			}
			if u.lastActor != "u1" || u.lastTarget != "u1" {
				t.Fatalf("expected actor and target u1, got %q %q", u.lastActor, u.lastTarget)
			}
		})
	}
}

func TestUpdateForwardsPartialFields(t *testing.T) {
	u := &stubUsers{caller: models.User{ID: "u1"}, user: models.User{ID: "u1"}}
	router := newTestRouter(&stubMovies{}, u)

	rec, _ := do(t, router, http.MethodPut, "/api/users/update/u1", `{"fullName":"Alice A"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if u.lastUpdate.FullName == nil || *u.lastUpdate.FullName != "Alice A" {
		t.Fatalf("expected full name, got %+v", u.lastUpdate)
	}
	if u.lastUpdate.Username != nil || u.lastUpdate.Email != nil {
		t.Fatalf("expected omitted fields to stay nil, got %+v", u.lastUpdate)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	u := &stubUsers{caller: models.User{ID: "u1"}}
	router := newTestRouter(&stubMovies{}, u)

	rec, _ := do(t, router, http.MethodPost, "/api/users/logout/u1", "", true)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != RefreshCookieName || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected refresh cookie to be cleared, got %+v", cookies)
	}
}

func TestPublicUserReads(t *testing.T) {
	u := &stubUsers{user: models.User{ID: "u2", Username: "bob"}}
	router := newTestRouter(&stubMovies{}, u)

	rec, env := do(t, router, http.MethodGet, "/api/users/all", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []models.User
	if err := json.Unmarshal(env.Data, &list); err != nil || len(list) != 1 {
		t.Fatalf("unexpected list %s (%v)", env.Data, err)
	}

	rec, _ = do(t, router, http.MethodGet, "/api/users/u2", "", false)
	if rec.Code != http.StatusOK || u.lastTarget != "u2" {
		t.Fatalf("unexpected find response %d %q", rec.Code, u.lastTarget)
	}
}

func TestRateLimitedRoutes(t *testing.T) {
	router := NewRouter(Dependencies{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Movies:      &stubMovies{},
		Users:       &stubUsers{},
		RateLimiter: denyAll{},
	})

	rec, env := do(t, router, http.MethodGet, "/api/movies/all", "", false)
	if rec.Code != http.StatusTooManyRequests || env.Success {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	hrec := httptest.NewRecorder()
	router.ServeHTTP(hrec, req)
	if hrec.Code != http.StatusOK {
		t.Fatalf("health must not be rate limited, got %d", hrec.Code)
	}
}

func TestRateLimitKeysOnProxyOnlyWhenTrusted(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		wantSecond int
	}{
		{name: "direct", trustProxy: false, wantSecond: http.StatusTooManyRequests},
		{name: "behind proxy", trustProxy: true, wantSecond: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(Dependencies{
				Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
				Movies:      &stubMovies{},
				Users:       &stubUsers{},
				RateLimiter: middleware.NewIPRateLimiter(1, time.Hour, 1, time.Hour),
				TrustProxy:  tt.trustProxy,
			})

			for i, ip := range []string{"203.0.113.1", "203.0.113.2"} {
				req := httptest.NewRequest(http.MethodGet, "/api/movies/all", nil)
				req.Header.Set("X-Forwarded-For", ip)
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, req)

				want := http.StatusOK
				if i == 1 {
					want = tt.wantSecond
				}
				if rec.Code != want {
					t.Fatalf("request from %s: expected %d, got %d", ip, want, rec.Code)
				}
			}
		})
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	router := newTestRouter(&stubMovies{}, &stubUsers{})
	rec, env := do(t, router, http.MethodGet, "/api/nothing", "", false)
	if rec.Code != http.StatusNotFound || env.Success || env.Message != "Route not found" {
		t.Fatalf("unexpected response %d %+v", rec.Code, env)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	router := newTestRouter(&stubMovies{}, &stubUsers{})
	rec, _ := do(t, router, http.MethodGet, "/api/movies/all", "", false)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected security headers on API responses")
	}
}

type userStore struct {
	users map[string]models.User
}

func (s *userStore) Create(_ context.Context, user models.User) (models.User, error) {
	s.users[user.ID] = user
	return user, nil
}

func (s *userStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *userStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *userStore) List(context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStore) Update(_ context.Context, user models.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *userStore) Delete(_ context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func TestDeactivatedUserCanStillManageAccount(t *testing.T) {
	store := &userStore{users: map[string]models.User{
		"u1": {ID: "u1", Username: "alice", Email: "a@x.com", Status: models.UserStatusActive},
		"u2": {ID: "u2", Username: "bob", Email: "b@x.com", Status: models.UserStatusActive},
	}}
	tokens := auth.NewManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	svc := users.NewService(users.Deps{
		Users:  store,
		Tokens: tokens,
		OTPs:   auth.NewOTPStore(cache.NewMemory(), 40*time.Second, 10*time.Minute),
	})
	router := NewRouter(Dependencies{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Movies:      &stubMovies{},
		Users:       svc,
		RateLimiter: allowAll{},
	})

	access, _, err := tokens.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}
	call := func(method, target, body string) (int, responseEnvelope) {
		t.Helper()
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, target, reader)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+access)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var env responseEnvelope
		if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		return rec.Code, env
	}

	for i := 0; i < 2; i++ {
		code, env := call(http.MethodDelete, "/api/users/u1", "")
		if code != http.StatusOK {
			t.Fatalf("deactivate #%d: expected 200, got %d %+v", i+1, code, env)
		}
		var user models.User
		if err := json.Unmarshal(env.Data, &user); err != nil {
			t.Fatalf("decode user: %v", err)
		}
		if user.Status != models.UserStatusPending {
			t.Fatalf("deactivate #%d: expected Pending, got %q", i+1, user.Status)
		}
	}

	if code, env := call(http.MethodPut, "/api/users/update/u1", `{"fullName":"Alice A"}`); code != http.StatusForbidden || env.Message != "Account is not active" {
		t.Fatalf("update while Pending: expected 403, got %d %+v", code, env)
	}
	if code, _ := call(http.MethodPost, "/api/users/logout/u1", ""); code != http.StatusUnauthorized {
		t.Fatalf("logout while Pending: expected 401, got %d", code)
	}
	if code, _ := call(http.MethodDelete, "/api/users/delete/u2", ""); code != http.StatusForbidden {
		t.Fatalf("deleting another account: expected 403, got %d", code)
	}

	if code, env := call(http.MethodDelete, "/api/users/delete/u1", ""); code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d %+v", code, env)
	}
	if _, ok := store.users["u1"]; ok {
		t.Fatal("expected u1 to be removed")
	}
	if code, env := call(http.MethodDelete, "/api/users/delete/u1", ""); code != http.StatusNotFound || env.Message != "User not found" {
		t.Fatalf("delete again: expected 404, got %d %+v", code, env)
	}
}
