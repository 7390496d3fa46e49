package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Taswoor2507/movie-api/internal/apperr"
	"github.com/Taswoor2507/movie-api/internal/logging"
	"github.com/Taswoor2507/movie-api/internal/models"
)

// Authenticator resolves an access token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (models.User, error)
}

// Identifier resolves an access token to the id it was issued for, without
// looking at the account state.
type Identifier interface {
	Identify(ctx context.Context, accessToken string) (string, error)
}

type (
	userKey   struct{}
	callerKey struct{}
)

// WithUser stores the authenticated user on ctx.
func WithUser(ctx context.Context, user models.User) context.Context {
	ctx = context.WithValue(ctx, userKey{}, user)
	return WithCallerID(ctx, user.ID)
}

// WithCallerID stores the id of the token holder on ctx.
func WithCallerID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, callerKey{}, id)
	return logging.WithUserID(ctx, id)
}

// CallerIDFromContext returns the id stored by RequireUser or RequireBearer.
func CallerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(callerKey{}).(string)
	return id, ok && id != ""
}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey{}).(models.User)
	return user, ok
}

// RequireUser admits only requests carrying a valid bearer token for an
// active account.
func RequireUser(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				logging.FromContext(ctx).Warn("missing bearer token")
				writeError(w, r, http.StatusUnauthorized, "Unauthorized request")
				return
			}

			user, err := authn.Authenticate(ctx, token)
			if err != nil {
				rejectCaller(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

// RequireBearer admits requests carrying a valid access token whatever the
// state of the account, so Pending users can still manage themselves.
func RequireBearer(ident Identifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				logging.FromContext(ctx).Warn("missing bearer token")
				writeError(w, r, http.StatusUnauthorized, "Unauthorized request")
				return
			}

			id, err := ident.Identify(ctx, token)
			if err != nil {
				rejectCaller(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCallerID(ctx, id)))
		})
	}
}

func rejectCaller(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())
	if appErr, ok := apperr.As(err); ok && appErr.Kind != apperr.KindInternal {
		logger.Warn("request rejected by gate", "error", err)
		writeError(w, r, apperr.StatusCode(err), appErr.Message)
		return
	}
	logger.Error("authenticate request", "error", err)
	writeError(w, r, http.StatusInternalServerError, "Internal server error")
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
