package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Taswoor2507/movie-api/internal/apperr"
	"github.com/Taswoor2507/movie-api/internal/middleware"
	"github.com/Taswoor2507/movie-api/internal/models"
	"github.com/Taswoor2507/movie-api/internal/users"
)

// RefreshCookieName is the HTTP-only cookie carrying the refresh token.
const RefreshCookieName = "refreshToken"

const refreshCookiePath = "/api/users"

// UserHandler implements the account endpoints.
type UserHandler struct {
	Users         UserService
	SecureCookies bool
	RefreshTTL    time.Duration
}

type loginResponse struct {
	User                 models.User `json:"user"`
	AccessToken          string      `json:"accessToken"`
	AccessTokenExpiresAt time.Time   `json:"accessTokenExpiresAt"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register handles POST /api/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in users.RegisterInput
	if err := decodeJSON(r, &in, false); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.Users.Register(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result, "OTP sent to your email. Please verify to complete registration")
}

// VerifyOTP handles POST /api/users/verify-otp.
func (h UserHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var in users.VerifyInput
	if err := decodeJSON(r, &in, false); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.Users.VerifyOTP(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, user, "User registered successfully")
}

// Login handles POST /api/users/login. The refresh token is only sent as an
// HTTP-only cookie.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in users.LoginInput
	if err := decodeJSON(r, &in, false); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.Users.Login(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.setRefreshCookie(w, result.Tokens.RefreshToken, result.Tokens.RefreshExpiresAt)
	respondJSON(w, r, http.StatusOK, loginResponse{
		User:                 result.User,
		AccessToken:          result.Tokens.AccessToken,
		AccessTokenExpiresAt: result.Tokens.AccessExpiresAt,
	}, "Logged in successfully")
}

// Refresh handles POST /api/users/refresh-token. The token may come from the
// JSON body or the refresh cookie.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req, true); err != nil {
		respondError(w, r, err)
		return
	}

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		if cookie, err := r.Cookie(RefreshCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		respondError(w, r, apperr.Auth("Refresh token is required"))
		return
	}

	result, err := h.Users.Refresh(r.Context(), token)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result, "Access token refreshed")
}

// Logout handles POST /api/users/logout/{userId}.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, r, apperr.Auth("Unauthorized request"))
		return
	}

	if err := h.Users.Logout(r.Context(), actor.ID, chi.URLParam(r, "userId")); err != nil {
		respondError(w, r, err)
		return
	}
	h.clearRefreshCookie(w)
	respondJSON(w, r, http.StatusOK, nil, "Logged out successfully")
}

// FindAll handles GET /api/users/all.
func (h UserHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.Users.FindAll(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, list, "Users fetched successfully")
}

// FindByID handles GET /api/users/{userId}.
func (h UserHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.FindByID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, user, "User fetched successfully")
}

// Update handles PUT /api/users/update/{userId}.
func (h UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.CallerIDFromContext(r.Context())
	if !ok {
		respondError(w, r, apperr.Auth("Unauthorized request"))
		return
	}

	var in users.UpdateInput
	if err := decodeJSON(r, &in, false); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.Users.Update(r.Context(), callerID, chi.URLParam(r, "userId"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, user, "User updated successfully")
}

// Delete handles DELETE /api/users/delete/{userId}.
func (h UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.CallerIDFromContext(r.Context())
	if !ok {
		respondError(w, r, apperr.Auth("Unauthorized request"))
		return
	}

	if err := h.Users.Delete(r.Context(), callerID, chi.URLParam(r, "userId")); err != nil {
		respondError(w, r, err)
		return
	}
	h.clearRefreshCookie(w)
	respondJSON(w, r, http.StatusOK, nil, "User deleted successfully")
}

// Deactivate handles DELETE /api/users/{userId}.
func (h UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.CallerIDFromContext(r.Context())
	if !ok {
		respondError(w, r, apperr.Auth("Unauthorized request"))
		return
	}

	user, err := h.Users.Deactivate(r.Context(), callerID, chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.clearRefreshCookie(w)
	respondJSON(w, r, http.StatusOK, user, "User deactivated successfully")
}

func (h UserHandler) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	maxAge := int(h.RefreshTTL / time.Second)
	if !expires.IsZero() {
		maxAge = int(time.Until(expires) / time.Second)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h UserHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
