package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"

	"github.com/Taswoor2507/movie-api/internal/apperr"
	"github.com/Taswoor2507/movie-api/internal/logging"
	"github.com/Taswoor2507/movie-api/internal/repositories"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any, message string) {
	render.Status(r, status)
	render.JSON(w, r, envelope{Success: true, Data: data, Message: message})
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())
	status, message := translateError(err)

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "error", err)
	default:
		logger.Warn("request returned client error", "status", status, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, envelope{Success: false, Data: nil, Message: message})
}

func translateError(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, "Request body too large"
	}

	if appErr, ok := apperr.As(err); ok {
		if appErr.Kind == apperr.KindInternal {
			return http.StatusInternalServerError, "Internal server error"
		}
		return apperr.StatusCode(appErr), appErr.Message
	}

	switch {
	case errors.Is(err, repositories.ErrConflict):
		return http.StatusBadRequest, "Duplicate value for a unique field"
	case errors.Is(err, repositories.ErrInvalidID):
		return http.StatusBadRequest, "Invalid identifier"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// decodeJSON reads a JSON body into dst. An empty body is reported as a
// validation error unless allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	if r.Body == nil {
		if allowEmpty {
			return nil
		}
		return apperr.Validation("Request body is required")
	}

	err := render.DecodeJSON(r.Body, dst)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		if allowEmpty {
			return nil
		}
		return apperr.Validation("Request body is required")
	case errors.As(err, &tooLarge):
		return err
	default:
		return apperr.Validation("Invalid request body")
	}
}
