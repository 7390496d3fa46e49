package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Taswoor2507/movie-api/internal/apperr"
	"github.com/Taswoor2507/movie-api/internal/middleware"
	"github.com/Taswoor2507/movie-api/internal/movies"
)

// MovieHandler implements the catalog endpoints.
type MovieHandler struct {
	Movies MovieService
}

// Search handles GET /api/movies/search?title=.
func (h MovieHandler) Search(w http.ResponseWriter, r *http.Request) {
	movie, err := h.Movies.Search(r.Context(), r.URL.Query().Get("title"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, movie, "Movie fetched successfully")
}

// GetByID handles GET /api/movies/getById/{id}.
func (h MovieHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	movie, err := h.Movies.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, movie, "Movie fetched successfully")
}

// ListAll handles GET /api/movies/all.
func (h MovieHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	listing, err := h.Movies.ListAll(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, listing, "Movies fetched successfully")
}

// ListByGenre handles GET /api/movies?genre=.
func (h MovieHandler) ListByGenre(w http.ResponseWriter, r *http.Request) {
	listing, err := h.Movies.ListByGenre(r.Context(), r.URL.Query().Get("genre"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, listing, "Movies fetched successfully")
}

// Rate handles POST /api/movies/{id}/rate. The caller comes from the gate.
func (h MovieHandler) Rate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, r, apperr.Auth("Unauthorized request"))
		return
	}

	var in movies.RateInput
	if err := decodeJSON(r, &in, false); err != nil {
		respondError(w, r, err)
		return
	}
	in.MovieID = chi.URLParam(r, "id")
	in.UserID = user.ID
	in.Username = user.Username

	movie, err := h.Movies.Rate(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, movie, "Review submitted successfully")
}
