package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/Taswoor2507/movie-api/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Logger      *slog.Logger
	Movies      MovieService
	Users       UserService
	RateLimiter middleware.RateLimiter
	Health      []HealthCheck

	CORSOrigins   []string
	MaxBodyBytes  int64
	SecureCookies bool
	RefreshTTL    time.Duration
	// TrustProxy takes the client address from X-Forwarded-For or X-Real-IP.
	// Enable it only behind a proxy that overwrites those headers.
	TrustProxy    bool
}

// NewRouter wires the HTTP handlers and middleware chain.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	health := HealthHandler{Checks: deps.Health}
	movieHandler := MovieHandler{Movies: deps.Movies}
	userHandler := UserHandler{Users: deps.Users, SecureCookies: deps.SecureCookies, RefreshTTL: deps.RefreshTTL}
	requireUser := middleware.RequireUser(deps.Users)

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	if deps.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodyBytes(deps.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, envelope{Message: "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, envelope{Message: "Method not allowed"})
	})

	r.Get("/healthz", health.Handle)

	r.Route("/api/movies", func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.RateLimiter, "movies"))
		r.Get("/", movieHandler.ListByGenre)
		r.Get("/search", movieHandler.Search)
		r.Get("/all", movieHandler.ListAll)
		r.Get("/getById/{id}", movieHandler.GetByID)
		r.With(requireUser).Post("/{id}/rate", movieHandler.Rate)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.RateLimiter, "users"))
		r.Post("/register", userHandler.Register)
		r.Post("/verify-otp", userHandler.VerifyOTP)
		r.Post("/login", userHandler.Login)
		r.Post("/refresh-token", userHandler.Refresh)
		r.Get("/all", userHandler.FindAll)
		r.Get("/{userId}", userHandler.FindByID)

		r.With(requireUser).Post("/logout/{userId}", userHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireBearer(deps.Users))
			r.Put("/update/{userId}", userHandler.Update)
			r.Delete("/delete/{userId}", userHandler.Delete)
			r.Delete("/{userId}", userHandler.Deactivate)
		})
	})

	return r
}
