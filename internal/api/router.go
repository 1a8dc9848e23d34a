package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/skaldby/link-broker/internal/config"
	"github.com/skaldby/link-broker/internal/models"
	"github.com/skaldby/link-broker/internal/oauth"
)

// NewRouter creates a new HTTP router
func NewRouter(cfg *config.Config, st oauth.Store, linker *oauth.Linker, tokens *oauth.TokenManager, clients oauth.Clients) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(SecurityHeadersMiddleware())

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// User routes
	r.Post("/users", HandleCreateUser(st))
	r.Get("/users/{user_id}/links", HandleListLinks(st))

	// Linking flow, rate limited per client IP: both endpoints are
	// unauthenticated and the callback writes credentials
	flowLimiter := NewRateLimiter(rate.Limit(5), 10)
	flowLimiter.CleanupOldLimiters()
	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(flowLimiter))
		r.Get("/connect/{provider}", HandleConnect(linker))
		r.Get("/oauth/{provider}/callback", HandleCallback(linker, cfg))
	})

	// Provider data proxies
	r.Get("/spotify/recently-played", HandleSpotifyRecentlyPlayed(tokens, clients[models.ProviderSpotify]))
	r.Get("/github/user", HandleGitHubUser(tokens, clients[models.ProviderGitHub]))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := st.Ping(req.Context()); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}
