package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /images", h.UploadImage)
	mux.HandleFunc("GET /images/{id}", h.GetImage)

	mux.HandleFunc("POST /recipes", h.CreateRecipe)
	mux.HandleFunc("GET /recipes", h.ListRecipes)
	mux.HandleFunc("GET /recipes/{id}", h.GetRecipe)
	mux.HandleFunc("DELETE /recipes/{id}", h.DeleteRecipe)

	mux.HandleFunc("POST /recipes/{id}/comments", h.CreateComment)
	mux.HandleFunc("GET /recipes/{id}/comments", h.ListComments)

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
