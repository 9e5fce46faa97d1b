package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"scriptvault/internal/handlers"
	"scriptvault/internal/ratelimit"
	"scriptvault/internal/vault"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Service        vault.Service
	Cache          handlers.CacheSizer // nil when caching is disabled
	Limiter        *ratelimit.Limiter
	AllowedClients []string // User-Agent substrings admitted to /script.lua
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) (http.Handler, error) {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(LoggerMiddleware)
	r.Use(CORS)

	scripts := handlers.NewScriptsHandler(deps.Service)
	health := handlers.NewHealthHandler(deps.Service, deps.Cache)
	index, err := handlers.NewIndexHandler(deps.Service)
	if err != nil {
		return nil, err
	}

	// Only link creation is admission-controlled, matching the public
	// write path being the abuse target.
	r.With(RateLimit(deps.Limiter)).Post("/generate", scripts.Generate)

	r.With(ClientGate(deps.AllowedClients)).Get("/script.lua", scripts.Fetch)

	r.Post("/my-scripts", scripts.List)
	r.Post("/my-scripts/{id}", scripts.Update)
	r.Delete("/my-scripts/{id}", scripts.Delete)

	r.Method(http.MethodGet, "/health", health)
	r.Method(http.MethodGet, "/", index)

	// Anything else lands on the index page.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})

	return r, nil
}
