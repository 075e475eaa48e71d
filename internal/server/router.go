package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kiesman99/imgstitch/internal/api"
)

// BaseURL is the prefix of every API route.
const BaseURL = "/api/v1"

// NewRouter wires the middleware stack and mounts the API at BaseURL.
func NewRouter(s *Server, timeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if timeout > 0 {
		r.Use(Deadline(timeout))
	}
	r.Use(CORS)

	api.HandlerWithOptions(s, api.ChiServerOptions{
		BaseURL:    BaseURL,
		BaseRouter: r,
	})

	// Legacy health endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, BaseURL+"/health", http.StatusMovedPermanently)
	})

	return r
}

// Deadline bounds each request context by timeout. Unlike middleware.Timeout
// it writes nothing itself; handlers answer an expired deadline with 504.
func Deadline(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CORS allows browser clients from any origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Stitch-Overlaps")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
