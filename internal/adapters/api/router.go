package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poyrazK/cloudKeys/internal/core/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RouterOptions toggles optional middleware.
type RouterOptions struct {
	Tracing     bool
	ServiceName string
}

// NewRouter builds the chi router serving h behind the standard middleware
// chain.
func NewRouter(h *APIHandler, identity ports.IdentityProvider, logger *slog.Logger, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	if opts.Tracing {
		name := opts.ServiceName
		if name == "" {
			name = "cloudkeys"
		}
		r.Use(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, name)
		})
	}

	h.RegisterRoutes(r, identity)
	return r
}
