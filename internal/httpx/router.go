package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/mehmetcc/people/internal/config"
	"go.uber.org/zap"
	"moul.io/chizap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Mount is a sub-router served under Pattern.
type Mount struct {
	Pattern string
	Handler http.Handler
}

func NewRouter(logger *zap.Logger, cfg *config.AppConfig, db Pinger, mounts ...Mount) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(chizap.New(logger, &chizap.Opts{
		WithReferer:   true,
		WithUserAgent: true,
	}))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			// lets browser scripts read the legacy miss marker
			ExposedHeaders: []string{"X-Resource-Found"},
			MaxAge:         300,
		}))
	}
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateLimitWindow))
	}

	r.Get("/healthz", health(db, logger))
	for _, m := range mounts {
		r.Mount(m.Pattern, m.Handler)
	}
	return r
}

func health(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			WriteError(w, http.StatusServiceUnavailable, ErrorResponse[any]{
				Code:    ErrUnavailable,
				Message: "database unreachable",
			})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
