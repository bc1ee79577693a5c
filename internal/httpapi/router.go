package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omarshaarawi/superliga/internal/models"
)

// Service is what the HTTP surface needs from the standings service.
type Service interface {
	Latest(ctx context.Context) (*models.Report, error)
	Trades(ctx context.Context) ([]models.TradeCard, error)
	Refresh(ctx context.Context, trigger string) (*models.Report, error)
}

type Options struct {
	// RefreshTimeout bounds POST /api/v1/refresh. Zero leaves it to the
	// service's own deadline.
	RefreshTimeout time.Duration
	CORSOrigins    []string
}

// NewRouter wires the read API, a manual refresh endpoint and the metrics
// endpoint. A nil gatherer serves the default registry.
func NewRouter(svc Service, gatherer prometheus.Gatherer, opts Options) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	h := NewHandler(svc, opts.RefreshTimeout)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", h.HealthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/standings", h.GetStandings)
		r.Get("/standings/{rowID}", h.GetTeam)
		r.Get("/trades", h.GetTrades)
		r.Get("/report", h.GetReport)
		r.Post("/refresh", h.Refresh)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}
