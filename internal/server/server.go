// Package server exposes the pricing engine and the session bet slips over a
// JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rewired-gh/evsignal/internal/analysis"
	"github.com/rewired-gh/evsignal/internal/models"
	"github.com/rewired-gh/evsignal/internal/session"
	"github.com/rewired-gh/evsignal/internal/value"
)

// Notifier delivers analysis reports, e.g. to a Telegram chat.
type Notifier interface {
	SendReport(ctx context.Context, results []*analysis.MatchAnalysis) error
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	analyzer       *analysis.Analyzer
	evaluator      *value.Evaluator
	sessions       *session.Store
	notifier       Notifier
	defaultProfile models.RiskProfile
}

// NewHandler creates a new handler. notifier may be nil.
func NewHandler(analyzer *analysis.Analyzer, evaluator *value.Evaluator, sessions *session.Store, notifier Notifier, defaultProfile models.RiskProfile) *Handler {
	if defaultProfile == "" {
		defaultProfile = models.Balanced
	}
	return &Handler{
		analyzer:       analyzer,
		evaluator:      evaluator,
		sessions:       sessions,
		notifier:       notifier,
		defaultProfile: defaultProfile,
	}
}

// Routes builds the chi router with middleware and all API routes.
func (h *Handler) Routes(opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/teams", h.ListTeams)
		r.Get("/markets", h.ListMarkets)
		r.Post("/analyze", h.Analyze)
		r.Post("/analyze/rates", h.AnalyzeRates)

		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Delete("/", h.DeleteSession)
			r.Get("/slip", h.GetSlip)
			r.Post("/slip", h.AddBet)
			r.Delete("/slip", h.ClearSlip)
			r.Delete("/slip/{index}", h.RemoveBet)
			r.Post("/plan", h.Plan)
			r.Post("/combine", h.Combine)
		})
	})

	return r
}
