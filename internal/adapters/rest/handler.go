// Package rest exposes the analysis service over HTTP.
package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
	"github.com/ewilliams-labs/chordlens/internal/core/services"
)

const defaultMaxBodyBytes = 32 << 20

// AnalysisRunner schedules analyses; *worker.Pool implements it.
type AnalysisRunner interface {
	Do(ctx context.Context, req services.AnalyzeRequest) (domain.Report, error)
}

// Options tunes the HTTP adapter.
type Options struct {
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc          *services.Orchestrator
	runner       AnalysisRunner
	router       chi.Router
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewHandler initializes the HTTP adapter and sets up routes. A nil runner
// makes /analyze call the service inline.
func NewHandler(svc *services.Orchestrator, runner AnalysisRunner, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	h := &Handler{
		svc:          svc,
		runner:       runner,
		router:       chi.NewRouter(),
		logger:       opts.Logger,
		maxBodyBytes: opts.MaxBodyBytes,
	}
	h.routes()
	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	r := h.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Post("/analyze", h.Analyze)
	r.Get("/tuning/reference", h.Reference)

	r.Route("/presets", func(r chi.Router) {
		r.Get("/", h.ListPresets)
		r.Post("/", h.CreatePreset)
		r.Get("/{id}", h.GetPreset)
		r.Delete("/{id}", h.DeletePreset)
	})
}

// requestLogger logs one line per request with the chi request id.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info("http request",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("elapsed", time.Since(start)))
	})
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "chordlens is listening"})
}
