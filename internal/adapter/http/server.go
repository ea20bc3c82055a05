package adapthttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"kittenfeed/internal/app"
	"kittenfeed/internal/metrics"
)

// Options configures the ambient behaviour of a Server.
type Options struct {
	WebDir             string
	CORSAllowedOrigin  string
	RateLimitPerMinute int
	Logger             logrus.FieldLogger
	// Metrics and Gatherer are optional; /metrics is served only with a
	// Gatherer.
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	states    *app.StateService
	summaries *app.SummaryService
	advice    *app.AdviceService

	webDir     string
	corsOrigin string
	log        logrus.FieldLogger
	metrics    *metrics.Collector
	gatherer   prometheus.Gatherer
	limiter    *ipLimiter
}

// New creates a Server wired to the given application services.
func New(states *app.StateService, summaries *app.SummaryService, advice *app.AdviceService, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	perMin := opts.RateLimitPerMinute
	if perMin <= 0 {
		perMin = 120
	}
	return &Server{
		states:     states,
		summaries:  summaries,
		advice:     advice,
		webDir:     opts.WebDir,
		corsOrigin: opts.CORSAllowedOrigin,
		log:        log,
		metrics:    opts.Metrics,
		gatherer:   opts.Gatherer,
		limiter:    newIPLimiter(perMin, 5*time.Minute),
	}
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.limiter.Stop()
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(withNoCache)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})

		r.Get("/state/{familyID}", s.handleGetState)
		r.Post("/state/{familyID}", s.handleReplaceState)

		r.Route("/families/{familyID}", func(r chi.Router) {
			r.Get("/summary", s.handleSummary)
			r.Get("/daily", s.handleDaily)
			r.Get("/advice", s.handleAdvice)
			r.Put("/settings", s.handleSettings)

			r.Post("/feedings", s.handleAddFeeding)
			r.Delete("/feedings/{id}", s.handleDeleteFeeding)
			r.Patch("/feedings/{id}", s.handleEditFeeding)

			r.Post("/weights", s.handleAddWeight)
			r.Delete("/weights/{id}", s.handleDeleteWeight)
			r.Patch("/weights/{id}", s.handleEditWeight)
		})
	})

	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))
	}

	spa := spaFromDisk(s.webDir)
	r.NotFound(spa.ServeHTTP)
	return r
}
