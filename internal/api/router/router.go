package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpmiddleware "github.com/soconail/lead-relay/internal/http/middleware"
	"github.com/soconail/lead-relay/internal/leadqueue"
	"github.com/soconail/lead-relay/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	QueueHandler       *leadqueue.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.QueueHandler.HealthCheck)

	r.Route("/api", func(api chi.Router) {
		api.Get("/queue-status", cfg.QueueHandler.QueueStatus)
		// A dispatch run hits the external endpoint once per pending lead,
		// so the trigger itself is rate limited.
		api.With(httpmiddleware.RateLimit(1, 5)).Post("/process-queue", cfg.QueueHandler.ProcessQueue)
		api.Get("/conversations", cfg.QueueHandler.ListConversations)
		api.Post("/test-webhook", cfg.QueueHandler.TestWebhook)
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
