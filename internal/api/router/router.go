package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/scontreeno/scontreeno/internal/http/middleware"
	"github.com/scontreeno/scontreeno/internal/receipt"
	"github.com/scontreeno/scontreeno/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	IntakeHandler  *receipt.IntakeHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.IntakeHandler.HealthCheck)
	r.Route("/webhooks/twilio", func(r chi.Router) {
		r.Post("/messages", cfg.IntakeHandler.HandleWebhook)
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
