// Package router assembles the chi router for the booking agent API.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sickdaywithferris/booking-ai-platform/internal/agent"
	"github.com/sickdaywithferris/booking-ai-platform/internal/http/handlers"
	httpmiddleware "github.com/sickdaywithferris/booking-ai-platform/internal/http/middleware"
	"github.com/sickdaywithferris/booking-ai-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	AgentHandler       *agent.Handler
	EmailWebhook       *handlers.EmailWebhookHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a chi router with all routes configured.
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
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.EmailWebhook != nil {
			public.Post("/webhooks/email", cfg.EmailWebhook.Handle)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	if cfg.AgentHandler != nil {
		r.Route("/agent", func(r chi.Router) {
			r.Post("/messages", cfg.AgentHandler.Message)
			r.Get("/conversations/{conversationID}/messages", cfg.AgentHandler.History)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
