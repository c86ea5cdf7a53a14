package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/attento-ai/interview-platform/internal/http/middleware"
	"github.com/attento-ai/interview-platform/internal/leads"
	"github.com/attento-ai/interview-platform/internal/webchat"
	"github.com/attento-ai/interview-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	WebchatHandler     *webchat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// MessageRatePerSec limits the HTTP chat fallback per IP; zero disables
	// the limiter.
	MessageRatePerSec float64
	MessageBurst      int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
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

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.WebchatHandler != nil {
		r.Route("/webchat", func(wc chi.Router) {
			wc.Get("/ws", cfg.WebchatHandler.HandleWebSocket)
			wc.Get("/widget.js", cfg.WebchatHandler.HandleWidgetJS)
			if cfg.MessageRatePerSec > 0 {
				wc.With(httpmiddleware.RateLimit(cfg.MessageRatePerSec, cfg.MessageBurst)).
					Post("/message", cfg.WebchatHandler.HandleMessage)
			} else {
				wc.Post("/message", cfg.WebchatHandler.HandleMessage)
			}
		})
	}

	if cfg.LeadsHandler != nil {
		r.Route("/leads", func(lr chi.Router) {
			lr.Post("/", cfg.LeadsHandler.CreateLead)
			lr.Get("/{leadID}", cfg.LeadsHandler.GetLead)
		})
	}

	return r
}
