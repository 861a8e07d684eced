package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/api/middleware"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/config"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/handlers"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/mailroom"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/store"
)

// maxRequestBytes caps request bodies at twice the message body limit,
// leaving headroom for JSON escaping and envelope fields.
const maxRequestBytes = 128 * 1024

// NewRouter creates and configures the HTTP router. redisStore may be
// nil, which turns rate limiting off entirely.
func NewRouter(logger zerolog.Logger, st store.Store, redisStore *store.RedisStore, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(maxRequestBytes))
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting only when Redis is configured
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
			Whitelist: cfg.RateLimitWhitelist,
		})
		r.Use(limiter.Middleware)
	}

	// CORS - allow all origins (agents call from anywhere)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Sandbox-Agent"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	svc := mailroom.New(st, logger)
	h := handlers.NewHandler(svc, st, redisStore)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	// Groups
	r.Post("/groups", h.CreateGroup)
	r.Get("/groups", h.ListGroups)
	r.Post("/groups/{groupID}/agents", h.AddAgents)
	r.Get("/groups/{groupID}/inbox", h.Inbox)
	r.Get("/groups/{groupID}/inbox/preview", h.InboxPreview)

	// Emails
	r.Post("/emails", h.WriteEmail)
	r.Post("/threads/{threadID}/reply", h.ReplyEmail)
	r.Post("/threads/{threadID}/reply-all", h.ReplyAllEmail)
	r.Get("/threads/{threadID}", h.GetThread)
	r.Get("/messages/{messageID}", h.GetMessage)
	r.Get("/agents/{agent}/messages", h.AgentMessages)

	// Admin
	r.Post("/admin/reset", h.Reset)

	return r
}
