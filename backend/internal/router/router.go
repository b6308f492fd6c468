package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itchan-dev/askchan/backend/internal/setup"
	mw "github.com/itchan-dev/askchan/shared/middleware"
	"github.com/itchan-dev/askchan/shared/middleware/metrics"
	rl "github.com/itchan-dev/askchan/shared/middleware/ratelimiter"
)

// New creates the chi router with all the routes.
// Rate limiters passed to .Use count requests for all endpoints of that group combined.
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config.Public

	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CorsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.Use(mw.APISecurityHeaders(cfg.SecureCookies))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		// Reading is open, the visitor only decides which deleted comments are shown
		v1.Group(func(read chi.Router) {
			read.Use(authMw.OptionalAuth())
			read.Use(mw.RateLimit(deps.ReadLimiter, mw.GetIP))
			read.Get("/posts/{post}", h.GetPost)
			read.Get("/posts/{post}/revisions", h.GetRevisions)
		})

		v1.Group(func(write chi.Router) {
			write.Use(authMw.NeedAuth())
			write.Use(mw.RateLimit(deps.WriteLimiter, mw.GetUserIDFromContext))
			write.Post("/questions", h.CreateQuestion)
			write.Put("/posts/{post}", h.EditPost)
			write.Delete("/posts/{post}", h.DeletePost)
			write.Post("/posts/{post}/answers", h.CreateAnswer)
			write.Post("/posts/{post}/comments", h.CreateComment)
			write.Post("/posts/{post}/reply_address", h.CreateReplyAddress)
		})

		// Mail gateway webhook, authenticated by the shared secret before any limiter reads the body
		v1.Group(func(inbound chi.Router) {
			inbound.Use(mw.SharedSecret(mw.InboundSecretHeader, deps.Config.Private.InboundSecret))
			inbound.Use(mw.MaxBodySize(cfg.InboundMaxBodyBytes))
			inbound.Use(mw.RateLimit(deps.InboundLimiter, mw.GetSenderFromBody))
			inbound.Use(mw.GlobalRateLimit(deps.GlobalInboundLimiter))
			inbound.Post("/inbound/email", h.InboundEmail)
		})
	})

	return r
}

// Stop releases the rate limiters' timers.
func Stop(deps *setup.Dependencies) {
	for _, l := range []*rl.UserRateLimiter{deps.ReadLimiter, deps.WriteLimiter, deps.InboundLimiter, deps.GlobalInboundLimiter} {
		if l != nil {
			l.Stop()
		}
	}
}
