package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/seat-inventory/internal/idempotency"
	"github.com/robertarktes/seat-inventory/internal/observability"
	"github.com/robertarktes/seat-inventory/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter, idemp *idempotency.Idempotency, jwtSecret string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(MetricsMiddleware)
	r.Use(TracingMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", h.Healthz)
		r.Get("/readyz", h.Readyz)
		r.Post("/payments/callback", h.PaymentCallback)

		r.Group(func(r chi.Router) {
			r.Use(JWTMiddleware(jwtSecret))
			r.Use(RateLimitMiddleware(rl))

			r.Get("/sections/availability", h.Availability)
			r.Get("/events/{eventID}/sections/{sectionID}/seats", h.ListSeats)
			r.Get("/orders/{id}", h.GetOrder)

			r.Group(func(r chi.Router) {
				r.Use(IdempotencyMiddleware(idemp))
				r.Post("/holds", h.CreateHold)
				r.Post("/purchases", h.CreatePurchase)
				r.Post("/cancellations", h.CreateCancellation)
			})
		})
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
