package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker is implemented by the favorites store backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewApp creates the Fiber app. Immutable is forced on: handlers hand request
// strings to long-lived state, and fasthttp reuses the buffers behind them.
func NewApp(cfg fiber.Config) *fiber.App {
	cfg.Immutable = true
	return fiber.New(cfg)
}

// RegisterRoutes registers all HTTP routes on the Fiber app. nc may be nil when publishing is disabled.
func RegisterRoutes(app *fiber.App, nc *nats.Conn, st HealthChecker, h *Handler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{
			"nats":  "disabled",
			"store": "ok",
		}
		status := "ok"
		code := fiber.StatusOK

		if nc != nil {
			checks["nats"] = "ok"
			if !nc.IsConnected() {
				checks["nats"] = "disconnected"
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			} else if err := nc.FlushTimeout(1 * time.Second); err != nil {
				checks["nats"] = err.Error()
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			}
		}

		healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if st != nil {
			if err := st.HealthCheck(healthCtx); err != nil {
				checks["store"] = err.Error()
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	})

	// API routes
	v1 := app.Group("/api/v1")
	v1.Get("/instruments", h.ListInstruments)
	v1.Get("/instruments/:ticker", h.GetInstrument)
	v1.Post("/instruments/:ticker/favorite", h.ToggleFavorite)
	if h.logos != nil {
		v1.Get("/instruments/:ticker/logo", h.Logo)
	}
	if h.session != nil {
		v1.Get("/search", h.Search)
		v1.Delete("/search", h.ClearSearch)
		v1.Post("/search/select/:ticker", h.SelectResult)
		v1.Get("/suggestions", h.Suggestions)
	}
}
