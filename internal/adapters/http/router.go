package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/looopone/internal/pkg/metrics"
)

// reportTimeout bounds an intake request. It must exceed the boundary fetch
// timeout because a cache miss fetches inline.
const reportTimeout = 20 * time.Second

// SetupRoutes registers the intake, dashboard, GraphQL and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Citizen intake: 30 reports per minute per IP
	app.Post("/report-issue-api/",
		limiter.New(limiter.Config{
			Max:        30,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				c.Locals(localIntakeOutcome, outcomeThrottled)
				return intakeError(c, fiber.StatusTooManyRequests, "too many reports, please try again later")
			},
		}),
		timeout.NewWithContext(ReportIssueHandler(deps), reportTimeout),
	)

	// Dashboard API, 15s per-request timeout
	api := app.Group("/api", AdminKeyMiddleware(deps.AdminToken))
	api.Get("/containers", timeout.NewWithContext(ListContainersHandler(deps), 15*time.Second))
	api.Get("/containers/nearby", timeout.NewWithContext(NearbyContainersHandler(deps), 15*time.Second))
	api.Get("/containers/attention", timeout.NewWithContext(AttentionHandler(deps), 15*time.Second))
	api.Get("/containers/:id", timeout.NewWithContext(GetContainerHandler(deps), 15*time.Second))
	api.Get("/stats", timeout.NewWithContext(StatsHandler(deps), 15*time.Second))
	api.Get("/alerts", timeout.NewWithContext(ListAlertsHandler(deps), 15*time.Second))
	api.Post("/alerts/:id/resolve", timeout.NewWithContext(ResolveAlertHandler(deps), 15*time.Second))
	api.Get("/routes", timeout.NewWithContext(ListRoutesHandler(deps), 15*time.Second))
	api.Get("/map/center", timeout.NewWithContext(MapCenterHandler(deps), 15*time.Second))
	api.Get("/boundary", timeout.NewWithContext(BoundaryStatusHandler(deps), reportTimeout))
	api.Post("/boundary/refresh", timeout.NewWithContext(RefreshBoundaryHandler(deps), reportTimeout))

	// GraphQL
	app.Post("/graphql", AdminKeyMiddleware(deps.AdminToken), GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app, DefaultOpenAPIPath)

	// WebSocket, same key as the dashboard API
	app.Use("/ws", FeedKeyMiddleware(deps.AdminToken), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
