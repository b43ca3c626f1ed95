package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Locals the intake handler sets for the access log.
const (
	localIntakeOutcome = "intake_outcome"
	localReportID      = "report_id"
)

// Intake outcomes.
const (
	outcomeAccepted  = "accepted"
	outcomeRejected  = "rejected"
	outcomeInvalid   = "invalid"
	outcomeFailed    = "error"
	outcomeThrottled = "throttled"
)

// quietPaths are polled by the orchestrator and Prometheus; they are logged
// at debug unless they fail.
var quietPaths = map[string]bool{
	"/v1/health": true,
	"/v1/ready":  true,
	"/metrics":   true,
}

// AccessLogMiddleware writes one line per request through the request
// logger, so request_id and trace_id are attached. The route pattern is
// logged next to the raw path, and intake requests carry their outcome.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", path),
			slog.String("route", c.Route().Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
			slog.String("ip", c.IP()),
		}
		if outcome, ok := c.Locals(localIntakeOutcome).(string); ok {
			attrs = append(attrs, slog.String("outcome", outcome))
			if id, ok := c.Locals(localReportID).(string); ok {
				attrs = append(attrs, slog.String("report_id", id))
			}
		}

		level := accessLevel(path, status, err)
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		ctx := c.UserContext()
		LoggerFromCtx(ctx).LogAttrs(ctx, level, "http request", attrs...)
		return err
	}
}

func accessLevel(path string, status int, err error) slog.Level {
	switch {
	case err != nil, status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case quietPaths[path]:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
