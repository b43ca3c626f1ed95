package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/looopone/internal/geofence"
)

// serviceArea is the boundary the intake gate would check against right now.
type serviceArea struct {
	Source     geofence.Source `json:"source"`
	Vertices   int             `json:"vertices,omitempty"`
	AgeSeconds int64           `json:"age_seconds,omitempty"`
	Expired    bool            `json:"expired,omitempty"`
}

func currentServiceArea(deps *Dependencies) serviceArea {
	if deps.Boundary == nil {
		return serviceArea{Source: geofence.SourceFallback}
	}
	snap, ok := deps.Boundary.Snapshot()
	area := serviceArea{Source: snap.Source, Vertices: snap.Vertices, Expired: snap.Expired}
	if ok {
		area.AgeSeconds = int64(time.Since(snap.FetchedAt).Seconds())
	}
	return area
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// HealthHandler is the liveness check. It never touches the network; the
// service area shows whether reports are being checked against the polygon
// or the fallback rectangle.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := buildVersion()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":       "healthy",
			"uptime":       time.Since(startedAt).Round(time.Second).String(),
			"version":      version,
			"service_area": currentServiceArea(deps),
		})
	}
}

// dependencyCheck pings one backing service. A nil run means the service is
// not configured.
type dependencyCheck struct {
	name     string
	required bool
	run      func(ctx context.Context) error
}

type checkResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
}

func readinessChecks(deps *Dependencies) []dependencyCheck {
	checks := []dependencyCheck{{name: "database", required: true}}
	if deps.DB != nil {
		checks[0].run = deps.DB.Ping
	}

	natsCheck := dependencyCheck{name: "nats"}
	if deps.NATS != nil {
		natsCheck.run = func(context.Context) error {
			if !deps.NATS.IsConnected() {
				return errDisconnected
			}
			return nil
		}
	}

	cacheCheck := dependencyCheck{name: "cache"}
	if deps.Cache != nil {
		cacheCheck.run = deps.Cache.Ping
	}
	return append(checks, natsCheck, cacheCheck)
}

var errDisconnected = errors.New("disconnected")

// ReadyHandler reports whether the service can accept reports. Only the
// database is required: without NATS reports are not triaged, and without
// the cache each worker fetches its own boundary.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := readinessChecks(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		results := make(map[string]checkResult, len(checks))
		ready := true
		for _, chk := range checks {
			if chk.run == nil {
				results[chk.name] = checkResult{Status: "not configured"}
				ready = ready && !chk.required
				continue
			}
			start := time.Now()
			err := chk.run(ctx)
			res := checkResult{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				res.Status, res.Error = "error", err.Error()
				ready = ready && !chk.required
			}
			results[chk.name] = res
		}

		status, code := "ready", fiber.StatusOK
		if !ready {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":       status,
			"checks":       results,
			"service_area": currentServiceArea(deps),
		})
	}
}
