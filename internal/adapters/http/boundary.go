package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/geofence"
)

// boundaryStatus describes what the geofence currently checks against.
type boundaryStatus struct {
	Source    geofence.Source `json:"source"`
	Name      string          `json:"name,omitempty"`
	Polygons  int             `json:"polygons"`
	Vertices  int             `json:"vertices"`
	FetchedAt *time.Time      `json:"fetched_at,omitempty"`
	Fallback  domain.Bounds   `json:"fallback"`
}

func currentBoundary(c *fiber.Ctx, deps *Dependencies) boundaryStatus {
	st := boundaryStatus{Source: geofence.SourceFallback, Fallback: deps.Geofence.Fallback()}
	if b := deps.Boundary.Get(c.UserContext()); b != nil {
		st.Source = geofence.SourcePolygon
		st.Name = b.Name
		st.Polygons = len(b.Polygons)
		st.Vertices = b.VertexCount()
	}
	if t, ok := deps.Boundary.FetchedAt(); ok {
		st.FetchedAt = &t
	}
	return st
}

// BoundaryStatusHandler reports the active boundary source.
func BoundaryStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(currentBoundary(c, deps))
	}
}

// RefreshBoundaryHandler drops the cached boundary and fetches it again.
func RefreshBoundaryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.Boundary.Invalidate(c.UserContext())
		st := currentBoundary(c, deps)
		LoggerFromCtx(c.UserContext()).Info("boundary refreshed by operator", "source", st.Source, "vertices", st.Vertices)
		return c.JSON(st)
	}
}
