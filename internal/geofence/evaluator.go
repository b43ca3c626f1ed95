package geofence

import (
	"context"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/pkg/metrics"
)

// DefaultFallbackRegion approximates the Balçova municipality.
var DefaultFallbackRegion = domain.Bounds{
	MinLat: 38.370,
	MinLon: 27.020,
	MaxLat: 38.420,
	MaxLon: 27.080,
}

// Source names what decided a verdict.
type Source string

const (
	SourcePolygon  Source = "polygon"
	SourceFallback Source = "fallback"
	SourceInvalid  Source = "invalid"
)

// Verdict is the outcome of a service-area check.
type Verdict struct {
	Inside bool   `json:"inside"`
	Source Source `json:"source"`
}

// BoundarySource supplies the current boundary; nil means unavailable.
type BoundarySource interface {
	Get(ctx context.Context) *domain.Boundary
}

// Evaluator checks coordinates against the cached polygon, or the fallback
// rectangle when no polygon is available.
type Evaluator struct {
	boundaries BoundarySource
	fallback   domain.Bounds
}

// NewEvaluator creates an Evaluator. A zero fallback selects DefaultFallbackRegion.
func NewEvaluator(boundaries BoundarySource, fallback domain.Bounds) *Evaluator {
	if fallback == (domain.Bounds{}) {
		fallback = DefaultFallbackRegion
	}
	return &Evaluator{boundaries: boundaries, fallback: fallback}
}

// Fallback returns the rectangle used when no polygon is available.
func (e *Evaluator) Fallback() domain.Bounds {
	return e.fallback
}

// Evaluate classifies p. Invalid coordinates fail closed.
func (e *Evaluator) Evaluate(ctx context.Context, p domain.GeoPoint) Verdict {
	v := e.evaluate(ctx, p)
	metrics.GeofenceVerdicts.WithLabelValues(string(v.Source), boolLabel(v.Inside)).Inc()
	return v
}

func (e *Evaluator) evaluate(ctx context.Context, p domain.GeoPoint) Verdict {
	if !p.Valid() {
		return Verdict{Inside: false, Source: SourceInvalid}
	}
	if b := e.boundaries.Get(ctx); b != nil && len(b.Polygons) > 0 {
		return Verdict{Inside: BoundaryContains(b, p), Source: SourcePolygon}
	}
	return Verdict{Inside: e.fallback.Contains(p), Source: SourceFallback}
}

// IsWithinServiceArea reports whether p lies inside the service area.
func (e *Evaluator) IsWithinServiceArea(ctx context.Context, p domain.GeoPoint) bool {
	return e.Evaluate(ctx, p).Inside
}

func boolLabel(b bool) string {
	if b {
		return "inside"
	}
	return "outside"
}
