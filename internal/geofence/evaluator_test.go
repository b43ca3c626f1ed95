package geofence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/looopone/internal/core/domain"
)

type staticBoundary struct{ b *domain.Boundary }

func (s staticBoundary) Get(ctx context.Context) *domain.Boundary { return s.b }

// narrowBalcova is a thin polygon inside the fallback rectangle, so some
// points are inside the rectangle but outside the polygon.
var narrowBalcova = &domain.Boundary{
	Name: "narrow",
	Polygons: []domain.BoundaryPolygon{{
		Outer: domain.Ring{pt(38.38, 27.04), pt(38.38, 27.05), pt(38.40, 27.05), pt(38.40, 27.04)},
	}},
}

func TestEvaluator_UsesPolygonWhenAvailable(t *testing.T) {
	e := NewEvaluator(staticBoundary{narrowBalcova}, domain.Bounds{})
	ctx := context.Background()

	cases := []struct {
		name string
		p    domain.GeoPoint
		want bool
	}{
		{"inside polygon", pt(38.39, 27.045), true},
		{"on polygon edge", pt(38.38, 27.045), true},
		{"inside rectangle but outside polygon", pt(38.375, 27.07), false},
		{"outside everything", pt(10, 10), false},
	}
	for _, tc := range cases {
		v := e.Evaluate(ctx, tc.p)
		if v.Inside != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, v.Inside, tc.want)
		}
		if v.Source != SourcePolygon {
			t.Errorf("%s: expected polygon source, got %s", tc.name, v.Source)
		}
	}
}

func TestEvaluator_FallsBackWhenFetchFails(t *testing.T) {
	fetcher := &mockFetcher{fetchFn: func(ctx context.Context) (*domain.Boundary, error) {
		return nil, &FetchError{Provider: "test", Err: errors.New("connection refused")}
	}}
	cache := NewBoundaryCache(fetcher, time.Hour)
	e := NewEvaluator(cache, DefaultFallbackRegion)
	ctx := context.Background()

	// Inside the rectangle, and outside the narrow polygon a real fetch might return.
	v := e.Evaluate(ctx, pt(38.375, 27.07))
	if !v.Inside || v.Source != SourceFallback {
		t.Errorf("expected fallback accept, got %+v", v)
	}
	if e.IsWithinServiceArea(ctx, pt(38.43, 27.05)) {
		t.Error("expected point north of the rectangle to be rejected")
	}
	if !e.IsWithinServiceArea(ctx, pt(38.370, 27.020)) {
		t.Error("expected rectangle corner to be inside (inclusive)")
	}
	if n := fetcher.calls.Load(); n != 1 {
		t.Errorf("expected a single fetch attempt, got %d", n)
	}
}

func TestEvaluator_InvalidCoordinateFailsClosed(t *testing.T) {
	e := NewEvaluator(staticBoundary{nil}, domain.Bounds{MinLat: -90, MinLon: -180, MaxLat: 90, MaxLon: 180})
	ctx := context.Background()

	for _, p := range []domain.GeoPoint{pt(91, 0), pt(-90.5, 0), pt(0, 180.01), pt(0, -181)} {
		v := e.Evaluate(ctx, p)
		if v.Inside || v.Source != SourceInvalid {
			t.Errorf("expected invalid verdict for %+v, got %+v", p, v)
		}
	}
}

func TestNewEvaluator_DefaultFallback(t *testing.T) {
	e := NewEvaluator(staticBoundary{nil}, domain.Bounds{})
	if e.Fallback() != DefaultFallbackRegion {
		t.Errorf("expected default fallback region, got %+v", e.Fallback())
	}
	if !e.IsWithinServiceArea(context.Background(), pt(38.3894, 27.0461)) {
		t.Error("expected the default report coordinate inside the default fallback")
	}
}
