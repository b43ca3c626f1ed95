package geofence

import (
	"math"

	"github.com/samirrijal/looopone/internal/core/domain"
)

// edgeEpsilon is the tolerance (in degrees) for treating a point as lying on
// a ring edge. Roughly 1 mm at the equator.
const edgeEpsilon = 1e-8

type location int

const (
	outside location = iota
	inside
	onEdge
)

// locate classifies p against ring using ray casting, with longitude as x and
// latitude as y. Points on an edge or vertex are reported as onEdge.
func locate(ring domain.Ring, p domain.GeoPoint) location {
	n := len(ring)
	if n < 3 {
		return outside
	}

	in := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[j], ring[i]
		if onSegment(a, b, p) {
			return onEdge
		}
		if (b.Lat > p.Lat) != (a.Lat > p.Lat) {
			x := (a.Lon-b.Lon)*(p.Lat-b.Lat)/(a.Lat-b.Lat) + b.Lon
			if p.Lon < x {
				in = !in
			}
		}
	}
	if in {
		return inside
	}
	return outside
}

// onSegment reports whether p lies on the segment a-b within edgeEpsilon.
func onSegment(a, b, p domain.GeoPoint) bool {
	cross := (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
	length := math.Hypot(b.Lon-a.Lon, b.Lat-a.Lat)
	if length == 0 {
		return math.Abs(p.Lon-a.Lon) <= edgeEpsilon && math.Abs(p.Lat-a.Lat) <= edgeEpsilon
	}
	if math.Abs(cross)/length > edgeEpsilon {
		return false
	}
	return p.Lon >= math.Min(a.Lon, b.Lon)-edgeEpsilon && p.Lon <= math.Max(a.Lon, b.Lon)+edgeEpsilon &&
		p.Lat >= math.Min(a.Lat, b.Lat)-edgeEpsilon && p.Lat <= math.Max(a.Lat, b.Lat)+edgeEpsilon
}

// PolygonContains reports whether p is inside poly. The boundary is inclusive:
// points on the outer ring or on a hole ring count as inside. Points strictly
// inside a hole are outside.
func PolygonContains(poly domain.BoundaryPolygon, p domain.GeoPoint) bool {
	switch locate(poly.Outer, p) {
	case outside:
		return false
	case onEdge:
		return true
	}
	for _, hole := range poly.Holes {
		if locate(hole, p) == inside {
			return false
		}
	}
	return true
}

// BoundaryContains reports whether any polygon of b contains p.
func BoundaryContains(b *domain.Boundary, p domain.GeoPoint) bool {
	if b == nil {
		return false
	}
	for _, poly := range b.Polygons {
		if PolygonContains(poly, p) {
			return true
		}
	}
	return false
}
