package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within the WGS 84 coordinate ranges.
// Out-of-range values are never clamped.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat" mapstructure:"min_lat"`
	MinLon float64 `json:"min_lon" mapstructure:"min_lon"`
	MaxLat float64 `json:"max_lat" mapstructure:"max_lat"`
	MaxLon float64 `json:"max_lon" mapstructure:"max_lon"`
}

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Ring is a closed sequence of vertices. The closing vertex may or may not
// repeat the first one.
type Ring []GeoPoint

// BoundaryPolygon is a simple polygon with an outer ring and optional holes.
type BoundaryPolygon struct {
	Outer Ring   `json:"outer"`
	Holes []Ring `json:"holes,omitempty"`
}

// Boundary is a named service-area shape. A MultiPolygon source yields more
// than one polygon. Boundaries are immutable once built.
type Boundary struct {
	Name     string            `json:"name"`
	Polygons []BoundaryPolygon `json:"polygons"`
}

// VertexCount returns the total number of vertices across all rings.
func (b *Boundary) VertexCount() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, p := range b.Polygons {
		n += len(p.Outer)
		for _, h := range p.Holes {
			n += len(h)
		}
	}
	return n
}
