// Package nominatim fetches the service-area boundary from an OpenStreetMap
// Nominatim search endpoint as GeoJSON.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/time/rate"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/geofence"
)

const providerName = "nominatim"

// DefaultTimeout bounds a single boundary request.
const DefaultTimeout = 10 * time.Second

// MinInterval is the minimum spacing between requests to one Nominatim
// endpoint, as required by the public usage policy.
const MinInterval = time.Second

// Fetcher implements ports.BoundaryFetcher for a fixed place query.
type Fetcher struct {
	endpoint   string
	query      string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewFetcher creates a Fetcher. A non-positive timeout selects DefaultTimeout.
func NewFetcher(endpoint, query, userAgent string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		endpoint:  endpoint,
		query:     query,
		userAgent: userAgent,
		timeout:   timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(MinInterval), 1),
	}
}

type searchResult struct {
	DisplayName string            `json:"display_name"`
	GeoJSON     *geojson.Geometry `json:"geojson"`
}

// Fetch issues one search request and converts the first result's geometry.
// Every failure is returned as *geofence.FetchError.
func (f *Fetcher) Fetch(ctx context.Context) (*domain.Boundary, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fail(fmt.Errorf("rate limit: %w", err))
	}

	params := url.Values{}
	params.Set("q", f.query)
	params.Set("format", "json")
	params.Set("polygon_geojson", "1")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fail(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fail(fmt.Errorf("boundary request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fail(fmt.Errorf("%w: HTTP %d", geofence.ErrUpstreamStatus, resp.StatusCode))
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fail(fmt.Errorf("%w: %v", geofence.ErrMalformedPayload, err))
	}
	if len(results) == 0 {
		return nil, fail(geofence.ErrNoResults)
	}

	first := results[0]
	if first.GeoJSON == nil {
		return nil, fail(fmt.Errorf("%w: result has no geometry", geofence.ErrUnsupportedGeometry))
	}

	name := first.DisplayName
	if name == "" {
		name = f.query
	}
	b, err := toBoundary(name, first.GeoJSON.Geometry())
	if err != nil {
		return nil, fail(err)
	}
	return b, nil
}

func fail(err error) error {
	return &geofence.FetchError{Provider: providerName, Err: err}
}

// toBoundary converts an orb (multi)polygon. GeoJSON positions are [lon, lat].
func toBoundary(name string, g orb.Geometry) (*domain.Boundary, error) {
	var polys []orb.Polygon
	switch v := g.(type) {
	case orb.Polygon:
		polys = []orb.Polygon{v}
	case orb.MultiPolygon:
		polys = v
	default:
		typ := "nil"
		if g != nil {
			typ = g.GeoJSONType()
		}
		return nil, fmt.Errorf("%w: %s", geofence.ErrUnsupportedGeometry, typ)
	}

	b := &domain.Boundary{Name: name}
	for _, p := range polys {
		if len(p) == 0 {
			return nil, fmt.Errorf("%w: polygon without rings", geofence.ErrMalformedPayload)
		}
		var poly domain.BoundaryPolygon
		for i, r := range p {
			if len(r) < 3 {
				return nil, fmt.Errorf("%w: ring with %d vertices", geofence.ErrMalformedPayload, len(r))
			}
			ring := make(domain.Ring, len(r))
			for j, pt := range r {
				ring[j] = domain.GeoPoint{Lat: pt.Lat(), Lon: pt.Lon()}
			}
			if i == 0 {
				poly.Outer = ring
			} else {
				poly.Holes = append(poly.Holes, ring)
			}
		}
		b.Polygons = append(b.Polygons, poly)
	}
	if len(b.Polygons) == 0 {
		return nil, fmt.Errorf("%w: empty multipolygon", geofence.ErrUnsupportedGeometry)
	}
	return b, nil
}
