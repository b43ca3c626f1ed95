// Package geofence decides whether a coordinate lies inside the municipal
// service area. The boundary polygon is fetched from an external provider and
// cached with a TTL; when no polygon is available a fixed rectangle is used.
package geofence

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/ports"
	"github.com/samirrijal/looopone/internal/pkg/metrics"
)

// DefaultTTL is how long a fetched boundary (or a failed fetch) is kept.
const DefaultTTL = 24 * time.Hour

// DefaultCacheKey names the boundary entry in the shared store.
const DefaultCacheKey = "balcova_boundary_polygon"

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// cacheEntry pairs a boundary, or an explicit "unavailable" marker, with the
// time it was fetched.
type cacheEntry struct {
	Boundary    *domain.Boundary `json:"boundary,omitempty"`
	Unavailable bool             `json:"unavailable"`
	FetchedAt   time.Time        `json:"fetched_at"`
}

func (e *cacheEntry) valid(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// BoundaryCache holds the single process-wide boundary entry. Entries are
// replaced atomically as whole values; concurrent misses may each fetch.
type BoundaryCache struct {
	fetcher ports.BoundaryFetcher
	ttl     time.Duration
	now     Clock

	shared ports.CacheService
	key    string

	entry atomic.Pointer[cacheEntry]
}

// CacheOption configures a BoundaryCache.
type CacheOption func(*BoundaryCache)

// WithClock overrides the time source.
func WithClock(now Clock) CacheOption {
	return func(c *BoundaryCache) { c.now = now }
}

// WithSharedStore makes the cache read and write the entry under key in a
// store shared by all API workers.
func WithSharedStore(store ports.CacheService, key string) CacheOption {
	return func(c *BoundaryCache) {
		c.shared = store
		if key != "" {
			c.key = key
		}
	}
}

// NewBoundaryCache creates a cache in front of fetcher. A non-positive ttl
// selects DefaultTTL.
func NewBoundaryCache(fetcher ports.BoundaryFetcher, ttl time.Duration, opts ...CacheOption) *BoundaryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &BoundaryCache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		key:     DefaultCacheKey,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the cached boundary, fetching it on a miss or after expiry.
// A nil result means no polygon is available for the current TTL window.
func (c *BoundaryCache) Get(ctx context.Context) *domain.Boundary {
	now := c.now()
	if e := c.entry.Load(); e != nil && e.valid(now, c.ttl) {
		metrics.CacheHits.WithLabelValues("boundary").Inc()
		return e.Boundary
	}
	metrics.CacheMisses.WithLabelValues("boundary").Inc()

	if e := c.loadShared(ctx, now); e != nil {
		c.entry.Store(e)
		return e.Boundary
	}

	return c.refresh(ctx).Boundary
}

// Invalidate drops the local entry so the next Get refetches.
func (c *BoundaryCache) Invalidate(ctx context.Context) {
	c.entry.Store(nil)
	if c.shared != nil {
		if err := c.shared.Delete(ctx, c.key); err != nil {
			slog.WarnContext(ctx, "boundary shared delete failed", "key", c.key, "error", err)
		}
	}
}

// FetchedAt returns when the current entry was stored, and whether one exists.
func (c *BoundaryCache) FetchedAt() (time.Time, bool) {
	e := c.entry.Load()
	if e == nil {
		return time.Time{}, false
	}
	return e.FetchedAt, true
}

// Snapshot describes the local entry without fetching.
type Snapshot struct {
	Source    Source
	Vertices  int
	FetchedAt time.Time
	Expired   bool
}

// Snapshot reports what the next Get would start from. ok is false when no
// entry has been stored yet.
func (c *BoundaryCache) Snapshot() (s Snapshot, ok bool) {
	e := c.entry.Load()
	if e == nil {
		return Snapshot{Source: SourceFallback}, false
	}
	s = Snapshot{Source: SourceFallback, FetchedAt: e.FetchedAt, Expired: !e.valid(c.now(), c.ttl)}
	if e.Boundary != nil {
		s.Source = SourcePolygon
		s.Vertices = e.Boundary.VertexCount()
	}
	return s, true
}

func (c *BoundaryCache) refresh(ctx context.Context) *cacheEntry {
	ctx, span := otel.Tracer("looopone/geofence").Start(ctx, "boundary.fetch")
	defer span.End()

	start := time.Now()
	b, err := c.fetcher.Fetch(ctx)
	metrics.BoundaryFetchDuration.Observe(time.Since(start).Seconds())

	e := &cacheEntry{FetchedAt: c.now()}
	if err != nil || b == nil || len(b.Polygons) == 0 {
		e.Unavailable = true
		metrics.BoundaryFetches.WithLabelValues("error").Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		slog.WarnContext(ctx, "boundary unavailable, using fallback region",
			"error", err, "retry_after", c.ttl.String())
	} else {
		e.Boundary = b
		metrics.BoundaryFetches.WithLabelValues("ok").Inc()
		span.SetAttributes(attribute.Int("boundary.vertices", b.VertexCount()))
		slog.InfoContext(ctx, "boundary refreshed", "name", b.Name, "polygons", len(b.Polygons), "vertices", b.VertexCount())
	}

	c.entry.Store(e)
	c.storeShared(ctx, e)
	return e
}

func (c *BoundaryCache) loadShared(ctx context.Context, now time.Time) *cacheEntry {
	if c.shared == nil {
		return nil
	}
	data, err := c.shared.Get(ctx, c.key)
	if err != nil {
		return nil
	}
	var e cacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		slog.WarnContext(ctx, "boundary shared entry unreadable", "key", c.key, "error", err)
		return nil
	}
	if !e.valid(now, c.ttl) {
		return nil
	}
	return &e
}

func (c *BoundaryCache) storeShared(ctx context.Context, e *cacheEntry) {
	if c.shared == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	ttl := int(c.ttl / time.Second)
	if ttl <= 0 {
		ttl = 1
	}
	if err := c.shared.Set(ctx, c.key, data, ttl); err != nil {
		slog.WarnContext(ctx, "boundary shared write failed", "key", c.key, "error", err)
	}
}
