package ports

import (
	"context"

	"github.com/samirrijal/looopone/internal/core/domain"
)

// BoundaryFetcher retrieves the service-area boundary from an external
// provider. Implementations return a typed error instead of panicking and do
// not retry.
type BoundaryFetcher interface {
	Fetch(ctx context.Context) (*domain.Boundary, error)
}

// ServiceArea decides whether a coordinate lies inside the service area.
type ServiceArea interface {
	IsWithinServiceArea(ctx context.Context, p domain.GeoPoint) bool
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishReport(ctx context.Context, report *domain.Report) error
	PublishAlert(ctx context.Context, alert *domain.Alert) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeReports(ctx context.Context, handler func(ctx context.Context, report *domain.Report) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
