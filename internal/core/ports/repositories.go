package ports

import (
	"context"

	"github.com/samirrijal/looopone/internal/core/domain"
)

// ReportRepository persists accepted citizen reports.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
}

// ContainerRepository reads containers for the dashboard.
type ContainerRepository interface {
	ListActive(ctx context.Context, filter domain.ContainerFilter) ([]domain.Container, error)
	GetByID(ctx context.Context, id int64) (*domain.Container, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Container, error)
	AttentionNeeded(ctx context.Context, limit int) ([]domain.Container, error)
	Stats(ctx context.Context) (*domain.DashboardStats, error)
}

// AlertRepository persists alerts.
type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) error
	List(ctx context.Context, includeResolved bool) ([]domain.Alert, error)
	ListByContainer(ctx context.Context, containerID int64, limit int) ([]domain.Alert, error)
	Resolve(ctx context.Context, id int64, resolvedBy string) error
	Delete(ctx context.Context, id int64) error
}

// RouteRepository persists collection routes.
type RouteRepository interface {
	List(ctx context.Context, filter domain.RouteFilter) ([]domain.CollectionRoute, error)
	Create(ctx context.Context, route *domain.CollectionRoute) error
}

// MunicipalityRepository reads municipality settings.
type MunicipalityRepository interface {
	Active(ctx context.Context) (*domain.Municipality, error)
}
