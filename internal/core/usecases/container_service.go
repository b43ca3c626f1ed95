package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/ports"
)

const statsCacheKey = "dashboard:stats"

// ErrInvalidContainerQuery is returned for a malformed container filter.
var ErrInvalidContainerQuery = errors.New("invalid container query")

const (
	maxSearchLength   = 100
	detailAlertsLimit = 10
	detailRoutesLimit = 5
)

// ContainerService serves container data to the dashboard.
type ContainerService struct {
	containers ports.ContainerRepository
	cache      ports.CacheService
	alerts     ports.AlertRepository
	routes     ports.RouteRepository
}

// ContainerOption configures a ContainerService.
type ContainerOption func(*ContainerService)

// WithHistory lets Detail include recent alerts and collection routes.
func WithHistory(alerts ports.AlertRepository, routes ports.RouteRepository) ContainerOption {
	return func(s *ContainerService) {
		s.alerts = alerts
		s.routes = routes
	}
}

// NewContainerService creates a new ContainerService. cache may be nil.
func NewContainerService(containers ports.ContainerRepository, cache ports.CacheService, opts ...ContainerOption) *ContainerService {
	s := &ContainerService{containers: containers, cache: cache}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ListActive returns containers matching filter, active ones unless the
// filter names a status.
func (s *ContainerService) ListActive(ctx context.Context, filter domain.ContainerFilter) ([]domain.Container, error) {
	if filter.MinFillLevel < 0 || filter.MinFillLevel > 100 {
		return nil, fmt.Errorf("%w: min fill level must be 0-100, got %d", ErrInvalidContainerQuery, filter.MinFillLevel)
	}
	switch filter.Status {
	case "", domain.StatusAny, domain.StatusActive, domain.StatusMaintenance, domain.StatusDamaged, domain.StatusInactive:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidContainerQuery, filter.Status)
	}
	filter.Search = strings.TrimSpace(filter.Search)
	if utf8.RuneCountInString(filter.Search) > maxSearchLength {
		return nil, fmt.Errorf("%w: search must be at most %d characters", ErrInvalidContainerQuery, maxSearchLength)
	}
	return s.containers.ListActive(ctx, filter)
}

// GetByID returns a single container.
func (s *ContainerService) GetByID(ctx context.Context, id int64) (*domain.Container, error) {
	return s.containers.GetByID(ctx, id)
}

// Detail returns a container with its newest alerts and collection routes.
func (s *ContainerService) Detail(ctx context.Context, id int64) (*domain.ContainerDetail, error) {
	c, err := s.containers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &domain.ContainerDetail{
		Container:    *c,
		RecentAlerts: []domain.Alert{},
		RecentRoutes: []domain.CollectionRoute{},
	}
	if s.alerts != nil {
		alerts, err := s.alerts.ListByContainer(ctx, id, detailAlertsLimit)
		if err != nil {
			return nil, fmt.Errorf("container %d alerts: %w", id, err)
		}
		if alerts != nil {
			d.RecentAlerts = alerts
		}
	}
	if s.routes != nil {
		routes, err := s.routes.List(ctx, domain.RouteFilter{ContainerID: id, Limit: detailRoutesLimit})
		if err != nil {
			return nil, fmt.Errorf("container %d routes: %w", id, err)
		}
		if routes != nil {
			d.RecentRoutes = routes
		}
	}
	return d, nil
}

// FindNearby returns containers within radiusMeters of the point, nearest first.
func (s *ContainerService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Container, error) {
	if !(domain.GeoPoint{Lat: lat, Lon: lon}).Valid() {
		return nil, fmt.Errorf("invalid coordinate %f,%f", lat, lon)
	}
	if radiusMeters <= 0 || radiusMeters > 5000 {
		radiusMeters = 500
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.containers.FindNearby(ctx, lat, lon, radiusMeters, limit)
}

// AttentionNeeded returns containers that are nearly full, low on battery or
// out of service.
func (s *ContainerService) AttentionNeeded(ctx context.Context, limit int) ([]domain.Container, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.containers.AttentionNeeded(ctx, limit)
}

// Stats returns dashboard totals. Results are cached for a minute.
func (s *ContainerService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, statsCacheKey); err == nil {
			var stats domain.DashboardStats
			if err := json.Unmarshal(data, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats, err := s.containers.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(stats); err == nil {
			_ = s.cache.Set(ctx, statsCacheKey, data, 60)
		}
	}
	return stats, nil
}
