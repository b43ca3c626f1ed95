package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/ports"
)

// ErrInvalidRouteQuery is returned for route queries with bad parameters.
var ErrInvalidRouteQuery = errors.New("invalid route query")

// RouteQuery selects collection routes. Today restricts to routes scheduled
// on the current local day, earliest first.
type RouteQuery struct {
	Today          bool
	CompletedSince *time.Time
	Status         domain.RouteStatus
	ContainerID    int64
	Limit          int
}

// RouteService handles collection-route queries for the dashboard.
type RouteService struct {
	routes ports.RouteRepository
	now    func() time.Time
}

// RouteOption configures a RouteService.
type RouteOption func(*RouteService)

// WithRouteClock overrides the time source used for "today".
func WithRouteClock(now func() time.Time) RouteOption {
	return func(s *RouteService) { s.now = now }
}

// NewRouteService creates a new RouteService.
func NewRouteService(routes ports.RouteRepository, opts ...RouteOption) *RouteService {
	s := &RouteService{routes: routes, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns routes matching q, newest scheduled first.
func (s *RouteService) List(ctx context.Context, q RouteQuery) ([]domain.CollectionRoute, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRouteQuery, q.Status)
	}
	if q.ContainerID < 0 {
		return nil, fmt.Errorf("%w: container id must be positive", ErrInvalidRouteQuery)
	}
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 100
	}

	f := domain.RouteFilter{
		CompletedSince: q.CompletedSince,
		Status:         q.Status,
		ContainerID:    q.ContainerID,
		Limit:          q.Limit,
	}
	if q.Today {
		now := s.now()
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 0, 1)
		f.ScheduledFrom, f.ScheduledBefore = &start, &end
		f.OldestFirst = true
	}
	return s.routes.List(ctx, f)
}

// Today returns the routes scheduled for today, earliest first.
func (s *RouteService) Today(ctx context.Context) ([]domain.CollectionRoute, error) {
	return s.List(ctx, RouteQuery{Today: true})
}

// CompletedSince returns routes completed at or after since.
func (s *RouteService) CompletedSince(ctx context.Context, since time.Time) ([]domain.CollectionRoute, error) {
	return s.List(ctx, RouteQuery{CompletedSince: &since, Status: domain.RouteCompleted})
}
