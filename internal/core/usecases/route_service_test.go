package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/usecases"
)

// --- Mock RouteRepository ---

type mockRouteRepo struct {
	listFn func(ctx context.Context, f domain.RouteFilter) ([]domain.CollectionRoute, error)
}

func (m *mockRouteRepo) List(ctx context.Context, f domain.RouteFilter) ([]domain.CollectionRoute, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, nil
}

func (m *mockRouteRepo) Create(ctx context.Context, r *domain.CollectionRoute) error { return nil }

func TestRouteService_Today(t *testing.T) {
	istanbul := time.FixedZone("TRT", 3*60*60)
	now := time.Date(2024, 5, 1, 14, 30, 0, 0, istanbul)

	var got domain.RouteFilter
	repo := &mockRouteRepo{
		listFn: func(ctx context.Context, f domain.RouteFilter) ([]domain.CollectionRoute, error) {
			got = f
			return []domain.CollectionRoute{{ID: 1}}, nil
		},
	}
	svc := usecases.NewRouteService(repo, usecases.WithRouteClock(func() time.Time { return now }))

	routes, err := svc.Today(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}
	wantFrom := time.Date(2024, 5, 1, 0, 0, 0, 0, istanbul)
	if got.ScheduledFrom == nil || !got.ScheduledFrom.Equal(wantFrom) {
		t.Errorf("expected from %v, got %v", wantFrom, got.ScheduledFrom)
	}
	if got.ScheduledBefore == nil || !got.ScheduledBefore.Equal(wantFrom.Add(24*time.Hour)) {
		t.Errorf("expected before next midnight, got %v", got.ScheduledBefore)
	}
	if !got.OldestFirst {
		t.Error("today's routes should be earliest first")
	}
}

func TestRouteService_CompletedSince(t *testing.T) {
	since := time.Date(2024, 4, 24, 0, 0, 0, 0, time.UTC)
	var got domain.RouteFilter
	repo := &mockRouteRepo{
		listFn: func(ctx context.Context, f domain.RouteFilter) ([]domain.CollectionRoute, error) {
			got = f
			return nil, nil
		},
	}
	svc := usecases.NewRouteService(repo)

	if _, err := svc.CompletedSince(context.Background(), since); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.RouteCompleted || got.CompletedSince == nil || !got.CompletedSince.Equal(since) {
		t.Errorf("unexpected filter %+v", got)
	}
	if got.ScheduledFrom != nil || got.OldestFirst {
		t.Errorf("completed query must not restrict schedule: %+v", got)
	}
}

func TestRouteService_ListValidation(t *testing.T) {
	svc := usecases.NewRouteService(&mockRouteRepo{})

	_, err := svc.List(context.Background(), usecases.RouteQuery{Status: "finished"})
	if !errors.Is(err, usecases.ErrInvalidRouteQuery) {
		t.Errorf("expected ErrInvalidRouteQuery, got %v", err)
	}
	_, err = svc.List(context.Background(), usecases.RouteQuery{ContainerID: -1})
	if !errors.Is(err, usecases.ErrInvalidRouteQuery) {
		t.Errorf("expected ErrInvalidRouteQuery, got %v", err)
	}
}

func TestRouteService_DefaultLimit(t *testing.T) {
	var got int
	repo := &mockRouteRepo{
		listFn: func(ctx context.Context, f domain.RouteFilter) ([]domain.CollectionRoute, error) {
			got = f.Limit
			return nil, nil
		},
	}
	svc := usecases.NewRouteService(repo)
	_, _ = svc.List(context.Background(), usecases.RouteQuery{Limit: 10000})
	if got != 100 {
		t.Errorf("expected limit 100, got %d", got)
	}
}
