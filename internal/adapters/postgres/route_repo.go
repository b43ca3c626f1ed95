package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/looopone/internal/core/domain"
)

// RouteRepo implements ports.RouteRepository.
type RouteRepo struct {
	db *DB
}

func NewRouteRepo(db *DB) *RouteRepo { return &RouteRepo{db: db} }

// Create inserts a route and its container links in one transaction.
func (r *RouteRepo) Create(ctx context.Context, rt *domain.CollectionRoute) error {
	status := rt.Status
	if status == "" {
		status = domain.RoutePending
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO collection_routes (route_name, driver, vehicle_plate, scheduled_date,
		                               started_at, completed_at, status, total_distance_km, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, rt.Name, rt.Driver, rt.VehiclePlate, rt.ScheduledDate,
		rt.StartedAt, rt.CompletedAt, string(status), rt.TotalDistanceKm, rt.Notes,
	).Scan(&rt.ID, &rt.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert route: %w", err)
	}
	rt.Status = status

	batch := &pgx.Batch{}
	for _, cid := range rt.ContainerIDs {
		batch.Queue(`
			INSERT INTO collection_route_containers (route_id, container_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, rt.ID, cid)
	}
	br := tx.SendBatch(ctx, batch)
	for range rt.ContainerIDs {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}

	return tx.Commit(ctx)
}

// List returns routes matching f, newest scheduled first unless
// f.OldestFirst is set.
func (r *RouteRepo) List(ctx context.Context, f domain.RouteFilter) ([]domain.CollectionRoute, error) {
	order := "DESC"
	if f.OldestFirst {
		order = "ASC"
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT r.id, r.route_name, r.driver, r.vehicle_plate, r.scheduled_date,
		       r.started_at, r.completed_at, r.status, r.total_distance_km::float8,
		       r.notes, r.created_at,
		       COALESCE(array_agg(rc.container_id ORDER BY rc.container_id)
		                FILTER (WHERE rc.container_id IS NOT NULL), '{}')
		FROM collection_routes r
		LEFT JOIN collection_route_containers rc ON rc.route_id = r.id
		WHERE ($1::timestamptz IS NULL OR r.scheduled_date >= $1)
		  AND ($2::timestamptz IS NULL OR r.scheduled_date < $2)
		  AND ($3::timestamptz IS NULL OR r.completed_at >= $3)
		  AND ($4::text = '' OR r.status = $4)
		  AND ($5::bigint = 0 OR EXISTS (
		        SELECT 1 FROM collection_route_containers x
		        WHERE x.route_id = r.id AND x.container_id = $5))
		GROUP BY r.id
		ORDER BY r.scheduled_date `+order+`
		LIMIT $6
	`, f.ScheduledFrom, f.ScheduledBefore, f.CompletedSince, string(f.Status), f.ContainerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []domain.CollectionRoute
	for rows.Next() {
		var rt domain.CollectionRoute
		var status string
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.Driver, &rt.VehiclePlate, &rt.ScheduledDate,
			&rt.StartedAt, &rt.CompletedAt, &status, &rt.TotalDistanceKm,
			&rt.Notes, &rt.CreatedAt, &rt.ContainerIDs); err != nil {
			return nil, err
		}
		rt.Status = domain.RouteStatus(status)
		routes = append(routes, rt)
	}
	return routes, rows.Err()
}
