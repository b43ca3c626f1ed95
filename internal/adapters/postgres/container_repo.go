package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/pkg/geospatial"
)

const containerColumns = `
	id, container_id, container_type, capacity, fill_level,
	latitude, longitude, address, neighborhood, status, battery_level,
	temperature, COALESCE(report_type, ''), description,
	last_emptied, last_updated, created_at`

// ContainerRepo implements ports.ContainerRepository and
// ports.ReportRepository with pgx. Accepted reports are stored as containers
// with report_type set so they show up on the map.
type ContainerRepo struct {
	db *DB
}

// NewContainerRepo creates a new ContainerRepo.
func NewContainerRepo(db *DB) *ContainerRepo {
	return &ContainerRepo{db: db}
}

// Create stores an accepted citizen report.
func (r *ContainerRepo) Create(ctx context.Context, rep *domain.Report) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO containers (container_id, container_type, latitude, longitude,
		                        report_type, description, status, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, 'active', $7, $7)
	`, rep.ID, string(rep.ContainerType), rep.Location.Lat, rep.Location.Lon,
		string(rep.Category), rep.Description, rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", rep.ID, err)
	}
	return nil
}

// Upsert inserts or updates a sensor container by container_id.
func (r *ContainerRepo) Upsert(ctx context.Context, c *domain.Container) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO containers (container_id, container_type, capacity, fill_level,
		                        latitude, longitude, address, neighborhood, status, battery_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (container_id) DO UPDATE
		SET fill_level = EXCLUDED.fill_level, status = EXCLUDED.status,
		    battery_level = EXCLUDED.battery_level, last_updated = NOW()
		RETURNING id
	`, c.ContainerID, string(c.Type), c.Capacity, c.FillLevel,
		c.Location.Lat, c.Location.Lon, c.Address, c.Neighborhood,
		string(c.Status), c.BatteryLevel).Scan(&c.ID)
}

// ListActive returns containers matching filter. Status defaults to active;
// domain.StatusAny lists every status.
func (r *ContainerRepo) ListActive(ctx context.Context, f domain.ContainerFilter) ([]domain.Container, error) {
	status := f.Status
	if status == "" {
		status = domain.StatusActive
	}
	pattern := ""
	if f.Search != "" {
		pattern = "%" + likeEscaper.Replace(f.Search) + "%"
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+containerColumns+`
		FROM containers
		WHERE ($1 = 'all' OR status = $1)
		  AND ($2 = '' OR container_type = $2)
		  AND fill_level >= $3
		  AND ($4 = '' OR container_id ILIKE $4 OR address ILIKE $4 OR neighborhood ILIKE $4)
		ORDER BY fill_level DESC, id
	`, string(status), string(f.Type), f.MinFillLevel, pattern)
	if err != nil {
		return nil, err
	}
	return collectContainers(rows)
}

// likeEscaper makes user search text match literally inside ILIKE.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// GetByID returns a container by primary key.
func (r *ContainerRepo) GetByID(ctx context.Context, id int64) (*domain.Container, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+containerColumns+` FROM containers WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	cs, err := collectContainers(rows)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &cs[0], nil
}

// FindNearby returns active sensor containers within radiusMeters, nearest
// first. Rows are prefiltered by bounding box and confirmed by great-circle
// distance.
func (r *ContainerRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Container, error) {
	center := domain.GeoPoint{Lat: lat, Lon: lon}
	box := geospatial.BoundingBox(center, radiusMeters)

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+containerColumns+`
		FROM containers
		WHERE status = 'active' AND report_type IS NULL
		  AND latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
	`, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, err
	}
	candidates, err := collectContainers(rows)
	if err != nil {
		return nil, err
	}
	return geospatial.WithinRadius(center, radiusMeters, candidates, limit), nil
}

// AttentionNeeded returns sensor containers that are nearly full, low on
// battery, or out of service.
func (r *ContainerRepo) AttentionNeeded(ctx context.Context, limit int) ([]domain.Container, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+containerColumns+`
		FROM containers
		WHERE report_type IS NULL
		  AND (fill_level >= 70 OR battery_level < 20 OR status IN ('maintenance', 'damaged'))
		ORDER BY fill_level DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return collectContainers(rows)
}

// Stats returns dashboard totals over active containers, open alerts and
// collection routes.
func (r *ContainerRepo) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	var s domain.DashboardStats
	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM containers WHERE status = 'active'),
			(SELECT COUNT(*) FROM containers WHERE status = 'active' AND fill_level >= $1),
			(SELECT COALESCE(AVG(fill_level), 0) FROM containers WHERE status = 'active'),
			(SELECT COUNT(*) FROM alerts WHERE NOT is_resolved),
			(SELECT COUNT(*) FROM alerts WHERE NOT is_resolved AND priority = 'critical'),
			(SELECT COUNT(*) FROM collection_routes WHERE scheduled_date::date = CURRENT_DATE),
			(SELECT COUNT(*) FROM collection_routes
			  WHERE status = 'completed' AND completed_at >= NOW() - INTERVAL '7 days')
	`, domain.FullThreshold).Scan(
		&s.TotalContainers, &s.FullContainers, &s.AvgFillLevel,
		&s.ActiveAlerts, &s.CriticalAlerts, &s.TodayRoutes, &s.CompletedRoutes,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &s, nil
}

func collectContainers(rows pgx.Rows) ([]domain.Container, error) {
	defer rows.Close()

	var out []domain.Container
	for rows.Next() {
		var c domain.Container
		var typ, status string
		if err := rows.Scan(
			&c.ID, &c.ContainerID, &typ, &c.Capacity, &c.FillLevel,
			&c.Location.Lat, &c.Location.Lon, &c.Address, &c.Neighborhood,
			&status, &c.BatteryLevel, &c.Temperature, &c.ReportType, &c.Description,
			&c.LastEmptied, &c.LastUpdated, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		c.Type = domain.ContainerType(typ)
		c.Status = domain.ContainerStatus(status)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReportContainerID returns the row ID a report was stored under.
func (r *ContainerRepo) ReportContainerID(ctx context.Context, reportID string) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id FROM containers WHERE container_id = $1`, reportID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	return id, err
}
