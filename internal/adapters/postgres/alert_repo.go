package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/looopone/internal/core/domain"
)

const alertColumns = `id, container_id, alert_type, priority, message,
		       is_resolved, resolved_by, resolved_at, created_at`

// AlertRepo implements ports.AlertRepository with pgx.
type AlertRepo struct {
	db *DB
}

// NewAlertRepo creates a new AlertRepo.
func NewAlertRepo(db *DB) *AlertRepo {
	return &AlertRepo{db: db}
}

// Create inserts an alert and fills in its ID and creation time.
func (r *AlertRepo) Create(ctx context.Context, a *domain.Alert) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO alerts (container_id, alert_type, priority, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, a.ContainerID, string(a.Type), string(a.Priority), a.Message).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// List returns alerts by priority (critical first), newest first within a
// priority.
func (r *AlertRepo) List(ctx context.Context, includeResolved bool) ([]domain.Alert, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		WHERE $1 OR NOT is_resolved
		ORDER BY CASE priority
		           WHEN 'critical' THEN 4 WHEN 'high' THEN 3
		           WHEN 'medium' THEN 2 ELSE 1 END DESC,
		         created_at DESC
		LIMIT 200
	`, includeResolved)
	if err != nil {
		return nil, err
	}
	return collectAlerts(rows)
}

// ListByContainer returns the newest alerts raised against a container.
func (r *AlertRepo) ListByContainer(ctx context.Context, containerID int64, limit int) ([]domain.Alert, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		WHERE container_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, containerID, limit)
	if err != nil {
		return nil, err
	}
	return collectAlerts(rows)
}

func collectAlerts(rows pgx.Rows) ([]domain.Alert, error) {
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var a domain.Alert
		var typ, prio string
		if err := rows.Scan(
			&a.ID, &a.ContainerID, &typ, &prio, &a.Message,
			&a.IsResolved, &a.ResolvedBy, &a.ResolvedAt, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.Type = domain.AlertType(typ)
		a.Priority = domain.AlertPriority(prio)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// Resolve marks an open alert as resolved.
func (r *AlertRepo) Resolve(ctx context.Context, id int64, resolvedBy string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE alerts SET is_resolved = TRUE, resolved_by = $2, resolved_at = NOW()
		WHERE id = $1 AND NOT is_resolved
	`, id, resolvedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes an alert. Deleting a missing alert is not an error.
func (r *AlertRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	return err
}
