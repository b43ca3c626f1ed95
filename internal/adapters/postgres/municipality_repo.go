package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/looopone/internal/core/domain"
)

// MunicipalityRepo implements ports.MunicipalityRepository with pgx.
type MunicipalityRepo struct {
	db *DB
}

// NewMunicipalityRepo creates a new MunicipalityRepo.
func NewMunicipalityRepo(db *DB) *MunicipalityRepo {
	return &MunicipalityRepo{db: db}
}

// Active returns the first active municipality, or nil when none exists.
func (r *MunicipalityRepo) Active(ctx context.Context) (*domain.Municipality, error) {
	var m domain.Municipality
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, city, district, center_lat, center_lng, alert_threshold, is_active
		FROM municipalities
		WHERE is_active
		ORDER BY id
		LIMIT 1
	`).Scan(&m.ID, &m.Name, &m.City, &m.District,
		&m.Center.Lat, &m.Center.Lon, &m.AlertThreshold, &m.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Upsert creates the municipality row if none with the same name exists.
func (r *MunicipalityRepo) Upsert(ctx context.Context, m *domain.Municipality) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO municipalities (name, city, district, center_lat, center_lng, alert_threshold, is_active)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE NOT EXISTS (SELECT 1 FROM municipalities WHERE name = $1)
		RETURNING id
	`, m.Name, m.City, m.District, m.Center.Lat, m.Center.Lon, m.AlertThreshold, m.IsActive).Scan(&m.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}
