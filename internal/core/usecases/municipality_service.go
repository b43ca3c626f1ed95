package usecases

import (
	"context"
	"log/slog"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/ports"
)

// DefaultMapCenter is the Balçova town hall, used when no municipality is
// configured.
var DefaultMapCenter = domain.GeoPoint{Lat: 38.3692, Lon: 27.0468}

// MunicipalityService exposes municipality settings to the dashboard.
type MunicipalityService struct {
	municipalities ports.MunicipalityRepository
}

// NewMunicipalityService creates a new MunicipalityService.
func NewMunicipalityService(municipalities ports.MunicipalityRepository) *MunicipalityService {
	return &MunicipalityService{municipalities: municipalities}
}

// Center returns the map center of the active municipality.
func (s *MunicipalityService) Center(ctx context.Context) domain.GeoPoint {
	m, err := s.municipalities.Active(ctx)
	if err != nil {
		slog.WarnContext(ctx, "municipality lookup failed, using default center", "error", err)
		return DefaultMapCenter
	}
	if m == nil || !m.Center.Valid() || m.Center == (domain.GeoPoint{}) {
		return DefaultMapCenter
	}
	return m.Center
}
