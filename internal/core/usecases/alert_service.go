package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/ports"
)

// AlertService handles alert listing and resolution.
type AlertService struct {
	alerts ports.AlertRepository
}

// NewAlertService creates a new AlertService.
func NewAlertService(alerts ports.AlertRepository) *AlertService {
	return &AlertService{alerts: alerts}
}

// List returns alerts ordered by priority, then newest first.
func (s *AlertService) List(ctx context.Context, includeResolved bool) ([]domain.Alert, error) {
	return s.alerts.List(ctx, includeResolved)
}

// Resolve marks an alert as resolved by the given operator.
func (s *AlertService) Resolve(ctx context.Context, id int64, resolvedBy string) error {
	if id <= 0 {
		return fmt.Errorf("invalid alert id %d", id)
	}
	resolvedBy = strings.TrimSpace(resolvedBy)
	if resolvedBy == "" {
		resolvedBy = "dashboard"
	}
	return s.alerts.Resolve(ctx, id, resolvedBy)
}
