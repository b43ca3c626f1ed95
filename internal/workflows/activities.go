package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/ports"
	"github.com/samirrijal/looopone/internal/pkg/metrics"
)

// ContainerLookup finds where a report's alert should be attached.
type ContainerLookup interface {
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Container, error)
	ReportContainerID(ctx context.Context, reportID string) (int64, error)
}

// TriageActivities holds the activity implementations for the triage workflow.
type TriageActivities struct {
	Containers ContainerLookup
	Alerts     ports.AlertRepository
	Publisher  ports.EventPublisher
}

// FindTriageTarget returns the nearest active container within
// TriageRadiusMeters, or the report's own map pin when there is none.
func (a *TriageActivities) FindTriageTarget(ctx context.Context, in TriageInput) (int64, error) {
	nearby, err := a.Containers.FindNearby(ctx, in.Lat, in.Lon, TriageRadiusMeters, 1)
	if err != nil {
		return 0, fmt.Errorf("find nearby containers: %w", err)
	}
	if len(nearby) > 0 {
		return nearby[0].ID, nil
	}

	id, err := a.Containers.ReportContainerID(ctx, in.ReportID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("report %s not stored yet: %w", in.ReportID, err)
	}
	if err != nil {
		return 0, fmt.Errorf("report container %s: %w", in.ReportID, err)
	}
	return id, nil
}

// RaiseAlert stores an alert for the report against containerID.
func (a *TriageActivities) RaiseAlert(ctx context.Context, in TriageInput, containerID int64) (domain.Alert, error) {
	msg := fmt.Sprintf("Citizen report %s (%s) at %.5f, %.5f", in.ReportID, in.Category, in.Lat, in.Lon)
	if in.Description != "" {
		msg += ": " + in.Description
	}
	alert := domain.Alert{
		ContainerID: containerID,
		Type:        in.Category.AlertType(),
		Priority:    in.Category.AlertPriority(),
		Message:     msg,
	}
	if err := a.Alerts.Create(ctx, &alert); err != nil {
		return domain.Alert{}, fmt.Errorf("create alert: %w", err)
	}
	metrics.AlertsRaised.WithLabelValues(string(alert.Type)).Inc()
	return alert, nil
}

// PublishAlert pushes the alert to live dashboards.
func (a *TriageActivities) PublishAlert(ctx context.Context, alert domain.Alert) error {
	if a.Publisher == nil {
		slog.InfoContext(ctx, "alert not published, no publisher", "alert", alert.ID)
		return nil
	}
	return a.Publisher.PublishAlert(ctx, &alert)
}

// DeleteAlert removes an alert (saga compensation / rollback).
func (a *TriageActivities) DeleteAlert(ctx context.Context, alertID int64) error {
	if err := a.Alerts.Delete(ctx, alertID); err != nil {
		return fmt.Errorf("delete alert %d: %w", alertID, err)
	}
	slog.InfoContext(ctx, "alert deleted (saga compensation)", "alert", alertID)
	return nil
}
