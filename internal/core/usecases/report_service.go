package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/ports"
	"github.com/samirrijal/looopone/internal/pkg/metrics"
)

// ErrOutsideServiceArea is matched by every RejectionError raised for a
// coordinate outside the municipality.
var ErrOutsideServiceArea = errors.New("outside service area")

// RejectionError is a policy rejection of a well-formed report.
type RejectionError struct {
	Reason   string
	Location domain.GeoPoint
}

func (e *RejectionError) Error() string {
	return e.Reason
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrOutsideServiceArea
}

// ReportService accepts citizen reports that fall inside the service area.
type ReportService struct {
	area         ports.ServiceArea
	reports      ports.ReportRepository
	publisher    ports.EventPublisher
	defaultPoint domain.GeoPoint
	now          func() time.Time

	seq atomic.Uint64
}

// ReportOption configures a ReportService.
type ReportOption func(*ReportService)

// WithPublisher publishes accepted reports. Publishing is best-effort.
func WithPublisher(p ports.EventPublisher) ReportOption {
	return func(s *ReportService) { s.publisher = p }
}

// WithReportClock overrides the time source used for IDs and timestamps.
func WithReportClock(now func() time.Time) ReportOption {
	return func(s *ReportService) { s.now = now }
}

// NewReportService creates a new ReportService. defaultPoint is used when a
// report carries no coordinate.
func NewReportService(area ports.ServiceArea, reports ports.ReportRepository, defaultPoint domain.GeoPoint, opts ...ReportOption) *ReportService {
	s := &ReportService{
		area:         area,
		reports:      reports,
		defaultPoint: defaultPoint,
		now:          time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SubmitReport validates the location of in and persists it. A report outside
// the service area returns a *RejectionError and nothing is stored.
func (s *ReportService) SubmitReport(ctx context.Context, in domain.ReportInput) (*domain.Report, error) {
	category := domain.NormalizeCategory(in.Category)

	// Missing coordinates fall back to a point inside the municipality.
	// Out-of-range values are kept so the evaluator rejects them.
	loc := s.defaultPoint
	defaulted := in.Location == nil
	if !defaulted {
		loc = *in.Location
	}

	if !s.area.IsWithinServiceArea(ctx, loc) {
		metrics.ReportsSubmitted.WithLabelValues("rejected", string(category)).Inc()
		slog.InfoContext(ctx, "report rejected",
			"category", category, "lat", loc.Lat, "lon", loc.Lon)
		return nil, &RejectionError{Reason: ErrOutsideServiceArea.Error(), Location: loc}
	}

	now := s.now()
	report := &domain.Report{
		ID:            s.nextID(now),
		Category:      category,
		ContainerType: category.ContainerType(),
		Description:   truncateRunes(strings.TrimSpace(in.Description), domain.MaxDescriptionLength),
		Location:      loc,
		CreatedAt:     now,
	}

	if err := s.reports.Create(ctx, report); err != nil {
		metrics.ReportsSubmitted.WithLabelValues("error", string(category)).Inc()
		return nil, fmt.Errorf("create report: %w", err)
	}
	metrics.ReportsSubmitted.WithLabelValues("accepted", string(category)).Inc()
	slog.InfoContext(ctx, "report accepted",
		"id", report.ID, "category", category, "defaulted_location", defaulted)

	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, report); err != nil {
			slog.WarnContext(ctx, "report publish failed", "id", report.ID, "error", err)
		}
	}

	return report, nil
}

// nextID returns RPT-<yyyymmddhhmmss>-<seq>-<rand>. The sequence keeps IDs
// unique within a process; the random part separates workers.
func (s *ReportService) nextID(now time.Time) string {
	n := s.seq.Add(1)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("RPT-%s-%04d-%s", now.Format("20060102150405"), n, suffix)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
