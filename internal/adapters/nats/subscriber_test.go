package natsadapter

import (
	"testing"

	"github.com/samirrijal/looopone/internal/core/domain"
)

func TestDecodeReport(t *testing.T) {
	r, err := decodeReport([]byte(`{"id":"RPT-1","category":"MOLOZ","location":{"lat":38.39,"lon":27.05}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID != "RPT-1" || r.Category != domain.CategoryRubble {
		t.Errorf("unexpected report %+v", r)
	}

	bad := []string{
		`not json`,
		`{"category":"MOLOZ"}`,
		`{"id":"RPT-2","location":{"lat":120,"lon":27}}`,
	}
	for _, b := range bad {
		if _, err := decodeReport([]byte(b)); err == nil {
			t.Errorf("expected error for %s", b)
		}
	}
}

func TestSubjects(t *testing.T) {
	if got := ReportSubject(domain.CategoryStreetMarket); got != "waste.reports.halk_pazari" {
		t.Errorf("unexpected report subject %s", got)
	}
	if got := AlertSubject(domain.AlertFull); got != "waste.alerts.full" {
		t.Errorf("unexpected alert subject %s", got)
	}
}
