//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	handler "github.com/samirrijal/looopone/internal/adapters/http"
	"github.com/samirrijal/looopone/internal/adapters/postgres"
	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/usecases"
	"github.com/samirrijal/looopone/internal/geofence"
	"github.com/samirrijal/looopone/internal/pkg/config"
)

// setupTestDB connects to the database named by the LOOOPONE_DATABASE_* env.
// The schema from migrations/ must already be applied.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("looopone-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

// setupTestDeps wires real repositories with an offline boundary fetcher, so
// the fallback rectangle decides.
func setupTestDeps(db *postgres.DB) *handler.Dependencies {
	containers := postgres.NewContainerRepo(db)
	alerts := postgres.NewAlertRepo(db)
	routes := postgres.NewRouteRepo(db)
	cache := geofence.NewBoundaryCache(&mockFetcher{err: errors.New("offline")}, time.Hour)
	eval := geofence.NewEvaluator(cache, geofence.DefaultFallbackRegion)

	return &handler.Dependencies{
		Reports:        usecases.NewReportService(eval, containers, domain.GeoPoint{Lat: 38.3894, Lon: 27.0461}),
		Containers:     usecases.NewContainerService(containers, nil, usecases.WithHistory(alerts, routes)),
		Alerts:         usecases.NewAlertService(alerts),
		Routes:         usecases.NewRouteService(routes),
		Municipalities: usecases.NewMunicipalityService(postgres.NewMunicipalityRepo(db)),
		Boundary:       cache,
		Geofence:       eval,
		DB:             db,
	}
}

func seedTestContainer(t *testing.T, db *postgres.DB, id string, p domain.GeoPoint) int64 {
	repo := postgres.NewContainerRepo(db)
	c := &domain.Container{
		ContainerID: id,
		Type:        domain.ContainerGlass,
		Capacity:    1000,
		FillLevel:   85,
		Location:    p,
		Status:      domain.StatusActive,
	}
	if err := repo.Upsert(context.Background(), c); err != nil {
		t.Fatalf("seed container: %v", err)
	}
	return c.ID
}

func TestReportIssue_Integration_StoresRow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(db))

	code, out := postJSON(t, app, "/report-issue-api/",
		`{"issue_type":"MOLOZ","lat":38.3901,"lng":27.0455,"description":"inşaat atığı"}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d (%+v)", code, out)
	}

	var reportType, desc string
	err := db.Pool.QueryRow(context.Background(),
		`SELECT report_type, description FROM containers WHERE container_id = $1`, out.ID).
		Scan(&reportType, &desc)
	if err != nil {
		t.Fatalf("query stored report: %v", err)
	}
	if reportType != "MOLOZ" || desc != "inşaat atığı" {
		t.Errorf("unexpected row %s %q", reportType, desc)
	}
}

func TestReportIssue_Integration_RejectedNotStored(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	var before, after int
	_ = db.Pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM containers`).Scan(&before)

	app := setupApp(setupTestDeps(db))
	code, _ := postJSON(t, app, "/report-issue-api/", `{"issue_type":"MOLOZ","lat":10,"lng":10}`)
	if code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}

	_ = db.Pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM containers`).Scan(&after)
	if after != before {
		t.Errorf("expected no new rows, had %d now %d", before, after)
	}
}

func TestNearbyContainers_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	id := fmt.Sprintf("TEST-%d", time.Now().UnixNano())
	seedTestContainer(t, db, id, domain.GeoPoint{Lat: 38.3896, Lon: 27.0463})

	app := setupApp(setupTestDeps(db))
	req := httptest.NewRequest("GET", "/api/containers/nearby?lat=38.3894&lon=27.0461&radius=300", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var containers []domain.Container
	if err := json.NewDecoder(resp.Body).Decode(&containers); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	found := false
	for _, c := range containers {
		if strings.EqualFold(c.ContainerID, id) {
			found = true
			if c.Distance == nil || *c.Distance > 300 {
				t.Errorf("unexpected distance %v", c.Distance)
			}
		}
	}
	if !found {
		t.Errorf("expected seeded container %s in nearby results", id)
	}
}

func TestRoutes_Integration_TodayAndDetail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	id := fmt.Sprintf("TEST-%d", time.Now().UnixNano())
	containerID := seedTestContainer(t, db, id, domain.GeoPoint{Lat: 38.3896, Lon: 27.0463})

	now := time.Now()
	route := &domain.CollectionRoute{
		Name:          "Test Turu " + id,
		VehiclePlate:  "35 ABC 123",
		ContainerIDs:  []int64{containerID},
		ScheduledDate: time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, now.Location()),
		Status:        domain.RoutePending,
	}
	if err := postgres.NewRouteRepo(db).Create(context.Background(), route); err != nil {
		t.Fatalf("create route: %v", err)
	}

	app := setupApp(setupTestDeps(db))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/routes?today=true&limit=500", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	var page struct {
		Data []domain.CollectionRoute `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, r := range page.Data {
		if r.ID == route.ID {
			found = len(r.ContainerIDs) == 1 && r.ContainerIDs[0] == containerID
		}
	}
	if !found {
		t.Errorf("route %d missing from today's list", route.ID)
	}

	resp, err = app.Test(httptest.NewRequest("GET", fmt.Sprintf("/api/containers/%d", containerID), nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	var detail domain.ContainerDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		t.Fatal(err)
	}
	if len(detail.RecentRoutes) == 0 || detail.RecentRoutes[0].ID != route.ID {
		t.Errorf("expected route in container detail, got %+v", detail.RecentRoutes)
	}
}
