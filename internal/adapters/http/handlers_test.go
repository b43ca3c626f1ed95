package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/looopone/internal/adapters/http"
	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/usecases"
	"github.com/samirrijal/looopone/internal/geofence"
)

// ---- Mocks ----

type mockFetcher struct {
	boundary *domain.Boundary
	err      error
}

func (m *mockFetcher) Fetch(ctx context.Context) (*domain.Boundary, error) {
	return m.boundary, m.err
}

type mockReportRepo struct {
	mu      sync.Mutex
	created []domain.Report
	err     error
}

func (m *mockReportRepo) Create(ctx context.Context, r *domain.Report) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.created = append(m.created, *r)
	m.mu.Unlock()
	return nil
}

type mockContainerRepo struct {
	containers []domain.Container
	stats      *domain.DashboardStats
	lastFilter domain.ContainerFilter
}

func (m *mockContainerRepo) ListActive(ctx context.Context, f domain.ContainerFilter) ([]domain.Container, error) {
	m.lastFilter = f
	return m.containers, nil
}

func (m *mockContainerRepo) GetByID(ctx context.Context, id int64) (*domain.Container, error) {
	for _, c := range m.containers {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockContainerRepo) FindNearby(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Container, error) {
	return m.containers, nil
}

func (m *mockContainerRepo) AttentionNeeded(ctx context.Context, limit int) ([]domain.Container, error) {
	return nil, nil
}

func (m *mockContainerRepo) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	if m.stats == nil {
		return &domain.DashboardStats{}, nil
	}
	return m.stats, nil
}

type mockAlertRepo struct {
	alerts []domain.Alert
}

func (m *mockAlertRepo) Create(ctx context.Context, a *domain.Alert) error { return nil }
func (m *mockAlertRepo) List(ctx context.Context, includeResolved bool) ([]domain.Alert, error) {
	return m.alerts, nil
}
func (m *mockAlertRepo) ListByContainer(ctx context.Context, containerID int64, limit int) ([]domain.Alert, error) {
	var out []domain.Alert
	for _, a := range m.alerts {
		if a.ContainerID == containerID {
			out = append(out, a)
		}
	}
	return out, nil
}
func (m *mockAlertRepo) Resolve(ctx context.Context, id int64, resolvedBy string) error {
	for _, a := range m.alerts {
		if a.ID == id && !a.IsResolved {
			return nil
		}
	}
	return domain.ErrNotFound
}
func (m *mockAlertRepo) Delete(ctx context.Context, id int64) error { return nil }

type mockRouteRepo struct {
	routes     []domain.CollectionRoute
	lastFilter domain.RouteFilter
}

func (m *mockRouteRepo) List(ctx context.Context, f domain.RouteFilter) ([]domain.CollectionRoute, error) {
	m.lastFilter = f
	var out []domain.CollectionRoute
	for _, r := range m.routes {
		if f.ContainerID != 0 && !slices.Contains(r.ContainerIDs, f.ContainerID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRouteRepo) Create(ctx context.Context, r *domain.CollectionRoute) error { return nil }

type mockMunicipalityRepo struct{}

func (mockMunicipalityRepo) Active(ctx context.Context) (*domain.Municipality, error) {
	return nil, nil
}

// ---- Test helpers ----

var square = &domain.Boundary{
	Name: "Balçova",
	Polygons: []domain.BoundaryPolygon{{
		Outer: domain.Ring{
			{Lat: 38.37, Lon: 27.02}, {Lat: 38.37, Lon: 27.08},
			{Lat: 38.42, Lon: 27.08}, {Lat: 38.42, Lon: 27.02},
		},
	}},
}

type testEnv struct {
	deps    *handler.Dependencies
	reports *mockReportRepo
}

func makeDeps(fetcher *mockFetcher, opts ...func(*handler.Dependencies)) *testEnv {
	if fetcher == nil {
		fetcher = &mockFetcher{err: errors.New("nominatim unreachable")}
	}
	reports := &mockReportRepo{}
	cache := geofence.NewBoundaryCache(fetcher, geofence.DefaultTTL)
	eval := geofence.NewEvaluator(cache, geofence.DefaultFallbackRegion)

	d := &handler.Dependencies{
		Reports:        usecases.NewReportService(eval, reports, domain.GeoPoint{Lat: 38.3894, Lon: 27.0461}),
		Containers:     usecases.NewContainerService(&mockContainerRepo{}, nil),
		Alerts:         usecases.NewAlertService(&mockAlertRepo{}),
		Routes:         usecases.NewRouteService(&mockRouteRepo{}),
		Municipalities: usecases.NewMunicipalityService(mockMunicipalityRepo{}),
		Boundary:       cache,
		Geofence:       eval,
	}
	for _, o := range opts {
		o(d)
	}
	return &testEnv{deps: d, reports: reports}
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

type intakeBody struct {
	Status string `json:"status"`
	ID     string `json:"id"`
	Error  string `json:"error"`
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, intakeBody) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var out intakeBody
	_ = json.Unmarshal(readBody(t, resp.Body), &out)
	return resp.StatusCode, out
}

// ---- Intake tests ----

func TestReportIssue_AcceptedInsideFallback(t *testing.T) {
	env := makeDeps(nil)
	app := setupApp(env.deps)

	body := `{"issue_type":"HALK_PAZARI","lat":38.3894,"lng":27.0461,"description":"` + strings.Repeat("a", 400) + `"}`
	code, out := postJSON(t, app, "/report-issue-api/", body)
	if code != 200 {
		t.Fatalf("expected 200, got %d (%+v)", code, out)
	}
	if out.Status != "success" || !strings.HasPrefix(out.ID, "RPT-") {
		t.Errorf("unexpected body %+v", out)
	}
	if len(env.reports.created) != 1 {
		t.Fatalf("expected 1 stored report, got %d", len(env.reports.created))
	}
	r := env.reports.created[0]
	if r.Category != domain.CategoryStreetMarket || len(r.Description) != domain.MaxDescriptionLength {
		t.Errorf("unexpected stored report %+v", r)
	}
}

func TestReportIssue_RejectedOutside(t *testing.T) {
	env := makeDeps(nil)
	app := setupApp(env.deps)

	code, out := postJSON(t, app, "/report-issue-api/", `{"issue_type":"MOLOZ","lat":10.0,"lng":10.0}`)
	if code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
	if out.Status != "error" || out.Error != "outside service area" {
		t.Errorf("unexpected body %+v", out)
	}
	if len(env.reports.created) != 0 {
		t.Error("rejected report must not be stored")
	}
}

func TestReportIssue_PolygonRejectsInsideRectangle(t *testing.T) {
	narrow := &domain.Boundary{Polygons: []domain.BoundaryPolygon{{
		Outer: domain.Ring{
			{Lat: 38.38, Lon: 27.04}, {Lat: 38.38, Lon: 27.05},
			{Lat: 38.40, Lon: 27.05}, {Lat: 38.40, Lon: 27.04},
		},
	}}}
	env := makeDeps(&mockFetcher{boundary: narrow})
	app := setupApp(env.deps)

	code, _ := postJSON(t, app, "/report-issue-api/", `{"issue_type":"ROAD","lat":38.375,"lng":27.07}`)
	if code != 403 {
		t.Errorf("expected polygon to reject, got %d", code)
	}
	code, _ = postJSON(t, app, "/report-issue-api/", `{"issue_type":"ROAD","lat":"38.39","lng":"27.045"}`)
	if code != 200 {
		t.Errorf("expected polygon to accept string coordinates, got %d", code)
	}
}

func TestReportIssue_InvalidJSON(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	code, out := postJSON(t, app, "/report-issue-api/", `{"issue_type":`)
	if code != 400 {
		t.Fatalf("expected 400, got %d", code)
	}
	if out.Error != "invalid request body" {
		t.Errorf("unexpected error %q", out.Error)
	}
}

func postRaw(t *testing.T, app *fiber.App, contentType, body string) (int, intakeBody) {
	t.Helper()
	req := httptest.NewRequest("POST", "/report-issue-api/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var out intakeBody
	_ = json.Unmarshal(readBody(t, resp.Body), &out)
	return resp.StatusCode, out
}

func TestReportIssue_JSONWithoutJSONContentType(t *testing.T) {
	for _, ctype := range []string{"", "text/plain", "text/plain;charset=UTF-8"} {
		t.Run("ctype="+ctype, func(t *testing.T) {
			env := makeDeps(nil)
			app := setupApp(env.deps)

			code, out := postRaw(t, app, ctype, `{"issue_type":"MOLOZ","lat":10.0,"lng":10.0}`)
			if code != 403 || out.Error != "outside service area" {
				t.Fatalf("expected 403 outside service area, got %d (%+v)", code, out)
			}
			if len(env.reports.created) != 0 {
				t.Fatal("rejected report must not be stored")
			}

			code, out = postRaw(t, app, ctype, `{"issue_type":"MOLOZ","lat":38.40,"lng":27.05,"description":"moloz yığını"}`)
			if code != 200 {
				t.Fatalf("expected 200, got %d (%+v)", code, out)
			}
			got := env.reports.created[0]
			if got.Category != domain.CategoryRubble || got.Location.Lat != 38.40 || got.Description != "moloz yığını" {
				t.Errorf("report fields lost: %+v", got)
			}
		})
	}
}

func TestReportIssue_UnreadableBody(t *testing.T) {
	tests := []struct {
		name  string
		ctype string
		body  string
	}{
		{"broken json without header", "", `{"issue_type":`},
		{"json array", "", `[1,2]`},
		{"plain text", "text/plain", "there is rubble on my street"},
		{"bad query escape", "text/plain", "lat=%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := makeDeps(nil)
			app := setupApp(env.deps)

			code, out := postRaw(t, app, tt.ctype, tt.body)
			if code != 400 || out.Error != "invalid request body" {
				t.Fatalf("expected 400 invalid request body, got %d (%+v)", code, out)
			}
			if len(env.reports.created) != 0 {
				t.Error("nothing must be stored")
			}
		})
	}
}

func TestReportIssue_FormWithoutContentType(t *testing.T) {
	env := makeDeps(nil)
	app := setupApp(env.deps)

	code, out := postRaw(t, app, "text/plain", "issue_type=ROAD&lat=10&lng=10")
	if code != 403 {
		t.Fatalf("expected 403, got %d (%+v)", code, out)
	}
}

func TestReportIssue_MissingCoordinatesDefaulted(t *testing.T) {
	env := makeDeps(nil)
	app := setupApp(env.deps)

	for _, body := range []string{
		`{"issue_type":"GLASS"}`,
		`{"issue_type":"GLASS","lat":"abc","lng":"27.0"}`,
		`{"issue_type":"GLASS","lat":null,"lng":27.0}`,
	} {
		code, out := postJSON(t, app, "/report-issue-api/", body)
		if code != 200 {
			t.Errorf("%s: expected 200, got %d (%+v)", body, code, out)
		}
	}
	for _, r := range env.reports.created {
		if r.Location.Lat != 38.3894 || r.Location.Lon != 27.0461 {
			t.Errorf("expected default location, got %+v", r.Location)
		}
	}
}

func TestReportIssue_FormEncoded(t *testing.T) {
	env := makeDeps(nil)
	app := setupApp(env.deps)

	form := url.Values{
		"container_type": {"plastic"},
		"lat":            {"38.40"},
		"lng":            {"27.05"},
		"description":    {"kapak kırık"},
	}
	req := httptest.NewRequest("POST", "/report-issue-api/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if got := env.reports.created[0]; got.Category != domain.CategoryPlastic || got.Description != "kapak kırık" {
		t.Errorf("unexpected stored report %+v", got)
	}
}

func TestReportIssue_PersistenceFailure(t *testing.T) {
	env := makeDeps(nil)
	env.reports.err = errors.New("db down")
	app := setupApp(env.deps)

	code, out := postJSON(t, app, "/report-issue-api/", `{"issue_type":"MOLOZ"}`)
	if code != 500 || out.Status != "error" {
		t.Errorf("expected 500 error, got %d %+v", code, out)
	}
}

// ---- Dashboard tests ----

func TestAdminKey(t *testing.T) {
	env := makeDeps(nil, func(d *handler.Dependencies) { d.AdminToken = "s3cret" })
	app := setupApp(env.deps)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Errorf("expected 401 without key, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/api/stats", nil)
	req.Header.Set("X-API-Key", "s3cret")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Errorf("expected 200 with key, got %d", resp.StatusCode)
	}

	// The intake endpoint stays public.
	code, _ := postJSON(t, app, "/report-issue-api/", `{}`)
	if code != 200 {
		t.Errorf("expected public intake, got %d", code)
	}
}

func TestLiveFeedRequiresKey(t *testing.T) {
	env := makeDeps(nil, func(d *handler.Dependencies) { d.AdminToken = "s3cret" })
	app := setupApp(env.deps)

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"no key", "/ws", "", 401},
		{"wrong query key", "/ws?api_key=nope", "", 401},
		// Past the key check a plain GET is refused for not upgrading.
		{"header key", "/ws", "s3cret", 426},
		{"query key", "/ws?api_key=s3cret", "", 426},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestAPIKeyNotAcceptedFromQuery(t *testing.T) {
	env := makeDeps(nil, func(d *handler.Dependencies) { d.AdminToken = "s3cret" })
	app := setupApp(env.deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/stats?api_key=s3cret", nil), -1)
	if resp.StatusCode != 401 {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestListContainers_Pagination(t *testing.T) {
	containers := make([]domain.Container, 5)
	for i := range containers {
		containers[i] = domain.Container{ID: int64(i + 1), ContainerID: "BLC-00" + string(rune('1'+i))}
	}
	env := makeDeps(nil, func(d *handler.Dependencies) {
		d.Containers = usecases.NewContainerService(&mockContainerRepo{containers: containers}, nil)
	})
	app := setupApp(env.deps)

	req := httptest.NewRequest("GET", "/api/containers?type=glass&offset=2&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result struct {
		Data       []domain.Container `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 5 || len(result.Data) != 2 || result.Data[0].ID != 3 {
		t.Errorf("unexpected page %+v", result)
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, "type=glass&offset=4&limit=2") {
		t.Errorf("expected next link to keep filters, got %q", link)
	}
}

func TestListContainers_BadFill(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)
	resp, _ := app.Test(httptest.NewRequest("GET", "/api/containers?min_fill=101", nil), -1)
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetContainer_NotFound(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)
	resp, _ := app.Test(httptest.NewRequest("GET", "/api/containers/42", nil), -1)
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest("GET", "/api/containers/abc", nil), -1)
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListContainers_SearchAndStatus(t *testing.T) {
	repo := &mockContainerRepo{}
	env := makeDeps(nil, func(d *handler.Dependencies) {
		d.Containers = usecases.NewContainerService(repo, nil)
	})
	app := setupApp(env.deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/containers?status=all&search=%20Onur%20", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if repo.lastFilter.Search != "Onur" || repo.lastFilter.Status != domain.StatusAny {
		t.Errorf("filter not passed through: %+v", repo.lastFilter)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/api/containers?status=full", nil), -1)
	if resp.StatusCode != 400 {
		t.Errorf("expected 400 for unknown status, got %d", resp.StatusCode)
	}
}

func TestGetContainer_Detail(t *testing.T) {
	containers := &mockContainerRepo{containers: []domain.Container{{ID: 3, ContainerID: "BLC-003"}}}
	alerts := &mockAlertRepo{alerts: []domain.Alert{
		{ID: 1, ContainerID: 3, Type: domain.AlertFull},
		{ID: 2, ContainerID: 4, Type: domain.AlertDamage},
	}}
	routes := &mockRouteRepo{routes: []domain.CollectionRoute{
		{ID: 10, Name: "Sabah Turu", ContainerIDs: []int64{3, 4}},
		{ID: 11, Name: "Akşam Turu", ContainerIDs: []int64{4}},
	}}
	env := makeDeps(nil, func(d *handler.Dependencies) {
		d.Containers = usecases.NewContainerService(containers, nil, usecases.WithHistory(alerts, routes))
	})
	app := setupApp(env.deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/containers/3", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		ID           int64                    `json:"id"`
		ContainerID  string                   `json:"container_id"`
		RecentAlerts []domain.Alert           `json:"recent_alerts"`
		RecentRoutes []domain.CollectionRoute `json:"recent_routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.ContainerID != "BLC-003" || len(out.RecentAlerts) != 1 || out.RecentAlerts[0].ID != 1 {
		t.Errorf("unexpected detail %+v", out)
	}
	if len(out.RecentRoutes) != 1 || out.RecentRoutes[0].Name != "Sabah Turu" {
		t.Errorf("unexpected routes %+v", out.RecentRoutes)
	}
	if routes.lastFilter.ContainerID != 3 || routes.lastFilter.Limit != 5 {
		t.Errorf("unexpected route filter %+v", routes.lastFilter)
	}
}

func TestListRoutes_Filters(t *testing.T) {
	repo := &mockRouteRepo{routes: []domain.CollectionRoute{
		{ID: 1, Name: "Sabah Turu", Status: domain.RoutePending},
		{ID: 2, Name: "Akşam Turu", Status: domain.RouteCompleted},
	}}
	env := makeDeps(nil, func(d *handler.Dependencies) {
		d.Routes = usecases.NewRouteService(repo)
	})
	app := setupApp(env.deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/routes?today=true", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result struct {
		Data       []domain.CollectionRoute `json:"data"`
		Pagination handler.Pagination       `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 2 || len(result.Data) != 2 {
		t.Errorf("unexpected page %+v", result)
	}
	f := repo.lastFilter
	if f.ScheduledFrom == nil || f.ScheduledBefore == nil || !f.OldestFirst {
		t.Errorf("today filter not applied: %+v", f)
	} else if got := f.ScheduledBefore.Sub(*f.ScheduledFrom); got != 24*time.Hour {
		t.Errorf("expected a one day window, got %v", got)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/api/routes?completed_since=2026-10-12&status=completed", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	f = repo.lastFilter
	if f.CompletedSince == nil || f.CompletedSince.Format(time.DateOnly) != "2026-10-12" || f.Status != domain.RouteCompleted {
		t.Errorf("completed_since filter not applied: %+v", f)
	}
	if f.ScheduledFrom != nil {
		t.Errorf("unexpected schedule window %+v", f)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/api/routes?completed_since=2026-10-12T08:00:00Z", nil), -1)
	if resp.StatusCode != 200 {
		t.Errorf("expected 200 for RFC 3339 timestamp, got %d", resp.StatusCode)
	}
	if f := repo.lastFilter; f.CompletedSince == nil || !f.CompletedSince.Equal(time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected completed_since %+v", f.CompletedSince)
	}
}

func TestListRoutes_BadQuery(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)
	for _, q := range []string{
		"completed_since=last-week",
		"completed_since=12.10.2026",
		"status=lost",
		"container_id=-4",
	} {
		resp, _ := app.Test(httptest.NewRequest("GET", "/api/routes?"+q, nil), -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

func TestResolveAlert(t *testing.T) {
	env := makeDeps(nil, func(d *handler.Dependencies) {
		d.Alerts = usecases.NewAlertService(&mockAlertRepo{alerts: []domain.Alert{{ID: 5}}})
	})
	app := setupApp(env.deps)

	req := httptest.NewRequest("POST", "/api/alerts/5/resolve", strings.NewReader(`{"resolved_by":"ops"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("POST", "/api/alerts/6/resolve", nil), -1)
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestMapCenter_Default(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)
	resp, _ := app.Test(httptest.NewRequest("GET", "/api/map/center", nil), -1)

	var out struct {
		Center domain.GeoPoint `json:"center"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Center != usecases.DefaultMapCenter {
		t.Errorf("expected default center, got %+v", out.Center)
	}
}

func TestBoundaryStatus(t *testing.T) {
	app := setupApp(makeDeps(&mockFetcher{boundary: square}).deps)
	resp, _ := app.Test(httptest.NewRequest("GET", "/api/boundary", nil), -1)

	var out struct {
		Source   string `json:"source"`
		Vertices int    `json:"vertices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Source != "polygon" || out.Vertices != 4 {
		t.Errorf("unexpected status %+v", out)
	}

	app = setupApp(makeDeps(nil).deps)
	resp, _ = app.Test(httptest.NewRequest("POST", "/api/boundary/refresh", nil), -1)
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Source != "fallback" {
		t.Errorf("expected fallback after failed refresh, got %+v", out)
	}
}

func TestGraphQL_Stats(t *testing.T) {
	env := makeDeps(nil, func(d *handler.Dependencies) {
		d.Containers = usecases.NewContainerService(&mockContainerRepo{
			stats: &domain.DashboardStats{TotalContainers: 12, CriticalAlerts: 1},
		}, nil)
	})
	app := setupApp(env.deps)

	req := httptest.NewRequest("POST", "/graphql",
		strings.NewReader(`{"query":"{ stats { total_containers critical_alerts } withinServiceArea(lat: 10, lon: 10) }"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)

	var out struct {
		Data struct {
			Stats struct {
				TotalContainers int `json:"total_containers"`
				CriticalAlerts  int `json:"critical_alerts"`
			} `json:"stats"`
			WithinServiceArea bool `json:"withinServiceArea"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Data.Stats.TotalContainers != 12 || out.Data.WithinServiceArea {
		t.Errorf("unexpected graphql result %+v", out)
	}
}

func TestGraphQL_RoutesAndContainerDetail(t *testing.T) {
	scheduled := time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)
	routes := &mockRouteRepo{routes: []domain.CollectionRoute{
		{ID: 10, Name: "Sabah Turu", ContainerIDs: []int64{3, 4}, ScheduledDate: scheduled, Status: domain.RouteInProgress},
	}}
	alerts := &mockAlertRepo{alerts: []domain.Alert{{ID: 1, ContainerID: 3, Priority: domain.PriorityHigh}}}
	env := makeDeps(nil, func(d *handler.Dependencies) {
		d.Containers = usecases.NewContainerService(
			&mockContainerRepo{containers: []domain.Container{{ID: 3, ContainerID: "BLC-003"}}},
			nil, usecases.WithHistory(alerts, routes))
		d.Routes = usecases.NewRouteService(routes)
	})
	app := setupApp(env.deps)

	query := `{"query":"{ routes(today: true) { route_name status containers_count scheduled_date } ` +
		`container(id: 3) { container { container_id } recent_alerts { id priority } recent_routes { id } } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(query))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)

	var out struct {
		Data struct {
			Routes []struct {
				RouteName       string `json:"route_name"`
				Status          string `json:"status"`
				ContainersCount int    `json:"containers_count"`
				ScheduledDate   string `json:"scheduled_date"`
			} `json:"routes"`
			Container struct {
				Container struct {
					ContainerID string `json:"container_id"`
				} `json:"container"`
				RecentAlerts []struct {
					ID       int    `json:"id"`
					Priority string `json:"priority"`
				} `json:"recent_alerts"`
				RecentRoutes []struct {
					ID int `json:"id"`
				} `json:"recent_routes"`
			} `json:"container"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Errors) > 0 {
		t.Fatalf("graphql errors: %v", out.Errors)
	}
	if len(out.Data.Routes) != 1 {
		t.Fatalf("expected one route, got %+v", out.Data.Routes)
	}
	r := out.Data.Routes[0]
	if r.RouteName != "Sabah Turu" || r.Status != "in_progress" || r.ContainersCount != 2 {
		t.Errorf("unexpected route %+v", r)
	}
	if r.ScheduledDate != scheduled.Format(time.RFC3339) {
		t.Errorf("unexpected scheduled_date %q", r.ScheduledDate)
	}
	c := out.Data.Container
	if c.Container.ContainerID != "BLC-003" || len(c.RecentAlerts) != 1 || c.RecentAlerts[0].Priority != "high" || len(c.RecentRoutes) != 1 {
		t.Errorf("unexpected container detail %+v", c)
	}
}

func TestHealthAndReady(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Errorf("expected 503 without a database, got %d", resp.StatusCode)
	}

	var ready struct {
		Status string `json:"status"`
		Checks map[string]struct {
			Status string `json:"status"`
		} `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ready); err != nil {
		t.Fatal(err)
	}
	if ready.Status != "not ready" || ready.Checks["database"].Status != "not configured" || ready.Checks["nats"].Status != "not configured" {
		t.Errorf("unexpected readiness %+v", ready)
	}
}

func TestHealth_ReportsServiceArea(t *testing.T) {
	type area struct {
		Source   string `json:"source"`
		Vertices int    `json:"vertices"`
	}
	var out struct {
		Status      string `json:"status"`
		ServiceArea area   `json:"service_area"`
	}

	env := makeDeps(&mockFetcher{boundary: square})
	app := setupApp(env.deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "healthy" || out.ServiceArea.Source != "fallback" {
		t.Errorf("expected fallback before the first fetch, got %+v", out)
	}

	// A report inside the square loads the polygon.
	if code, _ := postJSON(t, app, "/report-issue-api/", `{"lat":38.40,"lng":27.05}`); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.ServiceArea.Source != "polygon" || out.ServiceArea.Vertices != 4 {
		t.Errorf("expected polygon after a fetch, got %+v", out.ServiceArea)
	}
}

func TestETagNotModified(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/stats", nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", "/api/stats", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

// lockedBuffer collects log output written from handler goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) accessLines(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	for _, line := range bytes.Split(b.buf.Bytes(), []byte("\n")) {
		var rec map[string]any
		if json.Unmarshal(line, &rec) == nil && rec["msg"] == "http request" {
			out = append(out, rec)
		}
	}
	return out
}

func TestAccessLog_IntakeOutcome(t *testing.T) {
	logs := &lockedBuffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	app := setupApp(makeDeps(nil).deps)
	_, accepted := postJSON(t, app, "/report-issue-api/", `{"issue_type":"MOLOZ","lat":38.40,"lng":27.05}`)
	postJSON(t, app, "/report-issue-api/", `{"issue_type":"MOLOZ","lat":10,"lng":10}`)
	postRaw(t, app, "text/plain", "not a report")
	app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)

	lines := logs.accessLines(t)
	if len(lines) != 4 {
		t.Fatalf("expected 4 access lines, got %d", len(lines))
	}
	want := []struct {
		outcome string
		level   string
	}{
		{"accepted", "INFO"},
		{"rejected", "WARN"},
		{"invalid", "WARN"},
		{"", "DEBUG"},
	}
	for i, w := range want {
		rec := lines[i]
		if got, _ := rec["outcome"].(string); got != w.outcome {
			t.Errorf("line %d: outcome %q, want %q", i, got, w.outcome)
		}
		if rec["level"] != w.level {
			t.Errorf("line %d: level %v, want %s", i, rec["level"], w.level)
		}
		if rid, _ := rec["request_id"].(string); rid == "" {
			t.Errorf("line %d: missing request_id", i)
		}
	}
	if lines[0]["report_id"] != accepted.ID || lines[0]["route"] != "/report-issue-api/" {
		t.Errorf("unexpected accepted line %v", lines[0])
	}
	if _, ok := lines[1]["report_id"]; ok {
		t.Error("rejected report must not carry an id")
	}
}
