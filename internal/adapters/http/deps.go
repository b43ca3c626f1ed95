package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/looopone/internal/adapters/postgres"
	"github.com/samirrijal/looopone/internal/adapters/valkey"
	"github.com/samirrijal/looopone/internal/core/usecases"
	"github.com/samirrijal/looopone/internal/geofence"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Reports        *usecases.ReportService
	Containers     *usecases.ContainerService
	Alerts         *usecases.AlertService
	Routes         *usecases.RouteService
	Municipalities *usecases.MunicipalityService
	Boundary       *geofence.BoundaryCache
	Geofence       *geofence.Evaluator

	// AdminToken guards the /api dashboard routes when non-empty.
	AdminToken string
	MapsAPIKey string

	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache
}
