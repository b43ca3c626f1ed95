package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/samirrijal/looopone/internal/adapters/postgres"
	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/pkg/config"
	"github.com/samirrijal/looopone/internal/pkg/logging"
)

type neighborhood struct {
	name string
	lat  float64
	lon  float64
}

var neighborhoods = []neighborhood{
	{"İnciraltı", 38.3862, 27.0374},
	{"Alaybey", 38.3692, 27.0468},
	{"Onur", 38.3801, 27.0603},
	{"Teleferik", 38.3584, 27.0391},
	{"Mithatpaşa", 38.3726, 27.0542},
}

var streets = []string{
	"Cumhuriyet Caddesi",
	"Atatürk Bulvarı",
	"İnönü Caddesi",
	"Gazi Mustafa Kemal Bulvarı",
	"Mithatpaşa Caddesi",
	"Tevfik Bey Caddesi",
	"Şair Eşref Bulvarı",
}

var containerTypes = []domain.ContainerType{
	domain.ContainerOrganic, domain.ContainerPaper, domain.ContainerPlastic,
	domain.ContainerGlass, domain.ContainerMetal, domain.ContainerGeneral,
}

var capacities = []int{240, 360, 660, 1100}

var upper = cases.Upper(language.Turkish).String

var plates = []string{"35 BLC 101", "35 BLC 102", "35 BLC 103"}

func main() {
	seed := flag.Uint64("seed", 1, "random seed for reproducible demo data")
	withAlerts := flag.Bool("alerts", true, "raise alerts for full, maintenance and damaged containers")
	withRoutes := flag.Bool("routes", true, "plan one collection route per neighborhood")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load("looopone-seed")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	munis := postgres.NewMunicipalityRepo(db)
	if err := munis.Upsert(ctx, &domain.Municipality{
		Name:           "Balçova Belediyesi",
		City:           "İzmir",
		District:       "Balçova",
		Center:         domain.GeoPoint{Lat: 38.3692, Lon: 27.0468},
		AlertThreshold: 80,
		IsActive:       true,
	}); err != nil {
		log.Fatalf("municipality: %v", err)
	}

	containers := postgres.NewContainerRepo(db)
	alerts := postgres.NewAlertRepo(db)
	routes := postgres.NewRouteRepo(db)
	rng := rand.New(rand.NewPCG(*seed, *seed))

	count, raised, planned := 0, 0, 0
	now := time.Now()
	for i, n := range neighborhoods {
		var ids []int64
		for range 6 + rng.IntN(3) {
			count++
			c := demoContainer(rng, n, count)
			if err := containers.Upsert(ctx, &c); err != nil {
				log.Fatalf("container %s: %v", c.ContainerID, err)
			}
			ids = append(ids, c.ID)
			if !*withAlerts {
				continue
			}
			if a, ok := demoAlert(c); ok {
				if err := alerts.Create(ctx, &a); err != nil {
					log.Fatalf("alert for %s: %v", c.ContainerID, err)
				}
				raised++
			}
		}
		if !*withRoutes {
			continue
		}
		r := demoRoute(n, i, ids, now)
		if err := routes.Create(ctx, &r); err != nil {
			log.Fatalf("route %s: %v", r.Name, err)
		}
		planned++
	}

	slog.Info("demo data seeded", "containers", count, "alerts", raised, "routes", planned)
}

// demoRoute plans a route over one neighborhood's containers. The first two
// neighborhoods were collected earlier in the week, the third is on the road
// and the rest wait for today's shift.
func demoRoute(n neighborhood, i int, ids []int64, now time.Time) domain.CollectionRoute {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	r := domain.CollectionRoute{
		Name:          fmt.Sprintf("%s Toplama Turu", n.name),
		Driver:        fmt.Sprintf("Sürücü %d", i+1),
		VehiclePlate:  plates[i%len(plates)],
		ContainerIDs:  ids,
		ScheduledDate: day.Add(time.Duration(7+i) * time.Hour),
		Status:        domain.RoutePending,
	}
	switch {
	case i < 2:
		r.ScheduledDate = r.ScheduledDate.AddDate(0, 0, -(1 + 2*i))
		started := r.ScheduledDate.Add(10 * time.Minute)
		completed := started.Add(time.Duration(len(ids)*12) * time.Minute)
		km := 1.5 * float64(len(ids))
		r.StartedAt, r.CompletedAt, r.TotalDistanceKm = &started, &completed, &km
		r.Status = domain.RouteCompleted
	case i == 2:
		started := r.ScheduledDate
		r.StartedAt = &started
		r.Status = domain.RouteInProgress
	}
	return r
}

func demoContainer(rng *rand.Rand, n neighborhood, seq int) domain.Container {
	var fill int
	switch r := rng.Float64(); {
	case r < 0.15:
		fill = 75 + rng.IntN(21)
	case r < 0.45:
		fill = 50 + rng.IntN(25)
	default:
		fill = 10 + rng.IntN(40)
	}

	status := domain.StatusActive
	switch r := rng.Float64(); {
	case r < 0.05:
		status = domain.StatusMaintenance
	case r < 0.07:
		status = domain.StatusDamaged
	}

	battery := 60 + rng.IntN(41)
	if status != domain.StatusActive {
		battery = 10 + rng.IntN(31)
	}

	prefix := []rune(n.name)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	return domain.Container{
		ContainerID: fmt.Sprintf("BLV-%s-%03d", upper(string(prefix)), seq),
		Type:        containerTypes[rng.IntN(len(containerTypes))],
		Capacity:    capacities[rng.IntN(len(capacities))],
		FillLevel:   fill,
		Location: domain.GeoPoint{
			Lat: n.lat + (rng.Float64()-0.5)*0.01,
			Lon: n.lon + (rng.Float64()-0.5)*0.01,
		},
		Address:      fmt.Sprintf("%s No:%d", streets[rng.IntN(len(streets))], 1+rng.IntN(150)),
		Neighborhood: n.name,
		Status:       status,
		BatteryLevel: battery,
	}
}

func demoAlert(c domain.Container) (domain.Alert, bool) {
	a := domain.Alert{ContainerID: c.ID}
	switch {
	case c.Status == domain.StatusMaintenance:
		a.Type, a.Priority = domain.AlertMaintenance, domain.PriorityMedium
		a.Message = fmt.Sprintf("%s is under maintenance", c.ContainerID)
	case c.Status == domain.StatusDamaged:
		a.Type, a.Priority = domain.AlertDamage, domain.PriorityHigh
		a.Message = fmt.Sprintf("%s reported damaged", c.ContainerID)
	case c.FillLevel >= 80:
		a.Type, a.Priority = domain.AlertFull, domain.PriorityMedium
		if c.FillLevel >= 90 {
			a.Priority = domain.PriorityHigh
		}
		a.Message = fmt.Sprintf("%s is %d%% full and needs emptying", c.ContainerID, c.FillLevel)
	default:
		return domain.Alert{}, false
	}
	return a, true
}
