package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/samirrijal/looopone/internal/adapters/http"
	natsadapter "github.com/samirrijal/looopone/internal/adapters/nats"
	"github.com/samirrijal/looopone/internal/adapters/nominatim"
	"github.com/samirrijal/looopone/internal/adapters/postgres"
	"github.com/samirrijal/looopone/internal/adapters/valkey"
	"github.com/samirrijal/looopone/internal/core/ports"
	"github.com/samirrijal/looopone/internal/core/usecases"
	"github.com/samirrijal/looopone/internal/geofence"
	"github.com/samirrijal/looopone/internal/pkg/config"
	"github.com/samirrijal/looopone/internal/pkg/logging"
	"github.com/samirrijal/looopone/internal/pkg/telemetry"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load("looopone-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolMetrics(ctx, 15*time.Second)

	// Cache (optional)
	var shared ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, valkey.WithPrefix(cfg.Valkey.Prefix))
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		shared = cache
	}

	// NATS (optional)
	reportOpts := []usecases.ReportOption{}
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, reports will not be dispatched", "error", err)
	} else {
		defer pub.Close()
		reportOpts = append(reportOpts, usecases.WithPublisher(pub))
	}

	// Geofence
	g := cfg.Geofence
	fetcher := nominatim.NewFetcher(g.NominatimURL, g.PlaceQuery, g.UserAgent, g.FetchTimeoutDuration())
	cacheOpts := []geofence.CacheOption{}
	if shared != nil {
		cacheOpts = append(cacheOpts, geofence.WithSharedStore(shared, g.CacheKey))
	}
	boundary := geofence.NewBoundaryCache(fetcher, g.CacheTTLDuration(), cacheOpts...)
	evaluator := geofence.NewEvaluator(boundary, g.Fallback)

	// Repos
	containerRepo := postgres.NewContainerRepo(db)
	alertRepo := postgres.NewAlertRepo(db)
	routeRepo := postgres.NewRouteRepo(db)
	municipalityRepo := postgres.NewMunicipalityRepo(db)

	deps := &http.Dependencies{
		Reports:        usecases.NewReportService(evaluator, containerRepo, g.DefaultPoint, reportOpts...),
		Containers:     usecases.NewContainerService(containerRepo, shared, usecases.WithHistory(alertRepo, routeRepo)),
		Alerts:         usecases.NewAlertService(alertRepo),
		Routes:         usecases.NewRouteService(routeRepo),
		Municipalities: usecases.NewMunicipalityService(municipalityRepo),
		Boundary:       boundary,
		Geofence:       evaluator,
		AdminToken:     cfg.Server.AdminToken,
		MapsAPIKey:     cfg.Maps.APIKey,
		DB:             db,
		Cache:          cache,
	}
	if pub != nil {
		deps.NATS = pub.Conn()
	}
	if cfg.Server.AdminToken == "" {
		slog.Warn("server.admin_token is empty, dashboard API is unprotected")
	}

	// Warm the boundary so the first report does not pay for the fetch.
	go func() {
		if boundary.Get(ctx) == nil {
			slog.Warn("boundary unavailable at startup, using fallback rectangle")
		}
	}()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Looopone Waste Dashboard",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, X-API-Key",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
