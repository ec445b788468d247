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

	"github.com/samirrijal/ankyra/internal/adapters/http"
	natsadapter "github.com/samirrijal/ankyra/internal/adapters/nats"
	"github.com/samirrijal/ankyra/internal/adapters/postgres"
	"github.com/samirrijal/ankyra/internal/adapters/valkey"
	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/core/ports"
	"github.com/samirrijal/ankyra/internal/core/usecases"
	"github.com/samirrijal/ankyra/internal/pkg/config"
	"github.com/samirrijal/ankyra/internal/pkg/logging"
	"github.com/samirrijal/ankyra/internal/pkg/telemetry"
)

const poolStatsInterval = 15 * time.Second

func main() {
	cfg, err := config.Load("ankyra-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.SetupWithFile(cfg.Log.Level, cfg.Log.Format, logging.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.OTLPAddr,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.Telemetry.ServiceName,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		slog.Warn("telemetry init failed", "error", err)
	} else {
		defer shutdownTracer(context.Background())
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	deps := &http.Dependencies{
		Map:            http.NewMapInfo(cfg.Map),
		Space:          usecases.NewCoordinateSpace(cfg.Map.Bounds()),
		DB:             db,
		WSPingInterval: time.Duration(cfg.Server.WSPingInterval) * time.Second,
	}

	// Cache. Interfaces stay nil when a backend is down so services skip it.
	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer c.Close()
		cache = c
		deps.Cache = c
	}

	// NATS
	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
		deps.NATS = natsConn
	}

	// Repos
	featureRepo := postgres.NewFeatureRepo(db)
	annotationRepo := postgres.NewAnnotationRepo(db)

	// Use cases
	deps.Layers = usecases.NewLayerService(featureRepo, cache, publisher, deps.Space)
	deps.Annotations = usecases.NewAnnotationService(annotationRepo, cache, publisher, deps.Space)
	deps.Measure = usecases.NewMeasureService(deps.Space, cfg.Map.MinGesturePixels)

	// Drop cached reads when another instance or the importer changes data.
	if sub, err := natsadapter.NewSubscriber(cfg.NATS.URL); err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		subscribeInvalidation(ctx, sub, deps)
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Ankyra Map API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "map", cfg.Map.Name)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func subscribeInvalidation(ctx context.Context, sub ports.EventSubscriber, deps *http.Dependencies) {
	err := sub.SubscribeLayerUpdates(ctx, func(ctx context.Context, kind domain.LayerKind) error {
		slog.InfoContext(ctx, "layer updated elsewhere, dropping cache", "kind", kind)
		return deps.Layers.Invalidate(ctx, kind)
	})
	if err != nil {
		slog.Warn("subscribe layer updates failed", "error", err)
	}

	err = sub.SubscribeAnnotationChanges(ctx, func(ctx context.Context) error {
		deps.Annotations.Invalidate(ctx)
		return nil
	})
	if err != nil {
		slog.Warn("subscribe annotation changes failed", "error", err)
	}
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			db.ReportPoolStats()
		case <-ctx.Done():
			return
		}
	}
}
