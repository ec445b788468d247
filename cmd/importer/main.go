package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/ankyra/internal/adapters/nats"
	"github.com/samirrijal/ankyra/internal/adapters/postgres"
	"github.com/samirrijal/ankyra/internal/core/ports"
	"github.com/samirrijal/ankyra/internal/core/usecases"
	"github.com/samirrijal/ankyra/internal/pkg/config"
	"github.com/samirrijal/ankyra/internal/pkg/logging"
	"github.com/samirrijal/ankyra/internal/workflows"
)

// importer runs layer imports through Temporal.
//
//	importer worker            run the worker
//	importer run FILE [FILE]   start one import workflow per file and wait
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: importer <worker|run FILE...>")
	}

	cfg, err := config.Load("ankyra-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	switch os.Args[1] {
	case "worker":
		runWorker(c, cfg)
	case "run":
		if len(os.Args) < 3 {
			log.Fatal("usage: importer run FILE...")
		}
		if failed := startImports(c, cfg.Temporal.TaskQueue, os.Args[2:]); failed > 0 {
			os.Exit(1)
		}
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runWorker(c client.Client, cfg *config.Config) {
	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}

	layers := usecases.NewLayerService(postgres.NewFeatureRepo(db), nil, publisher,
		usecases.NewCoordinateSpace(cfg.Map.Bounds()))

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.LayerImportWorkflow)
	w.RegisterActivity(&workflows.LayerImportActivities{Layers: layers})

	slog.Info("layer import worker started", "queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func startImports(c client.Client, queue string, files []string) int {
	ctx := context.Background()
	failed := 0

	for _, path := range files {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        fmt.Sprintf("layer-import-%s", filepath.Base(abs)),
			TaskQueue: queue,
		}, workflows.LayerImportWorkflow, workflows.LayerImportInput{Path: abs})
		if err != nil {
			slog.Error("start import failed", "file", path, "error", err)
			failed++
			continue
		}

		var result workflows.LayerImportResult
		if err := run.Get(ctx, &result); err != nil {
			slog.Error("import failed", "file", path, "workflow_id", run.GetID(), "error", err)
			failed++
			continue
		}
		slog.Info("layer imported", "file", path, "kind", result.Kind, "features", result.Count)
	}
	return failed
}
