package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/samirrijal/ankyra/internal/adapters/layerfile"
	natsadapter "github.com/samirrijal/ankyra/internal/adapters/nats"
	"github.com/samirrijal/ankyra/internal/adapters/postgres"
	"github.com/samirrijal/ankyra/internal/core/ports"
	"github.com/samirrijal/ankyra/internal/core/usecases"
	"github.com/samirrijal/ankyra/internal/pkg/config"
	"github.com/samirrijal/ankyra/internal/pkg/logging"
	"github.com/samirrijal/ankyra/internal/pkg/metrics"
)

// ingestor loads every layer file of a data directory into the database.
// Usage: ingestor [-dir data] [file.json ...]
func main() {
	cfg, err := config.Load("ankyra-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	dir := flag.String("dir", cfg.Map.DataDir, "directory holding layer JSON files")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		files, err = filepath.Glob(filepath.Join(*dir, "*.json"))
		if err != nil {
			log.Fatalf("list %s: %v", *dir, err)
		}
	}
	if len(files) == 0 {
		log.Fatalf("no layer files found in %s", *dir)
	}
	sort.Strings(files)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Publishing lets running API instances drop their cached layers.
	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, API caches expire on their own", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}

	layers := usecases.NewLayerService(postgres.NewFeatureRepo(db), nil, publisher,
		usecases.NewCoordinateSpace(cfg.Map.Bounds()))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	for _, path := range files {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			if err := importFile(ctx, layers, path); err != nil {
				slog.Error("import failed", "file", path, "error", err)
				mu.Lock()
				failed = append(failed, path)
				mu.Unlock()
			}
		}(path)
	}
	wg.Wait()

	if len(failed) > 0 {
		slog.Error("ingest finished with failures", "failed", failed, "total", len(files))
		os.Exit(1)
	}
	slog.Info("ingest complete", "files", len(files))
}

func importFile(ctx context.Context, layers *usecases.LayerService, path string) error {
	kind, features, err := layerfile.Read(path)
	if err != nil {
		return err
	}

	start := time.Now()
	n, err := layers.Import(ctx, kind, features)
	if err != nil {
		metrics.LayerImports.WithLabelValues(string(kind), metrics.OutcomeFailed).Inc()
		return err
	}
	metrics.LayerImports.WithLabelValues(string(kind), metrics.OutcomeImported).Inc()

	slog.Info("layer imported", "file", filepath.Base(path), "kind", kind, "features", n, "took", time.Since(start).String())
	return nil
}
