//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/ankyra/internal/adapters/http"
	"github.com/samirrijal/ankyra/internal/adapters/postgres"
	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/core/usecases"
	"github.com/samirrijal/ankyra/internal/pkg/config"
)

// setupTestDB connects to the migrated database named by ANKYRA_DATABASE_*.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("ankyra-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if _, err := db.Pool.Exec(ctx, `TRUNCATE features, annotations`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

// setupTestDeps creates dependencies with real repos, no cache or broker.
func setupTestDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	d := makeDeps()
	d.Layers = usecases.NewLayerService(postgres.NewFeatureRepo(db), nil, nil, d.Space)
	d.Annotations = usecases.NewAnnotationService(postgres.NewAnnotationRepo(db), nil, nil, d.Space)
	d.DB = db
	return d
}

func TestLayer_Integration_ImportThenRead(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	n, err := deps.Layers.Import(context.Background(), domain.LayerSettlements, []domain.Feature{
		{Name: "Duskhaven", Category: domain.CategoryCity, Location: &domain.WorldPoint{Lat: 900, Lng: 1200}},
		{Name: "Brindle Ford", Category: domain.CategoryVillage, Location: &domain.WorldPoint{Lat: 640, Lng: 410}},
	})
	if err != nil || n != 2 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/layers/settlements", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var layer http.LayerResponse
	if err := json.NewDecoder(resp.Body).Decode(&layer); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(layer.Features) != 2 || layer.Features[0].Name != "Duskhaven" {
		t.Errorf("unexpected features %+v", layer.Features)
	}
}

func TestAnnotations_Integration_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	app := setupApp(setupTestDeps(t, db))

	status, body := postJSON(t, app, "/v1/annotations", `{"lat":300,"lng":450,"note":"Bandit camp"}`)
	if status != 201 {
		t.Fatalf("create: expected 201, got %d: %s", status, body)
	}
	var created domain.Annotation
	json.Unmarshal(body, &created)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/annotations", nil), -1)
	if b := string(readBody(t, resp.Body)); !strings.Contains(b, created.ID) {
		t.Fatalf("created annotation missing from list: %s", b)
	}

	resp, _ = app.Test(httptest.NewRequest("DELETE", "/v1/annotations/"+created.ID, nil), -1)
	if resp.StatusCode != 204 {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest("DELETE", "/v1/annotations/"+created.ID, nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("second delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	app := setupApp(setupTestDeps(t, db))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
