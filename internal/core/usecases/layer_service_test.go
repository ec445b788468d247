package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/core/usecases"
)

func testSpace() *usecases.CoordinateSpace {
	return usecases.NewCoordinateSpace(domain.NewMapBounds(2274, 1700, 0.2871))
}

func TestLayerService_List_ReadThroughCache(t *testing.T) {
	calls := 0
	repo := &mockFeatureRepo{
		listByKindFn: func(ctx context.Context, kind domain.LayerKind) ([]domain.Feature, error) {
			calls++
			loc := pt(850, 1137)
			return []domain.Feature{{ID: "1", Kind: kind, Name: "Ankyra", Category: domain.CategoryCity, Location: &loc}}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewLayerService(repo, cache, nil, testSpace())

	for i := 0; i < 2; i++ {
		features, err := svc.List(context.Background(), domain.LayerSettlements)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(features) != 1 || features[0].Name != "Ankyra" {
			t.Fatalf("unexpected features: %+v", features)
		}
	}
	if calls != 1 {
		t.Errorf("repo called %d times, want 1", calls)
	}
	if _, ok := cache.data[usecases.LayerCacheKey(domain.LayerSettlements)]; !ok {
		t.Error("layer not cached")
	}
}

func TestLayerService_List_EmptyLayer(t *testing.T) {
	svc := usecases.NewLayerService(&mockFeatureRepo{}, nil, nil, testSpace())
	features, err := svc.List(context.Background(), domain.LayerMana)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if features == nil || len(features) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", features)
	}
}

func TestLayerService_List_UnknownKind(t *testing.T) {
	svc := usecases.NewLayerService(&mockFeatureRepo{}, nil, nil, testSpace())
	_, err := svc.List(context.Background(), domain.LayerKind("dragons"))
	if !errors.Is(err, domain.ErrUnknownLayer) {
		t.Fatalf("expected ErrUnknownLayer, got %v", err)
	}
}

func TestLayerService_Import(t *testing.T) {
	var stored []domain.Feature
	repo := &mockFeatureRepo{
		replaceLayerFn: func(ctx context.Context, kind domain.LayerKind, features []domain.Feature) error {
			if kind != domain.LayerConflict {
				t.Errorf("expected conflict layer, got %s", kind)
			}
			stored = features
			return nil
		},
	}
	cache := newMockCache()
	cache.data[usecases.LayerCacheKey(domain.LayerConflict)] = []byte("[]")
	pub := newMockPublisher()
	svc := usecases.NewLayerService(repo, cache, pub, testSpace())

	loc := pt(600, 800)
	n, err := svc.Import(context.Background(), domain.LayerConflict, []domain.Feature{
		{Name: "Siege of Varn", Location: &loc, Radius: 40},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 || len(stored) != 1 {
		t.Fatalf("stored %d features, want 1", len(stored))
	}
	if stored[0].ID == "" || stored[0].Kind != domain.LayerConflict {
		t.Errorf("feature not prepared: %+v", stored[0])
	}
	if _, ok := cache.data[usecases.LayerCacheKey(domain.LayerConflict)]; ok {
		t.Error("layer cache not invalidated")
	}
	if pub.layers[domain.LayerConflict] != 1 {
		t.Errorf("layer update not published: %v", pub.layers)
	}
}

func TestLayerService_Import_Rejects(t *testing.T) {
	replaced := false
	repo := &mockFeatureRepo{
		replaceLayerFn: func(ctx context.Context, kind domain.LayerKind, features []domain.Feature) error {
			replaced = true
			return nil
		},
	}
	svc := usecases.NewLayerService(repo, nil, nil, testSpace())

	far := pt(5000, 5000)
	inside := pt(10, 10)
	cases := []struct {
		name     string
		kind     domain.LayerKind
		features []domain.Feature
		wantErr  error
	}{
		{"unknown kind", "dragons", nil, domain.ErrUnknownLayer},
		{"out of bounds", domain.LayerSettlements, []domain.Feature{{Name: "Lost", Category: domain.CategoryVillage, Location: &far}}, domain.ErrOutOfBounds},
		{"mismatched kind", domain.LayerSettlements, []domain.Feature{{Name: "Zone", Kind: domain.LayerMana, Location: &inside}}, domain.ErrInvalidFeature},
		{"short polygon", domain.LayerNations, []domain.Feature{{Name: "Sliver", Points: []domain.WorldPoint{inside, inside}}}, domain.ErrInvalidFeature},
	}
	for _, c := range cases {
		_, err := svc.Import(context.Background(), c.kind, c.features)
		if !errors.Is(err, c.wantErr) {
			t.Errorf("%s: expected %v, got %v", c.name, c.wantErr, err)
		}
	}
	if replaced {
		t.Error("invalid import reached the repository")
	}
}

func TestLayerService_Invalidate(t *testing.T) {
	cache := newMockCache()
	svc := usecases.NewLayerService(&mockFeatureRepo{}, cache, nil, testSpace())

	if err := svc.Invalidate(context.Background(), domain.LayerFaith); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != "layers:faith" {
		t.Errorf("deleted keys = %v, want [layers:faith]", cache.deleted)
	}
}
