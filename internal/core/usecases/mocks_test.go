package usecases_test

import (
	"context"
	"errors"

	"github.com/samirrijal/ankyra/internal/core/domain"
)

// --- Mock FeatureRepository ---

type mockFeatureRepo struct {
	listByKindFn   func(ctx context.Context, kind domain.LayerKind) ([]domain.Feature, error)
	replaceLayerFn func(ctx context.Context, kind domain.LayerKind, features []domain.Feature) error
}

func (m *mockFeatureRepo) ListByKind(ctx context.Context, kind domain.LayerKind) ([]domain.Feature, error) {
	if m.listByKindFn != nil {
		return m.listByKindFn(ctx, kind)
	}
	return nil, nil
}

func (m *mockFeatureRepo) ReplaceLayer(ctx context.Context, kind domain.LayerKind, features []domain.Feature) error {
	if m.replaceLayerFn != nil {
		return m.replaceLayerFn(ctx, kind, features)
	}
	return nil
}

// --- Mock AnnotationRepository ---

type mockAnnotationRepo struct {
	insertFn  func(ctx context.Context, a *domain.Annotation) error
	listFn    func(ctx context.Context) ([]domain.Annotation, error)
	getByIDFn func(ctx context.Context, id string) (*domain.Annotation, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockAnnotationRepo) Insert(ctx context.Context, a *domain.Annotation) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, a)
	}
	return nil
}

func (m *mockAnnotationRepo) List(ctx context.Context) ([]domain.Annotation, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockAnnotationRepo) GetByID(ctx context.Context, id string) (*domain.Annotation, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockAnnotationRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, errCacheMiss
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	created []string
	deleted []string
	layers  map[domain.LayerKind]int
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{layers: make(map[domain.LayerKind]int)}
}

func (p *mockPublisher) PublishAnnotationCreated(ctx context.Context, a *domain.Annotation) error {
	p.created = append(p.created, a.ID)
	return nil
}

func (p *mockPublisher) PublishAnnotationDeleted(ctx context.Context, id string) error {
	p.deleted = append(p.deleted, id)
	return nil
}

func (p *mockPublisher) PublishLayerUpdated(ctx context.Context, kind domain.LayerKind, count int) error {
	p.layers[kind] = count
	return nil
}
