package ports

import (
	"context"

	"github.com/samirrijal/ankyra/internal/core/domain"
)

// FeatureRepository persists map layer features.
type FeatureRepository interface {
	ListByKind(ctx context.Context, kind domain.LayerKind) ([]domain.Feature, error)
	// ReplaceLayer atomically swaps every feature of kind for features.
	ReplaceLayer(ctx context.Context, kind domain.LayerKind, features []domain.Feature) error
}

// AnnotationRepository persists user annotations.
type AnnotationRepository interface {
	Insert(ctx context.Context, a *domain.Annotation) error
	List(ctx context.Context) ([]domain.Annotation, error)
	GetByID(ctx context.Context, id string) (*domain.Annotation, error)
	Delete(ctx context.Context, id string) error
}
