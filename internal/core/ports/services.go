package ports

import (
	"context"

	"github.com/samirrijal/ankyra/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishAnnotationCreated(ctx context.Context, a *domain.Annotation) error
	PublishAnnotationDeleted(ctx context.Context, id string) error
	PublishLayerUpdated(ctx context.Context, kind domain.LayerKind, count int) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeLayerUpdates(ctx context.Context, handler func(ctx context.Context, kind domain.LayerKind) error) error
	SubscribeAnnotationChanges(ctx context.Context, handler func(ctx context.Context) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
