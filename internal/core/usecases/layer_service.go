package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/core/ports"
	"github.com/samirrijal/ankyra/internal/pkg/telemetry"
)

// layerCacheTTL is how long a layer stays cached (10 min; layers only change on import).
const layerCacheTTL = 600

// LayerCacheKey returns the cache key holding the features of kind.
func LayerCacheKey(kind domain.LayerKind) string {
	return "layers:" + string(kind)
}

// LayerService handles map layer reads and imports.
type LayerService struct {
	features  ports.FeatureRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	space     *CoordinateSpace
}

// NewLayerService creates a new LayerService. cache and publisher may be nil.
func NewLayerService(features ports.FeatureRepository, cache ports.CacheService, publisher ports.EventPublisher, space *CoordinateSpace) *LayerService {
	return &LayerService{features: features, cache: cache, publisher: publisher, space: space}
}

// List returns every feature of the given layer.
func (s *LayerService) List(ctx context.Context, kind domain.LayerKind) ([]domain.Feature, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanLayerList)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrLayerKind, string(kind)))

	if _, err := domain.ParseLayerKind(string(kind)); err != nil {
		return nil, err
	}

	cacheKey := LayerCacheKey(kind)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var features []domain.Feature
			if err := json.Unmarshal(data, &features); err == nil {
				span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
				return features, nil
			}
		}
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false))

	features, err := s.features.ListByKind(ctx, kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list features")
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	if features == nil {
		features = []domain.Feature{}
	}

	if s.cache != nil {
		if data, err := json.Marshal(features); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, layerCacheTTL)
		}
	}

	return features, nil
}

// Import validates features and atomically replaces the layer with them.
// Features without a kind take the layer's kind; features without an ID get
// a fresh one. It returns the number of features stored.
func (s *LayerService) Import(ctx context.Context, kind domain.LayerKind, features []domain.Feature) (int, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanLayerImport)
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrLayerKind, string(kind)),
		attribute.Int(telemetry.AttrFeatureCount, len(features)),
	)

	if _, err := domain.ParseLayerKind(string(kind)); err != nil {
		return 0, err
	}

	bounds := s.space.Bounds()
	prepared := make([]domain.Feature, 0, len(features))
	for i, f := range features {
		if f.Kind == "" {
			f.Kind = kind
		}
		if f.Kind != kind {
			return 0, fmt.Errorf("feature %d (%s) has kind %q in layer %q: %w", i, f.Name, f.Kind, kind, domain.ErrInvalidFeature)
		}
		if err := f.Validate(bounds); err != nil {
			return 0, fmt.Errorf("feature %d: %w", i, err)
		}
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		prepared = append(prepared, f)
	}

	if err := s.features.ReplaceLayer(ctx, kind, prepared); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replace layer")
		return 0, fmt.Errorf("replace %s: %w", kind, err)
	}

	if err := s.Invalidate(ctx, kind); err != nil {
		slog.WarnContext(ctx, "layer cache invalidation failed", "kind", kind, "error", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishLayerUpdated(ctx, kind, len(prepared)); err != nil {
			slog.WarnContext(ctx, "publish layer update failed", "kind", kind, "error", err)
		}
	}

	slog.InfoContext(ctx, "layer imported", "kind", kind, "features", len(prepared))
	return len(prepared), nil
}

// Invalidate drops the cached copy of a layer.
func (s *LayerService) Invalidate(ctx context.Context, kind domain.LayerKind) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, LayerCacheKey(kind))
}
