package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/core/ports"
	"github.com/samirrijal/ankyra/internal/pkg/telemetry"
)

const (
	annotationsCacheKey = "annotations:all"
	annotationsCacheTTL = 60
)

// AnnotationService handles user notes pinned to the map.
type AnnotationService struct {
	annotations ports.AnnotationRepository
	cache       ports.CacheService
	publisher   ports.EventPublisher
	space       *CoordinateSpace
	now         func() time.Time
}

// NewAnnotationService creates a new AnnotationService. cache and publisher may be nil.
func NewAnnotationService(annotations ports.AnnotationRepository, cache ports.CacheService, publisher ports.EventPublisher, space *CoordinateSpace) *AnnotationService {
	return &AnnotationService{
		annotations: annotations,
		cache:       cache,
		publisher:   publisher,
		space:       space,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create pins note at p. Points outside the map are rejected.
func (s *AnnotationService) Create(ctx context.Context, p domain.WorldPoint, note string) (*domain.Annotation, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanAnnotationCreate)
	defer span.End()

	if !s.space.Contains(p) {
		return nil, fmt.Errorf("annotation at (%.2f, %.2f): %w", p.Lat, p.Lng, domain.ErrOutOfBounds)
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, fmt.Errorf("%w: note is required", domain.ErrInvalidNote)
	}
	if utf8.RuneCountInString(note) > domain.MaxNoteLength {
		return nil, fmt.Errorf("%w: note exceeds %d characters", domain.ErrInvalidNote, domain.MaxNoteLength)
	}

	a := &domain.Annotation{
		ID:        uuid.NewString(),
		Location:  s.space.Clamp(p),
		Note:      note,
		CreatedAt: s.now(),
	}
	span.SetAttributes(attribute.String(telemetry.AttrAnnotationID, a.ID))

	if err := s.annotations.Insert(ctx, a); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("insert annotation: %w", err)
	}
	s.invalidate(ctx)

	if s.publisher != nil {
		if err := s.publisher.PublishAnnotationCreated(ctx, a); err != nil {
			slog.WarnContext(ctx, "publish annotation created failed", "id", a.ID, "error", err)
		}
	}
	return a, nil
}

// List returns all annotations, oldest first.
func (s *AnnotationService) List(ctx context.Context) ([]domain.Annotation, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanAnnotationList)
	defer span.End()

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, annotationsCacheKey); err == nil {
			var list []domain.Annotation
			if err := json.Unmarshal(data, &list); err == nil {
				span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
				return list, nil
			}
		}
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false))

	list, err := s.annotations.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	if list == nil {
		list = []domain.Annotation{}
	}

	if s.cache != nil {
		if data, err := json.Marshal(list); err == nil {
			_ = s.cache.Set(ctx, annotationsCacheKey, data, annotationsCacheTTL)
		}
	}
	return list, nil
}

// Delete removes an annotation. Unknown IDs return domain.ErrNotFound.
func (s *AnnotationService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanAnnotationDelete)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrAnnotationID, id))

	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("annotation %q: %w", id, domain.ErrNotFound)
	}
	if _, err := s.annotations.GetByID(ctx, id); err != nil {
		return fmt.Errorf("get annotation: %w", err)
	}
	if err := s.annotations.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete annotation: %w", err)
	}
	s.invalidate(ctx)

	if s.publisher != nil {
		if err := s.publisher.PublishAnnotationDeleted(ctx, id); err != nil {
			slog.WarnContext(ctx, "publish annotation deleted failed", "id", id, "error", err)
		}
	}
	return nil
}

// Invalidate drops the cached annotation list.
func (s *AnnotationService) Invalidate(ctx context.Context) { s.invalidate(ctx) }

func (s *AnnotationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, annotationsCacheKey); err != nil {
		slog.WarnContext(ctx, "annotation cache invalidation failed", "error", err)
	}
}
