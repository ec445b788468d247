package usecases

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/pkg/geospatial"
	"github.com/samirrijal/ankyra/internal/pkg/telemetry"
)

// MeasureService measures complete paths in one call. It applies the same
// threshold and timing rules as an interactive MeasurementSession, projecting
// through a viewport that has only a zoom level.
type MeasureService struct {
	space     *CoordinateSpace
	minPixels float64
}

// NewMeasureService creates a new MeasureService.
func NewMeasureService(space *CoordinateSpace, minPixels float64) *MeasureService {
	if minPixels < 0 {
		minPixels = domain.MinGesturePixels
	}
	return &MeasureService{space: space, minPixels: minPixels}
}

// Measure returns the measurement of path as seen at zoom. Two-point paths
// are reported as segments, longer ones as free-drawn.
func (s *MeasureService) Measure(ctx context.Context, path []domain.WorldPoint, zoom float64, profile domain.TravelProfile) (*domain.Measurement, error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanMeasure)
	defer span.End()
	span.SetAttributes(
		attribute.Int(telemetry.AttrPathPoints, len(path)),
		attribute.String(telemetry.AttrTravelProfile, profile.Name),
	)

	m, err := s.measure(ctx, path, zoom, profile)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return m, nil
}

func (s *MeasureService) measure(ctx context.Context, path []domain.WorldPoint, zoom float64, profile domain.TravelProfile) (*domain.Measurement, error) {
	if len(path) < 2 {
		return nil, domain.ErrPathTooShort
	}
	for i, p := range path {
		if !s.space.Contains(p) {
			return nil, fmt.Errorf("point %d (%.2f, %.2f): %w", i, p.Lat, p.Lng, domain.ErrOutOfBounds)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	px, err := s.space.PathPixelLength(domain.Viewport{Zoom: zoom}, path)
	if err != nil {
		return nil, fmt.Errorf("measure path: %w", err)
	}
	if !geospatial.Finite(px) {
		return nil, fmt.Errorf("path length not finite at zoom %g: %w", zoom, domain.ErrProjectionUnavailable)
	}
	if px < s.minPixels {
		return nil, fmt.Errorf("%.2f px at zoom %g: %w", px, zoom, domain.ErrBelowThreshold)
	}

	mode := domain.ModeFreeDraw
	if len(path) == 2 {
		mode = domain.ModeSegment
	}
	m := newMeasurement(s.space, px, profile, mode, path)
	return &m, nil
}

// newMeasurement converts a pixel length into a measurement with the
// distance rounded to two decimals.
func newMeasurement(space *CoordinateSpace, px float64, profile domain.TravelProfile, mode domain.MeasureMode, path []domain.WorldPoint) domain.Measurement {
	km := geospatial.Round(space.ToWorldDistance(px), 2)
	return domain.NewMeasurement(km, profile, mode, path)
}
