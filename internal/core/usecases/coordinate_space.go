package usecases

import (
	"fmt"

	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/core/ports"
)

// CoordinateSpace bounds and scales the interaction surface of one map.
type CoordinateSpace struct {
	bounds domain.MapBounds
}

// NewCoordinateSpace creates a CoordinateSpace for the given bounds.
func NewCoordinateSpace(bounds domain.MapBounds) *CoordinateSpace {
	return &CoordinateSpace{bounds: bounds}
}

// Bounds returns the map bounds.
func (s *CoordinateSpace) Bounds() domain.MapBounds { return s.bounds }

// Clamp clips p into the map bounds.
func (s *CoordinateSpace) Clamp(p domain.WorldPoint) domain.WorldPoint {
	return s.bounds.Clamp(p)
}

// Contains reports whether p is inside the bounds without clamping.
func (s *CoordinateSpace) Contains(p domain.WorldPoint) bool {
	return s.bounds.Contains(p)
}

// PixelDistance projects a and b through proj and returns the on-screen
// distance between them. Screen distance depends on the current zoom and
// pan, not only on the world delta.
func (s *CoordinateSpace) PixelDistance(proj ports.Projector, a, b domain.WorldPoint) (float64, error) {
	pa, err := proj.ProjectToScreen(a)
	if err != nil {
		return 0, fmt.Errorf("project %v: %w", a, err)
	}
	pb, err := proj.ProjectToScreen(b)
	if err != nil {
		return 0, fmt.Errorf("project %v: %w", b, err)
	}
	return pa.Distance(pb), nil
}

// PathPixelLength sums the pixel distance of consecutive pairs in path.
// Paths with fewer than two points have length 0.
func (s *CoordinateSpace) PathPixelLength(proj ports.Projector, path []domain.WorldPoint) (float64, error) {
	var total float64
	for i := 0; i+1 < len(path); i++ {
		d, err := s.PixelDistance(proj, path[i], path[i+1])
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

// ToWorldDistance converts on-screen pixels to kilometres.
func (s *CoordinateSpace) ToWorldDistance(pixels float64) float64 {
	return pixels * s.bounds.KmPerPixel
}
