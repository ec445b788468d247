package ports

import "github.com/samirrijal/ankyra/internal/core/domain"

// Projector converts world coordinates to container pixels for the current
// zoom and pan. It returns domain.ErrProjectionUnavailable when the host
// cannot project (e.g. the viewport is not known yet).
type Projector interface {
	ProjectToScreen(p domain.WorldPoint) (domain.ScreenPoint, error)
}

// MapSurface is the drawing host a measurement session renders onto.
type MapSurface interface {
	Projector
	DrawLine(points []domain.WorldPoint, style domain.LineStyle) domain.LineHandle
	UpdateLine(h domain.LineHandle, points []domain.WorldPoint)
	RemoveLine(h domain.LineHandle)
	AttachLabel(h domain.LineHandle, text string)
	SetPanningEnabled(enabled bool)
}
