package usecases

import (
	"errors"
	"log/slog"
	"math"

	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/core/ports"
)

// SessionState is the position of a MeasurementSession in its gesture cycle.
type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitingSecondClick
	StateFreeDrawing
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingSecondClick:
		return "awaiting_second_click"
	case StateFreeDrawing:
		return "free_drawing"
	default:
		return "idle"
	}
}

// ResultKind discriminates what a transition produced.
type ResultKind string

const (
	ResultNone      ResultKind = "none"
	ResultPreview   ResultKind = "preview"
	ResultCommitted ResultKind = "committed"
	ResultRejected  ResultKind = "rejected"
	ResultCleared   ResultKind = "cleared"
)

// RejectReason explains a rejected gesture.
type RejectReason string

const (
	ReasonOutOfBounds           RejectReason = "out_of_bounds"
	ReasonProjectionUnavailable RejectReason = "projection_unavailable"
)

// PointerButton uses DOM button numbering.
type PointerButton int

const (
	ButtonPrimary   PointerButton = 0
	ButtonSecondary PointerButton = 2
)

// SessionResult is returned by every transition so the caller can render
// deterministically.
type SessionResult struct {
	Kind        ResultKind          `json:"kind"`
	Preview     []domain.WorldPoint `json:"preview,omitempty"`
	Measurement *domain.Measurement `json:"measurement,omitempty"`
	Line        domain.LineHandle   `json:"line,omitempty"`
	Reason      RejectReason        `json:"reason,omitempty"`
}

// SessionOption configures a MeasurementSession.
type SessionOption func(*MeasurementSession)

// WithProfile sets the initial travel profile.
func WithProfile(p domain.TravelProfile) SessionOption {
	return func(s *MeasurementSession) { s.profile = p }
}

// WithMinGesturePixels overrides the accidental-click threshold.
func WithMinGesturePixels(px float64) SessionOption {
	return func(s *MeasurementSession) {
		if px >= 0 {
			s.minPixels = px
		}
	}
}

// WithMaxFreeDrawPoints caps the number of points one free-draw gesture
// keeps. Values below 2 are ignored.
func WithMaxFreeDrawPoints(n int) SessionOption {
	return func(s *MeasurementSession) {
		if n >= 2 {
			s.maxPoints = n
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *MeasurementSession) {
		if l != nil {
			s.logger = l
		}
	}
}

// MeasurementSession is the distance-measuring state machine for one map
// view. It owns the in-progress path, its preview line and at most one
// committed measurement with its rendered line.
//
// A session is driven from a single goroutine and is not safe for
// concurrent use.
type MeasurementSession struct {
	space     *CoordinateSpace
	surface   ports.MapSurface
	profile   domain.TravelProfile
	minPixels float64
	maxPoints int
	logger    *slog.Logger

	enabled       bool
	state         SessionState
	path          []domain.WorldPoint
	preview       domain.LineHandle
	committedLine domain.LineHandle
	committed     *domain.Measurement
}

// NewMeasurementSession creates an idle session with measuring mode off.
func NewMeasurementSession(space *CoordinateSpace, surface ports.MapSurface, opts ...SessionOption) *MeasurementSession {
	s := &MeasurementSession{
		space:     space,
		surface:   surface,
		profile:   domain.DefaultProfile,
		minPixels: domain.MinGesturePixels,
		maxPoints: domain.MaxFreeDrawPoints,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Enabled reports whether measuring mode is on.
func (s *MeasurementSession) Enabled() bool { return s.enabled }

// State returns the current gesture state.
func (s *MeasurementSession) State() SessionState { return s.state }

// Profile returns the selected travel profile.
func (s *MeasurementSession) Profile() domain.TravelProfile { return s.profile }

// Committed returns a copy of the live measurement, or nil.
func (s *MeasurementSession) Committed() *domain.Measurement {
	if s.committed == nil {
		return nil
	}
	m := *s.committed
	m.Path = append([]domain.WorldPoint(nil), m.Path...)
	return &m
}

// SelectProfile changes the profile used by later commits. A measurement
// that is already committed keeps its profile.
func (s *MeasurementSession) SelectProfile(p domain.TravelProfile) {
	s.profile = p
}

// ToggleMode flips measuring mode.
func (s *MeasurementSession) ToggleMode() SessionResult {
	return s.SetMode(!s.enabled)
}

// SetMode turns measuring on or off. Turning it on suspends map panning.
// Turning it off, from any state, tears down the preview, the in-progress
// path and the committed line, then restores panning.
func (s *MeasurementSession) SetMode(enabled bool) SessionResult {
	if enabled {
		if s.enabled {
			return SessionResult{Kind: ResultNone}
		}
		s.enabled = true
		s.state = StateIdle
		s.surface.SetPanningEnabled(false)
		s.logger.Debug("measure mode enabled")
		return SessionResult{Kind: ResultNone}
	}

	wasEnabled := s.enabled
	s.enabled = false
	cleared := s.resetGesture()
	if s.clearCommitted() {
		cleared = true
	}
	if wasEnabled {
		s.surface.SetPanningEnabled(true)
		s.logger.Debug("measure mode disabled")
	}
	if cleared {
		return SessionResult{Kind: ResultCleared}
	}
	return SessionResult{Kind: ResultNone}
}

// Clear removes the committed measurement and any gesture in progress while
// staying in measuring mode.
func (s *MeasurementSession) Clear() SessionResult {
	cleared := s.resetGesture()
	if s.clearCommitted() {
		cleared = true
	}
	if cleared {
		return SessionResult{Kind: ResultCleared}
	}
	return SessionResult{Kind: ResultNone}
}

// OnPrimaryClick handles a primary-button click at p (segment mode).
func (s *MeasurementSession) OnPrimaryClick(p domain.WorldPoint) SessionResult {
	if !s.enabled {
		return SessionResult{Kind: ResultNone}
	}
	if !s.space.Contains(p) {
		return s.reject(ReasonOutOfBounds)
	}

	switch s.state {
	case StateIdle:
		start := s.space.Clamp(p)
		s.path = []domain.WorldPoint{start}
		s.preview = s.surface.DrawLine([]domain.WorldPoint{start, start}, domain.PreviewLineStyle())
		s.state = StateAwaitingSecondClick
		return s.previewResult([]domain.WorldPoint{start, start})

	case StateAwaitingSecondClick:
		path := []domain.WorldPoint{s.path[0], s.space.Clamp(p)}
		s.resetGesture()
		return s.commit(path, domain.ModeSegment)

	default:
		// Primary clicks do not interrupt a free-draw gesture.
		return SessionResult{Kind: ResultNone}
	}
}

// OnPointerMove handles pointer movement. It stretches the segment preview
// while waiting for the second click and extends the path while free
// drawing; otherwise it is a no-op.
func (s *MeasurementSession) OnPointerMove(p domain.WorldPoint) SessionResult {
	if !s.enabled || !p.Finite() {
		return SessionResult{Kind: ResultNone}
	}

	switch s.state {
	case StateAwaitingSecondClick:
		points := []domain.WorldPoint{s.path[0], s.space.Clamp(p)}
		s.surface.UpdateLine(s.preview, points)
		return s.previewResult(points)
	case StateFreeDrawing:
		return s.OnDragMove(p)
	default:
		return SessionResult{Kind: ResultNone}
	}
}

// OnDragStart begins a free-draw gesture when the secondary button is
// pressed inside the map. A pending segment is abandoned.
func (s *MeasurementSession) OnDragStart(p domain.WorldPoint, button PointerButton) SessionResult {
	if !s.enabled || button != ButtonSecondary {
		return SessionResult{Kind: ResultNone}
	}
	if !s.space.Contains(p) {
		return s.reject(ReasonOutOfBounds)
	}
	if s.state == StateFreeDrawing {
		return SessionResult{Kind: ResultNone}
	}

	s.resetGesture()
	s.path = []domain.WorldPoint{s.space.Clamp(p)}
	s.preview = s.surface.DrawLine(s.path, domain.PreviewLineStyle())
	s.state = StateFreeDrawing
	return s.previewResult(s.path)
}

// OnDragMove appends p to the free-draw path. Non-finite points, points
// within a pixel of the previous one and points past the cap are dropped.
func (s *MeasurementSession) OnDragMove(p domain.WorldPoint) SessionResult {
	if !s.enabled || s.state != StateFreeDrawing || !p.Finite() {
		return SessionResult{Kind: ResultNone}
	}
	if len(s.path) >= s.maxPoints {
		return SessionResult{Kind: ResultNone}
	}

	q := s.space.Clamp(p)
	last := s.path[len(s.path)-1]
	if d, err := s.space.PixelDistance(s.surface, last, q); err == nil && d < domain.MinPointSpacingPixels {
		return SessionResult{Kind: ResultNone}
	}

	s.path = append(s.path, q)
	if len(s.path) == s.maxPoints {
		s.logger.Debug("free draw reached point cap", "points", s.maxPoints)
	}
	s.surface.UpdateLine(s.preview, s.path)
	return s.previewResult(s.path)
}

// OnDragEnd finishes a free-draw gesture and commits its path.
func (s *MeasurementSession) OnDragEnd(button PointerButton) SessionResult {
	if !s.enabled || s.state != StateFreeDrawing || button != ButtonSecondary {
		return SessionResult{Kind: ResultNone}
	}
	path := s.path
	s.resetGesture()
	return s.commit(path, domain.ModeFreeDraw)
}

// commit turns a finished path into a measurement. Sub-threshold paths
// (including those with fewer than two points) leave nothing on the map.
func (s *MeasurementSession) commit(path []domain.WorldPoint, mode domain.MeasureMode) SessionResult {
	px, err := s.space.PathPixelLength(s.surface, path)
	if err != nil {
		if !errors.Is(err, domain.ErrProjectionUnavailable) {
			s.logger.Warn("measure: pixel length failed", "error", err)
		}
		return s.reject(ReasonProjectionUnavailable)
	}
	if math.IsNaN(px) || math.IsInf(px, 0) {
		s.logger.Warn("measure: non-finite pixel length", "mode", mode, "points", len(path))
		return s.reject(ReasonProjectionUnavailable)
	}

	if px < s.minPixels {
		s.clearCommitted()
		s.logger.Debug("measure gesture below threshold", "mode", mode, "pixels", px)
		return SessionResult{Kind: ResultCleared}
	}

	m := newMeasurement(s.space, px, s.profile, mode, path)

	s.clearCommitted()
	h := s.surface.DrawLine(m.Path, domain.MeasuredLineStyle())
	s.surface.AttachLabel(h, m.Label())
	s.committedLine = h
	s.committed = &m

	s.logger.Debug("measurement committed",
		"mode", mode,
		"points", len(path),
		"pixels", px,
		"distance_km", m.DistanceKm,
		"profile", m.Profile.Name,
		"total_hours", m.TotalHours,
	)

	return SessionResult{Kind: ResultCommitted, Measurement: s.Committed(), Line: h}
}

// resetGesture drops the in-progress path and preview line. It reports
// whether a preview was removed.
func (s *MeasurementSession) resetGesture() bool {
	removed := false
	if s.preview != domain.NoLine {
		s.surface.RemoveLine(s.preview)
		s.preview = domain.NoLine
		removed = true
	}
	s.path = nil
	s.state = StateIdle
	return removed
}

// clearCommitted removes the committed line, reporting whether there was one.
func (s *MeasurementSession) clearCommitted() bool {
	if s.committedLine == domain.NoLine {
		s.committed = nil
		return false
	}
	s.surface.RemoveLine(s.committedLine)
	s.committedLine = domain.NoLine
	s.committed = nil
	return true
}

func (s *MeasurementSession) reject(reason RejectReason) SessionResult {
	s.logger.Debug("measure gesture rejected", "reason", reason, "state", s.state.String())
	return SessionResult{Kind: ResultRejected, Reason: reason}
}

func (s *MeasurementSession) previewResult(points []domain.WorldPoint) SessionResult {
	return SessionResult{Kind: ResultPreview, Preview: append([]domain.WorldPoint(nil), points...)}
}
