package usecases_test

import (
	"math"
	"testing"

	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/core/usecases"
)

// --- Fake MapSurface ---

// fakeSurface projects with the simple CRS at zoom 0 (x = lng, y = -lat)
// and records every line it is asked to draw.
type fakeSurface struct {
	unavailable bool
	panning     bool
	next        domain.LineHandle
	lines       map[domain.LineHandle][]domain.WorldPoint
	styles      map[domain.LineHandle]domain.LineStyle
	labels      map[domain.LineHandle]string
	drawn       int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		panning: true,
		lines:   make(map[domain.LineHandle][]domain.WorldPoint),
		styles:  make(map[domain.LineHandle]domain.LineStyle),
		labels:  make(map[domain.LineHandle]string),
	}
}

func (f *fakeSurface) ProjectToScreen(p domain.WorldPoint) (domain.ScreenPoint, error) {
	if f.unavailable {
		return domain.ScreenPoint{}, domain.ErrProjectionUnavailable
	}
	return domain.ScreenPoint{X: p.Lng, Y: -p.Lat}, nil
}

func (f *fakeSurface) DrawLine(points []domain.WorldPoint, style domain.LineStyle) domain.LineHandle {
	f.next++
	f.drawn++
	f.lines[f.next] = append([]domain.WorldPoint(nil), points...)
	f.styles[f.next] = style
	return f.next
}

func (f *fakeSurface) UpdateLine(h domain.LineHandle, points []domain.WorldPoint) {
	if _, ok := f.lines[h]; ok {
		f.lines[h] = append([]domain.WorldPoint(nil), points...)
	}
}

func (f *fakeSurface) RemoveLine(h domain.LineHandle) {
	delete(f.lines, h)
	delete(f.styles, h)
	delete(f.labels, h)
}

func (f *fakeSurface) AttachLabel(h domain.LineHandle, text string) { f.labels[h] = text }
func (f *fakeSurface) SetPanningEnabled(enabled bool)               { f.panning = enabled }

func (f *fakeSurface) previewLines() int {
	n := 0
	for _, s := range f.styles {
		if s.DashArray != "" {
			n++
		}
	}
	return n
}

// --- Helpers ---

func newSession(t *testing.T, opts ...usecases.SessionOption) (*usecases.MeasurementSession, *fakeSurface) {
	t.Helper()
	space := usecases.NewCoordinateSpace(domain.NewMapBounds(1920, 1080, 0.1))
	surface := newFakeSurface()
	s := usecases.NewMeasurementSession(space, surface, opts...)
	s.SetMode(true)
	return s, surface
}

func pt(lat, lng float64) domain.WorldPoint { return domain.WorldPoint{Lat: lat, Lng: lng} }

// --- Tests ---

func TestMeasurementSession_ScenarioA_Segment(t *testing.T) {
	s, surface := newSession(t)

	res := s.OnPrimaryClick(pt(500, 100))
	if res.Kind != usecases.ResultPreview {
		t.Fatalf("first click kind = %s, want preview", res.Kind)
	}
	if s.State() != usecases.StateAwaitingSecondClick {
		t.Fatalf("state = %s, want awaiting_second_click", s.State())
	}
	if len(res.Preview) != 2 || res.Preview[0] != res.Preview[1] {
		t.Fatalf("preview = %v, want [start, start]", res.Preview)
	}

	res = s.OnPrimaryClick(pt(500, 600))
	if res.Kind != usecases.ResultCommitted {
		t.Fatalf("second click kind = %s, want committed", res.Kind)
	}
	m := res.Measurement
	if m.DistanceKm != 50 {
		t.Errorf("distance = %v, want 50.00", m.DistanceKm)
	}
	if m.Profile != domain.ProfileHorseback {
		t.Errorf("profile = %v, want Horseback", m.Profile)
	}
	if m.BaseHoursDisplay() != 6.3 || m.RestCount != 1 || m.TotalHoursDisplay() != 7.3 {
		t.Errorf("timing = %.1f/%d/%.1f, want 6.3/1/7.3", m.BaseHoursDisplay(), m.RestCount, m.TotalHoursDisplay())
	}
	if m.Mode != domain.ModeSegment {
		t.Errorf("mode = %s, want segment", m.Mode)
	}
	if s.State() != usecases.StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}

	if len(surface.lines) != 1 {
		t.Fatalf("live lines = %d, want 1", len(surface.lines))
	}
	if surface.previewLines() != 0 {
		t.Errorf("preview line left on surface")
	}
	if surface.labels[res.Line] == "" {
		t.Errorf("committed line has no label")
	}
}

func TestMeasurementSession_SegmentDistanceRounding(t *testing.T) {
	s, _ := newSession(t)

	a, b := pt(100, 100), pt(211.7, 133.3)
	s.OnPrimaryClick(a)
	res := s.OnPrimaryClick(b)
	if res.Kind != usecases.ResultCommitted {
		t.Fatalf("kind = %s, want committed", res.Kind)
	}

	d := math.Hypot(b.Lng-a.Lng, b.Lat-a.Lat)
	want := math.Round(d*0.1*100) / 100
	if res.Measurement.DistanceKm != want {
		t.Fatalf("distance = %v, want %v", res.Measurement.DistanceKm, want)
	}
}

func TestMeasurementSession_ScenarioB_OutOfBounds(t *testing.T) {
	s, surface := newSession(t)

	res := s.OnPrimaryClick(pt(500, 2500))
	if res.Kind != usecases.ResultRejected || res.Reason != usecases.ReasonOutOfBounds {
		t.Fatalf("result = %+v, want rejected/out_of_bounds", res)
	}
	if s.State() != usecases.StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}
	if surface.drawn != 0 {
		t.Errorf("lines drawn = %d, want 0", surface.drawn)
	}

	// Out-of-bounds second click leaves the pending segment alone.
	s.OnPrimaryClick(pt(100, 100))
	res = s.OnPrimaryClick(pt(-10, 100))
	if res.Kind != usecases.ResultRejected {
		t.Fatalf("kind = %s, want rejected", res.Kind)
	}
	if s.State() != usecases.StateAwaitingSecondClick {
		t.Errorf("state = %s, want awaiting_second_click", s.State())
	}
}

func TestMeasurementSession_ScenarioC_FreeDrawBelowThreshold(t *testing.T) {
	s, surface := newSession(t)

	s.OnDragStart(pt(500, 500), usecases.ButtonSecondary)
	s.OnDragMove(pt(502, 500))
	s.OnPointerMove(pt(504, 500))

	res := s.OnDragEnd(usecases.ButtonSecondary)
	if res.Kind != usecases.ResultCleared {
		t.Fatalf("kind = %s, want cleared", res.Kind)
	}
	if res.Measurement != nil {
		t.Errorf("measurement emitted for 4px path")
	}
	if len(surface.lines) != 0 {
		t.Errorf("live lines = %d, want 0", len(surface.lines))
	}
	if s.Committed() != nil {
		t.Errorf("session kept a committed measurement")
	}
}

func TestMeasurementSession_SubThresholdClearsPreviousLine(t *testing.T) {
	s, surface := newSession(t)

	s.OnPrimaryClick(pt(100, 100))
	s.OnPrimaryClick(pt(100, 400))
	if s.Committed() == nil {
		t.Fatal("expected committed measurement")
	}

	s.OnPrimaryClick(pt(200, 200))
	res := s.OnPrimaryClick(pt(201, 201))
	if res.Kind != usecases.ResultCleared {
		t.Fatalf("kind = %s, want cleared", res.Kind)
	}
	if len(surface.lines) != 0 {
		t.Errorf("live lines = %d, want 0", len(surface.lines))
	}
}

func TestMeasurementSession_ScenarioD_ProfileSwitchBeforeCommit(t *testing.T) {
	s, _ := newSession(t)

	s.OnPrimaryClick(pt(500, 100))
	s.SelectProfile(domain.ProfileFoot)
	res := s.OnPrimaryClick(pt(500, 600))

	if res.Measurement.Profile != domain.ProfileFoot {
		t.Fatalf("profile = %v, want Foot", res.Measurement.Profile)
	}
	if res.Measurement.BaseHours != 10 {
		t.Errorf("base hours = %v, want 10", res.Measurement.BaseHours)
	}
}

func TestMeasurementSession_ProfileSwitchAfterCommit(t *testing.T) {
	s, _ := newSession(t)

	s.OnPrimaryClick(pt(500, 100))
	s.OnPrimaryClick(pt(500, 600))
	s.SelectProfile(domain.ProfileCarriage)

	if got := s.Committed().Profile; got != domain.ProfileHorseback {
		t.Fatalf("committed profile changed to %v", got)
	}
}

func TestMeasurementSession_FreeDrawCommit(t *testing.T) {
	s, surface := newSession(t)

	res := s.OnDragStart(pt(0, 0), usecases.ButtonSecondary)
	if res.Kind != usecases.ResultPreview || s.State() != usecases.StateFreeDrawing {
		t.Fatalf("drag start: kind=%s state=%s", res.Kind, s.State())
	}
	s.OnDragMove(pt(0, 300))
	s.OnDragMove(pt(400, 300))
	s.OnDragMove(pt(5000, 300)) // clamped to lat 1080

	res = s.OnDragEnd(usecases.ButtonSecondary)
	if res.Kind != usecases.ResultCommitted {
		t.Fatalf("kind = %s, want committed", res.Kind)
	}
	m := res.Measurement
	if len(m.Path) != 4 {
		t.Fatalf("path len = %d, want 4", len(m.Path))
	}
	if m.Path[3] != pt(1080, 300) {
		t.Errorf("last point = %v, want clamped (1080, 300)", m.Path[3])
	}
	// 300 + 400 + 680 = 1380 px -> 138 km
	if m.DistanceKm != 138 {
		t.Errorf("distance = %v, want 138", m.DistanceKm)
	}
	if m.Mode != domain.ModeFreeDraw {
		t.Errorf("mode = %s, want free_draw", m.Mode)
	}
	if len(surface.lines) != 1 || surface.previewLines() != 0 {
		t.Errorf("lines = %d previews = %d, want 1/0", len(surface.lines), surface.previewLines())
	}
}

func TestMeasurementSession_DegenerateFreeDraw(t *testing.T) {
	s, surface := newSession(t)

	s.OnDragStart(pt(10, 10), usecases.ButtonSecondary)
	res := s.OnDragEnd(usecases.ButtonSecondary)
	if res.Kind != usecases.ResultCleared || res.Measurement != nil {
		t.Fatalf("result = %+v, want cleared without measurement", res)
	}
	if len(surface.lines) != 0 {
		t.Errorf("live lines = %d, want 0", len(surface.lines))
	}
}

func TestMeasurementSession_ToggleOffTearsDown(t *testing.T) {
	t.Run("awaiting second click", func(t *testing.T) {
		s, surface := newSession(t)
		s.OnPrimaryClick(pt(100, 100))
		s.OnPointerMove(pt(150, 150))

		res := s.ToggleMode()
		if res.Kind != usecases.ResultCleared {
			t.Fatalf("kind = %s, want cleared", res.Kind)
		}
		if s.Enabled() || s.State() != usecases.StateIdle {
			t.Fatalf("enabled=%v state=%s", s.Enabled(), s.State())
		}
		if len(surface.lines) != 0 {
			t.Errorf("residual lines: %d", len(surface.lines))
		}
		if !surface.panning {
			t.Errorf("panning not restored")
		}
	})

	t.Run("free drawing", func(t *testing.T) {
		s, surface := newSession(t)
		s.OnDragStart(pt(100, 100), usecases.ButtonSecondary)
		s.OnDragMove(pt(100, 300))

		s.SetMode(false)
		if s.State() != usecases.StateIdle {
			t.Fatalf("state = %s, want idle", s.State())
		}
		if len(surface.lines) != 0 {
			t.Errorf("residual lines: %d", len(surface.lines))
		}
	})

	t.Run("committed line is discarded", func(t *testing.T) {
		s, surface := newSession(t)
		s.OnPrimaryClick(pt(100, 100))
		s.OnPrimaryClick(pt(100, 600))

		s.SetMode(false)
		if s.Committed() != nil || len(surface.lines) != 0 {
			t.Fatalf("committed measurement survived mode off")
		}
	})
}

func TestMeasurementSession_EnableDisablesPanning(t *testing.T) {
	space := usecases.NewCoordinateSpace(domain.NewMapBounds(1920, 1080, 0.1))
	surface := newFakeSurface()
	s := usecases.NewMeasurementSession(space, surface)

	if s.Enabled() {
		t.Fatal("new session should start with mode off")
	}
	if res := s.OnPrimaryClick(pt(10, 10)); res.Kind != usecases.ResultNone {
		t.Fatalf("click with mode off: kind = %s, want none", res.Kind)
	}

	s.ToggleMode()
	if !s.Enabled() || surface.panning {
		t.Fatalf("enabled=%v panning=%v, want true/false", s.Enabled(), surface.panning)
	}
}

func TestMeasurementSession_MoveAfterCommitIsNoop(t *testing.T) {
	s, surface := newSession(t)
	s.OnPrimaryClick(pt(100, 100))
	s.OnPrimaryClick(pt(100, 600))
	drawn := surface.drawn

	if res := s.OnPointerMove(pt(300, 300)); res.Kind != usecases.ResultNone {
		t.Fatalf("kind = %s, want none", res.Kind)
	}
	if res := s.OnDragMove(pt(300, 300)); res.Kind != usecases.ResultNone {
		t.Fatalf("kind = %s, want none", res.Kind)
	}
	if surface.drawn != drawn {
		t.Errorf("move after commit drew a line")
	}
}

func TestMeasurementSession_PointerMoveUpdatesPreview(t *testing.T) {
	s, surface := newSession(t)
	s.OnPrimaryClick(pt(100, 100))

	res := s.OnPointerMove(pt(3000, 200))
	if res.Kind != usecases.ResultPreview {
		t.Fatalf("kind = %s, want preview", res.Kind)
	}
	want := []domain.WorldPoint{pt(100, 100), pt(1080, 200)}
	if res.Preview[1] != want[1] {
		t.Fatalf("preview end = %v, want %v", res.Preview[1], want[1])
	}
	for _, pts := range surface.lines {
		if pts[1] != want[1] {
			t.Errorf("surface preview end = %v, want %v", pts[1], want[1])
		}
	}
}

func TestMeasurementSession_ThirdClickReplaces(t *testing.T) {
	s, surface := newSession(t)
	s.OnPrimaryClick(pt(100, 100))
	first := s.OnPrimaryClick(pt(100, 600))

	res := s.OnPrimaryClick(pt(200, 200))
	if res.Kind != usecases.ResultPreview {
		t.Fatalf("third click kind = %s, want preview", res.Kind)
	}
	if res.Preview[0] != pt(200, 200) {
		t.Errorf("new segment starts at %v, want (200, 200)", res.Preview[0])
	}

	second := s.OnPrimaryClick(pt(200, 300))
	if second.Kind != usecases.ResultCommitted {
		t.Fatalf("kind = %s, want committed", second.Kind)
	}
	if _, ok := surface.lines[first.Line]; ok {
		t.Errorf("first measurement line still on surface")
	}
	if len(surface.lines) != 1 {
		t.Errorf("live lines = %d, want 1", len(surface.lines))
	}
}

func TestMeasurementSession_DragStartAbandonsSegment(t *testing.T) {
	s, surface := newSession(t)
	s.OnPrimaryClick(pt(100, 100))

	s.OnDragStart(pt(300, 300), usecases.ButtonSecondary)
	if s.State() != usecases.StateFreeDrawing {
		t.Fatalf("state = %s, want free_drawing", s.State())
	}
	if surface.previewLines() != 1 {
		t.Errorf("preview lines = %d, want 1", surface.previewLines())
	}
}

func TestMeasurementSession_ButtonFiltering(t *testing.T) {
	s, _ := newSession(t)

	if res := s.OnDragStart(pt(10, 10), usecases.ButtonPrimary); res.Kind != usecases.ResultNone {
		t.Fatalf("primary drag start kind = %s, want none", res.Kind)
	}
	s.OnDragStart(pt(10, 10), usecases.ButtonSecondary)
	if res := s.OnDragEnd(usecases.ButtonPrimary); res.Kind != usecases.ResultNone {
		t.Fatalf("primary drag end kind = %s, want none", res.Kind)
	}
	if s.State() != usecases.StateFreeDrawing {
		t.Fatalf("state = %s, want free_drawing", s.State())
	}
	if res := s.OnPrimaryClick(pt(20, 20)); res.Kind != usecases.ResultNone {
		t.Fatalf("click during free draw kind = %s, want none", res.Kind)
	}
}

func TestMeasurementSession_OutOfBoundsDragStart(t *testing.T) {
	s, _ := newSession(t)
	res := s.OnDragStart(pt(1200, 10), usecases.ButtonSecondary)
	if res.Kind != usecases.ResultRejected || res.Reason != usecases.ReasonOutOfBounds {
		t.Fatalf("result = %+v, want rejected/out_of_bounds", res)
	}
	if s.State() != usecases.StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}
}

func TestMeasurementSession_ProjectionUnavailable(t *testing.T) {
	s, surface := newSession(t)
	surface.unavailable = true

	s.OnPrimaryClick(pt(100, 100))
	res := s.OnPrimaryClick(pt(100, 600))
	if res.Kind != usecases.ResultRejected || res.Reason != usecases.ReasonProjectionUnavailable {
		t.Fatalf("result = %+v, want rejected/projection_unavailable", res)
	}
	if res.Measurement != nil || len(surface.lines) != 0 {
		t.Errorf("measurement or line produced without projection")
	}
	if s.State() != usecases.StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}
}

func TestMeasurementSession_ClearKeepsMode(t *testing.T) {
	s, surface := newSession(t)
	s.OnPrimaryClick(pt(100, 100))
	s.OnPrimaryClick(pt(100, 600))

	if res := s.Clear(); res.Kind != usecases.ResultCleared {
		t.Fatalf("kind = %s, want cleared", res.Kind)
	}
	if !s.Enabled() || len(surface.lines) != 0 {
		t.Fatalf("enabled=%v lines=%d", s.Enabled(), len(surface.lines))
	}
	if res := s.Clear(); res.Kind != usecases.ResultNone {
		t.Fatalf("second clear kind = %s, want none", res.Kind)
	}
}

func TestMeasurementSession_CustomThreshold(t *testing.T) {
	s, _ := newSession(t, usecases.WithMinGesturePixels(50), usecases.WithProfile(domain.ProfileCarriage))

	s.OnPrimaryClick(pt(100, 100))
	if res := s.OnPrimaryClick(pt(100, 140)); res.Kind != usecases.ResultCleared {
		t.Fatalf("40px with 50px threshold: kind = %s, want cleared", res.Kind)
	}

	s.OnPrimaryClick(pt(100, 100))
	res := s.OnPrimaryClick(pt(100, 160))
	if res.Kind != usecases.ResultCommitted {
		t.Fatalf("60px: kind = %s, want committed", res.Kind)
	}
	if res.Measurement.Profile != domain.ProfileCarriage {
		t.Errorf("profile = %v, want Carriage", res.Measurement.Profile)
	}
}

func TestMeasurementSession_NonFiniteMoveIgnored(t *testing.T) {
	s, surface := newSession(t)

	s.OnDragStart(pt(100, 100), usecases.ButtonSecondary)
	s.OnDragMove(pt(100, 200))
	if res := s.OnDragMove(pt(math.NaN(), 300)); res.Kind != usecases.ResultNone {
		t.Fatalf("NaN move: kind = %s, want none", res.Kind)
	}
	if res := s.OnPointerMove(pt(200, math.Inf(1))); res.Kind != usecases.ResultNone {
		t.Fatalf("Inf move: kind = %s, want none", res.Kind)
	}

	res := s.OnDragEnd(usecases.ButtonSecondary)
	if res.Kind != usecases.ResultCommitted {
		t.Fatalf("kind = %s, want committed", res.Kind)
	}
	m := res.Measurement
	if len(m.Path) != 2 || m.DistanceKm != 10 || m.RestCount != 0 {
		t.Errorf("got %d points, %v km, %d rests; want 2, 10, 0", len(m.Path), m.DistanceKm, m.RestCount)
	}
	for _, p := range m.Path {
		if !p.Finite() {
			t.Errorf("stored non-finite point %v", p)
		}
	}
	if len(surface.lines) != 1 {
		t.Errorf("live lines = %d, want 1", len(surface.lines))
	}
}

func TestMeasurementSession_NonFiniteSegmentPreviewIgnored(t *testing.T) {
	s, _ := newSession(t)

	s.OnPrimaryClick(pt(100, 100))
	if res := s.OnPointerMove(pt(math.NaN(), math.NaN())); res.Kind != usecases.ResultNone {
		t.Fatalf("NaN move: kind = %s, want none", res.Kind)
	}
	if res := s.OnPrimaryClick(pt(math.NaN(), 100)); res.Kind != usecases.ResultRejected || res.Reason != usecases.ReasonOutOfBounds {
		t.Fatalf("NaN click: %+v, want rejected out_of_bounds", res)
	}
	if s.State() != usecases.StateAwaitingSecondClick {
		t.Errorf("state = %s, want awaiting_second_click", s.State())
	}
}

func TestMeasurementSession_FreeDrawDropsRepeatedPoints(t *testing.T) {
	s, _ := newSession(t)

	s.OnDragStart(pt(100, 100), usecases.ButtonSecondary)
	s.OnDragMove(pt(100, 100.4))
	s.OnDragMove(pt(100.3, 100.2))
	s.OnDragMove(pt(100, 150))

	res := s.OnDragEnd(usecases.ButtonSecondary)
	if res.Kind != usecases.ResultCommitted {
		t.Fatalf("kind = %s, want committed", res.Kind)
	}
	if n := len(res.Measurement.Path); n != 2 {
		t.Errorf("path len = %d, want 2", n)
	}
}

func TestMeasurementSession_FreeDrawPointCap(t *testing.T) {
	s, surface := newSession(t, usecases.WithMaxFreeDrawPoints(3))

	s.OnDragStart(pt(0, 0), usecases.ButtonSecondary)
	s.OnDragMove(pt(0, 100))
	s.OnDragMove(pt(0, 200))
	if res := s.OnDragMove(pt(0, 300)); res.Kind != usecases.ResultNone {
		t.Fatalf("move past cap: kind = %s, want none", res.Kind)
	}
	if got := len(surface.lines[1]); got != 3 {
		t.Errorf("preview points = %d, want 3", got)
	}

	res := s.OnDragEnd(usecases.ButtonSecondary)
	if res.Kind != usecases.ResultCommitted {
		t.Fatalf("kind = %s, want committed", res.Kind)
	}
	// 200 px accumulated before the cap -> 20 km
	if m := res.Measurement; len(m.Path) != 3 || m.DistanceKm != 20 {
		t.Errorf("got %d points, %v km; want 3, 20", len(m.Path), m.DistanceKm)
	}
}
