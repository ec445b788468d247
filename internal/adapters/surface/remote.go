// Package surface implements ports.MapSurface for a map rendered by a remote
// client. Draw operations are recorded as commands the transport forwards to
// the client after each input event.
package surface

import (
	"github.com/samirrijal/ankyra/internal/core/domain"
)

// Op names a drawing command.
type Op string

const (
	OpDraw    Op = "draw_line"
	OpUpdate  Op = "update_line"
	OpRemove  Op = "remove_line"
	OpLabel   Op = "label"
	OpPanning Op = "panning"
)

// Command is one instruction for the client-side map.
type Command struct {
	Op      Op                  `json:"op"`
	Line    domain.LineHandle   `json:"line,omitempty"`
	Points  []domain.WorldPoint `json:"points,omitempty"`
	Style   *domain.LineStyle   `json:"style,omitempty"`
	Text    string              `json:"text,omitempty"`
	Enabled *bool               `json:"enabled,omitempty"`
}

// Remote is a MapSurface backed by a client that reports its viewport and
// executes queued commands. Like the session it serves, it is not safe for
// concurrent use.
type Remote struct {
	viewport *domain.Viewport
	next     domain.LineHandle
	live     map[domain.LineHandle]struct{}
	queue    []Command
}

// NewRemote creates a surface with no known viewport. Projection fails until
// SetViewport is called.
func NewRemote() *Remote {
	return &Remote{live: make(map[domain.LineHandle]struct{})}
}

// SetViewport records the client's current zoom and pixel origin.
func (r *Remote) SetViewport(v domain.Viewport) {
	r.viewport = &v
}

// Viewport returns the last reported viewport, if any.
func (r *Remote) Viewport() (domain.Viewport, bool) {
	if r.viewport == nil {
		return domain.Viewport{}, false
	}
	return *r.viewport, true
}

// ProjectToScreen projects p through the last reported viewport.
func (r *Remote) ProjectToScreen(p domain.WorldPoint) (domain.ScreenPoint, error) {
	if r.viewport == nil {
		return domain.ScreenPoint{}, domain.ErrProjectionUnavailable
	}
	return r.viewport.ProjectToScreen(p)
}

func (r *Remote) DrawLine(points []domain.WorldPoint, style domain.LineStyle) domain.LineHandle {
	r.next++
	r.live[r.next] = struct{}{}
	r.queue = append(r.queue, Command{Op: OpDraw, Line: r.next, Points: copyPoints(points), Style: &style})
	return r.next
}

func (r *Remote) UpdateLine(h domain.LineHandle, points []domain.WorldPoint) {
	if _, ok := r.live[h]; !ok {
		return
	}
	r.queue = append(r.queue, Command{Op: OpUpdate, Line: h, Points: copyPoints(points)})
}

func (r *Remote) RemoveLine(h domain.LineHandle) {
	if _, ok := r.live[h]; !ok {
		return
	}
	delete(r.live, h)
	r.queue = append(r.queue, Command{Op: OpRemove, Line: h})
}

func (r *Remote) AttachLabel(h domain.LineHandle, text string) {
	if _, ok := r.live[h]; !ok {
		return
	}
	r.queue = append(r.queue, Command{Op: OpLabel, Line: h, Text: text})
}

func (r *Remote) SetPanningEnabled(enabled bool) {
	r.queue = append(r.queue, Command{Op: OpPanning, Enabled: &enabled})
}

// LiveLines reports how many lines are currently drawn on the client.
func (r *Remote) LiveLines() int { return len(r.live) }

// Flush returns the queued commands and empties the queue.
func (r *Remote) Flush() []Command {
	out := r.queue
	r.queue = nil
	if out == nil {
		out = []Command{}
	}
	return out
}

func copyPoints(points []domain.WorldPoint) []domain.WorldPoint {
	return append([]domain.WorldPoint(nil), points...)
}
