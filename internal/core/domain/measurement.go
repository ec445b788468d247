package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/samirrijal/ankyra/internal/pkg/geospatial"
)

const (
	// RestEveryHours is the continuous travel time after which a rest is due.
	RestEveryHours = 6
	// RestDurationHours is the time one rest adds to a journey.
	RestDurationHours = 1
	// MinGesturePixels is the default path length below which a gesture is
	// treated as an accidental click.
	MinGesturePixels = 5.0
	// MaxFreeDrawPoints is the default cap on points kept for one free-draw
	// gesture.
	MaxFreeDrawPoints = 2000
	// MinPointSpacingPixels is the screen distance below which a free-draw
	// point repeats the previous one and is dropped.
	MinPointSpacingPixels = 1.0
)

// MeasureMode tells how a path was drawn.
type MeasureMode string

const (
	ModeSegment  MeasureMode = "segment"
	ModeFreeDraw MeasureMode = "free_draw"
)

// Measurement is the immutable result of a committed path.
type Measurement struct {
	DistanceKm float64       `json:"distance_km"`
	Profile    TravelProfile `json:"travel_profile"`
	BaseHours  float64       `json:"base_hours"`
	RestCount  int           `json:"rest_count"`
	TotalHours float64       `json:"total_hours"`
	Mode       MeasureMode   `json:"mode"`
	Path       []WorldPoint  `json:"path"`
}

// NewMeasurement derives travel timing for distanceKm under profile.
// Hours are kept at full precision; rounding is a display concern.
func NewMeasurement(distanceKm float64, profile TravelProfile, mode MeasureMode, path []WorldPoint) Measurement {
	var base float64
	if profile.SpeedKmh > 0 {
		base = distanceKm / profile.SpeedKmh
	}
	rests := int(math.Floor(base / RestEveryHours))

	return Measurement{
		DistanceKm: distanceKm,
		Profile:    profile,
		BaseHours:  base,
		RestCount:  rests,
		TotalHours: base + float64(rests*RestDurationHours),
		Mode:       mode,
		Path:       append([]WorldPoint(nil), path...),
	}
}

// BaseHoursDisplay is BaseHours rounded to one decimal.
func (m Measurement) BaseHoursDisplay() float64 { return geospatial.Round(m.BaseHours, 1) }

// TotalHoursDisplay is TotalHours rounded to one decimal.
func (m Measurement) TotalHoursDisplay() float64 { return geospatial.Round(m.TotalHours, 1) }

// Label renders the measurement as the multi-line text attached to its line.
func (m Measurement) Label() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Distance: %.2f km\n", m.DistanceKm)
	fmt.Fprintf(&b, "Mode: %s\n", m.Profile)
	fmt.Fprintf(&b, "Base Time: %.1f hrs\n", m.BaseHoursDisplay())
	fmt.Fprintf(&b, "Rests: %d × %d hr\n", m.RestCount, RestDurationHours)
	fmt.Fprintf(&b, "Total Time: %.1f hrs", m.TotalHoursDisplay())
	return b.String()
}

// LineHandle identifies a line drawn on a map surface. Zero means no line.
type LineHandle int

// NoLine is the zero LineHandle.
const NoLine LineHandle = 0

// LineStyle describes how a line is stroked.
type LineStyle struct {
	Color     string `json:"color"`
	Weight    int    `json:"weight"`
	DashArray string `json:"dash_array,omitempty"`
}

// PreviewLineStyle is the dashed style of an in-progress gesture.
func PreviewLineStyle() LineStyle {
	return LineStyle{Color: "#6fc7d7", Weight: 3, DashArray: "5,10"}
}

// MeasuredLineStyle is the solid style of a committed measurement.
func MeasuredLineStyle() LineStyle {
	return LineStyle{Color: "#6fc7d7", Weight: 3}
}
