package domain

import "github.com/samirrijal/ankyra/internal/pkg/geospatial"

// WorldPoint is a coordinate on the map plane. Lat grows northwards (y) and
// Lng eastwards (x), both measured in image pixels at zoom 0.
type WorldPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ScreenPoint is a container-pixel position produced by a map projection.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two screen points.
func (p ScreenPoint) Distance(o ScreenPoint) float64 {
	return geospatial.Euclidean(p.X, p.Y, o.X, o.Y)
}

// MapBounds is the rectangle covered by the loaded map image together with
// the scale used to turn on-screen pixels into kilometres.
type MapBounds struct {
	MinY       float64 `json:"min_y"`
	MaxY       float64 `json:"max_y"`
	MinX       float64 `json:"min_x"`
	MaxX       float64 `json:"max_x"`
	KmPerPixel float64 `json:"km_per_pixel"`
}

// NewMapBounds returns bounds anchored at the origin for an image of the
// given pixel size.
func NewMapBounds(width, height, kmPerPixel float64) MapBounds {
	return MapBounds{MinY: 0, MaxY: height, MinX: 0, MaxX: width, KmPerPixel: kmPerPixel}
}

// Width is the horizontal extent of the map in world units.
func (b MapBounds) Width() float64 { return b.MaxX - b.MinX }

// Height is the vertical extent of the map in world units.
func (b MapBounds) Height() float64 { return b.MaxY - b.MinY }

// Finite reports whether both coordinates are real numbers.
func (p WorldPoint) Finite() bool {
	return geospatial.Finite(p.Lat) && geospatial.Finite(p.Lng)
}

// Contains reports whether p lies inside the bounds (edges included).
// Non-finite points are never contained.
func (b MapBounds) Contains(p WorldPoint) bool {
	return p.Finite() && p.Lat >= b.MinY && p.Lat <= b.MaxY && p.Lng >= b.MinX && p.Lng <= b.MaxX
}

// Clamp clips both axes of p into the bounds.
func (b MapBounds) Clamp(p WorldPoint) WorldPoint {
	return WorldPoint{
		Lat: geospatial.Clamp(p.Lat, b.MinY, b.MaxY),
		Lng: geospatial.Clamp(p.Lng, b.MinX, b.MaxX),
	}
}

// Viewport is the zoom and pixel origin of a simple-CRS map view. Screen
// coordinates are relative to the top-left corner of the map container.
type Viewport struct {
	Zoom    float64 `json:"zoom"`
	OriginX float64 `json:"origin_x"`
	OriginY float64 `json:"origin_y"`
}

// ProjectToScreen applies the simple CRS transform (x = lng, y = -lat)
// scaled by 2^zoom and shifted by the pixel origin. It never fails.
func (v Viewport) ProjectToScreen(p WorldPoint) (ScreenPoint, error) {
	scale := geospatial.ZoomScale(v.Zoom)
	return ScreenPoint{
		X: p.Lng*scale - v.OriginX,
		Y: -p.Lat*scale - v.OriginY,
	}, nil
}
