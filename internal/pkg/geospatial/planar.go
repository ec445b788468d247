package geospatial

import "math"

// Euclidean returns the straight-line distance between (x1, y1) and (x2, y2).
func Euclidean(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// Clamp limits v to the closed interval [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// ZoomScale is the pixel multiplier of a simple (identity) CRS at zoom z.
func ZoomScale(zoom float64) float64 {
	return math.Pow(2, zoom)
}
