package domain

import (
	"fmt"
	"time"
)

// LayerKind names a toggleable group of map features.
type LayerKind string

const (
	LayerSettlements LayerKind = "settlements"
	LayerNations     LayerKind = "nations"
	LayerConflict    LayerKind = "conflict"
	LayerMana        LayerKind = "mana"
	LayerFaith       LayerKind = "faith"
)

// LayerKinds lists all feature layers in legend order.
func LayerKinds() []LayerKind {
	return []LayerKind{LayerSettlements, LayerNations, LayerConflict, LayerMana, LayerFaith}
}

// ParseLayerKind converts a string to a LayerKind, returning an error if invalid.
func ParseLayerKind(s string) (LayerKind, error) {
	for _, k := range LayerKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownLayer, s)
}

// Settlement categories.
const (
	CategoryCity    = "city"
	CategoryVillage = "village"
	CategoryOutpost = "outpost"
)

// Feature is one item of a map layer: a settlement marker, a circular
// conflict zone, or a polygon (nation border, mana or faith zone).
type Feature struct {
	ID          string       `json:"id,omitempty"`
	Kind        LayerKind    `json:"kind"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category,omitempty"`
	Color       string       `json:"color,omitempty"`
	Location    *WorldPoint  `json:"location,omitempty"`
	Radius      float64      `json:"radius,omitempty"`
	Points      []WorldPoint `json:"points,omitempty"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
}

// Validate checks that the feature has the geometry its layer needs and that
// all of it lies within bounds.
func (f Feature) Validate(bounds MapBounds) error {
	if f.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidFeature)
	}

	switch f.Kind {
	case LayerSettlements:
		switch f.Category {
		case CategoryCity, CategoryVillage, CategoryOutpost:
		default:
			return fmt.Errorf("%w: %s has unknown category %q", ErrInvalidFeature, f.Name, f.Category)
		}
		fallthrough
	case LayerConflict:
		if f.Location == nil {
			return fmt.Errorf("%w: %s needs a location", ErrInvalidFeature, f.Name)
		}
		if !bounds.Contains(*f.Location) {
			return fmt.Errorf("%w: %s", ErrOutOfBounds, f.Name)
		}
		if f.Kind == LayerConflict && f.Radius <= 0 {
			return fmt.Errorf("%w: %s needs a positive radius", ErrInvalidFeature, f.Name)
		}
	case LayerNations, LayerMana, LayerFaith:
		if len(f.Points) < 3 {
			return fmt.Errorf("%w: %s polygon needs at least 3 points", ErrInvalidFeature, f.Name)
		}
		for _, p := range f.Points {
			if !bounds.Contains(p) {
				return fmt.Errorf("%w: %s", ErrOutOfBounds, f.Name)
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownLayer, f.Kind)
	}
	return nil
}

// Annotation is a user note pinned to the map.
type Annotation struct {
	ID        string     `json:"id"`
	Location  WorldPoint `json:"location"`
	Note      string     `json:"note"`
	CreatedAt time.Time  `json:"created_at"`
}

// MaxNoteLength bounds annotation notes.
const MaxNoteLength = 500
