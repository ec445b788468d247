// Package layerfile reads map layer data files. Each file is a JSON array of
// records for one layer; polygon points are [lat, lng] pairs.
package layerfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samirrijal/ankyra/internal/core/domain"
)

// fileKinds maps data file base names to layers. Both the short names and the
// legacy *Zones names are accepted.
var fileKinds = map[string]domain.LayerKind{
	"settlements":   domain.LayerSettlements,
	"nations":       domain.LayerNations,
	"conflict":      domain.LayerConflict,
	"conflictzones": domain.LayerConflict,
	"mana":          domain.LayerMana,
	"manazones":     domain.LayerMana,
	"faith":         domain.LayerFaith,
	"faithzones":    domain.LayerFaith,
}

// Default zone colours when a record has none.
var defaultColors = map[domain.LayerKind]string{
	domain.LayerConflict: "#ff5555",
	domain.LayerMana:     "#00d4ff",
	domain.LayerFaith:    "#ff5555",
	domain.LayerNations:  "#5555ff",
}

type record struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Color       string       `json:"color"`
	Lat         *float64     `json:"lat"`
	Lng         *float64     `json:"lng"`
	Radius      float64      `json:"radius"`
	Points      [][2]float64 `json:"points"`
}

// KindForPath derives the layer from a data file name such as
// "data/manaZones.json".
func KindForPath(path string) (domain.LayerKind, error) {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	kind, ok := fileKinds[base]
	if !ok {
		return "", fmt.Errorf("%w: no layer for file %s", domain.ErrUnknownLayer, filepath.Base(path))
	}
	return kind, nil
}

// Decode parses a layer file body into features of kind. Geometry is not
// validated here.
func Decode(kind domain.LayerKind, r io.Reader) ([]domain.Feature, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s layer: %w", kind, err)
	}

	features := make([]domain.Feature, 0, len(records))
	for _, rec := range records {
		features = append(features, rec.feature(kind))
	}
	return features, nil
}

// Read loads the layer file at path.
func Read(path string) (domain.LayerKind, []domain.Feature, error) {
	kind, err := KindForPath(path)
	if err != nil {
		return "", nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open layer file: %w", err)
	}
	defer f.Close()

	features, err := Decode(kind, f)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	return kind, features, nil
}

func (r record) feature(kind domain.LayerKind) domain.Feature {
	f := domain.Feature{
		ID:          r.ID,
		Kind:        kind,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Color:       r.Color,
		Radius:      r.Radius,
	}
	// Zones are often named only by their description.
	if f.Name == "" {
		f.Name = r.Description
	}
	if f.Category == "" {
		f.Category = r.Type
	}
	if f.Color == "" {
		f.Color = defaultColors[kind]
	}
	if r.Lat != nil && r.Lng != nil {
		f.Location = &domain.WorldPoint{Lat: *r.Lat, Lng: *r.Lng}
	}
	if len(r.Points) > 0 {
		f.Points = make([]domain.WorldPoint, len(r.Points))
		for i, p := range r.Points {
			f.Points[i] = domain.WorldPoint{Lat: p[0], Lng: p[1]}
		}
	}
	return f
}
