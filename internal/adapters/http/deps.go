package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/core/usecases"
	"github.com/samirrijal/ankyra/internal/pkg/config"
)

// Pinger is a backing service the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Map         MapInfo
	Space       *usecases.CoordinateSpace
	Layers      *usecases.LayerService
	Annotations *usecases.AnnotationService
	Measure     *usecases.MeasureService
	NATS        *nats.Conn
	DB          Pinger
	Cache       Pinger

	// WSPingInterval is the keep-alive period of websocket connections.
	WSPingInterval time.Duration
	// OpenAPIPath locates the spec served at /docs/openapi.yaml.
	OpenAPIPath string
}

// MapInfo is the metadata a client needs to set up the map view.
type MapInfo struct {
	Name              string               `json:"name"`
	ImageURL          string               `json:"image_url"`
	Bounds            domain.MapBounds     `json:"bounds"`
	MinZoom           float64              `json:"min_zoom"`
	MaxZoom           float64              `json:"max_zoom"`
	MinGesturePixels  float64              `json:"min_gesture_pixels"`
	MaxFreeDrawPoints int                  `json:"max_free_draw_points"`
	DefaultProfile    domain.TravelProfile `json:"default_profile"`
	Layers            []domain.LayerKind   `json:"layers"`
}

// NewMapInfo builds MapInfo from configuration.
func NewMapInfo(cfg config.MapConfig) MapInfo {
	return MapInfo{
		Name:              cfg.Name,
		ImageURL:          cfg.ImageURL,
		Bounds:            cfg.Bounds(),
		MinZoom:           cfg.MinZoom,
		MaxZoom:           cfg.MaxZoom,
		MinGesturePixels:  cfg.MinGesturePixels,
		MaxFreeDrawPoints: cfg.MaxFreeDrawPoints,
		DefaultProfile:    cfg.Profile(),
		Layers:            domain.LayerKinds(),
	}
}
