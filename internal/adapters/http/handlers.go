package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/pkg/metrics"
)

// MapHandler returns the map metadata.
func MapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(deps.Map)
	}
}

// TravelProfileResponse is one selectable travel profile.
type TravelProfileResponse struct {
	Name     string  `json:"name"`
	SpeedKmh float64 `json:"speed_kmh"`
	Label    string  `json:"label"`
	Default  bool    `json:"default"`
}

func travelProfiles(deps *Dependencies) []TravelProfileResponse {
	profiles := domain.TravelProfiles()
	out := make([]TravelProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, TravelProfileResponse{
			Name:     p.Name,
			SpeedKmh: p.SpeedKmh,
			Label:    p.String(),
			Default:  p == deps.Map.DefaultProfile,
		})
	}
	return out
}

// TravelProfilesHandler lists the travel profiles in display order.
func TravelProfilesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(travelProfiles(deps))
	}
}

// LayerResponse carries the features of one layer.
type LayerResponse struct {
	Kind     domain.LayerKind `json:"kind"`
	Features []domain.Feature `json:"features"`
}

// LayerHandler returns every feature of a layer.
func LayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind, err := domain.ParseLayerKind(c.Params("kind"))
		if err != nil {
			return errNotFound(c, err.Error())
		}

		features, err := deps.Layers.List(c.UserContext(), kind)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(LayerResponse{Kind: kind, Features: features})
	}
}

// ListAnnotationsHandler returns annotations with offset/limit pagination.
func ListAnnotationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		annotations, err := deps.Annotations.List(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}

		offset, limit := pageParams(c)
		pg := Pagination{Offset: offset, Limit: limit, Total: len(annotations)}
		setLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: paginate(annotations, offset, limit), Pagination: pg})
	}
}

// CreateAnnotationRequest is the body of POST /v1/annotations.
type CreateAnnotationRequest struct {
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	Note string   `json:"note"`
}

// CreateAnnotationHandler pins a note to the map.
func CreateAnnotationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateAnnotationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Lat == nil || req.Lng == nil {
			return errBadRequest(c, "lat and lng are required")
		}

		a, err := deps.Annotations.Create(c.UserContext(), domain.WorldPoint{Lat: *req.Lat, Lng: *req.Lng}, req.Note)
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Location("/v1/annotations/" + a.ID)
		return c.Status(fiber.StatusCreated).JSON(a)
	}
}

// DeleteAnnotationHandler removes an annotation.
func DeleteAnnotationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "annotation id is required")
		}
		if err := deps.Annotations.Delete(c.UserContext(), id); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MeasureRequest is the body of POST /v1/measurements.
type MeasureRequest struct {
	Path    []domain.WorldPoint `json:"path"`
	Zoom    float64             `json:"zoom"`
	Profile string              `json:"profile"`
}

// MeasureResponse is a measurement with display values.
type MeasureResponse struct {
	domain.Measurement
	BaseHoursDisplay  float64 `json:"base_hours_display"`
	TotalHoursDisplay float64 `json:"total_hours_display"`
	Label             string  `json:"label"`
}

func newMeasureResponse(m domain.Measurement) MeasureResponse {
	return MeasureResponse{
		Measurement:       m,
		BaseHoursDisplay:  m.BaseHoursDisplay(),
		TotalHoursDisplay: m.TotalHoursDisplay(),
		Label:             m.Label(),
	}
}

// MeasureHandler measures a complete path at a given zoom.
func MeasureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req MeasureRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Zoom < deps.Map.MinZoom || req.Zoom > deps.Map.MaxZoom {
			return errBadRequest(c, "zoom out of range")
		}

		profile := deps.Map.DefaultProfile
		if strings.TrimSpace(req.Profile) != "" {
			p, err := domain.ParseTravelProfile(req.Profile)
			if err != nil {
				return errFromDomain(c, err)
			}
			profile = p
		}

		m, err := deps.Measure.Measure(c.UserContext(), req.Path, req.Zoom, profile)
		if err != nil {
			return errFromDomain(c, err)
		}

		metrics.MeasurementsCommitted.WithLabelValues(string(m.Mode), m.Profile.Name).Inc()
		metrics.MeasuredDistance.WithLabelValues(string(m.Mode)).Observe(m.DistanceKm)
		return c.JSON(newMeasureResponse(*m))
	}
}
