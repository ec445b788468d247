package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/ankyra/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	worldPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "WorldPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	worldPointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "WorldPointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lng": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapBounds",
		Fields: graphql.Fields{
			"min_y":        &graphql.Field{Type: graphql.Float},
			"max_y":        &graphql.Field{Type: graphql.Float},
			"min_x":        &graphql.Field{Type: graphql.Float},
			"max_x":        &graphql.Field{Type: graphql.Float},
			"km_per_pixel": &graphql.Field{Type: graphql.Float},
		},
	})

	profileType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TravelProfile",
		Fields: graphql.Fields{
			"name":      &graphql.Field{Type: graphql.String},
			"speed_kmh": &graphql.Field{Type: graphql.Float},
			"label":     &graphql.Field{Type: graphql.String},
			"default":   &graphql.Field{Type: graphql.Boolean},
		},
	})

	mapType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Map",
		Fields: graphql.Fields{
			"name":               &graphql.Field{Type: graphql.String},
			"image_url":          &graphql.Field{Type: graphql.String},
			"bounds":             &graphql.Field{Type: boundsType},
			"min_zoom":           &graphql.Field{Type: graphql.Float},
			"max_zoom":           &graphql.Field{Type: graphql.Float},
			"min_gesture_pixels": &graphql.Field{Type: graphql.Float},
			"layers":             &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	featureType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Feature",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"kind":        &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"category":    &graphql.Field{Type: graphql.String},
			"color":       &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: worldPointType},
			"radius":      &graphql.Field{Type: graphql.Float},
			"points":      &graphql.Field{Type: graphql.NewList(worldPointType)},
		},
	})

	annotationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Annotation",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: worldPointType},
			"note":     &graphql.Field{Type: graphql.String},
			"created_at": &graphql.Field{
				Type: graphql.DateTime,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if a, ok := p.Source.(domain.Annotation); ok {
						return a.CreatedAt, nil
					}
					return nil, nil
				},
			},
		},
	})

	measurementType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Measurement",
		Fields: graphql.Fields{
			"distance_km":         &graphql.Field{Type: graphql.Float},
			"travel_profile":      &graphql.Field{Type: graphql.String},
			"speed_kmh":           &graphql.Field{Type: graphql.Float},
			"base_hours":          &graphql.Field{Type: graphql.Float},
			"rest_count":          &graphql.Field{Type: graphql.Int},
			"total_hours":         &graphql.Field{Type: graphql.Float},
			"base_hours_display":  &graphql.Field{Type: graphql.Float},
			"total_hours_display": &graphql.Field{Type: graphql.Float},
			"mode":                &graphql.Field{Type: graphql.String},
			"label":               &graphql.Field{Type: graphql.String},
			"path":                &graphql.Field{Type: graphql.NewList(worldPointType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"map": &graphql.Field{
				Type:        mapType,
				Description: "Map image, bounds and zoom range",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Map, nil
				},
			},
			"travelProfiles": &graphql.Field{
				Type:        graphql.NewList(profileType),
				Description: "Selectable travel profiles",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return travelProfiles(deps), nil
				},
			},
			"layer": &graphql.Field{
				Type:        graphql.NewList(featureType),
				Description: "Features of one map layer",
				Args: graphql.FieldConfigArgument{
					"kind": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					kind, err := domain.ParseLayerKind(p.Args["kind"].(string))
					if err != nil {
						return nil, err
					}
					return deps.Layers.List(p.Context, kind)
				},
			},
			"annotations": &graphql.Field{
				Type:        graphql.NewList(annotationType),
				Description: "Notes pinned to the map",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Annotations.List(p.Context)
				},
			},
			"measure": &graphql.Field{
				Type:        measurementType,
				Description: "Distance and travel time along a path at a zoom level",
				Args: graphql.FieldConfigArgument{
					"path":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(worldPointInput)))},
					"zoom":    &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"profile": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					path, err := pathArg(p.Args["path"])
					if err != nil {
						return nil, err
					}
					zoom := p.Args["zoom"].(float64)
					if zoom < deps.Map.MinZoom || zoom > deps.Map.MaxZoom {
						return nil, fmt.Errorf("zoom %g out of range", zoom)
					}
					profile := deps.Map.DefaultProfile
					if name, ok := p.Args["profile"].(string); ok && name != "" {
						if profile, err = domain.ParseTravelProfile(name); err != nil {
							return nil, err
						}
					}
					m, err := deps.Measure.Measure(p.Context, path, zoom, profile)
					if err != nil {
						return nil, err
					}
					return measurementFields(*m), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func pathArg(v interface{}) ([]domain.WorldPoint, error) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("path must be a list")
	}
	path := make([]domain.WorldPoint, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("path point must be an object")
		}
		lat, _ := m["lat"].(float64)
		lng, _ := m["lng"].(float64)
		path = append(path, domain.WorldPoint{Lat: lat, Lng: lng})
	}
	return path, nil
}

func measurementFields(m domain.Measurement) map[string]interface{} {
	return map[string]interface{}{
		"distance_km":         m.DistanceKm,
		"travel_profile":      m.Profile.Name,
		"speed_kmh":           m.Profile.SpeedKmh,
		"base_hours":          m.BaseHours,
		"rest_count":          m.RestCount,
		"total_hours":         m.TotalHours,
		"base_hours_display":  m.BaseHoursDisplay(),
		"total_hours_display": m.TotalHoursDisplay(),
		"mode":                string(m.Mode),
		"label":               m.Label(),
		"path":                m.Path,
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
