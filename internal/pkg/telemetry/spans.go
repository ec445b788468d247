package telemetry

// Span and attribute names shared by the services and adapters.
const (
	TracerName = "github.com/samirrijal/ankyra"

	// Layers
	SpanLayerList   = "layers.list"
	SpanLayerImport = "layers.import"

	// Annotations
	SpanAnnotationCreate = "annotations.create"
	SpanAnnotationList   = "annotations.list"
	SpanAnnotationDelete = "annotations.delete"

	// Measurements
	SpanMeasure = "measurements.measure"

	AttrLayerKind     = "ankyra.layer.kind"
	AttrFeatureCount  = "ankyra.layer.feature_count"
	AttrAnnotationID  = "ankyra.annotation.id"
	AttrCacheHit      = "ankyra.cache.hit"
	AttrPathPoints    = "ankyra.measure.points"
	AttrTravelProfile = "ankyra.measure.profile"
)
