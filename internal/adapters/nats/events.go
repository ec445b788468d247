package natsadapter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samirrijal/ankyra/internal/core/domain"
)

// Stream and subject layout.
const (
	StreamName = "ANKYRA_EVENTS"

	SubjectAll               = "ankyra.>"
	SubjectAnnotations       = "ankyra.annotations.>"
	SubjectAnnotationCreated = "ankyra.annotations.created"
	SubjectAnnotationDeleted = "ankyra.annotations.deleted"
	SubjectLayers            = "ankyra.layers.>"
	subjectLayerPrefix       = "ankyra.layers."
	subjectLayerSuffix       = ".updated"
)

// Event types carried in the payload.
const (
	EventAnnotationCreated = "annotation.created"
	EventAnnotationDeleted = "annotation.deleted"
	EventLayerUpdated      = "layer.updated"
)

// LayerSubject returns the subject announcing an import of kind.
func LayerSubject(kind domain.LayerKind) string {
	return subjectLayerPrefix + string(kind) + subjectLayerSuffix
}

// AnnotationEvent is published when an annotation is created or deleted.
type AnnotationEvent struct {
	Type       string             `json:"type"`
	ID         string             `json:"id"`
	Annotation *domain.Annotation `json:"annotation,omitempty"`
	At         time.Time          `json:"at"`
}

// LayerEvent is published after a layer import.
type LayerEvent struct {
	Type  string           `json:"type"`
	Kind  domain.LayerKind `json:"kind"`
	Count int              `json:"count"`
	At    time.Time        `json:"at"`
}

func encodeLayerEvent(kind domain.LayerKind, count int, at time.Time) (string, []byte, error) {
	data, err := json.Marshal(LayerEvent{Type: EventLayerUpdated, Kind: kind, Count: count, At: at})
	if err != nil {
		return "", nil, err
	}
	return LayerSubject(kind), data, nil
}

// decodeLayerEvent reads the layer kind from an event, falling back to the
// subject when the payload does not carry one.
func decodeLayerEvent(subject string, data []byte) (domain.LayerKind, error) {
	var ev LayerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return "", fmt.Errorf("decode layer event: %w", err)
	}
	raw := string(ev.Kind)
	if raw == "" {
		raw = strings.TrimSuffix(strings.TrimPrefix(subject, subjectLayerPrefix), subjectLayerSuffix)
	}
	return domain.ParseLayerKind(raw)
}
