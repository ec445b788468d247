package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/ankyra/internal/adapters/layerfile"
	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/core/usecases"
	"github.com/samirrijal/ankyra/internal/pkg/metrics"
)

// LayerFile is a decoded layer data file.
type LayerFile struct {
	Kind     domain.LayerKind
	Features []domain.Feature
}

// LayerImportActivities holds the activity implementations for the layer
// import workflow.
type LayerImportActivities struct {
	Layers *usecases.LayerService
}

// LoadLayerFile reads and decodes the layer file at path.
func (a *LayerImportActivities) LoadLayerFile(ctx context.Context, path string) (LayerFile, error) {
	kind, features, err := layerfile.Read(path)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownLayer) {
			return LayerFile{}, nonRetryable(err)
		}
		return LayerFile{}, err
	}
	return LayerFile{Kind: kind, Features: features}, nil
}

// ImportLayer replaces the stored layer with features. Invalid data fails
// without retry.
func (a *LayerImportActivities) ImportLayer(ctx context.Context, kind domain.LayerKind, features []domain.Feature) (int, error) {
	n, err := a.Layers.Import(ctx, kind, features)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidFeature) ||
			errors.Is(err, domain.ErrOutOfBounds) ||
			errors.Is(err, domain.ErrUnknownLayer) {
			return 0, nonRetryable(err)
		}
		return 0, fmt.Errorf("import %s: %w", kind, err)
	}
	return n, nil
}

// RecordLayerImport counts an import outcome.
func (a *LayerImportActivities) RecordLayerImport(ctx context.Context, kind domain.LayerKind, outcome string) error {
	metrics.LayerImports.WithLabelValues(string(kind), outcome).Inc()
	slog.InfoContext(ctx, "layer import recorded", "kind", kind, "outcome", outcome)
	return nil
}

func nonRetryable(err error) error {
	return temporal.NewNonRetryableApplicationError(err.Error(), "InvalidLayerData", err)
}
