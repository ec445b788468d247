package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/pkg/metrics"
)

// LayerImportInput is the input for the layer import workflow.
type LayerImportInput struct {
	// Path is a layer data file readable by the worker.
	Path string
	// Kind, when set, must match the layer the file belongs to.
	Kind domain.LayerKind
}

// LayerImportResult reports what the workflow imported.
type LayerImportResult struct {
	Kind  domain.LayerKind
	Count int
}

// LayerImportWorkflow loads a layer file, replaces the stored layer with its
// features, and records the outcome. A failed import leaves the previous
// layer in place and is recorded as failed.
func LayerImportWorkflow(ctx workflow.Context, input LayerImportInput) (LayerImportResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting layer import workflow", "path", input.Path)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Load and decode the file
	var file LayerFile
	if err := workflow.ExecuteActivity(ctx, "LoadLayerFile", input.Path).Get(ctx, &file); err != nil {
		return LayerImportResult{Kind: input.Kind}, err
	}
	if input.Kind != "" && input.Kind != file.Kind {
		err := temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("file %s holds layer %s, not %s", input.Path, file.Kind, input.Kind),
			"LayerMismatch", nil)
		_ = workflow.ExecuteActivity(ctx, "RecordLayerImport", input.Kind, metrics.OutcomeFailed).Get(ctx, nil)
		return LayerImportResult{Kind: input.Kind}, err
	}

	// Step 2: Validate and store
	var count int
	err := workflow.ExecuteActivity(ctx, "ImportLayer", file.Kind, file.Features).Get(ctx, &count)
	if err != nil {
		logger.Warn("layer import failed", "kind", file.Kind, "error", err)
		_ = workflow.ExecuteActivity(ctx, "RecordLayerImport", file.Kind, metrics.OutcomeFailed).Get(ctx, nil)
		return LayerImportResult{Kind: file.Kind}, err
	}

	// Step 3: Record success
	_ = workflow.ExecuteActivity(ctx, "RecordLayerImport", file.Kind, metrics.OutcomeImported).Get(ctx, nil)

	logger.Info("Layer imported", "kind", file.Kind, "count", count)
	return LayerImportResult{Kind: file.Kind, Count: count}, nil
}
