package service

import (
	"context"
	"fmt"

	"minty/internal/erasure/models"
)

// runExport produces the pre-deletion data export. This is the only phase
// whose failure is recorded as an error: once deletion starts the data is
// gone, so a run that could not export can never be called a success.
func (s *Service) runExport(ctx context.Context, result *models.DeletionResult, step *models.StepRecord) {
	artifact, err := s.exporter.Create(ctx, result.UserID)
	if err != nil {
		result.AddError(fmt.Sprintf("export failed: %v", err))
		step.Status = models.StepFailed
		step.Detail = map[string]any{"error": err.Error()}
		return
	}

	counts := make(map[string]int, len(artifact.ItemCounts))
	total := 0
	for domain, count := range artifact.ItemCounts {
		counts[string(domain)] = count
		total += count
	}
	step.Detail = map[string]any{
		"filename":     artifact.Filename,
		"size_bytes":   artifact.Size,
		"download_ref": artifact.DownloadRef,
		"item_counts":  counts,
		"items_total":  total,
	}
}
