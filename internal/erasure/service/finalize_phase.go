package service

import (
	"context"
	"fmt"

	"minty/internal/erasure/models"
)

// runFinalization writes the PII-stripped deletion record to durable state
// and clears the ephemeral cache partitions. Both are best-effort at this
// point: the data is already gone, so failures here record warnings only.
func (s *Service) runFinalization(ctx context.Context, result *models.DeletionResult, step *models.StepRecord) {
	recorded := true
	if err := s.records.Append(ctx, models.RecordFromResult(result, s.clock())); err != nil {
		recorded = false
		result.AddWarning(fmt.Sprintf("finalization: persisting deletion record failed: %v", err))
	}

	purged := true
	if err := s.purger.ClearAll(ctx); err != nil {
		purged = false
		result.AddWarning(fmt.Sprintf("finalization: cache purge failed: %v", err))
	}

	step.Detail = map[string]any{
		"record_persisted": recorded,
		"caches_purged":    purged,
	}
}
