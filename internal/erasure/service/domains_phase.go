package service

import (
	"context"
	"fmt"

	"minty/internal/erasure/models"
)

// runDomainDeletion fans deletion out over every domain adapter, in order.
// Each domain is isolated: a listing or deletion failure records one warning
// naming the domain and the fan-out moves on, keeping the count of items
// already deleted there. Warnings here never fail the run.
func (s *Service) runDomainDeletion(ctx context.Context, result *models.DeletionResult, step *models.StepRecord) {
	failed := 0
	for _, adapter := range s.adapters {
		domain := adapter.Domain()

		items, err := adapter.ListForUser(ctx, result.UserID)
		if err != nil {
			result.AddWarning(fmt.Sprintf("%s: listing items failed: %v", domain, err))
			failed++
			continue
		}

		deleted := 0
		for _, item := range items {
			if err := adapter.DeleteByID(ctx, result.UserID, item.ID); err != nil {
				result.AddWarning(fmt.Sprintf("%s: deleting item failed after %d deleted: %v", domain, deleted, err))
				failed++
				break
			}
			deleted++
		}
		result.DomainCounts[domain] = deleted
		if s.metrics != nil && deleted > 0 {
			s.metrics.DomainItemsErased.WithLabelValues(string(domain)).Add(float64(deleted))
		}
	}

	counts := make(map[string]int, len(result.DomainCounts))
	for domain, count := range result.DomainCounts {
		counts[string(domain)] = count
	}
	step.Detail = map[string]any{
		"domain_counts":  counts,
		"domains_failed": failed,
	}
}
