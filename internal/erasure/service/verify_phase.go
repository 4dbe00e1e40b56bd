package service

import (
	"context"
	"fmt"

	"minty/internal/cache"
	"minty/internal/erasure/models"
)

// runVerification audits the deletion: the identity must be inactive, no
// reserved-prefix keys may survive in the local namespace, and every domain
// must list empty. Every check runs regardless of earlier outcomes, each
// failing check records a warning, and the aggregate report lands in the
// step detail.
func (s *Service) runVerification(ctx context.Context, result *models.DeletionResult, step *models.StepRecord) {
	report := models.NewVerificationReport()

	active, err := s.identity.IsActive(ctx, result.UserID)
	switch {
	case err != nil:
		result.AddWarning(fmt.Sprintf("verification: identity check failed: %v", err))
	case active:
		result.AddWarning("verification: identity still active")
	default:
		report.Checks[models.CheckIdentityInactive] = true
	}

	report.Checks[models.CheckNamespaceEmpty] = s.verifyNamespaceEmpty(ctx, result)

	for _, adapter := range s.adapters {
		domain := adapter.Domain()
		items, err := adapter.ListForUser(ctx, result.UserID)
		switch {
		case err != nil:
			result.AddWarning(fmt.Sprintf("verification: %s check failed: %v", domain, err))
		case len(items) > 0:
			result.AddWarning(fmt.Sprintf("verification: %d %s items remain", len(items), domain))
		default:
			report.Checks[models.DomainCheck(domain)] = true
		}
	}

	report.Finish()
	step.Detail = map[string]any{
		"passed": report.Passed,
		"checks": report.Checks,
	}
	if !report.Passed {
		step.Status = models.StepFailed
	}
}

// verifyNamespaceEmpty scans the subject's reserved prefixes. Sessions and
// preference records both live in the shared namespace, so a clean pass here
// proves the identity and domain phases actually cleared their keys.
func (s *Service) verifyNamespaceEmpty(ctx context.Context, result *models.DeletionResult) bool {
	uid := result.UserID.String()
	prefixes := []string{
		cache.PrefixPreferences + uid + ":",
		cache.PrefixSessions + uid + ":",
	}
	empty := true
	for _, prefix := range prefixes {
		keys, err := s.namespace.KeysWithPrefix(ctx, prefix)
		switch {
		case err != nil:
			result.AddWarning(fmt.Sprintf("verification: namespace scan failed for %q: %v", prefix, err))
			empty = false
		case len(keys) > 0:
			result.AddWarning(fmt.Sprintf("verification: %d keys remain under %q", len(keys), prefix))
			empty = false
		}
	}
	return empty
}
