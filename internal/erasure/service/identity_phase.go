package service

import (
	"context"
	"errors"
	"fmt"

	"minty/internal/erasure/models"
	"minty/internal/identity"
	"minty/pkg/platform/sentinel"
)

// runIdentityRevocation deletes the authentication identity and classifies
// the outcome. An already-absent identity counts as success (the desired end
// state holds); a stale-authentication refusal or any other failure becomes a
// warning, the latter with a best-effort global sign-out so no live session
// outlasts the run. This phase never records errors.
func (s *Service) runIdentityRevocation(ctx context.Context, result *models.DeletionResult, step *models.StepRecord) {
	err := s.identity.Revoke(ctx, result.UserID)
	switch {
	case err == nil:
		result.AuthDeleted = true
		step.Detail = map[string]any{"outcome": "revoked"}

	case errors.Is(err, sentinel.ErrNotFound):
		result.AuthDeleted = true
		step.Detail = map[string]any{"outcome": "already_absent"}

	case errors.Is(err, identity.ErrRequiresRecentAuth):
		result.AddWarning("identity revocation skipped: requires recent authentication")
		step.Detail = map[string]any{"outcome": "requires_recent_auth"}

	default:
		result.AddWarning(fmt.Sprintf("identity revocation failed: %v", err))
		signedOut := true
		if err := s.identity.SignOut(ctx, result.UserID); err != nil {
			signedOut = false
			result.AddWarning(fmt.Sprintf("fallback sign-out failed: %v", err))
		}
		step.Detail = map[string]any{
			"outcome":           "failed",
			"fallback_sign_out": signedOut,
		}
	}
}
