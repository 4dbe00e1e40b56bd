package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"minty/internal/audit"
	"minty/internal/erasure/models"
	"minty/internal/export"
	"minty/internal/ledger"
	id "minty/pkg/domain"
)

// DomainAdapter is the per-domain list/delete contract the fan-out drives.
// ledger.Adapter satisfies it; an unavailable adapter reports
// sentinel.ErrUnavailable from both operations.
type DomainAdapter interface {
	Domain() ledger.Domain
	ListForUser(ctx context.Context, userID id.UserID) ([]ledger.Item, error)
	DeleteByID(ctx context.Context, userID id.UserID, itemID id.ItemID) error
}

// Exporter produces the pre-deletion data export artifact.
type Exporter interface {
	Create(ctx context.Context, userID id.UserID) (*export.Artifact, error)
}

// IdentityRevoker is the slice of the identity service the workflow drives.
//
// Revoke outcomes the identity-revocation phase classifies:
//   - nil: the identity was deleted
//   - sentinel.ErrNotFound: already absent (idempotent success)
//   - identity.ErrRequiresRecentAuth: a fresh login is needed first
//   - anything else: revocation failed; SignOut is the fallback
type IdentityRevoker interface {
	Revoke(ctx context.Context, userID id.UserID) error
	SignOut(ctx context.Context, userID id.UserID) error
	IsActive(ctx context.Context, userID id.UserID) (bool, error)
	Contact(ctx context.Context, userID id.UserID) (string, error)
}

// CachePurger clears the ephemeral cache partitions during finalization.
type CachePurger interface {
	ClearAll(ctx context.Context) error
}

// LocalNamespace is the read side of the namespaced key-value layer;
// verification asserts no reserved-prefix keys survive for the subject.
type LocalNamespace interface {
	KeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// RecordStore persists the PII-stripped deletion record.
type RecordStore interface {
	Append(ctx context.Context, record models.Record) error
}

// HistoryStore is the in-process log of sealed results.
type HistoryStore interface {
	Append(result models.DeletionResult)
	FindByID(deletionID id.DeletionID) (models.DeletionResult, bool)
	List() []models.DeletionResult
}

// AuditPublisher records severity-tagged audit events. Emission failures
// never surface to the workflow.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
