package ledger

import (
	"context"

	id "minty/pkg/domain"
	"minty/pkg/platform/sentinel"
)

// Adapter binds a Store to a named domain for consumers that fan out across
// all domains (erasure, export). An adapter with no store is "unavailable":
// its operations return sentinel.ErrUnavailable as a typed outcome instead of
// the caller having to guess why a domain cannot be reached.
type Adapter struct {
	domain Domain
	store  Store
}

// NewAdapter creates an adapter over a live store.
func NewAdapter(domain Domain, store Store) *Adapter {
	return &Adapter{domain: domain, store: store}
}

// NewUnavailableAdapter creates an adapter for a domain whose backing service
// is not loaded. Fan-out treats its failures as per-domain warnings.
func NewUnavailableAdapter(domain Domain) *Adapter {
	return &Adapter{domain: domain}
}

func (a *Adapter) Domain() Domain {
	return a.domain
}

func (a *Adapter) ListForUser(ctx context.Context, userID id.UserID) ([]Item, error) {
	if a.store == nil {
		return nil, sentinel.ErrUnavailable
	}
	return a.store.ListByUser(ctx, userID)
}

func (a *Adapter) DeleteByID(ctx context.Context, userID id.UserID, itemID id.ItemID) error {
	if a.store == nil {
		return sentinel.ErrUnavailable
	}
	return a.store.DeleteByID(ctx, userID, itemID)
}
