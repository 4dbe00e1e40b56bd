package ledger

import (
	"context"

	id "minty/pkg/domain"
)

// Store is the per-domain persistence contract the erasure and export flows
// consume. Implementations must scope ListByUser strictly to the given user.
type Store interface {
	Put(ctx context.Context, item Item) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Item, error)
	DeleteByID(ctx context.Context, userID id.UserID, itemID id.ItemID) error
}
