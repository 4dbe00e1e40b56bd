// Package record persists the PII-stripped deletion records written during
// finalization. Unlike the in-process history, these survive restarts.
package record

import (
	"context"

	"minty/internal/erasure/models"
	id "minty/pkg/domain"
)

// Store is the durable deletion-record contract.
type Store interface {
	Append(ctx context.Context, record models.Record) error
	FindByDeletionID(ctx context.Context, deletionID id.DeletionID) (models.Record, error)
	List(ctx context.Context) ([]models.Record, error)
}
