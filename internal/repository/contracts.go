package repository

import (
	"context"

	"github.com/mfcosta/listings-tracker/internal/entity"
)

// TableRepository is the persisted-table interface the import core
// depends on. The only hard requirement is that Append is atomic with
// respect to concurrent appends against the same table: two commits must
// both land, never silently overwrite each other.
type TableRepository interface {
	Create(ctx context.Context, ownerID, name string) (*entity.ListingTable, error)
	Get(ctx context.Context, id string) (*entity.ListingTable, error)
	List(ctx context.Context, ownerID string) ([]*entity.ListingTable, error)
	Rename(ctx context.Context, id, name string) error
	// Delete refuses to remove the owner's only table.
	Delete(ctx context.Context, id string) error
	// Append prepends records to the table (most-recently-imported first).
	Append(ctx context.Context, id string, records []entity.PropertyRecord) error
	// UpdateRecord replaces one record in place, matched by identifier.
	UpdateRecord(ctx context.Context, tableID string, record entity.PropertyRecord) error
	// DeleteRecord removes one record by identifier.
	DeleteRecord(ctx context.Context, tableID, recordID string) error
}

// ShareRepository publishes read-only snapshots of a record list under
// an opaque id.
type ShareRepository interface {
	CreateShare(ctx context.Context, records []entity.PropertyRecord) (string, error)
	GetShare(ctx context.Context, id string) (*entity.SharedList, error)
}
