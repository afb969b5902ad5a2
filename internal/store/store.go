// Package store defines the metadata-store capability: typed access to the
// per-user progress record over a remote key-value backend, addressed by a
// composite key.
//
// Read-or-default lives at this boundary: a missing item is the "new user"
// signal, never an error, and callers above never see record absence.
package store

import (
	"context"

	"github.com/sibulut/simple-atom/internal/model"
)

// Key is the composite primary key of a metadata record.
type Key struct {
	ID          string // user id
	UserNameKey string // email/username sort component
}

// MetadataStore provides typed get/put plus field-level mutations over the
// user metadata record.
//
// PutItem overwrites the whole record unconditionally (last write wins) and
// exists for the one-time name backfill. AppendWatch and SetRating are
// commutative field-level operations so concurrent clients applying small
// deltas to the same record cannot lose each other's updates at the backend.
type MetadataStore interface {
	// GetItem returns the record for key, or the zero-valued default record
	// when no item is stored yet.
	GetItem(ctx context.Context, key Key) (*model.UserMetadata, error)

	// PutItem stores the full record, replacing any prior item under its key.
	PutItem(ctx context.Context, m *model.UserMetadata) error

	// AppendWatch appends videoID to the watch log (duplicates allowed) and
	// increments the watch counter, returning the updated record.
	AppendWatch(ctx context.Context, key Key, videoID int) (*model.UserMetadata, error)

	// SetRating sets the rating for videoID, overwriting any prior value,
	// and returns the updated record.
	SetRating(ctx context.Context, key Key, videoID, rating int) (*model.UserMetadata, error)
}
