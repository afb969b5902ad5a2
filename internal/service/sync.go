package service

import (
	"context"
	"fmt"

	"github.com/sibulut/simple-atom/internal/errs"
	"github.com/sibulut/simple-atom/internal/model"
	"github.com/sibulut/simple-atom/internal/store"
)

// MetadataSynchronizer reconciles the authenticated session with the user's
// durable metadata record and applies optimistic local updates write-through.
type MetadataSynchronizer interface {
	// EnsureRecord fetches-or-creates the record for the session and seeds
	// the full name on first contact.
	EnsureRecord(ctx context.Context, sess model.Session) (*model.UserMetadata, error)
	// RecordWatch appends a watch event (duplicates count) and returns the
	// persisted record.
	RecordWatch(ctx context.Context, m *model.UserMetadata, videoID int) (*model.UserMetadata, error)
	// RecordRating sets the rating for a video (1..5, last write wins) and
	// returns the persisted record.
	RecordRating(ctx context.Context, m *model.UserMetadata, videoID, rating int) (*model.UserMetadata, error)
}

type SynchronizerImpl struct {
	store store.MetadataStore
}

var _ MetadataSynchronizer = (*SynchronizerImpl)(nil)

// NewSynchronizer constructs the synchronizer over a metadata store.
func NewSynchronizer(st store.MetadataStore) *SynchronizerImpl {
	return &SynchronizerImpl{store: st}
}

// EnsureRecord reads-or-defaults the record keyed by (userID, email). When
// the stored record has no full name and the session carries one, the name
// is patched and persisted before the record is returned. This is the only
// defaulting site; it is re-checked on every load and re-applying the same
// name is a no-op change.
func (s *SynchronizerImpl) EnsureRecord(ctx context.Context, sess model.Session) (*model.UserMetadata, error) {
	key := store.Key{ID: sess.UserID, UserNameKey: sess.Email}
	m, err := s.store.GetItem(ctx, key)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errs.ErrMetadataUnavailable
	}
	if m.FullName == "" && sess.FullName != "" {
		m.FullName = sess.FullName
		if err := s.store.PutItem(ctx, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordWatch appends videoID to the watch log. Watching the same video
// twice counts twice; WatchCount always equals len(VideosWatched). The
// mutation is persisted before the updated record is returned.
func (s *SynchronizerImpl) RecordWatch(ctx context.Context, m *model.UserMetadata, videoID int) (*model.UserMetadata, error) {
	key := store.Key{ID: m.ID, UserNameKey: m.UserNameKey}
	return s.store.AppendWatch(ctx, key, videoID)
}

// RecordRating sets ratings[videoID] = rating. Re-rating overwrites the
// prior value rather than accumulating.
func (s *SynchronizerImpl) RecordRating(ctx context.Context, m *model.UserMetadata, videoID, rating int) (*model.UserMetadata, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", errs.ErrValidation)
	}
	key := store.Key{ID: m.ID, UserNameKey: m.UserNameKey}
	return s.store.SetRating(ctx, key, videoID, rating)
}
