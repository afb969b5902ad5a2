// Package bolt implements the metadata store on an embedded bbolt file,
// for single-node deployments that do not want to run Postgres.
//
// Records are JSON-encoded under "id|userNameKey" keys in one bucket. Each
// mutation runs inside a single Update transaction, so within one process
// watch and rating deltas are applied atomically.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	bbolt "go.etcd.io/bbolt"

	"github.com/sibulut/simple-atom/internal/errs"
	"github.com/sibulut/simple-atom/internal/model"
	"github.com/sibulut/simple-atom/internal/store"
)

var bucketMetadata = []byte("user_metadata")

// Store implements store.MetadataStore using bbolt.
type Store struct {
	db *bbolt.DB
}

var _ store.MetadataStore = (*Store)(nil)

// Open opens (or creates) the database file at path and initializes the
// metadata bucket.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", errs.ErrStore, path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketMetadata)
		return createErr
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init bucket: %v", errs.ErrStore, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error { return s.db.Close() }

func itemKey(key store.Key) []byte {
	return []byte(key.ID + "|" + key.UserNameKey)
}

// GetItem returns the stored record, or the implicit default record when
// the key is absent.
func (s *Store) GetItem(ctx context.Context, key store.Key) (*model.UserMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var m *model.UserMetadata
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMetadata).Get(itemKey(key))
		if data == nil {
			m = model.NewUserMetadata(key.ID, key.UserNameKey)
			return nil
		}
		m = &model.UserMetadata{}
		if err := json.Unmarshal(data, m); err != nil {
			return fmt.Errorf("%w: decode record: %v", errs.ErrSchemaMismatch, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if m.VideosWatched == nil {
		m.VideosWatched = []int{}
	}
	if m.Ratings == nil {
		m.Ratings = map[int]int{}
	}
	return m, nil
}

// PutItem stores the full record, replacing any prior item under its key.
func (s *Store) PutItem(ctx context.Context, m *model.UserMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: encode record: %v", errs.ErrStore, err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMetadata).Put(itemKey(store.Key{ID: m.ID, UserNameKey: m.UserNameKey}), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStore, err)
	}
	return nil
}

// AppendWatch appends videoID and bumps the counter in one transaction.
func (s *Store) AppendWatch(ctx context.Context, key store.Key, videoID int) (*model.UserMetadata, error) {
	return s.mutate(ctx, key, func(m *model.UserMetadata) {
		m.VideosWatched = append(m.VideosWatched, videoID)
		m.WatchCount++
	})
}

// SetRating sets the rating for videoID, overwriting any prior value.
func (s *Store) SetRating(ctx context.Context, key store.Key, videoID, rating int) (*model.UserMetadata, error) {
	return s.mutate(ctx, key, func(m *model.UserMetadata) {
		m.Ratings[videoID] = rating
	})
}

// mutate runs a read-modify-write of the record under key inside one Update
// transaction. Bolt's single writer serializes concurrent mutations.
func (s *Store) mutate(ctx context.Context, key store.Key, apply func(*model.UserMetadata)) (*model.UserMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var m *model.UserMetadata
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMetadata)
		k := itemKey(key)

		m = model.NewUserMetadata(key.ID, key.UserNameKey)
		if data := b.Get(k); data != nil {
			if err := json.Unmarshal(data, m); err != nil {
				return fmt.Errorf("%w: decode record: %v", errs.ErrSchemaMismatch, err)
			}
		}
		if m.VideosWatched == nil {
			m.VideosWatched = []int{}
		}
		if m.Ratings == nil {
			m.Ratings = map[int]int{}
		}
		apply(m)

		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("%w: encode record: %v", errs.ErrStore, err)
		}
		return b.Put(k, data)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
