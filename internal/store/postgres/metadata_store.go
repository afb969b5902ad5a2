// Package postgres implements the metadata store on a PostgreSQL table.
//
// One row per (id, user_name_key). Watch and rating mutations are single
// atomic statements so concurrent clients applying deltas to the same record
// cannot lose each other's updates; only PutItem is an unconditional
// overwrite.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sibulut/simple-atom/internal/errs"
	"github.com/sibulut/simple-atom/internal/model"
	pg "github.com/sibulut/simple-atom/internal/postgres"
	"github.com/sibulut/simple-atom/internal/store"
)

// Store implements store.MetadataStore on Postgres. The table name comes
// from configuration and is validated as a bare identifier before it gets
// here.
type Store struct {
	db    *pg.DB
	table string
}

var _ store.MetadataStore = (*Store)(nil)

// New constructs the store for the given table.
func New(db *pg.DB, table string) *Store {
	return &Store{db: db, table: table}
}

// GetItem returns the stored record, or the implicit default record when no
// row exists. Absence is the "new user" signal, not an error.
func (s *Store) GetItem(ctx context.Context, key store.Key) (*model.UserMetadata, error) {
	q := fmt.Sprintf(`
SELECT full_name, videos_watched, watch_count, ratings
FROM %s WHERE id=$1 AND user_name_key=$2`, s.table)
	row := s.db.Pool.QueryRow(ctx, q, key.ID, key.UserNameKey)

	m := model.NewUserMetadata(key.ID, key.UserNameKey)
	if err := row.Scan(&m.FullName, &m.VideosWatched, &m.WatchCount, &m.Ratings); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewUserMetadata(key.ID, key.UserNameKey), nil
		}
		return nil, mapError(err)
	}
	if m.VideosWatched == nil {
		m.VideosWatched = []int{}
	}
	if m.Ratings == nil {
		m.Ratings = map[int]int{}
	}
	return m, nil
}

// PutItem stores the full record, replacing any prior row under its key.
// Last write wins; there is no version check.
func (s *Store) PutItem(ctx context.Context, m *model.UserMetadata) error {
	q := fmt.Sprintf(`
INSERT INTO %s (id, user_name_key, full_name, videos_watched, watch_count, ratings)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id, user_name_key) DO UPDATE
SET full_name=EXCLUDED.full_name,
    videos_watched=EXCLUDED.videos_watched,
    watch_count=EXCLUDED.watch_count,
    ratings=EXCLUDED.ratings`, s.table)
	_, err := s.db.Pool.Exec(ctx, q, m.ID, m.UserNameKey, m.FullName, m.VideosWatched, m.WatchCount, m.Ratings)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// AppendWatch appends videoID to the watch log and bumps the counter in one
// statement, creating the row if the user has no record yet.
func (s *Store) AppendWatch(ctx context.Context, key store.Key, videoID int) (*model.UserMetadata, error) {
	q := fmt.Sprintf(`
INSERT INTO %s AS um (id, user_name_key, full_name, videos_watched, watch_count, ratings)
VALUES ($1, $2, '', ARRAY[$3]::int[], 1, '{}'::jsonb)
ON CONFLICT (id, user_name_key) DO UPDATE
SET videos_watched = array_append(um.videos_watched, $3),
    watch_count = um.watch_count + 1
RETURNING full_name, videos_watched, watch_count, ratings`, s.table)
	return s.scanReturning(ctx, key, q, key.ID, key.UserNameKey, videoID)
}

// SetRating sets the rating for videoID; re-rating overwrites the key.
// The jsonb key is derived server-side from the int parameter: a bare
// $3::text would make the server describe the parameter as text, and pgx
// cannot encode a Go int as text.
func (s *Store) SetRating(ctx context.Context, key store.Key, videoID, rating int) (*model.UserMetadata, error) {
	q := fmt.Sprintf(`
INSERT INTO %s AS um (id, user_name_key, full_name, videos_watched, watch_count, ratings)
VALUES ($1, $2, '', '{}'::int[], 0, jsonb_build_object(($3::int)::text, $4::int))
ON CONFLICT (id, user_name_key) DO UPDATE
SET ratings = um.ratings || jsonb_build_object(($3::int)::text, $4::int)
RETURNING full_name, videos_watched, watch_count, ratings`, s.table)
	return s.scanReturning(ctx, key, q, key.ID, key.UserNameKey, videoID, rating)
}

func (s *Store) scanReturning(ctx context.Context, key store.Key, q string, args ...any) (*model.UserMetadata, error) {
	row := s.db.Pool.QueryRow(ctx, q, args...)
	m := model.NewUserMetadata(key.ID, key.UserNameKey)
	if err := row.Scan(&m.FullName, &m.VideosWatched, &m.WatchCount, &m.Ratings); err != nil {
		return nil, mapError(err)
	}
	if m.VideosWatched == nil {
		m.VideosWatched = []int{}
	}
	if m.Ratings == nil {
		m.Ratings = map[int]int{}
	}
	return m, nil
}

// mapError translates backend failures into the closed store error set.
// SQLSTATE classes stand in for the hosted store's named exceptions:
// undefined table, privilege violations, resource exhaustion, and the
// remaining schema/usage errors each get a stable kind.
func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42P01":
			return fmt.Errorf("%w: %s", errs.ErrTableNotFound, pgErr.Message)
		case pgErr.Code == "42501":
			return fmt.Errorf("%w: %s", errs.ErrAccessDenied, pgErr.Message)
		case strings.HasPrefix(pgErr.Code, "53"):
			return fmt.Errorf("%w: %s", errs.ErrThroughputExceeded, pgErr.Message)
		case strings.HasPrefix(pgErr.Code, "42"), strings.HasPrefix(pgErr.Code, "22"):
			return fmt.Errorf("%w: %s", errs.ErrSchemaMismatch, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", errs.ErrStore, err)
}
