package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/sibulut/simple-atom/internal/errs"
	"github.com/sibulut/simple-atom/internal/model"
	pg "github.com/sibulut/simple-atom/internal/postgres"
	"github.com/sibulut/simple-atom/internal/store"
)

func newStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return New(&pg.DB{Pool: mock}, "user_metadata"), mock
}

var key = store.Key{ID: "u1", UserNameKey: "a@x.com"}

func TestGetItem_ReadOrDefault(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	ctx := context.Background()

	// Absent row is the new-user signal, not an error.
	mock.ExpectQuery(`SELECT full_name, videos_watched, watch_count, ratings FROM user_metadata WHERE id=\$1 AND user_name_key=\$2`).
		WithArgs("u1", "a@x.com").
		WillReturnError(pgx.ErrNoRows)
	m, err := s.GetItem(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "u1", m.ID)
	require.Equal(t, "a@x.com", m.UserNameKey)
	require.Empty(t, m.FullName)
	require.Zero(t, m.WatchCount)
	require.Empty(t, m.VideosWatched)
	require.Empty(t, m.Ratings)

	// Present row round-trips.
	mock.ExpectQuery(`SELECT full_name, videos_watched, watch_count, ratings FROM user_metadata`).
		WithArgs("u1", "a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"full_name", "videos_watched", "watch_count", "ratings"}).
			AddRow("Ada L", []int{3, 3, 7}, 3, map[int]int{3: 5}))
	m, err = s.GetItem(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "Ada L", m.FullName)
	require.Equal(t, []int{3, 3, 7}, m.VideosWatched)
	require.Equal(t, 3, m.WatchCount)
	require.Equal(t, map[int]int{3: 5}, m.Ratings)
}

func TestPutItem_Overwrite(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()

	m := model.NewUserMetadata("u1", "a@x.com")
	m.FullName = "Ada L"

	mock.ExpectExec(`INSERT INTO user_metadata \(id, user_name_key, full_name, videos_watched, watch_count, ratings\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\) ON CONFLICT \(id, user_name_key\) DO UPDATE`).
		WithArgs("u1", "a@x.com", "Ada L", []int{}, 0, map[int]int{}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.PutItem(context.Background(), m))
}

func TestAppendWatch_AtomicIncrement(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO user_metadata AS um .+ ON CONFLICT \(id, user_name_key\) DO UPDATE SET videos_watched = array_append\(um\.videos_watched, \$3\), watch_count = um\.watch_count \+ 1 RETURNING`).
		WithArgs("u1", "a@x.com", 3).
		WillReturnRows(pgxmock.NewRows([]string{"full_name", "videos_watched", "watch_count", "ratings"}).
			AddRow("Ada L", []int{3, 3}, 2, map[int]int{}))
	m, err := s.AppendWatch(context.Background(), key, 3)
	require.NoError(t, err)
	require.Equal(t, 2, m.WatchCount)
	require.Equal(t, []int{3, 3}, m.VideosWatched)
}

func TestSetRating_LastWriteWinsPerKey(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()

	// Both arms must build the jsonb key from the int parameter. A bare
	// $3::text would make the server describe $3 as text, which pgx cannot
	// encode a Go int into; the mock cannot exercise encoding, so the
	// statement text is pinned here instead.
	mock.ExpectQuery(`INSERT INTO user_metadata AS um .+ jsonb_build_object\(\(\$3::int\)::text, \$4::int\)\) ON CONFLICT .+ SET ratings = um\.ratings \|\| jsonb_build_object\(\(\$3::int\)::text, \$4::int\) RETURNING`).
		WithArgs("u1", "a@x.com", 7, 2).
		WillReturnRows(pgxmock.NewRows([]string{"full_name", "videos_watched", "watch_count", "ratings"}).
			AddRow("Ada L", []int{}, 0, map[int]int{7: 2}))
	m, err := s.SetRating(context.Background(), key, 7, 2)
	require.NoError(t, err)
	require.Equal(t, map[int]int{7: 2}, m.Ratings)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		code string
		want error
	}{
		{"undefined table", "42P01", errs.ErrTableNotFound},
		{"access denied", "42501", errs.ErrAccessDenied},
		{"insufficient resources", "53300", errs.ErrThroughputExceeded},
		{"undefined column", "42703", errs.ErrSchemaMismatch},
		{"bad datatype", "22P02", errs.ErrSchemaMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newStore(t)
			defer mock.Close()

			mock.ExpectQuery(`SELECT full_name, videos_watched, watch_count, ratings FROM user_metadata`).
				WithArgs("u1", "a@x.com").
				WillReturnError(&pgconn.PgError{Code: tc.code, Message: tc.name})
			_, err := s.GetItem(context.Background(), key)
			require.ErrorIs(t, err, tc.want)
		})
	}

	// Anything unmapped falls through to the generic store error.
	s, mock := newStore(t)
	defer mock.Close()
	mock.ExpectQuery(`SELECT full_name, videos_watched, watch_count, ratings FROM user_metadata`).
		WithArgs("u1", "a@x.com").
		WillReturnError(&pgconn.PgError{Code: "08006", Message: "connection failure"})
	_, err := s.GetItem(context.Background(), key)
	require.ErrorIs(t, err, errs.ErrStore)
}
