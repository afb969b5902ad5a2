package store

import (
	"context"

	"github.com/sibulut/simple-atom/internal/model"
	"github.com/sibulut/simple-atom/internal/telemetry"
)

// Instrument wraps a MetadataStore with per-operation metrics.
func Instrument(inner MetadataStore) MetadataStore {
	return &instrumented{inner: inner}
}

type instrumented struct {
	inner MetadataStore
}

func (s *instrumented) GetItem(ctx context.Context, key Key) (*model.UserMetadata, error) {
	m, err := s.inner.GetItem(ctx, key)
	telemetry.CountStoreOp("get_item", outcome(err))
	return m, err
}

func (s *instrumented) PutItem(ctx context.Context, m *model.UserMetadata) error {
	err := s.inner.PutItem(ctx, m)
	telemetry.CountStoreOp("put_item", outcome(err))
	return err
}

func (s *instrumented) AppendWatch(ctx context.Context, key Key, videoID int) (*model.UserMetadata, error) {
	m, err := s.inner.AppendWatch(ctx, key, videoID)
	telemetry.CountStoreOp("append_watch", outcome(err))
	return m, err
}

func (s *instrumented) SetRating(ctx context.Context, key Key, videoID, rating int) (*model.UserMetadata, error) {
	m, err := s.inner.SetRating(ctx, key, videoID, rating)
	telemetry.CountStoreOp("set_rating", outcome(err))
	return m, err
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
