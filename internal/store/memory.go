package store

import (
	"context"
	"sync"

	"github.com/sibulut/simple-atom/internal/model"
)

// Memory is an in-memory MetadataStore. Useful for tests and demo runs.
type Memory struct {
	mu    sync.Mutex
	items map[Key]*model.UserMetadata
}

var _ MetadataStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: map[Key]*model.UserMetadata{}}
}

func (s *Memory) snapshot(key Key) *model.UserMetadata {
	m, ok := s.items[key]
	if !ok {
		return model.NewUserMetadata(key.ID, key.UserNameKey)
	}
	cpy := *m
	cpy.VideosWatched = append([]int(nil), m.VideosWatched...)
	cpy.Ratings = make(map[int]int, len(m.Ratings))
	for k, v := range m.Ratings {
		cpy.Ratings[k] = v
	}
	return &cpy
}

func (s *Memory) GetItem(ctx context.Context, key Key) (*model.UserMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(key), nil
}

func (s *Memory) PutItem(ctx context.Context, m *model.UserMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cpy := *m
	cpy.VideosWatched = append([]int(nil), m.VideosWatched...)
	cpy.Ratings = make(map[int]int, len(m.Ratings))
	for k, v := range m.Ratings {
		cpy.Ratings[k] = v
	}
	s.items[Key{ID: m.ID, UserNameKey: m.UserNameKey}] = &cpy
	return nil
}

func (s *Memory) AppendWatch(ctx context.Context, key Key, videoID int) (*model.UserMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.snapshot(key)
	m.VideosWatched = append(m.VideosWatched, videoID)
	m.WatchCount++
	s.items[key] = m
	return s.snapshot(key), nil
}

func (s *Memory) SetRating(ctx context.Context, key Key, videoID, rating int) (*model.UserMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.snapshot(key)
	m.Ratings[videoID] = rating
	s.items[key] = m
	return s.snapshot(key), nil
}
