package store

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"mathbattle/internal/model"
)

// MemoryStore is an in-process RoomStore with the same conditional-write
// semantics as the Redis one. Used in tests and single-node runs.
type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, code string) (*model.Room, []byte, error) {
	s.mu.Lock()
	raw, ok := s.rooms[code]
	s.mu.Unlock()
	if !ok {
		return nil, nil, ErrNotFound
	}
	var room model.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, nil, err
	}
	return &room, raw, nil
}

func (s *MemoryStore) Put(ctx context.Context, code string, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.rooms[code] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) CompareAndPut(ctx context.Context, code string, room *model.Room, prev []byte) (bool, error) {
	data, err := json.Marshal(room)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rooms[code]
	if !ok {
		return false, ErrNotFound
	}
	if !bytes.Equal(cur, prev) {
		return false, nil
	}
	s.rooms[code] = data
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, code string) error {
	s.mu.Lock()
	delete(s.rooms, code)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Codes(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := make([]string, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	return codes, nil
}
