package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"mathbattle/internal/model"
)

const roomKeyPrefix = "room:"

// RedisStore keeps room records as JSON values in Redis. The conditional
// write is a WATCH transaction: the SET only commits if no other client
// touched the key since we read it, and the stored bytes still equal the
// snapshot the caller read.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a room store on the given client. Rooms carry a TTL
// as a backstop against rooms abandoned without a leave; the expiry sweeper
// reclaims them much earlier.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(code string) string {
	return roomKeyPrefix + code
}

func (s *RedisStore) Get(ctx context.Context, code string) (*model.Room, []byte, error) {
	raw, err := s.client.Get(ctx, s.key(code)).Bytes()
	if err == redis.Nil {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get room %s: %w", code, err)
	}
	var room model.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, nil, fmt.Errorf("decode room %s: %w", code, err)
	}
	return &room, raw, nil
}

func (s *RedisStore) Put(ctx context.Context, code string, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(code), data, s.ttl).Err()
}

func (s *RedisStore) CompareAndPut(ctx context.Context, code string, room *model.Room, prev []byte) (bool, error) {
	data, err := json.Marshal(room)
	if err != nil {
		return false, err
	}

	key := s.key(code)
	committed := false
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if !bytes.Equal(cur, prev) {
			// Someone else wrote in between; reject without touching the key.
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err == nil {
			committed = true
		}
		return err
	}, key)

	if err == redis.TxFailedErr {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return committed, nil
}

func (s *RedisStore) Delete(ctx context.Context, code string) error {
	return s.client.Del(ctx, s.key(code)).Err()
}

// Codes scans for all live room codes. Used by the expiry sweeper only, never
// on the request path.
func (s *RedisStore) Codes(ctx context.Context) ([]string, error) {
	var codes []string
	iter := s.client.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		codes = append(codes, strings.TrimPrefix(iter.Val(), roomKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}
