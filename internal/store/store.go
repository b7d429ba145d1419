package store

import (
	"context"
	"errors"

	"mathbattle/internal/model"
)

// ErrNotFound is returned when a room code has no stored record.
var ErrNotFound = errors.New("room not found")

// RoomStore is the durable mapping from room code to room record. Get also
// returns the raw serialized snapshot so callers can hand it back to
// CompareAndPut: the conditional write commits only while the stored bytes
// still equal that snapshot.
type RoomStore interface {
	Get(ctx context.Context, code string) (*model.Room, []byte, error)
	Put(ctx context.Context, code string, room *model.Room) error
	CompareAndPut(ctx context.Context, code string, room *model.Room, prev []byte) (bool, error)
	Delete(ctx context.Context, code string) error
	Codes(ctx context.Context) ([]string, error)
}
