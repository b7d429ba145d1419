package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathbattle/internal/model"
	"mathbattle/internal/store"
)

func TestSweepOnce(t *testing.T) {
	st := store.NewMemoryStore()
	e := New(st)
	createRoom(t, e, "1111", "A")
	createRoom(t, e, "2222", "B")

	// Age room 2222 past the idle cutoff.
	room, _, err := st.Get(context.Background(), "2222")
	require.NoError(t, err)
	room.LastActivity = time.Now().Add(-time.Hour).UnixMilli()
	require.NoError(t, st.Put(context.Background(), "2222", room))

	sweeper := NewSweeper(st, 30*time.Minute)
	reclaimed, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)

	_, err = e.Poll(context.Background(), "2222")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	active, err := e.Poll(context.Background(), "1111")
	require.NoError(t, err)
	assert.Equal(t, model.RoomWaiting, active.Status)
}

func TestSweepOnceEmptyStore(t *testing.T) {
	sweeper := NewSweeper(store.NewMemoryStore(), 30*time.Minute)
	reclaimed, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, reclaimed)
}
