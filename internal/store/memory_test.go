package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathbattle/internal/model"
)

func TestMemoryStoreGetAbsent(t *testing.T) {
	st := NewMemoryStore()
	_, _, err := st.Get(context.Background(), "1234")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorePutGet(t *testing.T) {
	st := NewMemoryStore()
	require.NoError(t, st.Put(context.Background(), "1234", &model.Room{Code: "1234", Host: "A"}))

	room, raw, err := st.Get(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, "A", room.Host)
	assert.NotEmpty(t, raw)
}

func TestMemoryStoreCompareAndPut(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, "1234", &model.Room{Code: "1234", Host: "A"}))

	room, raw, err := st.Get(ctx, "1234")
	require.NoError(t, err)

	// Commits while the stored bytes still match the snapshot.
	room.Host = "B"
	ok, err := st.CompareAndPut(ctx, "1234", room, raw)
	require.NoError(t, err)
	assert.True(t, ok)

	// The stale snapshot no longer matches; the write is rejected.
	room.Host = "C"
	ok, err = st.CompareAndPut(ctx, "1234", room, raw)
	require.NoError(t, err)
	assert.False(t, ok)

	current, _, err := st.Get(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, "B", current.Host, "rejected write left no trace")
}

func TestMemoryStoreCompareAndPutAbsent(t *testing.T) {
	st := NewMemoryStore()
	_, err := st.CompareAndPut(context.Background(), "1234", &model.Room{}, []byte("{}"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDeleteAndCodes(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, "1111", &model.Room{Code: "1111"}))
	require.NoError(t, st.Put(ctx, "2222", &model.Room{Code: "2222"}))

	codes, err := st.Codes(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1111", "2222"}, codes)

	require.NoError(t, st.Delete(ctx, "1111"))
	_, _, err = st.Get(ctx, "1111")
	assert.ErrorIs(t, err, ErrNotFound)
}
