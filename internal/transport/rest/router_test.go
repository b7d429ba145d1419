package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathbattle/internal/engine"
	"mathbattle/internal/model"
	"mathbattle/internal/service"
	"mathbattle/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	eng := engine.New(store.NewMemoryStore())
	srv := httptest.NewServer(NewRouter(&Container{
		Engine:      eng,
		AuthService: service.NewAuthService(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path string, body map[string]interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func roomFrom(t *testing.T, raw json.RawMessage) *model.Room {
	t.Helper()
	var room model.Room
	require.NoError(t, json.Unmarshal(raw, &room))
	return &room
}

func TestBattleFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	// Create
	resp, out := post(t, srv, "/api/battle/join", map[string]interface{}{
		"action": "create", "name": "A", "avatar": "🐻", "roomCode": "1234",
		"grade": "g34", "count": 10,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	room := roomFrom(t, out["room"])
	assert.Equal(t, model.RoomWaiting, room.Status)
	assert.Equal(t, "A", room.Host)

	// Join
	resp, out = post(t, srv, "/api/battle/join", map[string]interface{}{
		"action": "join", "name": "B", "avatar": "🦊", "roomCode": "1234",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	room = roomFrom(t, out["room"])
	require.Len(t, room.Players, 2)

	// Start with a client-supplied set
	resp, out = post(t, srv, "/api/battle/start", map[string]interface{}{
		"roomCode":  "1234",
		"questions": []map[string]interface{}{{"q": "2+2", "a": 4}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	room = roomFrom(t, out["room"])
	assert.Equal(t, model.RoomPlaying, room.Status)
	require.Len(t, room.Questions, 1)

	// Update progress
	resp, out = post(t, srv, "/api/battle/update", map[string]interface{}{
		"roomCode": "1234", "name": "A", "progress": 1, "finished": true,
		"time": 5.5, "accuracy": 100,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	room = roomFrom(t, out["room"])
	assert.True(t, room.FindPlayer("A").Finished)

	// Poll returns the bare snapshot
	resp, out = post(t, srv, "/api/battle/poll", map[string]interface{}{"roomCode": "1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, out, "players")
	assert.Equal(t, "no-store, no-cache, must-revalidate, proxy-revalidate, max-age=0",
		resp.Header.Get("Cache-Control"))
}

func TestServerGeneratesQuestionsWhenStartOmitsThem(t *testing.T) {
	srv := newTestServer(t)

	_, _ = post(t, srv, "/api/battle/join", map[string]interface{}{
		"action": "create", "name": "A", "roomCode": "5678",
		"grade": "g12", "types": []string{"add20"}, "count": 5,
	})
	resp, out := post(t, srv, "/api/battle/start", map[string]interface{}{"roomCode": "5678"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	room := roomFrom(t, out["room"])
	assert.Len(t, room.Questions, 5)
}

func TestBattleErrorMapping(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := post(t, srv, "/api/battle/poll", map[string]interface{}{"roomCode": "0000"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, _ = post(t, srv, "/api/battle/join", map[string]interface{}{
		"action": "create", "name": "A", "roomCode": "1234",
	})
	resp, _ = post(t, srv, "/api/battle/join", map[string]interface{}{
		"action": "create", "name": "B", "roomCode": "1234",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = post(t, srv, "/api/battle/join", map[string]interface{}{
		"action": "dance", "name": "A", "roomCode": "1234",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLeaveOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	_, _ = post(t, srv, "/api/battle/join", map[string]interface{}{
		"action": "create", "name": "A", "roomCode": "1234",
	})
	resp, out := post(t, srv, "/api/battle/leave", map[string]interface{}{
		"roomCode": "1234", "name": "A",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "true", string(out["deleted"]))

	resp, _ = post(t, srv, "/api/battle/poll", map[string]interface{}{"roomCode": "1234"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfileRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/result", "application/json",
		bytes.NewReader([]byte(`{"result":{}}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
