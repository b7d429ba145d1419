package handler

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"mathbattle/internal/engine"
	"mathbattle/internal/model"
	"mathbattle/internal/question"
)

// BattleHandler exposes the room synchronization engine over JSON.
type BattleHandler struct {
	engine *engine.Engine
}

// NewBattleHandler creates a new battle handler
func NewBattleHandler(eng *engine.Engine) *BattleHandler {
	return &BattleHandler{engine: eng}
}

// JoinRequest covers both create and join, mirroring the single lobby form
// clients submit.
type JoinRequest struct {
	Action   string   `json:"action"` // "create" or "join"
	Name     string   `json:"name"`
	Avatar   string   `json:"avatar"`
	RoomCode string   `json:"roomCode"`
	Grade    string   `json:"grade"`
	Types    []string `json:"types"`
	Count    int      `json:"count"`
}

// Join handles POST /api/battle/join
func (h *BattleHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "需要提供名称")
		return
	}

	switch req.Action {
	case "create":
		code := req.RoomCode
		if code == "" {
			var err error
			if code, err = h.engine.NewRoomCode(r.Context()); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		cfg := model.RoomConfig{Grade: req.Grade, Types: req.Types, Count: req.Count}
		room, err := h.engine.Create(r.Context(), code, req.Name, req.Avatar, cfg)
		if err != nil {
			writeBattleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]*model.Room{"room": room})
	case "join":
		room, err := h.engine.Join(r.Context(), req.RoomCode, req.Name, req.Avatar)
		if err != nil {
			writeBattleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]*model.Room{"room": room})
	default:
		writeError(w, http.StatusBadRequest, "无效的操作")
	}
}

// Ready handles POST /api/battle/ready
func (h *BattleHandler) Ready(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomCode string `json:"roomCode"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	room, err := h.engine.Ready(r.Context(), req.RoomCode, req.Name)
	if err != nil {
		writeBattleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Room{"room": room})
}

// StartRequest optionally carries a client-generated question set; with none
// the set is generated here from the room config.
type StartRequest struct {
	RoomCode  string           `json:"roomCode"`
	Questions []model.Question `json:"questions"`
}

// Start handles POST /api/battle/start
func (h *BattleHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	questions := req.Questions
	if len(questions) == 0 {
		room, err := h.engine.Poll(r.Context(), req.RoomCode)
		if err != nil {
			writeBattleError(w, err)
			return
		}
		cfg := room.Config
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		questions = question.Generate(rng, cfg.Grade, cfg.Types, cfg.Count)
	}

	room, err := h.engine.Start(r.Context(), req.RoomCode, questions)
	if err != nil {
		writeBattleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Room{"room": room})
}

// UpdateRequest is one player's progress report.
type UpdateRequest struct {
	RoomCode  string           `json:"roomCode"`
	Name      string           `json:"name"`
	Progress  int              `json:"progress"`
	Finished  bool             `json:"finished"`
	Time      float64          `json:"time"`
	Accuracy  int              `json:"accuracy"`
	Combo     int              `json:"combo"`
	Taunt     string           `json:"taunt"`
	Status    model.RoomStatus `json:"status"`
	Questions []model.Question `json:"questions"`
}

// Update handles POST /api/battle/update
func (h *BattleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	room, err := h.engine.Update(r.Context(), req.RoomCode, engine.ProgressUpdate{
		Name:       req.Name,
		Progress:   req.Progress,
		Finished:   req.Finished,
		Time:       req.Time,
		Accuracy:   req.Accuracy,
		Combo:      req.Combo,
		Taunt:      req.Taunt,
		StatusHint: req.Status,
		Questions:  req.Questions,
	})
	if err != nil {
		writeBattleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Room{"room": room})
}

// Poll handles POST /api/battle/poll. Returns the bare room snapshot; clients
// re-render from it wholesale.
func (h *BattleHandler) Poll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomCode string `json:"roomCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	room, err := h.engine.Poll(r.Context(), req.RoomCode)
	if err != nil {
		writeBattleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// Reset handles POST /api/battle/reset
func (h *BattleHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomCode string `json:"roomCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	room, err := h.engine.Reset(r.Context(), req.RoomCode)
	if err != nil {
		writeBattleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Room{"room": room})
}

// Config handles POST /api/battle/config
func (h *BattleHandler) Config(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomCode string   `json:"roomCode"`
		Grade    string   `json:"grade"`
		Types    []string `json:"types"`
		Count    int      `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cfg := model.RoomConfig{Grade: req.Grade, Types: req.Types, Count: req.Count}
	room, err := h.engine.Configure(r.Context(), req.RoomCode, cfg)
	if err != nil {
		writeBattleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Room{"room": room})
}

// Leave handles POST /api/battle/leave
func (h *BattleHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomCode string `json:"roomCode"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	room, deleted, err := h.engine.Leave(r.Context(), req.RoomCode, req.Name)
	if err != nil {
		writeBattleError(w, err)
		return
	}
	if deleted {
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Room{"room": room})
}

// Topics handles GET /api/battle/topics
func (h *BattleHandler) Topics(w http.ResponseWriter, r *http.Request) {
	grade := r.URL.Query().Get("grade")
	if grade == "" {
		grade = "g34"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"topics": question.Topics(grade)})
}

// writeBattleError maps engine errors onto the wire taxonomy. Retry
// exhaustion looks like not-found on purpose: the caller's remedy is the same
// either way, re-fetch and try again.
func writeBattleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrRoomNotFound), errors.Is(err, engine.ErrRetryExhausted):
		writeError(w, http.StatusNotFound, "房间不存在或已解散！")
	case errors.Is(err, engine.ErrCodeTaken):
		writeError(w, http.StatusConflict, "房间号生成冲突，请重新点击创建")
	case errors.Is(err, engine.ErrRoomFull):
		writeError(w, http.StatusConflict, "房间已满(最多4人)")
	case errors.Is(err, engine.ErrRoomInProgress):
		writeError(w, http.StatusConflict, "房间已在游戏中或已结束")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
