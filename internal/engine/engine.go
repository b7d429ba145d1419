package engine

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"mathbattle/internal/model"
	"mathbattle/internal/store"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrCodeTaken      = errors.New("room code already in use")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomInProgress = errors.New("room already in progress")
	// ErrRetryExhausted means the conditional write kept losing to other
	// writers. No change was made; the caller can simply try again.
	ErrRetryExhausted = errors.New("room update contention not resolved")
)

// DefaultMaxAttempts bounds the optimistic-write retry loop.
const DefaultMaxAttempts = 5

// Settler is notified exactly once per match, by whichever write committed
// the transition into the finished status.
type Settler interface {
	Settle(ctx context.Context, room *model.Room)
}

// Engine owns the room state machine. Every mutation that can race against a
// concurrent writer goes through the mutate helper; create, start and leave
// use unconditional writes because they are single-writer by construction
// (only the creator creates, only the host starts, only the leaving player
// removes itself).
type Engine struct {
	store    store.RoomStore
	settler  Settler
	attempts int
	now      func() time.Time
}

// New creates an engine on the given store.
func New(st store.RoomStore) *Engine {
	return &Engine{
		store:    st,
		attempts: DefaultMaxAttempts,
		now:      time.Now,
	}
}

// SetSettler sets the settlement hook invoked when a match finishes.
func (e *Engine) SetSettler(s Settler) {
	e.settler = s
}

// ProgressUpdate is one player's incremental report. StatusHint and Questions
// are the convergence path for a client that raced ahead of its own start
// confirmation.
type ProgressUpdate struct {
	Name       string
	Progress   int
	Finished   bool
	Time       float64
	Accuracy   int
	Combo      int
	Taunt      string
	StatusHint model.RoomStatus
	Questions  []model.Question
}

// mutate runs the optimistic-concurrency protocol: read, apply fn to a fresh
// copy, conditionally write, retry on conflict up to the attempt bound. fn
// must be safe to re-apply to a fresh read; it sees current state only, never
// a stale snapshot.
func (e *Engine) mutate(ctx context.Context, code string, fn func(*model.Room) error) (*model.Room, error) {
	for attempt := 0; attempt < e.attempts; attempt++ {
		room, prev, err := e.store.Get(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		if err != nil {
			return nil, err
		}
		if err := fn(room); err != nil {
			return nil, err
		}
		room.LastActivity = e.now().UnixMilli()
		ok, err := e.store.CompareAndPut(ctx, code, room, prev)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		if err != nil {
			return nil, err
		}
		if ok {
			return room, nil
		}
	}
	return nil, ErrRetryExhausted
}

// Create makes a new waiting room with the creator as its ready host.
func (e *Engine) Create(ctx context.Context, code, name, avatar string, cfg model.RoomConfig) (*model.Room, error) {
	_, _, err := e.store.Get(ctx, code)
	if err == nil {
		return nil, ErrCodeTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := e.now().UnixMilli()
	room := &model.Room{
		Code:   code,
		Host:   name,
		Status: model.RoomWaiting,
		Config: normalizeConfig(cfg),
		Players: []model.Player{
			{Name: name, Avatar: avatar, IsReady: true},
		},
		Questions:    []model.Question{},
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := e.store.Put(ctx, code, room); err != nil {
		return nil, err
	}
	return room, nil
}

// Join adds a player to a waiting room. A name already on the roster re-joins
// idempotently in any status; a new name is only accepted while waiting and
// below the player cap.
func (e *Engine) Join(ctx context.Context, code, name, avatar string) (*model.Room, error) {
	return e.mutate(ctx, code, func(r *model.Room) error {
		if r.FindPlayer(name) != nil {
			return nil
		}
		if r.Status != model.RoomWaiting {
			return ErrRoomInProgress
		}
		if len(r.Players) >= model.MaxPlayers {
			return ErrRoomFull
		}
		r.Players = append(r.Players, model.Player{Name: name, Avatar: avatar})
		return nil
	})
}

// Ready marks one player ready. Unknown names are ignored.
func (e *Engine) Ready(ctx context.Context, code, name string) (*model.Room, error) {
	return e.mutate(ctx, code, func(r *model.Room) error {
		if p := r.FindPlayer(name); p != nil {
			p.IsReady = true
		}
		return nil
	})
}

// Start moves the room to playing and installs the question set. The host is
// the only caller by application convention, so this is an unconditional
// write.
func (e *Engine) Start(ctx context.Context, code string, questions []model.Question) (*model.Room, error) {
	room, _, err := e.store.Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	now := e.now().UnixMilli()
	room.Status = model.RoomPlaying
	room.StartedAt = now
	room.Questions = questions
	room.LastActivity = now
	if err := e.store.Put(ctx, code, room); err != nil {
		return nil, err
	}
	return room, nil
}

// Update applies one player's progress report. It also carries the lazy
// convergence path: a waiting room is promoted to playing when the caller
// hints so (and questions are available), and a missing question set is
// installed from the payload. When every player has finished afterwards the
// room transitions to finished and settlement fires.
func (e *Engine) Update(ctx context.Context, code string, upd ProgressUpdate) (*model.Room, error) {
	var prevStatus model.RoomStatus
	room, err := e.mutate(ctx, code, func(r *model.Room) error {
		prevStatus = r.Status

		if upd.StatusHint == model.RoomPlaying && r.Status == model.RoomWaiting &&
			(len(r.Questions) > 0 || len(upd.Questions) > 0) {
			r.Status = model.RoomPlaying
			if r.StartedAt == 0 {
				r.StartedAt = e.now().UnixMilli()
			}
		}
		if len(upd.Questions) > 0 && len(r.Questions) == 0 && r.Status != model.RoomWaiting {
			r.Questions = upd.Questions
		}

		if p := r.FindPlayer(upd.Name); p != nil {
			// Progress never regresses within a match; a report that lost a
			// race to a newer one is clamped.
			p.Progress = max(p.Progress, upd.Progress)
			p.Finished = upd.Finished
			p.Time = upd.Time
			p.Accuracy = upd.Accuracy
			p.Combo = upd.Combo
			if upd.Taunt != "" {
				taunt := model.Taunt{Message: upd.Taunt, From: upd.Name, At: e.now().UnixMilli()}
				for i := range r.Players {
					if r.Players[i].Name != upd.Name {
						r.Players[i].Taunt = taunt
					}
				}
			}
		}

		if r.Status == model.RoomPlaying && r.AllFinished() {
			r.Status = model.RoomFinished
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.maybeSettle(ctx, prevStatus, room)
	return room, nil
}

// Reset returns a finished room to waiting for a rematch, clearing every
// transient match field. The host stays ready; everyone else must ready up
// again.
func (e *Engine) Reset(ctx context.Context, code string) (*model.Room, error) {
	return e.mutate(ctx, code, func(r *model.Room) error {
		r.Status = model.RoomWaiting
		r.Questions = []model.Question{}
		r.StartedAt = 0
		for i := range r.Players {
			p := &r.Players[i]
			p.Progress = 0
			p.Finished = false
			p.Time = 0
			p.Accuracy = 0
			p.Combo = 0
			p.Taunt = model.Taunt{}
			p.IsReady = p.Name == r.Host
		}
		return nil
	})
}

// Configure replaces the room config. Accepted in any status so the host can
// set up the rematch while the current match concludes.
func (e *Engine) Configure(ctx context.Context, code string, cfg model.RoomConfig) (*model.Room, error) {
	return e.mutate(ctx, code, func(r *model.Room) error {
		r.Config = normalizeConfig(cfg)
		return nil
	})
}

// Leave removes a player. The room is deleted outright when the roster
// empties; otherwise host privileges pass to the first remaining player and
// the match finishes if everyone left standing is done. Returns deleted=true
// when the room no longer exists.
func (e *Engine) Leave(ctx context.Context, code, name string) (*model.Room, bool, error) {
	room, _, err := e.store.Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	remaining := room.Players[:0]
	for _, p := range room.Players {
		if p.Name != name {
			remaining = append(remaining, p)
		}
	}
	room.Players = remaining

	if len(room.Players) == 0 {
		if err := e.store.Delete(ctx, code); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	if room.Host == name {
		room.Host = room.Players[0].Name
	}
	prevStatus := room.Status
	if room.Status == model.RoomPlaying && room.AllFinished() {
		room.Status = model.RoomFinished
	}
	room.LastActivity = e.now().UnixMilli()
	if err := e.store.Put(ctx, code, room); err != nil {
		return nil, false, err
	}
	e.maybeSettle(ctx, prevStatus, room)
	return room, false, nil
}

// Poll is a pure read of the current room snapshot.
func (e *Engine) Poll(ctx context.Context, code string) (*model.Room, error) {
	room, _, err := e.store.Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}

// NewRoomCode picks an unused 4-digit code. A racing create on the same
// freshly chosen code surfaces as ErrCodeTaken rather than being merged.
func (e *Engine) NewRoomCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(9000))
		if err != nil {
			return "", err
		}
		code := fmt.Sprintf("%d", n.Int64()+1000)
		_, _, err = e.store.Get(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("failed to pick an unused room code")
}

func (e *Engine) maybeSettle(ctx context.Context, prev model.RoomStatus, room *model.Room) {
	if e.settler == nil || room == nil {
		return
	}
	if prev == model.RoomFinished || room.Status != model.RoomFinished {
		return
	}
	e.settler.Settle(ctx, room)
}

func normalizeConfig(cfg model.RoomConfig) model.RoomConfig {
	if cfg.Grade == "" {
		cfg.Grade = "g34"
	}
	if cfg.Count <= 0 {
		cfg.Count = 10
	}
	if cfg.Types == nil {
		cfg.Types = []string{}
	}
	return cfg
}
