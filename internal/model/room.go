package model

import "time"

type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// MaxPlayers caps the roster size of a single room.
const MaxPlayers = 4

// TauntWindow is how long a received taunt stays visible to pollers.
const TauntWindow = 3500 * time.Millisecond

// RoomConfig is the host-selected match setup.
type RoomConfig struct {
	Grade string   `json:"grade"`
	Types []string `json:"types"`
	Count int      `json:"count"`
}

// Taunt is the single ephemeral broadcast slot on each player. A newer taunt
// overwrites whatever was pending; readers decide freshness themselves.
type Taunt struct {
	Message string `json:"message,omitempty"`
	From    string `json:"from,omitempty"`
	At      int64  `json:"at,omitempty"` // unix millis
}

// Fresh reports whether the taunt should still be displayed at the given time.
func (t Taunt) Fresh(now time.Time) bool {
	if t.Message == "" || t.At == 0 {
		return false
	}
	return now.UnixMilli()-t.At < TauntWindow.Milliseconds()
}

// Player is one roster entry, keyed by name within its room.
type Player struct {
	Name     string  `json:"name"`
	Avatar   string  `json:"avatar"`
	IsReady  bool    `json:"isReady"`
	Progress int     `json:"progress"`
	Finished bool    `json:"finished"`
	Time     float64 `json:"time"`     // elapsed seconds incl. penalties, set at finish
	Accuracy int     `json:"accuracy"` // percent correct, set at finish
	Combo    int     `json:"combo"`
	Taunt    Taunt   `json:"taunt"`
}

// Room is the shared state unit for one match, keyed by a short numeric code.
// Timestamps are unix millis so the serialized form is stable for the
// compare-and-swap writes in the store layer.
type Room struct {
	Code         string     `json:"code"`
	Host         string     `json:"host"`
	Status       RoomStatus `json:"status"`
	Config       RoomConfig `json:"config"`
	Players      []Player   `json:"players"`
	Questions    []Question `json:"questions"`
	CreatedAt    int64      `json:"createdAt"`
	StartedAt    int64      `json:"startedAt"`
	LastActivity int64      `json:"lastActivity"`
}

// FindPlayer returns a pointer into the roster, or nil if the name is absent.
func (r *Room) FindPlayer(name string) *Player {
	for i := range r.Players {
		if r.Players[i].Name == name {
			return &r.Players[i]
		}
	}
	return nil
}

// AllFinished reports whether every current player has finished. A room with
// an empty roster never counts as finished.
func (r *Room) AllFinished() bool {
	if len(r.Players) == 0 {
		return false
	}
	for i := range r.Players {
		if !r.Players[i].Finished {
			return false
		}
	}
	return true
}
