// Package settle closes out a finished match: final rankings and per-player
// coin rewards.
package settle

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"mathbattle/internal/model"
)

// RewardMultiplier is the flat participation multiplier applied to every
// battle reward.
const RewardMultiplier = 1.2

// Result is one row of the final standings.
type Result struct {
	Rank     int     `json:"rank"`
	Name     string  `json:"name"`
	Avatar   string  `json:"avatar"`
	Finished bool    `json:"finished"`
	Progress int     `json:"progress"`
	Time     float64 `json:"time"`
	Accuracy int     `json:"accuracy"`
	Coins    int     `json:"coins"`
}

// Rank orders players for the final standings: finished players by ascending
// total time (penalties included), then unfinished players by descending
// progress. The input is not modified.
func Rank(players []model.Player) []model.Player {
	ranked := make([]model.Player, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Finished && b.Finished {
			return a.Time < b.Time
		}
		if a.Finished != b.Finished {
			return a.Finished
		}
		return a.Progress > b.Progress
	})
	return ranked
}

// Reward computes the coin payout for one participant: a per-question
// participation amount plus an accuracy bonus, scaled by the participation
// multiplier.
func Reward(questionCount, accuracy int) int {
	base := questionCount + accuracy/10
	return int(math.Ceil(float64(base) * RewardMultiplier))
}

// CoinCrediter credits coins to a durable player profile. Crediting
// idempotency is the profile store's concern.
type CoinCrediter interface {
	AddCoins(ctx context.Context, name string, coins int) (int, error)
}

// Service settles finished rooms. It satisfies the engine's Settler hook.
type Service struct {
	profiles CoinCrediter
}

func NewService(profiles CoinCrediter) *Service {
	return &Service{profiles: profiles}
}

// Rankings computes the final standings with rewards for a finished room.
func (s *Service) Rankings(room *model.Room) []Result {
	ranked := Rank(room.Players)
	results := make([]Result, len(ranked))
	for i, p := range ranked {
		results[i] = Result{
			Rank:     i + 1,
			Name:     p.Name,
			Avatar:   p.Avatar,
			Finished: p.Finished,
			Progress: p.Progress,
			Time:     p.Time,
			Accuracy: p.Accuracy,
			Coins:    Reward(len(room.Questions), p.Accuracy),
		}
	}
	return results
}

// Settle credits every participant once. Failures are logged and skipped;
// settlement must never block the write that finished the match.
func (s *Service) Settle(ctx context.Context, room *model.Room) {
	for _, res := range s.Rankings(room) {
		if s.profiles != nil {
			if _, err := s.profiles.AddCoins(ctx, res.Name, res.Coins); err != nil {
				log.Warn().Err(err).Str("room", room.Code).Str("player", res.Name).Msg("coin credit failed")
				continue
			}
		}
		log.Info().Str("room", room.Code).Str("player", res.Name).
			Int("rank", res.Rank).Float64("time", res.Time).Int("coins", res.Coins).
			Msg("match settled")
	}
}
