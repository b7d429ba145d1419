package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"mathbattle/internal/cache"
	"mathbattle/internal/model"
	"mathbattle/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

const (
	defaultAvatar = "🐻"
	defaultTheme  = "default"
	dateLayout    = "2006-01-02"
)

// avatarUnlocks maps level thresholds to the avatar unlocked at that level.
var avatarUnlocks = []struct {
	Level  int
	Avatar string
}{
	{5, "🦊"},
	{10, "🦁"},
	{15, "🐉"},
}

// ProfileService owns the durable per-player record: leveling, coins,
// personal bests, the mistake book, cosmetics and the login streak.
type ProfileService struct {
	users       repository.UserRepo
	leaderboard cache.LeaderboardCache
	now         func() time.Time
}

// NewProfileService creates a new profile service
func NewProfileService(users repository.UserRepo, leaderboard cache.LeaderboardCache) *ProfileService {
	return &ProfileService{
		users:       users,
		leaderboard: leaderboard,
		now:         time.Now,
	}
}

func newProfile(name, today string) *model.UserProfile {
	return &model.UserProfile{
		Name:            name,
		Level:           1,
		PBs:             map[string]float64{},
		Mistakes:        []model.Mistake{},
		UnlockedAvatars: []string{defaultAvatar},
		CurrentAvatar:   defaultAvatar,
		UnlockedThemes:  []string{defaultTheme},
		CurrentTheme:    defaultTheme,
		Streak:          1,
		LastLogin:       today,
	}
}

// GetOrCreate loads a profile, creating it on first login and rolling the
// daily streak over when a new day has started.
func (s *ProfileService) GetOrCreate(ctx context.Context, name string) (*model.UserProfile, error) {
	user, err := s.users.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	today := s.now().Format(dateLayout)
	if user == nil {
		user = newProfile(name, today)
		if err := s.users.Upsert(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	fillDefaults(user)
	if user.LastLogin != today {
		yesterday := s.now().AddDate(0, 0, -1).Format(dateLayout)
		if user.LastLogin == yesterday {
			user.Streak++
		} else {
			user.Streak = 1
		}
		user.LastLogin = today
		if err := s.users.Upsert(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// SaveResult applies a finished run to the profile: exp, coins, level-ups and
// avatar unlocks, personal bests, and the mistake book. Battle runs carry the
// "room" config key, which skips coin crediting (settlement already paid the
// reward), PBs and leaderboard updates.
func (s *ProfileService) SaveResult(ctx context.Context, name string, result model.GameResult) (*model.SaveResultResponse, error) {
	user, err := s.users.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		user = newProfile(name, s.now().Format(dateLayout))
	}
	fillDefaults(user)

	coins := result.CoinsGained
	if result.ConfigKey == "room" {
		coins = 0
	}
	user.Exp += result.Exp
	user.Coins += coins

	oldLevel := user.Level
	user.Level = levelForExp(user.Exp)
	leveledUp := user.Level > oldLevel

	var newUnlocks []string
	for _, u := range avatarUnlocks {
		if user.Level >= u.Level && !contains(user.UnlockedAvatars, u.Avatar) {
			user.UnlockedAvatars = append(user.UnlockedAvatars, u.Avatar)
			newUnlocks = append(newUnlocks, u.Avatar)
		}
	}

	if key := result.ConfigKey; key != "" && key != "room" && result.Accuracy == 100 {
		if pb, ok := user.PBs[key]; !ok || result.Time < pb {
			user.PBs[key] = result.Time
		}
	}

	for _, m := range result.Mistakes {
		merged := false
		for i := range user.Mistakes {
			if user.Mistakes[i].Q == m.Q {
				user.Mistakes[i].Count++
				merged = true
				break
			}
		}
		if !merged {
			user.Mistakes = append(user.Mistakes, model.Mistake{Q: m.Q, A: m.CorrectAns, Count: 1})
		}
	}
	if len(result.CorrectOnes) > 0 {
		kept := user.Mistakes[:0]
		for _, m := range user.Mistakes {
			if !contains(result.CorrectOnes, m.Q) {
				kept = append(kept, m)
			}
		}
		user.Mistakes = kept
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	if result.Exp > 0 && s.leaderboard != nil {
		if err := s.leaderboard.UpsertEntry(ctx, name, user.Exp, user.Level, user.CurrentAvatar); err != nil {
			return nil, err
		}
	}

	return &model.SaveResultResponse{
		User:       user,
		LeveledUp:  leveledUp,
		OldLevel:   oldLevel,
		NewLevel:   user.Level,
		NewUnlocks: newUnlocks,
		Exp:        result.Exp,
		Coins:      coins,
	}, nil
}

// ActionPayload describes a shop purchase or an equip.
type ActionPayload struct {
	Type      string `json:"type"` // "avatar" or "theme"
	ID        string `json:"id"`
	Cost      int    `json:"cost"`
	ReqStreak int    `json:"reqStreak"`
}

// ActionResponse reports the action outcome with the updated profile.
type ActionResponse struct {
	Success bool               `json:"success"`
	Msg     string             `json:"msg"`
	User    *model.UserProfile `json:"user"`
}

// Action handles shop buys and cosmetic equips.
func (s *ProfileService) Action(ctx context.Context, name, action string, payload ActionPayload) (*ActionResponse, error) {
	user, err := s.users.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	fillDefaults(user)

	resp := &ActionResponse{User: user}
	isTheme := payload.Type == "theme"

	switch action {
	case "buy":
		unlocked := user.UnlockedAvatars
		if isTheme {
			unlocked = user.UnlockedThemes
		}
		switch {
		case payload.ReqStreak > 0 && user.Streak < payload.ReqStreak:
			resp.Msg = fmt.Sprintf("需连续登录 %d 天才能解锁！", payload.ReqStreak)
		case user.Coins >= payload.Cost && !contains(unlocked, payload.ID):
			user.Coins -= payload.Cost
			if isTheme {
				user.UnlockedThemes = append(user.UnlockedThemes, payload.ID)
			} else {
				user.UnlockedAvatars = append(user.UnlockedAvatars, payload.ID)
			}
			resp.Success = true
		default:
			resp.Msg = "金币不足或已拥有"
		}
	case "equip":
		if isTheme && contains(user.UnlockedThemes, payload.ID) {
			user.CurrentTheme = payload.ID
			resp.Success = true
		} else if !isTheme && contains(user.UnlockedAvatars, payload.ID) {
			user.CurrentAvatar = payload.ID
			resp.Success = true
		}
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	if resp.Success && action == "equip" && !isTheme && s.leaderboard != nil {
		if err := s.leaderboard.SetAvatar(ctx, name, user.CurrentAvatar); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// AddCoins credits coins directly, as battle settlement does. Returns the new
// balance.
func (s *ProfileService) AddCoins(ctx context.Context, name string, coins int) (int, error) {
	user, err := s.users.GetByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUserNotFound
	}
	user.Coins += coins
	if err := s.users.Upsert(ctx, user); err != nil {
		return 0, err
	}
	return user.Coins, nil
}

// Leaderboard returns the global top entries by exp.
func (s *ProfileService) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if s.leaderboard == nil {
		return nil, nil
	}
	return s.leaderboard.GetTop(ctx, limit)
}

func levelForExp(exp int) int {
	return int(math.Sqrt(float64(exp)/30)) + 1
}

// fillDefaults repairs records written by older clients with missing fields.
func fillDefaults(u *model.UserProfile) {
	if u.Level < 1 {
		u.Level = 1
	}
	if u.PBs == nil {
		u.PBs = map[string]float64{}
	}
	if u.Mistakes == nil {
		u.Mistakes = []model.Mistake{}
	}
	if len(u.UnlockedAvatars) == 0 {
		u.UnlockedAvatars = []string{defaultAvatar}
	}
	if u.CurrentAvatar == "" {
		u.CurrentAvatar = defaultAvatar
	}
	if len(u.UnlockedThemes) == 0 {
		u.UnlockedThemes = []string{defaultTheme}
	}
	if u.CurrentTheme == "" {
		u.CurrentTheme = defaultTheme
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
