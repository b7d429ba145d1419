package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"mathbattle/internal/model"
)

const leaderboardKey = "leaderboard"

// LeaderboardCache handles Redis ZSET operations for the global exp ranking.
type LeaderboardCache interface {
	UpsertEntry(ctx context.Context, name string, exp, level int, avatar string) error
	SetAvatar(ctx context.Context, name, avatar string) error
	GetTop(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{client: client}
}

func (c *leaderboardCache) metaKey(name string) string {
	return fmt.Sprintf("leaderboard:meta:%s", name)
}

func (c *leaderboardCache) UpsertEntry(ctx context.Context, name string, exp, level int, avatar string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(exp), Member: name})
		pipe.HSet(ctx, c.metaKey(name), "level", level, "avatar", avatar)
		return nil
	})
	return err
}

func (c *leaderboardCache) SetAvatar(ctx context.Context, name, avatar string) error {
	return c.client.HSet(ctx, c.metaKey(name), "avatar", avatar).Err()
}

func (c *leaderboardCache) GetTop(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return []model.LeaderboardEntry{}, nil
	}

	// One round trip for all meta hashes instead of one per entry.
	names := make([]string, len(results))
	metaCmds := make([]*redis.MapStringStringCmd, len(results))
	_, err = c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, z := range results {
			names[i], _ = z.Member.(string)
			metaCmds[i] = pipe.HGetAll(ctx, c.metaKey(names[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(results))
	for i, z := range results {
		entry := model.LeaderboardEntry{Name: names[i], Exp: int(z.Score)}
		meta := metaCmds[i].Val()
		if lvl, err := strconv.Atoi(meta["level"]); err == nil {
			entry.Level = lvl
		}
		entry.Avatar = meta["avatar"]
		entries = append(entries, entry)
	}
	return entries, nil
}
