package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"mathbattle/internal/store"
)

// Sweeper reclaims rooms abandoned without an explicit leave. It runs off the
// request path, keyed purely on lastActivity age.
type Sweeper struct {
	store   store.RoomStore
	maxIdle time.Duration
	now     func() time.Time
}

func NewSweeper(st store.RoomStore, maxIdle time.Duration) *Sweeper {
	return &Sweeper{store: st, maxIdle: maxIdle, now: time.Now}
}

// Run sweeps on the given interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("room sweep failed")
			} else if n > 0 {
				log.Info().Int("reclaimed", n).Msg("room sweep")
			}
		}
	}
}

// SweepOnce deletes every room idle for longer than maxIdle and returns how
// many were reclaimed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	codes, err := s.store.Codes(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-s.maxIdle).UnixMilli()
	reclaimed := 0
	for _, code := range codes {
		room, _, err := s.store.Get(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return reclaimed, err
		}
		if room.LastActivity < cutoff {
			if err := s.store.Delete(ctx, code); err != nil {
				return reclaimed, err
			}
			reclaimed++
		}
	}
	return reclaimed, nil
}
