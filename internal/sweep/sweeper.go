// Package sweep evicts abandoned conversation sessions. A session that is
// never completed would otherwise sit on durable storage forever; the
// sweeper bounds that growth with age-based eviction, without changing the
// per-turn load/save contract.
package sweep

import (
	"context"
	"log/slog"
	"time"
)

// SessionEvicter is the slice of the session store the sweeper needs.
type SessionEvicter interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// Sweeper periodically deletes sessions older than maxAge.
type Sweeper struct {
	sessions SessionEvicter
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSweeper creates a Sweeper. maxAge defaults to 24h and interval to
// 10m when non-positive.
func NewSweeper(sessions SessionEvicter, maxAge, interval time.Duration) *Sweeper {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Sweeper{
		sessions: sessions,
		maxAge:   maxAge,
		interval: interval,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(); err != nil {
				s.logger.Error("session sweep failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single eviction pass and returns how many sessions
// were removed.
func (s *Sweeper) RunOnce() (int64, error) {
	cutoff := s.now().Add(-s.maxAge)
	n, err := s.sessions.DeleteOlderThan(cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("evicted abandoned sessions", "count", n, "max_age", s.maxAge)
	}
	return n, nil
}
