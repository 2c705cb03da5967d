// Package retention purges old log rows.  Sweeper.Run deletes everything
// older than the configured horizon; Start repeats it on a ticker until the
// context is cancelled.
//
// Overlapping runs (the ticker, the CLI, an admin request) collapse into
// one in-flight delete through singleflight, and every caller sees that
// delete's result.  Each sweep is logged and updates Prometheus counters.
package retention

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/maillog/internal/metrics"
)

// Defaults used when the config leaves them unset.
const (
	DefaultDays     = 30
	DefaultInterval = 24 * time.Hour
)

// Purger is the store call the sweeper makes.
type Purger interface {
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// Sweeper is safe for concurrent use.
type Sweeper struct {
	store    Purger
	days     int
	interval time.Duration
	log      *zap.SugaredLogger
	sfg      singleflight.Group
}

// New returns a Sweeper keeping days of history.  days == 0 is valid for
// Run (it purges everything older than now) but disables Start.
// Non-positive interval falls back to DefaultInterval.
func New(store Purger, days int, interval time.Duration, log *zap.SugaredLogger) *Sweeper {
	if days < 0 {
		days = DefaultDays
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = zap.S()
	}
	return &Sweeper{store: store, days: days, interval: interval, log: log}
}

// Days reports the retention horizon.
func (s *Sweeper) Days() int { return s.days }

// Run performs one sweep and returns the number of rows removed.
func (s *Sweeper) Run(ctx context.Context) (int64, error) {
	v, err, shared := s.sfg.Do("sweep", func() (any, error) {
		start := time.Now()
		n, err := s.store.DeleteOlderThan(ctx, s.days)
		if err != nil {
			metrics.SweepErrorsTotal.Inc()
			s.log.Errorw("retention sweep failed", "days", s.days, "err", err)
			return int64(0), err
		}
		metrics.SweepDeletedTotal.Add(float64(n))
		s.log.Infow("retention sweep done",
			"days", s.days,
			"removed", n,
			"took", time.Since(start).Truncate(time.Millisecond),
		)
		return n, nil
	})
	if shared {
		s.log.Debugw("retention sweep joined in-flight run")
	}
	return v.(int64), err
}

// Start runs a sweep immediately, then every interval, until ctx is done.
// It blocks; call it in its own goroutine.  With days == 0 it returns at
// once.
func (s *Sweeper) Start(ctx context.Context) {
	if s.days == 0 {
		s.log.Infow("retention loop disabled")
		return
	}

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		_, _ = s.Run(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
