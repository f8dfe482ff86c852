package service

import (
	"context"
	"log"
	"time"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

// TokenSweeper periodically deletes token rows whose expiry passed more than
// the retention period ago.  Housekeeping only: an expired token is already
// permanently invalid, the sweep just reclaims the rows.  It runs as a
// background goroutine and is safe to stop via its context or Stop.
//
// A retention of 0 disables sweeping entirely.
type TokenSweeper struct {
	store     store.TokenStore
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// SweeperConfig holds the parameters for NewTokenSweeper.
type SweeperConfig struct {
	// RetentionDays is how long expired tokens are kept before deletion.
	// 0 means keep everything (sweeper will not start).
	RetentionDays int

	// IntervalHours is how often the sweeper runs.  Defaults to 6.
	IntervalHours int
}

// NewTokenSweeper creates a sweeper but does not start it.
// Call Start to begin the background loop.
func NewTokenSweeper(s store.TokenStore, cfg SweeperConfig, logger *log.Logger) *TokenSweeper {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &TokenSweeper{
		store:     s,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the background sweep loop.  It runs an immediate sweep on
// startup, then repeats on the configured interval.  The loop exits when
// ctx is cancelled or Stop is called.
func (s *TokenSweeper) Start(ctx context.Context) {
	if s.retention <= 0 {
		s.logger.Printf("token sweeper disabled (retention=0)")
		close(s.done)
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)

	go s.loop(ctx)

	s.logger.Printf("token sweeper started (retention=%dd, interval=%dh)",
		int(s.retention.Hours()/24), int(s.interval.Hours()))
}

// Stop signals the sweeper to exit and waits for it to finish.
func (s *TokenSweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *TokenSweeper) loop(ctx context.Context) {
	defer close(s.done)

	// Run immediately on startup to clean up any backlog.
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *TokenSweeper) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.retention)
	deleted, err := s.store.PurgeExpiredBefore(ctx, cutoff)
	if err != nil {
		s.logger.Printf("token sweep error: %v", err)
		return
	}
	if deleted > 0 {
		s.logger.Printf("token sweep: deleted %d rows expired before %s",
			deleted, cutoff.Format(time.RFC3339))
	}
}
