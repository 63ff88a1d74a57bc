package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/store"
)

// HistoryPruner periodically deletes history records older than a
// configurable retention period. It runs as a background goroutine and is
// stopped via its context or the Stop method.
//
// A retention of 0 disables pruning entirely.
type HistoryPruner struct {
	store     store.HistoryStore
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// PrunerConfig holds the parameters for NewHistoryPruner.
type PrunerConfig struct {
	// RetentionDays is how many days of history to keep. 0 keeps everything.
	RetentionDays int

	// Interval is how often the pruner runs. Defaults to 6h.
	Interval time.Duration
}

func NewHistoryPruner(s store.HistoryStore, cfg PrunerConfig, logger *zap.Logger) *HistoryPruner {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &HistoryPruner{
		store:     s,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger.Named("history_pruner"),
		now:       func() time.Time { return time.Now().UTC() },
		done:      make(chan struct{}),
	}
}

// Start prunes once immediately, then on every interval, until ctx is
// cancelled or Stop is called.
func (p *HistoryPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Info("history pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)

	p.logger.Info("history pruner started",
		zap.Duration("retention", p.retention),
		zap.Duration("interval", p.interval))
}

// Stop signals the pruner to exit and waits for it to finish. Safe to call
// more than once.
func (p *HistoryPruner) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
	<-p.done
}

func (p *HistoryPruner) loop(ctx context.Context) {
	defer close(p.done)

	p.Prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune deletes everything older than the retention period once.
func (p *HistoryPruner) Prune(ctx context.Context) int64 {
	cutoff := p.now().Add(-p.retention)
	deleted, err := p.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("history prune failed", zap.Error(err))
		return 0
	}
	if deleted > 0 {
		p.logger.Info("history pruned",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
	return deleted
}
