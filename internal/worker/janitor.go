package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// KeyPruner deletes idempotency keys created before a cutoff.
type KeyPruner interface {
	PruneIdempotencyKeys(ctx context.Context, before time.Time) (int64, error)
}

// Janitor periodically drops idempotency keys older than ttl.
type Janitor struct {
	store    KeyPruner
	logger   *zap.Logger
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

func NewJanitor(store KeyPruner, logger *zap.Logger, interval, ttl time.Duration) *Janitor {
	return &Janitor{
		store:    store,
		logger:   logger,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Start launches the sweep loop. A non-positive interval disables it.
func (j *Janitor) Start(ctx context.Context) {
	if j.interval <= 0 {
		j.logger.Warn("Idempotency key janitor disabled", zap.Duration("interval", j.interval))
		return
	}

	j.logger.Info("Starting idempotency key janitor",
		zap.Duration("interval", j.interval),
		zap.Duration("ttl", j.ttl),
	)

	j.wg.Add(1)
	go j.run(ctx)
}

// Stop waits for an in-flight sweep to finish. Safe to call more than once.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		j.logger.Info("Stopping idempotency key janitor...")
		close(j.stop)
	})
	j.wg.Wait()
}

func (j *Janitor) run(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.sweep(ctx); err != nil {
				j.logger.Error("janitor sweep failed", zap.Error(err))
			}
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.ttl)
	n, err := j.store.PruneIdempotencyKeys(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		j.logger.Info("Pruned idempotency keys", zap.Int64("count", n), zap.Time("before", cutoff))
	}
	return n, nil
}
