// Package scheduler runs the timer-driven jobs of the service. The
// flush scheduler is the write-behind half of the persistence design:
// the working copy is flushed to the local snapshot store on a fixed
// interval and once more on shutdown.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stationops/backend/internal/infrastructure/localstore"
	"github.com/stationops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultFlushInterval is the recurring snapshot cadence
const DefaultFlushInterval = 30 * time.Second

// FlushScheduler drives periodic and shutdown snapshots. Both triggers
// serialize the identical set of collections; the snapshot contract
// lives in the state store, not here.
type FlushScheduler struct {
	store    *localstore.Store
	source   localstore.SnapshotSource
	interval time.Duration
	logger   *zap.Logger
	metrics  *telemetry.BusinessMetrics

	cancelFn context.CancelFunc
	doneCh   chan struct{}
	stopOnce sync.Once
	stopErr  error
	started  bool
	mu       sync.Mutex
}

// NewFlushScheduler creates a flush scheduler
func NewFlushScheduler(store *localstore.Store, source localstore.SnapshotSource, interval time.Duration, logger *zap.Logger) *FlushScheduler {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlushScheduler{
		store:    store,
		source:   source,
		interval: interval,
		logger:   logger,
		doneCh:   make(chan struct{}),
	}
}

// SetBusinessMetrics sets the business metrics collector
func (f *FlushScheduler) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	f.metrics = bm
}

// Start begins the recurring flush loop
func (f *FlushScheduler) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return
	}
	f.started = true

	runCtx, cancel := context.WithCancel(ctx)
	f.cancelFn = cancel

	go func() {
		defer close(f.doneCh)
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				f.Flush(runCtx)
			}
		}
	}()

	f.logger.Info("Flush scheduler started", zap.Duration("interval", f.interval))
}

// Flush writes one snapshot now and reports success
func (f *FlushScheduler) Flush(ctx context.Context) bool {
	ok := f.store.SaveSnapshot(ctx, f.source)
	if f.metrics != nil {
		f.metrics.RecordFlush(ctx, ok)
	}
	if !ok {
		f.logger.Warn("Snapshot flush failed, keeping last-known-good state")
	}
	return ok
}

// Stop cancels the loop and runs one final best-effort flush. A failed
// final flush is returned as an error so the caller can surface a
// user-facing warning before the process exits. Stop is idempotent.
func (f *FlushScheduler) Stop(ctx context.Context) error {
	f.stopOnce.Do(func() {
		if f.cancelFn != nil {
			f.cancelFn()
			<-f.doneCh
		}
		if !f.Flush(ctx) {
			f.stopErr = fmt.Errorf("final snapshot flush failed, recent changes may be lost")
		}
	})
	return f.stopErr
}
