// Package syncbridge reconciles the local working copy with the
// remote authoritative store: one connectivity probe on startup, a
// change subscription per synced collection, and a periodic push of
// the local collections.
package syncbridge

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stationops/backend/internal/infrastructure/remote"
	"github.com/stationops/backend/internal/infrastructure/state"
	"github.com/stationops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ConflictPolicyLastWriterWins names the reconciliation policy: a
// remote change triggers an unconditional full reload of the affected
// collection, silently overwriting unsynced local edits. Call sites
// reference the constant so a stronger model (per-row versioning) can
// replace it without touching them.
const ConflictPolicyLastWriterWins = "last-writer-wins"

// DefaultProbeTimeout bounds the startup connectivity probe. A probe
// that exceeds it fails closed to degraded mode.
const DefaultProbeTimeout = 5 * time.Second

// RemoteStore is the narrow remote interface the bridge consumes
type RemoteStore interface {
	Ping(ctx context.Context) error
	FetchCollection(ctx context.Context, table string) ([]json.RawMessage, error)
	PushCollection(ctx context.Context, table string, docs []json.RawMessage) error
}

// ChangeFeed delivers remote mutation notifications
type ChangeFeed interface {
	Subscribe(ctx context.Context, tables []string, handler func(remote.ChangeEvent)) error
	Close() error
}

// Config holds bridge settings
type Config struct {
	ProbeTimeout time.Duration
	PushInterval time.Duration
}

// Status is the operator-facing bridge state
type Status struct {
	Ready          bool   `json:"ready"`
	Degraded       bool   `json:"degraded"`
	ConflictPolicy string `json:"conflict_policy"`
}

// Bridge wires the remote store, the change feed and the working copy
type Bridge struct {
	remote       RemoteStore
	feed         ChangeFeed
	state        *state.Store
	logger       *zap.Logger
	metrics      *telemetry.BusinessMetrics
	probeTimeout time.Duration
	pushInterval time.Duration

	ready    atomic.Bool
	degraded atomic.Bool

	cancelFn  context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New creates a sync bridge
func New(remoteStore RemoteStore, feed ChangeFeed, st *state.Store, cfg Config, logger *zap.Logger) *Bridge {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		remote:       remoteStore,
		feed:         feed,
		state:        st,
		logger:       logger,
		probeTimeout: cfg.ProbeTimeout,
		pushInterval: cfg.PushInterval,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (b *Bridge) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	b.metrics = bm
}

// Start probes the remote store once and, on success, pulls every
// synced collection, opens the change subscriptions and begins the
// periodic push. A failed probe is non-fatal: the bridge flags
// degraded mode and the service keeps operating on local data only.
func (b *Bridge) Start(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, b.probeTimeout)
	defer cancel()

	if err := b.remote.Ping(probeCtx); err != nil {
		b.degraded.Store(true)
		b.logger.Warn("Remote store unavailable, continuing on local data only",
			zap.Error(err))
		return nil
	}
	b.ready.Store(true)

	runCtx, cancelRun := context.WithCancel(context.Background())
	b.cancelFn = cancelRun

	tables := syncedTables()
	for _, table := range tables {
		b.reloadCollection(runCtx, table)
	}

	if err := b.feed.Subscribe(runCtx, tables, func(event remote.ChangeEvent) {
		b.logger.Debug("Remote change received",
			zap.String("table", event.Table),
			zap.String("event_kind", string(event.Kind)))
		b.reloadCollection(runCtx, event.Table)
	}); err != nil {
		// Without the change feed the bridge cannot keep the working
		// copy reconciled, so it must not push either. Degraded means
		// local data only.
		b.ready.Store(false)
		b.degraded.Store(true)
		b.logger.Warn("Failed to open change subscriptions, continuing on local data only",
			zap.Error(err))
		return nil
	}

	if b.pushInterval > 0 {
		b.wg.Add(1)
		go b.pushLoop(runCtx)
	}

	return nil
}

// reloadCollection replaces one local collection with the remote
// contents, per ConflictPolicyLastWriterWins
func (b *Bridge) reloadCollection(ctx context.Context, table string) {
	docs, err := b.remote.FetchCollection(ctx, table)
	if err != nil {
		b.logger.Warn("Failed to reload collection from remote store",
			zap.String("table", table),
			zap.Error(err))
		return
	}

	raw, err := json.Marshal(docs)
	if err != nil {
		b.logger.Error("Failed to encode remote collection",
			zap.String("table", table),
			zap.Error(err))
		return
	}
	if err := b.state.ReplaceCollection(table, raw); err != nil {
		b.logger.Warn("Failed to apply remote collection",
			zap.String("table", table),
			zap.Error(err))
		return
	}

	if b.metrics != nil {
		b.metrics.RecordSyncReload(ctx, table)
	}
	b.logger.Info("Collection reloaded from remote store",
		zap.String("table", table),
		zap.Int("records", len(docs)),
		zap.String("conflict_policy", ConflictPolicyLastWriterWins))
}

// pushLoop periodically pushes the local collections to the remote
// store until the bridge is closed
func (b *Bridge) pushLoop(ctx context.Context) {
	defer b.wg.Done()
	ticker := time.NewTicker(b.pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Push(ctx)
		}
	}
}

// Push uploads every synced collection to the remote store. Failures
// are logged and skipped; the next cycle retries from scratch.
func (b *Bridge) Push(ctx context.Context) {
	if !b.ready.Load() {
		return
	}

	collections, err := b.state.ExportCollections()
	if err != nil {
		b.logger.Error("Failed to export collections for push", zap.Error(err))
		return
	}

	for _, table := range syncedTables() {
		raw, ok := collections[table]
		if !ok {
			continue
		}
		var docs []json.RawMessage
		if err := json.Unmarshal(raw, &docs); err != nil {
			b.logger.Error("Failed to decode collection for push",
				zap.String("table", table),
				zap.Error(err))
			continue
		}
		if err := b.remote.PushCollection(ctx, table, docs); err != nil {
			b.logger.Warn("Failed to push collection to remote store",
				zap.String("table", table),
				zap.Error(err))
		}
	}
}

// Status reports the bridge state for the operator surface
func (b *Bridge) Status() Status {
	return Status{
		Ready:          b.ready.Load(),
		Degraded:       b.degraded.Load(),
		ConflictPolicy: ConflictPolicyLastWriterWins,
	}
}

// Close tears down the subscriptions and stops the push loop. It is
// idempotent: a second call does nothing and returns the first result.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		if b.cancelFn != nil {
			b.cancelFn()
		}
		b.closeErr = b.feed.Close()
		b.wg.Wait()
		b.ready.Store(false)
	})
	return b.closeErr
}

// syncedTables lists the remote tables mirrored locally, one per
// snapshot collection
func syncedTables() []string {
	collections := state.SnapshotCollections()
	tables := make([]string, 0, len(collections))
	for _, c := range collections {
		tables = append(tables, string(c))
	}
	return tables
}
