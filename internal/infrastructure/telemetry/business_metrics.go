package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when the meter is nil.
var ErrMeterNil = errors.New("meter cannot be nil")

// Counter is a helper for creating and recording counter metrics.
// Counters represent monotonically increasing values.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new Counter metric.
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(
		name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{counter: c}, nil
}

// Add increments the counter by the given value with optional attributes.
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Inc increments the counter by 1 with optional attributes.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Common attribute keys for consistency across metrics.
var (
	AttrOrderStatus = attribute.Key("order_status")
	AttrFromStatus  = attribute.Key("from_status")
	AttrToStatus    = attribute.Key("to_status")
	AttrTable       = attribute.Key("table")
	AttrResult      = attribute.Key("result")
)

// BusinessMetrics tracks the operational counters of the order
// lifecycle: creations, transitions, deletions, snapshot flushes and
// sync reloads.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	orderCreatedTotal      *Counter
	orderDeletedTotal      *Counter
	statusTransitionsTotal *Counter
	flushTotal             *Counter
	syncReloadsTotal       *Counter
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:  meter,
		logger: logger,
	}

	var err error

	bm.orderCreatedTotal, err = NewCounter(
		meter,
		"station_order_created_total",
		"Total number of purchase orders created",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderDeletedTotal, err = NewCounter(
		meter,
		"station_order_deleted_total",
		"Total number of purchase orders deleted",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.statusTransitionsTotal, err = NewCounter(
		meter,
		"station_status_transitions_total",
		"Total number of order status transitions",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	bm.flushTotal, err = NewCounter(
		meter,
		"station_snapshot_flush_total",
		"Total number of local snapshot flushes",
		"{flushes}",
	)
	if err != nil {
		return nil, err
	}

	bm.syncReloadsTotal, err = NewCounter(
		meter,
		"station_sync_reloads_total",
		"Total number of collection reloads from the remote store",
		"{reloads}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordOrderCreated records an order creation event.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, status string) {
	bm.orderCreatedTotal.Inc(ctx, AttrOrderStatus.String(status))
}

// RecordOrderDeleted records an order deletion event.
func (bm *BusinessMetrics) RecordOrderDeleted(ctx context.Context) {
	bm.orderDeletedTotal.Inc(ctx)
}

// RecordStatusTransition records one status transition.
func (bm *BusinessMetrics) RecordStatusTransition(ctx context.Context, from, to string) {
	bm.statusTransitionsTotal.Inc(ctx,
		AttrFromStatus.String(from),
		AttrToStatus.String(to),
	)
}

// RecordFlush records one snapshot flush and its outcome.
func (bm *BusinessMetrics) RecordFlush(ctx context.Context, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	bm.flushTotal.Inc(ctx, AttrResult.String(result))
}

// RecordSyncReload records one collection reload from the remote store.
func (bm *BusinessMetrics) RecordSyncReload(ctx context.Context, table string) {
	bm.syncReloadsTotal.Inc(ctx, AttrTable.String(table))
}
