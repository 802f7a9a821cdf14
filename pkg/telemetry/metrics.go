package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricPosition        = "autotrader_position"
	MetricCommittedVolume = "autotrader_committed_volume"
	MetricRestingOrders   = "autotrader_resting_orders"
)

// MetricsHolder holds the observable gauges driven by engine state. Counters
// live with the components that increment them; gauges are centralized here
// because observation happens on the exporter's schedule.
type MetricsHolder struct {
	Position        metric.Int64ObservableGauge
	CommittedVolume metric.Int64ObservableGauge
	RestingOrders   metric.Int64ObservableGauge

	mu           sync.RWMutex
	position     int64
	committedMap map[string]int64
	restingMap   map[string]int64
}

var (
	globalMetrics *MetricsHolder
	initOnce      sync.Once
)

// GetGlobalMetrics returns the singleton metrics holder. Instruments are nil
// until InitMetrics runs; the setters work regardless so tests never need a
// meter.
func GetGlobalMetrics() *MetricsHolder {
	initOnce.Do(func() {
		globalMetrics = &MetricsHolder{
			committedMap: make(map[string]int64),
			restingMap:   make(map[string]int64),
		}
	})
	return globalMetrics
}

// InitMetrics registers the observable instruments on the meter.
func (m *MetricsHolder) InitMetrics(meter metric.Meter) error {
	var err error

	m.Position, err = meter.Int64ObservableGauge(MetricPosition,
		metric.WithDescription("Confirmed net inventory in lots"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			obs.Observe(m.position)
			return nil
		}))
	if err != nil {
		return err
	}

	m.CommittedVolume, err = meter.Int64ObservableGauge(MetricCommittedVolume,
		metric.WithDescription("Volume committed by resting orders, per side"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for side, v := range m.committedMap {
				obs.Observe(v, metric.WithAttributes(attribute.String("side", side)))
			}
			return nil
		}))
	if err != nil {
		return err
	}

	m.RestingOrders, err = meter.Int64ObservableGauge(MetricRestingOrders,
		metric.WithDescription("Resting order count per side"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for side, v := range m.restingMap {
				obs.Observe(v, metric.WithAttributes(attribute.String("side", side)))
			}
			return nil
		}))
	return err
}

// SetPosition records the confirmed position for observation.
func (m *MetricsHolder) SetPosition(v int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = v
}

// SetCommitted records a committed-volume value for one side.
func (m *MetricsHolder) SetCommitted(side string, v int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committedMap[side] = v
}

// SetResting records a resting-order count for one side.
func (m *MetricsHolder) SetResting(side string, v int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restingMap[side] = v
}
