// internal/utils/metrics/collector.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bondcurve"

// Collector holds the engine's Prometheus metrics. Each collector owns its
// vectors so several engines (and tests) can register against separate
// registries.
type Collector struct {
	trades              *prometheus.CounterVec
	solVolume           *prometheus.CounterVec
	tokenVolume         *prometheus.CounterVec
	rejections          *prometheus.CounterVec
	invariantViolations *prometheus.CounterVec
	curves              *prometheus.GaugeVec
	claimed             *prometheus.CounterVec
	persistDuration     *prometheus.HistogramVec
}

// NewCollector creates the metrics and registers them with reg. A nil reg
// leaves them unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_total",
				Help:      "Committed trades",
			},
			[]string{"side", "strategy"},
		),
		solVolume: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sol_volume_lamports_total",
				Help:      "Lamports moved by committed trades, fees excluded",
			},
			[]string{"side"},
		),
		tokenVolume: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_volume_total",
				Help:      "Base units moved by committed trades",
			},
			[]string{"side"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejections_total",
				Help:      "Operations rejected before commit",
			},
			[]string{"op", "reason"},
		),
		invariantViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invariant_violations_total",
				Help:      "Post-operation custody checks that failed",
			},
			[]string{"check"},
		),
		curves: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "curves",
				Help:      "Curves known to the engine by status",
			},
			[]string{"status"},
		),
		claimed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vested_claimed_total",
				Help:      "Vested base units released to recipients",
			},
			[]string{"distributor"},
		),
		persistDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "persist_duration_seconds",
				Help:      "Time spent writing snapshots to the curve store",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"op"},
		),
	}

	if reg == nil {
		return c, nil
	}
	for _, m := range c.all() {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) all() []prometheus.Collector {
	return []prometheus.Collector{
		c.trades, c.solVolume, c.tokenVolume, c.rejections,
		c.invariantViolations, c.curves, c.claimed, c.persistDuration,
	}
}

// Reset clears every metric.
func (c *Collector) Reset() {
	for _, m := range c.all() {
		switch v := m.(type) {
		case *prometheus.CounterVec:
			v.Reset()
		case *prometheus.GaugeVec:
			v.Reset()
		case *prometheus.HistogramVec:
			v.Reset()
		}
	}
}
