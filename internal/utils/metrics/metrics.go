// internal/utils/metrics/metrics.go
package metrics

import (
	"time"
)

// RecordTrade counts one committed trade.
func (c *Collector) RecordTrade(side, strategy string, lamports, tokens uint64) {
	c.trades.WithLabelValues(side, strategy).Inc()
	c.solVolume.WithLabelValues(side).Add(float64(lamports))
	c.tokenVolume.WithLabelValues(side).Add(float64(tokens))
}

// RecordRejection counts an operation refused with reason.
func (c *Collector) RecordRejection(op, reason string) {
	c.rejections.WithLabelValues(op, reason).Inc()
}

// RecordInvariantViolation counts a failed custody check.
func (c *Collector) RecordInvariantViolation(check string) {
	c.invariantViolations.WithLabelValues(check).Inc()
}

// MoveCurve shifts one curve between status gauges. An empty from means the
// curve is new.
func (c *Collector) MoveCurve(from, to string) {
	if from != "" {
		c.curves.WithLabelValues(from).Dec()
	}
	c.curves.WithLabelValues(to).Inc()
}

// RecordClaim counts released vested tokens.
func (c *Collector) RecordClaim(distributor string, amount uint64) {
	c.claimed.WithLabelValues(distributor).Add(float64(amount))
}

// ObservePersist records how long a store write took.
func (c *Collector) ObservePersist(op string, d time.Duration) {
	c.persistDuration.WithLabelValues(op).Observe(d.Seconds())
}
