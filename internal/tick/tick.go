// Package tick generates the once-per-second time base.
package tick

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	missedTicksCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "binary_clock_missed_ticks_total",
		Help: "count of ticks that were generated but never received by the display loop",
	})

	tickDelayMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "binary_clock_tick_delay_seconds",
		Help:    "time between the period boundary and the tick being received",
		Buckets: prometheus.ExponentialBuckets(1e-6, 10, 7),
	})
)

// Tick sends the current time to ch each time a period boundary passes.
// A listener that does not take the tick within half a period loses it; the
// tick is skipped and counted as missed. Cancelling the context causes this
// to return immediately.
func Tick(ctx context.Context, period time.Duration, ch chan<- time.Time) error {
	if period <= 0 {
		return fmt.Errorf("tick period must be positive, got %v", period)
	}

	for {
		next := time.Now().Add(period).Truncate(period)

		// Wait until the next boundary.
		select {
		case <-time.After(time.Until(next)):
		case <-ctx.Done():
			return fmt.Errorf("waiting for next tick: %w", ctx.Err())
		}

		select {
		case <-time.After(period / 2):
			missedTicksCounter.Inc()
		case <-ctx.Done():
			return fmt.Errorf("waiting to send tick: %w", ctx.Err())
		case ch <- next:
			tickDelayMetric.Observe(time.Since(next).Seconds())
		}
	}
}
