// Package ratelimit paces sequential requests to the fund assets API.
//
// The upstream API publishes no rate limit headers. It tolerates one request
// about every second, so the collector waits a fixed interval between
// consecutive calls. The sleep function is injectable so tests can observe the
// pacing without real delays.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultInterval is the pause inserted between two API calls.
const DefaultInterval = 1 * time.Second

// Prometheus metrics for request pacing.
var (
	pacingWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holdings_pacing_waits_total",
		Help: "Total number of pauses inserted between API requests",
	})

	pacingWaitSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holdings_pacing_wait_seconds_total",
		Help: "Total time spent pausing between API requests",
	})
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Pacer inserts a fixed pause between consecutive requests.
type Pacer struct {
	interval time.Duration
	sleep    SleepFunc
	logger   zerolog.Logger
}

// NewPacer creates a pacer waiting interval between requests.
// A nil sleep uses Sleep. A non-positive interval disables pacing.
func NewPacer(interval time.Duration, sleep SleepFunc, logger zerolog.Logger) *Pacer {
	if sleep == nil {
		sleep = Sleep
	}
	return &Pacer{
		interval: interval,
		sleep:    sleep,
		logger:   logger,
	}
}

// Interval returns the configured pause.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait pauses for the configured interval.
// It returns the context error if ctx is cancelled while waiting.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}

	p.logger.Debug().Dur("interval", p.interval).Msg("Pacing before next request")

	if err := p.sleep(ctx, p.interval); err != nil {
		p.logger.Warn().Err(err).Msg("Pacing interrupted")
		return err
	}

	pacingWaitsTotal.Inc()
	pacingWaitSeconds.Add(p.interval.Seconds())
	return nil
}

// Sleep waits for d with context cancellation support.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
