// AngelaMos | 2026
// poller.go

package status

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultPollInterval   = 2 * time.Second
	DefaultMaxPollBackoff = time.Minute
)

// Poller runs a task immediately and then on a fixed interval. After a
// failure it waits a jittered, growing delay instead, until the task
// succeeds again.
type Poller struct {
	name       string
	task       func(ctx context.Context) error
	interval   time.Duration
	maxBackoff time.Duration
	logger     *slog.Logger
}

func NewPoller(
	name string,
	interval, maxBackoff time.Duration,
	task func(ctx context.Context) error,
	logger *slog.Logger,
) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxBackoff < interval {
		maxBackoff = max(DefaultMaxPollBackoff, interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		name:       name,
		task:       task,
		interval:   interval,
		maxBackoff: maxBackoff,
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	retry := p.newBackOff()
	failures := 0

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		wait := p.interval
		if err := p.task(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			wait = retry.NextBackOff()
			p.logger.Warn("poll failed",
				"poller", p.name,
				"failures", failures,
				"retry_in", wait,
				"error", err,
			)
		} else if failures > 0 {
			p.logger.Info("poll recovered", "poller", p.name, "after_failures", failures)
			failures = 0
			retry.Reset()
		}

		timer.Reset(wait)
	}
}

func (p *Poller) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.interval
	b.MaxInterval = p.maxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
