// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package helper

import (
	"context"
	"time"

	"github.com/telekom/netdiag/internal/logger"
)

// RetryConfig configures how often and how fast a failed call is repeated.
type RetryConfig struct {
	// Count is the number of retries after the first attempt.
	Count int `json:"count" yaml:"count" mapstructure:"count"`
	// Delay is the initial delay, doubled on every further retry.
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
}

// Effector is the function called by [Retry].
type Effector func(context.Context) error

// Retry wraps the effector so that it is retried with exponential backoff
// until it succeeds, the retries are used up or the context is done.
func Retry(effector Effector, rc RetryConfig) Effector {
	return func(ctx context.Context) error {
		log := logger.FromContext(ctx)
		for attempt := 1; ; attempt++ {
			err := effector(ctx)
			if err == nil || attempt > rc.Count {
				return err
			}

			delay := backoff(rc.Delay, attempt)
			log.WarnContext(ctx, "Call failed, retrying", "attempt", attempt, "delay", delay, "error", err)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
}

// backoff returns the delay before the given retry attempt (1-based).
func backoff(initial time.Duration, attempt int) time.Duration {
	if attempt <= 1 {
		return initial
	}
	return initial << (attempt - 1)
}
