// Package retry wraps avast/retry-go into the bounded fixed-delay policy
// used for every external connection this service makes.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	retrygo "github.com/avast/retry-go"
)

// Policy retries an operation a fixed number of times with a fixed delay
// between attempts. There is deliberately no infinite-retry mode: exhausting
// the policy returns the last error to the caller.
type Policy struct {
	Attempts uint
	Delay    time.Duration
}

// DefaultPolicy matches the connection defaults: 5 attempts, 5s apart.
var DefaultPolicy = Policy{Attempts: 5, Delay: 5 * time.Second}

// Do runs fn under the policy. Each failed attempt is logged with its
// ordinal. The returned error is the last attempt's error, wrapped with the
// target name.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, target string, fn func() error) error {
	err := retrygo.Do(
		fn,
		retrygo.Context(ctx),
		retrygo.Attempts(p.Attempts),
		retrygo.Delay(p.Delay),
		retrygo.DelayType(retrygo.FixedDelay),
		retrygo.LastErrorOnly(true),
		retrygo.OnRetry(func(n uint, err error) {
			logger.Error("connection attempt failed",
				"target", target,
				"attempt", n+1,
				"max_attempts", p.Attempts,
				"error", err,
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("connect %s: %w", target, err)
	}
	logger.Info("connection established", "target", target)
	return nil
}
