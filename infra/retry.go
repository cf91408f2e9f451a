package infra

import (
	"context"
	"time"
)

// withRetry runs op up to attempts times, sleeping delay between
// consecutive attempts. It returns nil on the first success, the last
// error once attempts are exhausted, or the context error if the context
// is cancelled between attempts.
func withRetry(ctx context.Context, attempts int, delay time.Duration, sleep func(time.Duration), op func() error) error {
	if sleep == nil {
		sleep = time.Sleep
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			sleep(delay)
		}
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = op(); err == nil {
			return nil
		}
	}
	return err
}
