// Package retry provides bounded retry with a fixed delay between attempts.
package retry

import (
	"context"
	"time"
)

// Do runs fn up to attempts times, waiting delay between attempts.
// The last error is returned once the budget is exhausted. A cancelled
// context stops the loop early.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error

	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return err
}
