package http

import (
	"context"
	"errors"
	"time"

	"github.com/opstrack/opstrack/internal/kernel/t_op"
)

// Echo returns a task that waits for delay and then resolves payload, or
// fails with fail when it is set.
func Echo(delay time.Duration, fail string, payload any) t_op.Task {
	return func(ctx context.Context) (any, error) {
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()

			select {
			case <-timer.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if fail != "" {
			return nil, errors.New(fail)
		}

		return payload, nil
	}
}
