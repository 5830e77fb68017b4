package services

import (
	"context"
	"time"
)

const defaultTimeout = 5 * time.Second

// operationContext detaches ctx from the caller's cancellation and bounds it
// with timeout. A started unit of work runs to commit or rollback even when
// the client goes away, but never longer than timeout.
func operationContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// invalidationContext is used for best-effort cache deletes after a commit.
func invalidationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Second)
}
