package database

import (
	"context"
	"time"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// ContextKeyQueryTimeout allows overriding the default timeout for read queries.
	ContextKeyQueryTimeout ContextKey = "db_query_timeout"
	// ContextKeyExecuteTimeout allows overriding the default timeout for write operations.
	ContextKeyExecuteTimeout ContextKey = "db_execute_timeout"
	// ContextKeyNoRetry disables re-running an operation after a reconnect.
	ContextKeyNoRetry ContextKey = "db_no_retry"
)

// WithoutRetry marks ctx so that a statement interrupted by a dropped
// connection is reported instead of being run a second time.
func WithoutRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKeyNoRetry, true)
}

func retryDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(ContextKeyNoRetry).(bool)
	return v
}

// WithQueryTimeout returns a context whose reads use d instead of DB_QUERY_TIMEOUT.
func WithQueryTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, ContextKeyQueryTimeout, d)
}

// WithExecuteTimeout returns a context whose writes use d instead of DB_EXECUTE_TIMEOUT.
func WithExecuteTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, ContextKeyExecuteTimeout, d)
}

// getTimeoutFromContext retrieves a timeout override from the context or
// falls back to defaultTimeout, and applies it.
func getTimeoutFromContext(ctx context.Context, defaultTimeout time.Duration, key ContextKey) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := defaultTimeout
	if v, ok := ctx.Value(key).(time.Duration); ok && v > 0 {
		timeout = v
	}
	return context.WithTimeout(ctx, timeout)
}
