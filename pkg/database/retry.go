package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// RetryConfig bounds the reconnect/retry loop for transient connection loss.
type RetryConfig struct {
	Attempts  int
	BaseDelay time.Duration
	Logger    *zap.Logger
}

// WithRetry runs op, retrying only connection-class failures with a capped
// doubling delay. Non-transient errors propagate immediately.
func WithRetry(ctx context.Context, cfg RetryConfig, op func(context.Context) error) error {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	delay := cfg.BaseDelay
	var err error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt == cfg.Attempts {
			break
		}
		cfg.Logger.Warn("transient database error, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}

// IsTransient reports whether err looks like a recoverable connection failure.
// Classification is by error value and pq error class, never by message text.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exceptions; 57P01-57P03: shutdown/crash/cannot-connect.
		switch {
		case pqErr.Code.Class() == "08":
			return true
		case pqErr.Code == "57P01", pqErr.Code == "57P02", pqErr.Code == "57P03":
			return true
		}
	}
	return false
}
