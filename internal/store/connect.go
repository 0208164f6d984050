package store

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RetryConfig controls how OpenWithRetry waits for a database to accept
// connections.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt. It doubles after
	// each failure up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig waits up to roughly 15s for Postgres to come up.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     8 * time.Second,
	}
}

var openFn = Open

// OpenWithRetry calls Open until it succeeds, the attempts run out or ctx is
// done. SQLite and unknown drivers are attempted once.
func OpenWithRetry(ctx context.Context, driver, dsn string, poolCfg *PoolConfig, cfg RetryConfig) (Store, error) {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if !isPostgres(driver) {
		cfg.MaxAttempts = 1
	}

	delay := cfg.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		st, err := openFn(ctx, driver, dsn, poolCfg)
		if err == nil {
			return st, nil
		}
		lastErr = err
		if attempt == cfg.MaxAttempts || ctx.Err() != nil {
			break
		}

		zap.L().Warn("store: connect failed, retrying",
			zap.String("driver", driver),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, eris.Wrap(lastErr, "store: connect cancelled")
		case <-timer.C:
		}
		delay = min(delay*2, cfg.MaxBackoff)
	}
	return nil, eris.Wrapf(lastErr, "store: connect after %d attempts", cfg.MaxAttempts)
}

func isPostgres(driver string) bool {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pg":
		return true
	}
	return false
}
