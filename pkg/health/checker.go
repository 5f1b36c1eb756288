package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/richxcame/engraving-commerce/pkg/common"
)

// Checker is a readiness probe for one dependency
type Checker = common.DependencyCheck

// Pinger is anything that can be pinged with a context (pgxpool.Pool, redis client wrappers)
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckerConfig holds configuration for health checkers
type CheckerConfig struct {
	Timeout time.Duration
}

// DefaultCheckerConfig returns default checker configuration
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{Timeout: 2 * time.Second}
}

// PostgresChecker returns a health check for the Postgres pool
func PostgresChecker(db Pinger) Checker {
	return PingChecker("database", db, DefaultCheckerConfig())
}

// PingChecker wraps a Pinger with a timeout
func PingChecker(name string, p Pinger, cfg CheckerConfig) Checker {
	return func(ctx context.Context) error {
		if p == nil {
			return fmt.Errorf("%s connection is nil", name)
		}
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		return p.Ping(ctx)
	}
}

// FuncChecker adapts a context-aware health function such as redis.Client.Healthy
// or eventbus.Bus.Healthy.
func FuncChecker(name string, fn func(ctx context.Context) error) Checker {
	return func(ctx context.Context) error {
		if fn == nil {
			return fmt.Errorf("%s is not configured", name)
		}
		return fn(ctx)
	}
}

// CachedChecker remembers the last result for cacheTTL so probes don't
// hammer the dependency.
type CachedChecker struct {
	checker   Checker
	cacheTTL  time.Duration
	mu        sync.Mutex
	lastCheck time.Time
	lastErr   error
}

// NewCachedChecker creates a cached checker
func NewCachedChecker(checker Checker, cacheTTL time.Duration) *CachedChecker {
	return &CachedChecker{checker: checker, cacheTTL: cacheTTL}
}

// Check runs the underlying checker unless a fresh result is cached
func (c *CachedChecker) Check(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastCheck.IsZero() && time.Since(c.lastCheck) < c.cacheTTL {
		return c.lastErr
	}

	c.lastErr = c.checker(ctx)
	c.lastCheck = time.Now()
	return c.lastErr
}
