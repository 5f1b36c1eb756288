package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePinger struct {
	err   error
	delay time.Duration
	calls int
}

func (f *fakePinger) Ping(ctx context.Context) error {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

// ==================== CheckerConfig Tests ====================

func TestDefaultCheckerConfig(t *testing.T) {
	config := DefaultCheckerConfig()

	if config.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", config.Timeout)
	}
}

// ==================== Ping Checker Tests ====================

func TestPostgresChecker_NilPool(t *testing.T) {
	err := PostgresChecker(nil)(context.Background())

	if err == nil {
		t.Fatal("Expected error for nil pool")
	}
	if err.Error() != "database connection is nil" {
		t.Errorf("Error = %v, want 'database connection is nil'", err)
	}
}

func TestPingChecker(t *testing.T) {
	tests := []struct {
		name    string
		pinger  *fakePinger
		wantErr bool
	}{
		{"healthy", &fakePinger{}, false},
		{"unhealthy", &fakePinger{err: errors.New("connection refused")}, true},
		{"slow", &fakePinger{delay: time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := PingChecker("redis", tt.pinger, CheckerConfig{Timeout: 50 * time.Millisecond})
			err := checker(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.pinger.calls != 1 {
				t.Errorf("calls = %d, want 1", tt.pinger.calls)
			}
		})
	}
}

func TestFuncChecker(t *testing.T) {
	if err := FuncChecker("nats", nil)(context.Background()); err == nil {
		t.Error("Expected error for missing function")
	}

	ok := FuncChecker("nats", func(context.Context) error { return nil })
	if err := ok(context.Background()); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

// ==================== Cached Checker Tests ====================

func TestCachedChecker_UsesCachedResult(t *testing.T) {
	callCount := 0
	cached := NewCachedChecker(func(context.Context) error {
		callCount++
		return errors.New("check failed")
	}, time.Second)

	err1 := cached.Check(context.Background())
	err2 := cached.Check(context.Background())

	if callCount != 1 {
		t.Errorf("Checker should be called once, got %d", callCount)
	}
	if err1 == nil || err2 == nil || err1.Error() != err2.Error() {
		t.Error("Cached error should be returned on both calls")
	}
}

func TestCachedChecker_CacheExpires(t *testing.T) {
	callCount := 0
	cached := NewCachedChecker(func(context.Context) error {
		callCount++
		return nil
	}, 20*time.Millisecond)

	cached.Check(context.Background())
	time.Sleep(40 * time.Millisecond)
	cached.Check(context.Background())

	if callCount != 2 {
		t.Errorf("Checker should be called twice after cache expiry, got %d", callCount)
	}
}
