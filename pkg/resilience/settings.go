package resilience

import (
	"time"

	"github.com/richxcame/engraving-commerce/pkg/config"
)

// SettingsFromConfig converts the env tuning for a named dependency into
// breaker settings. Zero or negative knobs fall back to a 60s window, a 30s
// open period, 5 consecutive failures to trip and 1 probe to close.
func SettingsFromConfig(name string, cfg config.BreakerConfig) Settings {
	return Settings{
		Name:             name,
		Interval:         secondsOr(cfg.IntervalSeconds, time.Minute),
		Timeout:          secondsOr(cfg.TimeoutSeconds, 30*time.Second),
		FailureThreshold: countOr(cfg.FailureThreshold, 5),
		SuccessThreshold: countOr(cfg.SuccessThreshold, 1),
	}
}

func secondsOr(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func countOr(n int, fallback uint32) uint32 {
	if n <= 0 {
		return fallback
	}
	return uint32(n)
}
