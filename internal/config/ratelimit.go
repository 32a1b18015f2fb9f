package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig describes a fixed-window request limiter: at most Max
// requests per key within Window.  The zero value disables limiting.
type RateLimitConfig struct {
	Enabled bool
	Window  time.Duration
	Max     int
	Prefix  string
	Debug   bool
}

// LoadRateLimitConfig reads the limiter settings from the environment.
// RATE_LIMIT_WINDOW_MS/RATE_LIMIT_MAX_REQUESTS mirror the variable names the
// admin panel deployments already use.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Window:  time.Duration(envInt("RATE_LIMIT_WINDOW_MS", 15*60*1000)) * time.Millisecond,
		Max:     envInt("RATE_LIMIT_MAX_REQUESTS", 100),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:   envBool("RATE_LIMIT_DEBUG", false),
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Max < 1 {
		cfg.Max = 1
	}
	return cfg
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return d
}
