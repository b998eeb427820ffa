// internal/app/system/timeouts/timeouts.go
//
// Package timeouts holds the deadlines handlers and workers put on database
// work. Values start at the defaults below and may be overridden once at
// startup from TIMEOUT_* environment variables.
//
//   - Ping: health checks
//   - Short: single-document reads (profile, group lookup, free time)
//   - Medium: one mutation on one owning document
//   - Long: mutations that fan out to every member of a group
//   - Batch: one reconciler pass over pending fan-out failures
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 2 * time.Minute
)

// Config holds one value per tier. Zero values leave a tier unchanged.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

var (
	mu      sync.RWMutex
	current = defaults()
)

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
}

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(current)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }
func Batch() time.Duration  { return get(func(c Config) time.Duration { return c.Batch }) }

// Configure overrides the non-zero tiers in cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	for _, f := range fields(&current) {
		if v := f.from(cfg); v > 0 {
			*f.ptr = v
		}
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}

// Current returns a snapshot of the configured tiers.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

type field struct {
	env  string
	ptr  *time.Duration
	from func(Config) time.Duration
}

func fields(c *Config) []field {
	return []field{
		{"TIMEOUT_PING", &c.Ping, func(x Config) time.Duration { return x.Ping }},
		{"TIMEOUT_SHORT", &c.Short, func(x Config) time.Duration { return x.Short }},
		{"TIMEOUT_MEDIUM", &c.Medium, func(x Config) time.Duration { return x.Medium }},
		{"TIMEOUT_LONG", &c.Long, func(x Config) time.Duration { return x.Long }},
		{"TIMEOUT_BATCH", &c.Batch, func(x Config) time.Duration { return x.Batch }},
	}
}

// ConfigureFromEnv applies TIMEOUT_PING, TIMEOUT_SHORT, TIMEOUT_MEDIUM,
// TIMEOUT_LONG and TIMEOUT_BATCH (Go duration syntax). Unset or invalid values
// are ignored. It returns how many tiers were applied.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	n := 0
	for _, f := range fields(&current) {
		v := os.Getenv(f.env)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*f.ptr = d
			n++
		}
	}
	return n
}

// WithTimeout is context.WithTimeout whose cancel func logs when the deadline
// was the reason the operation ended.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
