// Package timeouts provides centralized timeout values for I/O done while
// serving a request.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Short: tenant resolution and single-organization reads
//   - Long: settings writes (write, then invalidate the lookup cache)
package timeouts

import (
	"context"
	"sync"
	"time"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing  = 2 * time.Second
	DefaultShort = 5 * time.Second
	DefaultLong  = 15 * time.Second
)

var (
	mu    sync.RWMutex
	ping  = DefaultPing
	short = DefaultShort
	long  = DefaultLong
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for a tenant resolution or a lookup by key.
// Resolution may try several keys in sequence; they share this budget.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Long returns the timeout for organization writes.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping  time.Duration
	Short time.Duration
	Long  time.Duration
}

// Configure sets custom timeout values. Call during startup, before
// handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Long > 0 {
		long = cfg.Long
	}
}

// Reset restores all timeouts to their default values.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	short = DefaultShort
	long = DefaultLong
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Long: long}
}

// WithShort derives a context bounded by Short().
func WithShort(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, Short())
}

// WithLong derives a context bounded by Long().
func WithLong(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, Long())
}
