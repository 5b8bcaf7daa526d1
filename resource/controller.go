// Package resource provides a best-effort memory reclamation hint for the
// imputation engine. The controller watches available system memory and
// triggers a garbage collection when it drops below a configured floor. It is
// a performance knob only: disabling it must never change engine output.
package resource

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Config holds reclamation thresholds.
type Config struct {
	// MinAvailableBytes is the available-memory floor. When the system drops
	// below it, a collection is triggered. If 0, the hint is disabled.
	MinAvailableBytes int64

	// CheckInterval bounds how often the (comparatively expensive) memory
	// probe runs. Defaults to one second.
	CheckInterval time.Duration

	// ReturnToOS additionally asks the runtime to return freed memory to the
	// operating system.
	ReturnToOS bool
}

// Controller implements the reclamation hint. A nil Controller is valid and
// does nothing.
type Controller struct {
	cfg       Config
	limiter   *rate.Limiter
	reclaimed atomic.Int64
}

// NewController creates a controller. Returns nil when the hint is disabled,
// which callers may pass around freely.
func NewController(optFns ...func(c *Config)) *Controller {
	cfg := Config{
		CheckInterval: time.Second,
	}
	for _, fn := range optFns {
		fn(&cfg)
	}
	if cfg.MinAvailableBytes <= 0 {
		return nil
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Second
	}
	return &Controller{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.CheckInterval), 1),
	}
}

// MaybeReclaim probes available memory and triggers a collection when it is
// below the configured floor. The probe is rate limited; most calls return
// immediately. Reports whether a collection ran.
func (c *Controller) MaybeReclaim(_ context.Context) bool {
	if c == nil {
		return false
	}
	if !c.limiter.Allow() {
		return false
	}

	avail := availableMemory()
	if avail <= 0 || avail >= c.cfg.MinAvailableBytes {
		return false
	}

	runtime.GC()
	if c.cfg.ReturnToOS {
		debug.FreeOSMemory()
	}
	c.reclaimed.Add(1)
	return true
}

// Reclaims returns how many collections the controller has triggered.
func (c *Controller) Reclaims() int64 {
	if c == nil {
		return 0
	}
	return c.reclaimed.Load()
}
