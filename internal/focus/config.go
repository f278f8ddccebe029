package focus

import (
	"time"

	"github.com/LianruiSun/JobboCat/internal/common/config"
)

// Config holds countdown tuning for one Manager instance.
type Config struct {
	// TickInterval is how often remaining time is recomputed.
	TickInterval time.Duration
	// SkewBuffer is the clock-drift tolerance applied to server-side
	// expiry checks at restore time.
	SkewBuffer time.Duration
	// CleanupBuffer is added to a record's duration before it is treated
	// as orphaned by cleanup.
	CleanupBuffer time.Duration
	// SyncTimeout bounds each best-effort durable write.
	SyncTimeout time.Duration
}

// NewConfig derives countdown tuning from the application configuration.
func NewConfig(cfg config.FocusConfig) *Config {
	return &Config{
		TickInterval:  config.GetDuration(cfg.TickMillis),
		SkewBuffer:    config.GetDuration(cfg.ClockSkewBufferMs),
		CleanupBuffer: time.Duration(cfg.CleanupBufferMinutes) * time.Minute,
		SyncTimeout:   10 * time.Second,
	}
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.TickInterval <= 0 {
		out.TickInterval = time.Second
	}
	if out.SkewBuffer <= 0 {
		out.SkewBuffer = 5 * time.Second
	}
	if out.CleanupBuffer <= 0 {
		out.CleanupBuffer = time.Hour
	}
	if out.SyncTimeout <= 0 {
		out.SyncTimeout = 10 * time.Second
	}
	return &out
}
