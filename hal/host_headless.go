//go:build !tinygo

package hal

import (
	"context"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	// Ticks stops the run after N timer interrupts (0 = run forever).
	Ticks uint64
	// Poll is how often the runner checks the stop conditions.
	Poll time.Duration
}

// RunHeadless waits on a running board without opening a window. It
// returns nil once the firmware powers down or the tick budget is spent,
// and ctx.Err() when ctx ends first.
func RunHeadless(ctx context.Context, b *HostBoard, cfg HeadlessConfig) error {
	if cfg.Poll <= 0 {
		cfg.Poll = 10 * time.Millisecond
	}
	t := time.NewTicker(cfg.Poll)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.Halted():
			return nil
		case <-t.C:
			if cfg.Ticks > 0 && b.intc.Count(VectorTimer) >= cfg.Ticks {
				b.Stop()
				return nil
			}
		}
	}
}
