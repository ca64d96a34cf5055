//go:build !tinygo

package hal

import (
	"context"

	"golang.org/x/time/rate"
)

// StartTimer paces VectorTimer with a token bucket of burst 1: a late tick
// is fired as soon as possible, never in a batch.
func (c *softIRQ) StartTimer(hz int) error {
	if hz <= 0 {
		return ErrTimerRate
	}
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.timerStop != nil {
		c.timerStop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.timerStop = cancel
	lim := rate.NewLimiter(rate.Limit(hz), 1)
	go func() {
		for {
			if err := lim.Wait(ctx); err != nil {
				return
			}
			c.pend(VectorTimer)
		}
	}()
	return nil
}

func (c *softIRQ) stopTimer() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.timerStop != nil {
		c.timerStop()
		c.timerStop = nil
	}
}
