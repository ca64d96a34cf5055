//go:build !tinygo

package hal

import "sync"

type hostCPU struct {
	intc   *softIRQ
	once   sync.Once
	halted chan struct{}
}

func newHostCPU(intc *softIRQ) *hostCPU {
	return &hostCPU{intc: intc, halted: make(chan struct{})}
}

func (c *hostCPU) Idle() { c.intc.idle() }

func (c *hostCPU) PowerDown() {
	c.once.Do(func() {
		c.intc.stopTimer()
		close(c.halted)
	})
	select {}
}
