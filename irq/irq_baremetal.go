//go:build tinygo && baremetal

package irq

import "runtime/interrupt"

type state = interrupt.State

func disable() state {
	return interrupt.Disable()
}

func restore(s state) {
	interrupt.Restore(s)
}
