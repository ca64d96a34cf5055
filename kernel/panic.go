package kernel

import "sync/atomic"

// PanicInfo describes a panic that escaped the root task.
type PanicInfo struct {
	TaskID TaskID // sub-task polled when the panic was raised, 0 for the root
	Value  any
	Stack  []byte
	Stats  Stats // executor counters at the time of the panic
}

var (
	panicActive  atomic.Bool
	panicHandler atomic.Pointer[func(PanicInfo)]
)

// InPanicMode reports whether a task has panicked.
func InPanicMode() bool {
	return panicActive.Load()
}

// SetPanicHandler installs the process-wide panic handler. A nil fn
// removes it.
//
// The handler runs at most once, on the first panic, before the executor
// shuts the runtime down. It must not panic.
func SetPanicHandler(fn func(PanicInfo)) {
	if fn == nil {
		panicHandler.Store(nil)
		return
	}
	panicHandler.Store(&fn)
}

// reportPanic hands the first panic of the process to the handler. Later
// panics only stop their executor.
func (e *Executor) reportPanic(v any) {
	if !panicActive.CompareAndSwap(false, true) {
		return
	}
	info := PanicInfo{
		TaskID: e.cx.taskID,
		Value:  v,
		Stack:  captureStack(),
		Stats:  e.Stats(),
	}
	if fn := panicHandler.Load(); fn != nil {
		(*fn)(info)
	}
}
