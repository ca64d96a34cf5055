package kernel

import "sync/atomic"

// MaxTasks is the number of sub-tasks a single Join can drive.
const MaxTasks = 32

// TaskID identifies a sub-task of the root task. The root itself is 0;
// Join numbers its children from 1.
type TaskID uint8

// Context is handed to every poll.
type Context struct {
	waker  Waker
	taskID TaskID
}

// NewContext returns a context whose wakes go to w.
func NewContext(w Waker) *Context {
	return &Context{waker: w}
}

// TaskID returns the id of the task being polled.
func (c *Context) TaskID() TaskID { return c.taskID }

// WithTaskID returns a copy of the context reporting id. Combinators that
// drive their own children use it to number them.
func (c *Context) WithTaskID(id TaskID) *Context {
	cp := *c
	cp.taskID = id
	return &cp
}

// Waker returns the waker of the executor polling this task.
func (c *Context) Waker() Waker { return c.waker }

// Wake asks the executor to poll again without waiting for an interrupt.
func (c *Context) Wake() {
	if c.waker != nil {
		c.waker.Wake()
	}
}

// Task is a suspendable computation. Poll advances it as far as possible
// and reports whether it has finished. A finished task is not polled again.
type Task interface {
	Poll(cx *Context) bool
}

// TaskFunc adapts a function to Task.
type TaskFunc func(cx *Context) bool

func (f TaskFunc) Poll(cx *Context) bool { return f(cx) }

// Future is a task that produces a value.
type Future[T any] interface {
	Poll(cx *Context) (T, bool)
}

// FutureFunc adapts a function to Future.
type FutureFunc[T any] func(cx *Context) (T, bool)

func (f FutureFunc[T]) Poll(cx *Context) (T, bool) { return f(cx) }

// Then returns a task that polls f and hands its value to fn once.
func Then[T any](f Future[T], fn func(T)) Task {
	return &then[T]{f: f, fn: fn}
}

type then[T any] struct {
	f    Future[T]
	fn   func(T)
	done bool
}

func (t *then[T]) Poll(cx *Context) bool {
	if t.done {
		return true
	}
	v, ok := t.f.Poll(cx)
	if !ok {
		return false
	}
	t.done = true
	if t.fn != nil {
		t.fn(v)
	}
	return true
}

var (
	contextAcquired atomic.Bool
	inRuntime       atomic.Bool
)

// InRuntime reports whether the root task is being polled.
func InRuntime() bool {
	return inRuntime.Load()
}

// Acquire wraps the root task. There is one task context per process:
// calling Acquire twice panics.
func Acquire(root Task) *Root {
	if !contextAcquired.CompareAndSwap(false, true) {
		panic("kernel: task context already acquired")
	}
	return &Root{inner: root}
}

// Root is the task returned by Acquire.
type Root struct {
	inner Task
}

func (r *Root) Poll(cx *Context) bool {
	if !inRuntime.CompareAndSwap(false, true) {
		panic("kernel: task runtime polled from inside a task")
	}
	defer inRuntime.Store(false)
	return r.inner.Poll(cx)
}

// Join returns a task that drives tasks concurrently and finishes once all
// of them have. Children see ids 1..len(tasks) through Context.TaskID.
func Join(tasks ...Task) Task {
	if len(tasks) > MaxTasks {
		panic("kernel: too many tasks in join")
	}
	return &join{tasks: tasks}
}

type join struct {
	tasks []Task
	done  uint32
}

func (j *join) Poll(cx *Context) bool {
	if !inRuntime.Load() {
		panic("kernel: task polled outside the task runtime")
	}
	all := uint32(1)<<len(j.tasks) - 1
	parent := cx.taskID
	for i, t := range j.tasks {
		bit := uint32(1) << i
		if j.done&bit != 0 {
			continue
		}
		cx.taskID = TaskID(i + 1)
		if t.Poll(cx) {
			j.done |= bit
		}
	}
	cx.taskID = parent
	return j.done == all
}

// Yield returns a future that is pending exactly once. It wakes the
// executor so the yielding task is polled again straight away.
func Yield() *YieldFuture {
	return &YieldFuture{}
}

// YieldFuture is returned by Yield.
type YieldFuture struct {
	yielded bool
}

func (y *YieldFuture) Poll(cx *Context) (struct{}, bool) {
	if y.yielded {
		return struct{}{}, true
	}
	y.yielded = true
	cx.Wake()
	return struct{}{}, false
}
