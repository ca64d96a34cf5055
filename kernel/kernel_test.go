package kernel

import (
	"testing"

	"ember/irq"
)

type fakeRuntime struct {
	ready     irq.Flag
	snapshots int
	idles     int
	shutdowns int
}

func (f *fakeRuntime) IsReady() bool { return f.ready.IsSet() }
func (f *fakeRuntime) Wake()         { f.ready.Raise() }
func (f *fakeRuntime) Idle()         { f.idles++ }
func (f *fakeRuntime) Shutdown()     { f.shutdowns++ }

func (f *fakeRuntime) Snapshot(cs *irq.CriticalSection) {
	if cs == nil {
		panic("snapshot without critical section")
	}
	f.ready.Clear()
	f.snapshots++
}

// withRoot runs fn with a fresh task context and restores it afterwards.
func withRoot(t *testing.T, root Task, fn func(r *Root)) {
	t.Helper()
	contextAcquired.Store(false)
	inRuntime.Store(false)
	defer func() {
		contextAcquired.Store(false)
		inRuntime.Store(false)
	}()
	fn(Acquire(root))
}

func TestExecutorPollsOnlyWhenReady(t *testing.T) {
	rt := &fakeRuntime{}
	polls := 0
	e := NewExecutor(rt, TaskFunc(func(cx *Context) bool {
		polls++
		return polls == 2
	}))

	if e.Tick() {
		t.Fatal("Tick() = true after first poll")
	}
	if polls != 1 || rt.snapshots != 1 {
		t.Fatalf("polls=%d snapshots=%d, want 1, 1", polls, rt.snapshots)
	}
	if rt.IsReady() {
		t.Fatal("snapshot did not clear readiness")
	}

	// Nothing happened: the executor must idle, not poll.
	for i := 0; i < 3; i++ {
		if e.Tick() {
			t.Fatal("Tick() = true while idle")
		}
	}
	if polls != 1 || rt.idles != 3 {
		t.Fatalf("polls=%d idles=%d, want 1, 3", polls, rt.idles)
	}

	rt.Wake()
	if !e.Tick() {
		t.Fatal("Tick() = false after root finished")
	}
	if !e.Finished() || e.Panicked() {
		t.Fatalf("Finished()=%v Panicked()=%v", e.Finished(), e.Panicked())
	}

	// A finished root is never polled again.
	rt.Wake()
	e.Tick()
	if polls != 2 {
		t.Fatalf("polls = %d after completion, want 2", polls)
	}

	st := e.Stats()
	if st.Ticks != 5 || st.Polls != 2 || st.Idles != 3 {
		t.Fatalf("Stats() = %+v, want ticks 5 polls 2 idles 3", st)
	}
}

func TestTaskWakeRepolls(t *testing.T) {
	rt := &fakeRuntime{}
	polls := 0
	e := NewExecutor(rt, TaskFunc(func(cx *Context) bool {
		polls++
		if polls < 3 {
			cx.Wake()
			return false
		}
		return true
	}))
	for i := 0; i < 3; i++ {
		e.Tick()
	}
	if !e.Finished() || rt.idles != 0 {
		t.Fatalf("finished=%v idles=%d, want true, 0", e.Finished(), rt.idles)
	}
}

type shutdownSignal struct{}

type haltingRuntime struct {
	fakeRuntime
}

func (h *haltingRuntime) Shutdown() {
	h.shutdowns++
	if h.shutdowns == 3 {
		panic(shutdownSignal{})
	}
}

func TestRunShutsDownForever(t *testing.T) {
	rt := &haltingRuntime{}
	defer func() {
		if _, ok := recover().(shutdownSignal); !ok {
			t.Fatal("Run returned without looping in Shutdown")
		}
		if rt.shutdowns != 3 {
			t.Fatalf("shutdowns = %d, want 3", rt.shutdowns)
		}
	}()
	Run(rt, TaskFunc(func(*Context) bool { return true }))
}

type counterState struct {
	pending int
	seen    int
}

func (s *counterState) Snapshot(*irq.CriticalSection) {
	s.seen = s.pending
}

type fakeCPU struct{ idles, downs int }

func (c *fakeCPU) Idle()      { c.idles++ }
func (c *fakeCPU) PowerDown() { c.downs++ }

func TestDefaultRuntimeSnapshotProtocol(t *testing.T) {
	cpu := &fakeCPU{}
	rt := NewDefault(&counterState{}, cpu)
	if !rt.IsReady() {
		t.Fatal("new runtime is not ready")
	}

	irq.Free(func(cs *irq.CriticalSection) { rt.Snapshot(cs) })
	if rt.IsReady() {
		t.Fatal("Snapshot did not clear readiness")
	}

	// An interrupt that reports no change leaves the runtime idle.
	irq.Free(func(cs *irq.CriticalSection) {
		rt.Modify(cs, func(s *counterState) bool {
			s.pending++
			return false
		})
	})
	if rt.IsReady() {
		t.Fatal("Modify returning false raised readiness")
	}

	irq.Free(func(cs *irq.CriticalSection) {
		rt.Modify(cs, func(s *counterState) bool {
			s.pending++
			return true
		})
	})
	if !rt.IsReady() {
		t.Fatal("Modify returning true did not raise readiness")
	}
	if rt.State().seen != 0 {
		t.Fatalf("seen = %d before snapshot, want 0", rt.State().seen)
	}
	irq.Free(func(cs *irq.CriticalSection) { rt.Snapshot(cs) })
	if rt.State().seen != 2 {
		t.Fatalf("seen = %d after snapshot, want 2", rt.State().seen)
	}

	rt.Idle()
	rt.Shutdown()
	if cpu.idles != 1 || cpu.downs != 1 {
		t.Fatalf("cpu idles=%d downs=%d", cpu.idles, cpu.downs)
	}
}

func TestAcquireTwicePanics(t *testing.T) {
	withRoot(t, TaskFunc(func(*Context) bool { return true }), func(*Root) {
		defer func() {
			if recover() == nil {
				t.Fatal("second Acquire did not panic")
			}
		}()
		Acquire(TaskFunc(func(*Context) bool { return true }))
	})
}

func TestRootReentrantPollPanics(t *testing.T) {
	var root *Root
	inner := TaskFunc(func(cx *Context) bool {
		return root.Poll(cx)
	})
	withRoot(t, inner, func(r *Root) {
		root = r
		defer func() {
			if recover() == nil {
				t.Fatal("re-entrant poll did not panic")
			}
			if InRuntime() {
				t.Fatal("InRuntime() still set after unwinding")
			}
		}()
		r.Poll(NewContext(nil))
	})
}

func TestJoin(t *testing.T) {
	var seen [3][]TaskID
	counts := [3]int{}
	mk := func(i, need int) Task {
		return TaskFunc(func(cx *Context) bool {
			seen[i] = append(seen[i], cx.TaskID())
			counts[i]++
			return counts[i] >= need
		})
	}
	j := Join(mk(0, 1), mk(1, 3), mk(2, 2))

	withRoot(t, j, func(r *Root) {
		cx := NewContext(nil)
		for i := 0; i < 2; i++ {
			if r.Poll(cx) {
				t.Fatalf("join finished after %d polls", i+1)
			}
		}
		if !r.Poll(cx) {
			t.Fatal("join not finished after 3 polls")
		}
		if cx.TaskID() != 0 {
			t.Fatalf("TaskID() after join = %d, want 0", cx.TaskID())
		}
	})

	// Finished children are not polled again.
	want := [3]int{1, 3, 2}
	if counts != want {
		t.Fatalf("counts = %v, want %v", counts, want)
	}
	for i := range seen {
		for _, id := range seen[i] {
			if id != TaskID(i+1) {
				t.Fatalf("task %d saw id %d", i, id)
			}
		}
	}
}

func TestJoinOutsideRuntimePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Join polled outside runtime did not panic")
		}
	}()
	Join(TaskFunc(func(*Context) bool { return true })).Poll(NewContext(nil))
}

func TestJoinTooManyTasksPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Join with 33 tasks did not panic")
		}
	}()
	Join(make([]Task, MaxTasks+1)...)
}

func TestYield(t *testing.T) {
	rt := &fakeRuntime{}
	y := Yield()
	cx := NewContext(rt)

	if _, ok := y.Poll(cx); ok {
		t.Fatal("first Poll() = ready")
	}
	if !rt.IsReady() {
		t.Fatal("Yield did not wake the executor")
	}
	if _, ok := y.Poll(cx); !ok {
		t.Fatal("second Poll() = pending")
	}
}

func TestThen(t *testing.T) {
	n := 0
	f := FutureFunc[int](func(*Context) (int, bool) {
		n++
		return 42, n == 2
	})
	got := 0
	task := Then[int](f, func(v int) { got = v })
	cx := NewContext(nil)
	if task.Poll(cx) {
		t.Fatal("Then finished before its future")
	}
	if !task.Poll(cx) || got != 42 {
		t.Fatalf("got = %d, want 42", got)
	}
	if !task.Poll(cx) || n != 2 {
		t.Fatalf("finished Then polled its future again: n = %d", n)
	}
}

func TestPanicHandlerRunsOnce(t *testing.T) {
	var infos []PanicInfo
	SetPanicHandler(func(info PanicInfo) { infos = append(infos, info) })
	defer SetPanicHandler(nil)

	boom := TaskFunc(func(*Context) bool { panic("boom") })
	ok := TaskFunc(func(*Context) bool { return false })

	withRoot(t, Join(ok, boom), func(r *Root) {
		rt := &fakeRuntime{}
		e := NewExecutor(rt, r)
		if !e.Tick() {
			t.Fatal("Tick() = false after panic")
		}
		if !e.Panicked() || !InPanicMode() {
			t.Fatalf("Panicked()=%v InPanicMode()=%v", e.Panicked(), InPanicMode())
		}
		if InRuntime() {
			t.Fatal("InRuntime() still set after panic")
		}
	})

	// A second panic is recovered but not reported.
	rt := &fakeRuntime{}
	NewExecutor(rt, TaskFunc(func(*Context) bool { panic("again") })).Tick()

	if len(infos) != 1 {
		t.Fatalf("handler ran %d times, want 1", len(infos))
	}
	if infos[0].Value != "boom" || infos[0].TaskID != 2 {
		t.Fatalf("PanicInfo = {%d %v}, want {2 boom}", infos[0].TaskID, infos[0].Value)
	}
	if len(infos[0].Stack) == 0 {
		t.Fatal("PanicInfo.Stack is empty")
	}
	if infos[0].Stats.Polls != 1 || infos[0].Stats.Ticks != 1 {
		t.Fatalf("PanicInfo.Stats = %+v, want 1 tick and 1 poll", infos[0].Stats)
	}
}

// wakingState raises readiness from inside its own snapshot, as a waker
// firing while state is copied would.
type wakingState struct {
	rt    Runtime
	taken int
}

func (s *wakingState) Snapshot(*irq.CriticalSection) {
	s.taken++
	s.rt.Wake()
}

func TestDefaultRuntimeKeepsWakeDuringSnapshot(t *testing.T) {
	st := &wakingState{}
	rt := NewDefault(st, &fakeCPU{})
	st.rt = rt

	irq.Free(func(cs *irq.CriticalSection) { rt.Snapshot(cs) })
	if st.taken != 1 {
		t.Fatalf("snapshots = %d, want 1", st.taken)
	}
	if !rt.IsReady() {
		t.Fatal("wake raised during Snapshot was lost")
	}
}
