// Package ksync provides the task-side synchronization primitives: a
// counting semaphore with a FIFO of waiters, mutexes built on it and an
// async bounded channel.
//
// Everything here is foreground-only. Interrupt handlers talk to tasks
// through runtime state, never through these types.
package ksync

import "errors"

var (
	ErrBusy       = errors.New("ksync: not enough permits")
	ErrWouldBlock = errors.New("ksync: lock is held")
)
