// Package dispatch implements the single-threaded cooperative scheduler that
// owns all Interface state mutation and callback fan-out. Submitted tasks run
// serially on one goroutine, in submission order, so no Interface field is
// ever touched concurrently from two tasks.
//
// Narrowed from a multi-worker executor (one task queue drained by N
// goroutines) down to exactly one worker, since the core's concurrency model
// requires a single dispatch thread rather than a worker pool.
package dispatch

import (
	"context"
	"sync"

	"github.com/eapache/queue"
	"github.com/sirupsen/logrus"
)

// Task is a unit of work submitted to the loop. It may itself block on
// channel operations but must not call back into Loop.Submit synchronously
// from within another task's execution (that would deadlock the single
// worker) — use SubmitAsync from inside a task instead.
type Task func()

// Loop is a single-worker cooperative dispatch loop.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	q      *queue.Queue
	closed bool
	done   chan struct{}
	log    *logrus.Entry
}

// New starts the loop's worker goroutine and returns immediately.
func New() *Loop {
	l := &Loop{
		q:    queue.New(),
		done: make(chan struct{}),
		log:  logrus.WithField("component", "dispatch"),
	}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for l.q.Length() == 0 && !l.closed {
			l.cond.Wait()
		}
		if l.q.Length() == 0 && l.closed {
			l.mu.Unlock()
			return
		}
		task := l.q.Remove().(Task)
		l.mu.Unlock()

		l.runTask(task)
	}
}

func (l *Loop) runTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorf("recovered panic in dispatched task: %v", r)
		}
	}()
	task()
}

// Submit enqueues task and blocks until it has run. If the loop is already
// closed, task is dropped and Submit returns at once.
func (l *Loop) Submit(task Task) {
	done := make(chan struct{})
	if !l.enqueue(func() {
		task()
		close(done)
	}) {
		return
	}
	<-done
}

// SubmitAsync enqueues task without waiting for it to run. Safe to call from
// within a task already running on the loop.
func (l *Loop) SubmitAsync(task Task) {
	l.enqueue(task)
}

func (l *Loop) enqueue(task Task) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.q.Add(task)
	l.cond.Signal()
	return true
}

// SubmitCtx enqueues task and waits for it to run or ctx to be cancelled,
// whichever comes first.
func (l *Loop) SubmitCtx(ctx context.Context, task Task) error {
	done := make(chan struct{})
	l.SubmitAsync(func() {
		task()
		close(done)
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new tasks and waits for any already queued to drain.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()
	<-l.done
}
