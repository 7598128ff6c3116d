// Package work provides the scheduling primitives the core uses for
// deferred and background processing: a debouncer that collapses
// keystroke bursts into a single re-highlight pass, a scheduler
// interface so tests can drive time explicitly, and cancellable
// background scans for whole-document passes.
package work

import (
	"context"
	"sync"
	"time"
)

// Scheduler defers a task by a duration. The returned cancel function
// stops the task if it has not started.
type Scheduler interface {
	ScheduleAfter(d time.Duration, task func()) (cancel func())
}

// TimerScheduler schedules on the runtime timer heap.
type TimerScheduler struct{}

// ScheduleAfter runs the task on its own goroutine after the delay.
func (TimerScheduler) ScheduleAfter(d time.Duration, task func()) func() {
	t := time.AfterFunc(d, task)
	return func() { t.Stop() }
}

// ManualScheduler queues tasks and runs them only when told to,
// keeping tests free of real timers.
type ManualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	run       func()
	cancelled bool
}

// NewManualScheduler creates an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// ScheduleAfter queues the task regardless of the delay.
func (s *ManualScheduler) ScheduleAfter(_ time.Duration, task func()) func() {
	mt := &manualTask{run: task}
	s.mu.Lock()
	s.tasks = append(s.tasks, mt)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		mt.cancelled = true
		s.mu.Unlock()
	}
}

// Fire runs every queued task that has not been cancelled and clears
// the queue. It returns the number of tasks run.
func (s *ManualScheduler) Fire() int {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	n := 0
	for _, mt := range tasks {
		s.mu.Lock()
		skip := mt.cancelled
		s.mu.Unlock()
		if skip {
			continue
		}
		mt.run()
		n++
	}
	return n
}

// Pending reports how many tasks are queued, cancelled or not.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Debouncer collapses rapid successive calls into one callback after
// a quiet period. The callback never runs concurrently with itself
// from the debouncer.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	sched    Scheduler
	cancel   func()
	pending  bool
	seq      uint64
	callback func()
}

// NewDebouncer creates a debouncer over a scheduler. A nil scheduler
// uses real timers.
func NewDebouncer(delay time.Duration, sched Scheduler, callback func()) *Debouncer {
	if sched == nil {
		sched = TimerScheduler{}
	}
	return &Debouncer{delay: delay, sched: sched, callback: callback}
}

// Call schedules the callback after the quiet period, replacing any
// previously scheduled run.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.seq++
	seq := d.seq

	if d.cancel != nil {
		d.cancel()
	}
	d.cancel = d.sched.ScheduleAfter(d.delay, func() {
		d.mu.Lock()
		if !d.pending || d.seq != seq || d.callback == nil {
			d.mu.Unlock()
			return
		}
		d.pending = false
		d.mu.Unlock()
		d.callback()
	})
}

// Flush runs a pending callback immediately, cancelling the scheduled
// run.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.seq++
	run := d.pending && d.callback != nil
	d.pending = false
	d.mu.Unlock()
	if run {
		d.callback()
	}
}

// Cancel discards a pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.seq++
	d.pending = false
}

// IsPending reports whether a callback is waiting to run.
func (d *Debouncer) IsPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Scan is a cancellable background pass over a line range, used for
// whole-document work such as the initial highlight of a large file.
type Scan struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// StartScan runs fn(ctx, line) for each line of [first, last] on a
// background goroutine, stopping early when cancelled or when fn
// returns an error.
func StartScan(ctx context.Context, first, last int, fn func(ctx context.Context, line int) error) *Scan {
	ctx, cancel := context.WithCancel(ctx)
	s := &Scan{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		defer cancel()
		for line := first; line <= last; line++ {
			if err := ctx.Err(); err != nil {
				s.err = err
				return
			}
			if err := fn(ctx, line); err != nil {
				s.err = err
				return
			}
		}
	}()
	return s
}

// Cancel stops the scan. It does not wait for the goroutine to exit.
func (s *Scan) Cancel() { s.cancel() }

// Wait blocks until the scan finishes and returns its error, which is
// context.Canceled after cancellation.
func (s *Scan) Wait() error {
	<-s.done
	return s.err
}
