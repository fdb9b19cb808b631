// Package scheduler provides cancelable delayed tasks. Components that debounce
// or settle events take a Scheduler so tests can drive time explicitly with
// Manual instead of sleeping.
package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending task. Stop reports whether the call prevented the task
// from running.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Func adapts a function into a Scheduler.
type Func func(d time.Duration, fn func()) Timer

// AfterFunc delegates to the underlying function.
func (f Func) AfterFunc(d time.Duration, fn func()) Timer {
	return f(d, fn)
}

type wallClock struct{}

// Real returns a Scheduler backed by time.AfterFunc. Tasks run on their own
// goroutine.
func Real() Scheduler {
	return wallClock{}
}

func (wallClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Manual is a deterministic Scheduler for tests. Tasks only run when Advance
// moves the clock past their deadline, on the caller's goroutine.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	owner   *Manual
	due     time.Duration
	order   int
	fn      func()
	stopped bool
	fired   bool
}

// NewManual returns a Manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc queues fn to run once the clock has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	task := &manualTask{owner: m, due: m.now + d, order: m.seq, fn: fn}
	m.tasks = append(m.tasks, task)
	return task
}

// Advance moves the clock forward by d and runs every task that became due, in
// deadline order. Tasks scheduled by running tasks are honoured when they fall
// within the same window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		task := m.nextDue(target)
		if task == nil {
			break
		}
		task.fn()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// Pending reports the number of tasks that have neither fired nor been
// stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, task := range m.tasks {
		if !task.stopped && !task.fired {
			count++
		}
	}
	return count
}

func (m *Manual) nextDue(target time.Duration) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.tasks[:0]
	for _, task := range m.tasks {
		if !task.stopped && !task.fired {
			live = append(live, task)
		}
	}
	m.tasks = live
	if len(live) == 0 {
		return nil
	}
	sort.SliceStable(live, func(i, j int) bool {
		if live[i].due == live[j].due {
			return live[i].order < live[j].order
		}
		return live[i].due < live[j].due
	})
	next := live[0]
	if next.due > target {
		return nil
	}
	next.fired = true
	if next.due > m.now {
		m.now = next.due
	}
	return next
}

func (t *manualTask) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
