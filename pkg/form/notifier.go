package form

import (
	"sync"
	"time"

	"github.com/goliatone/go-formstate/pkg/scheduler"
)

// DefaultDebounce is the registration burst window.
const DefaultDebounce = 50 * time.Millisecond

// notifier turns committed mutations into calls to deliver. Registration
// bursts go through schedule and collapse into one delivery; updates go
// through commit and are delivered immediately.
//
// Deliveries never overlap. A commit issued while another delivery is running
// (from a callback, or from a timer or async validator goroutine) is queued and
// delivered by the goroutine already draining the queue, together with its
// follow-up.
type notifier struct {
	sched   scheduler.Scheduler
	delay   time.Duration
	deliver func()

	mu       sync.Mutex
	timer    scheduler.Timer
	queue    []func()
	draining bool
	closed   bool
}

func newNotifier(sched scheduler.Scheduler, delay time.Duration, deliver func()) *notifier {
	if sched == nil {
		sched = scheduler.Real()
	}
	if delay < 0 {
		delay = 0
	}
	return &notifier{sched: sched, delay: delay, deliver: deliver}
}

// schedule cancels the pending burst timer, if any, and starts a new one.
func (n *notifier) schedule() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	if n.timer != nil {
		n.timer.Stop()
	}
	var timer scheduler.Timer
	timer = n.sched.AfterFunc(n.delay, func() {
		n.mu.Lock()
		if n.timer != timer {
			n.mu.Unlock()
			return
		}
		n.timer = nil
		n.mu.Unlock()
		n.commit(nil)
	})
	n.timer = timer
}

// commit delivers a notification, then runs after.
func (n *notifier) commit(after func()) {
	n.mu.Lock()
	n.queue = append(n.queue, after)
	if n.draining {
		n.mu.Unlock()
		return
	}
	n.draining = true
	defer func() {
		if r := recover(); r != nil {
			n.mu.Lock()
			n.draining = false
			n.queue = nil
			n.mu.Unlock()
			panic(r)
		}
	}()

	for len(n.queue) > 0 {
		next := n.queue[0]
		n.queue = n.queue[1:]
		n.mu.Unlock()

		if n.deliver != nil {
			n.deliver()
		}
		if next != nil {
			next()
		}

		n.mu.Lock()
	}
	n.draining = false
	n.mu.Unlock()
}

// pending reports whether a burst timer is armed.
func (n *notifier) pending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.timer != nil
}

func (n *notifier) stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
