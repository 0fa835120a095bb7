// apps/go-server/internal/schedule/schedule.go
//
// One-shot delayed callbacks behind an interface, so the controller and the
// timer can be driven by the wall clock in production and by hand in tests.
//
//   - Real:   time.AfterFunc under the hood.
//   - Manual: a virtual clock advanced explicitly with Advance.

package schedule

import (
	"sync"
	"time"
)

// Token cancels a scheduled callback.
type Token interface {
	// Cancel prevents the callback from running. It reports whether the
	// callback was still pending. Safe to call more than once.
	Cancel() bool
}

// Scheduler runs fn once after delay.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Token
}

// Real schedules on the wall clock. Callbacks run on their own goroutine.
type Real struct{}

// Schedule implements Scheduler.
func (Real) Schedule(delay time.Duration, fn func()) Token {
	return realToken{t: time.AfterFunc(delay, fn)}
}

type realToken struct{ t *time.Timer }

func (r realToken) Cancel() bool { return r.t.Stop() }

// Manual is a deterministic Scheduler for tests. Nothing runs until
// Advance moves its virtual clock; callbacks run on the caller's goroutine.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	m        *Manual
	due      time.Duration
	seq      int
	fn       func()
	canceled bool
	done     bool
}

// NewManual returns a Manual scheduler at virtual time zero.
func NewManual() *Manual { return &Manual{} }

// Schedule implements Scheduler.
func (m *Manual) Schedule(delay time.Duration, fn func()) Token {
	if delay < 0 {
		delay = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{m: m, due: m.now + delay, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

func (t *manualTask) Cancel() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.done || t.canceled {
		return false
	}
	t.canceled = true
	return true
}

// Now reports how far the virtual clock has advanced.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending counts callbacks that are neither run nor canceled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.done && !t.canceled {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running every callback that falls
// due in order of due time (ties in scheduling order). Callbacks scheduled
// while advancing run too if they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.compactLocked()
			m.mu.Unlock()
			return
		}
		next.done = true
		if next.due > m.now {
			m.now = next.due
		}
		m.mu.Unlock()

		next.fn()
	}
}

func (m *Manual) nextDueLocked(target time.Duration) *manualTask {
	var best *manualTask
	for _, t := range m.tasks {
		if t.done || t.canceled || t.due > target {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *Manual) compactLocked() {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.done && !t.canceled {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(m.tasks); i++ {
		m.tasks[i] = nil
	}
	m.tasks = live
}

// Clock returns a wall-clock reading that follows the virtual time,
// anchored at base. Useful to drive a timer.Timer alongside Advance.
func (m *Manual) Clock(base time.Time) func() time.Time {
	return func() time.Time { return base.Add(m.Now()) }
}
