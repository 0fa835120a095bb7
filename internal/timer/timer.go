// apps/go-server/internal/timer/timer.go
//
// Stopwatch for the game clock.
//
// While running, the timer samples the clock once per frame and reports the
// elapsed time to its callback. The frame loop is a callback that
// reschedules itself through a schedule.Scheduler, so Stop can cancel the
// next sample and tests can drive it with schedule.Manual.

package timer

import (
	"fmt"
	"sync"
	"time"

	"github.com/robalobadob/memory/apps/go-server/internal/schedule"
)

// DefaultFrame is one display refresh at 60Hz.
const DefaultFrame = 16 * time.Millisecond

// Timer is a start/stop/reset stopwatch. The zero value is not usable; use New.
type Timer struct {
	mu      sync.Mutex
	now     func() time.Time
	sched   schedule.Scheduler
	frame   time.Duration
	onTick  func(time.Duration)
	origin  time.Time
	elapsed time.Duration
	running bool
	run     uint64 // bumped on every start/stop so stale ticks drop out
	next    schedule.Token
}

// New builds a stopped timer. now defaults to time.Now, sched to
// schedule.Real and frame to DefaultFrame. onTick may be nil.
func New(now func() time.Time, sched schedule.Scheduler, frame time.Duration, onTick func(time.Duration)) *Timer {
	if now == nil {
		now = time.Now
	}
	if sched == nil {
		sched = schedule.Real{}
	}
	if frame <= 0 {
		frame = DefaultFrame
	}
	if onTick == nil {
		onTick = func(time.Duration) {}
	}
	return &Timer{now: now, sched: sched, frame: frame, onTick: onTick}
}

// Start begins or resumes timing. It is a no-op while running.
func (t *Timer) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.run++
	t.origin = t.now().Add(-t.elapsed)
	run := t.run
	t.mu.Unlock()

	t.tick(run)
}

// Stop halts sampling and keeps the elapsed time.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Timer) stopLocked() {
	if t.running {
		t.elapsed = t.now().Sub(t.origin)
	}
	t.running = false
	t.run++
	if t.next != nil {
		t.next.Cancel()
		t.next = nil
	}
}

// Reset stops the timer, zeroes it and reports zero to the callback.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.stopLocked()
	t.elapsed = 0
	t.mu.Unlock()

	t.onTick(0)
}

// Elapsed returns the accumulated time, live while running.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return t.now().Sub(t.origin)
	}
	return t.elapsed
}

// Running reports whether the timer is sampling.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) tick(run uint64) {
	t.mu.Lock()
	if !t.running || run != t.run {
		t.mu.Unlock()
		return
	}
	t.elapsed = t.now().Sub(t.origin)
	elapsed := t.elapsed
	t.next = t.sched.Schedule(t.frame, func() { t.tick(run) })
	t.mu.Unlock()

	t.onTick(elapsed)
}

// Format renders d as M:SS. Minutes are not padded and partial seconds
// are dropped, so 59.9s is "0:59".
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Millis converts d to whole milliseconds, the unit scores are stored in.
func Millis(d time.Duration) int64 {
	return d.Milliseconds()
}
