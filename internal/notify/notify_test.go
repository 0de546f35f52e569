package notify

import (
	"sync"
	"testing"
	"time"
)

// fakeClock records scheduled callbacks and fires them on Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock and runs every due, unstopped callback.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func newTestCenter() (*Center, *fakeClock) {
	clk := &fakeClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	return NewCenter(DefaultDuration, Options{Now: clk.Now, AfterFunc: clk.AfterFunc}), clk
}

func TestAutoDismissAfterWindow(t *testing.T) {
	c, clk := newTestCenter()
	n := c.Show("Link shortened", Success)

	clk.Advance(DefaultDuration - time.Millisecond)
	if cur, ok := c.Current(); !ok || cur.ID != n.ID {
		t.Fatalf("notification gone before its window elapsed")
	}

	clk.Advance(2 * time.Millisecond)
	if _, ok := c.Current(); ok {
		t.Fatalf("notification still visible after %s", DefaultDuration)
	}
}

func TestReplaceStopsPreviousTimer(t *testing.T) {
	c, clk := newTestCenter()
	c.Show("first", Success)

	clk.Advance(time.Second)
	second := c.Show("second", Error)

	if !clk.timers[0].stopped {
		t.Fatalf("first timer not stopped on replacement")
	}

	// The first timer's deadline passes; the second must survive it.
	clk.Advance(1500 * time.Millisecond)
	cur, ok := c.Current()
	if !ok || cur.ID != second.ID || cur.Message != "second" {
		t.Fatalf("replacement dismissed early: %+v ok=%v", cur, ok)
	}

	clk.Advance(time.Second)
	if _, ok := c.Current(); ok {
		t.Fatalf("replacement not auto-dismissed")
	}
}

func TestStaleTimerIsNoop(t *testing.T) {
	c, _ := newTestCenter()
	first := c.Show("first", Success)
	second := c.Show("second", Success)

	// Simulate a timer that fired concurrently with the replacement.
	c.expire(first.ID)

	if cur, ok := c.Current(); !ok || cur.ID != second.ID {
		t.Fatalf("stale expiry removed the live notification")
	}
}

func TestDismissEarly(t *testing.T) {
	c, clk := newTestCenter()
	n := c.Show("bye", Error)

	if c.Dismiss(n.ID + 1) {
		t.Fatalf("dismissed an unknown id")
	}
	if !c.Dismiss(n.ID) {
		t.Fatalf("Dismiss returned false for the live notification")
	}
	if !clk.timers[0].stopped {
		t.Fatalf("timer leaked after early dismissal")
	}
	if c.Dismiss(n.ID) {
		t.Fatalf("second Dismiss succeeded")
	}
}

func TestCloseStopsTimer(t *testing.T) {
	c, clk := newTestCenter()
	c.Show("x", Success)
	c.Close()
	if !clk.timers[0].stopped {
		t.Fatalf("Close left the timer running")
	}
	c.Show("after close", Success)
	if _, ok := c.Current(); ok {
		t.Fatalf("closed center shows notifications")
	}
	if len(clk.timers) != 1 {
		t.Fatalf("closed center scheduled a timer")
	}
}

func TestRealTimerExpires(t *testing.T) {
	c := NewCenter(20*time.Millisecond, Options{})
	c.Show("real", Success)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := c.Current(); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("notification not dismissed by the real timer")
}
