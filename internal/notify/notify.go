// internal/notify/notify.go
//
// Transient notifications with auto-dismiss.
//
// Context
// -------
// A Center holds at most one live Notification.  Show replaces whatever is
// visible; nothing is queued.  Each notification owns exactly one timer,
// which is stopped when the notification is replaced, dismissed early, or
// the Center is closed.  A timer that fires after its notification was
// superseded finds a different ID and does nothing.
//
// Instrumentation
// ---------------
//   • shortly_notifications_shown_total{kind}
//   • shortly_notifications_dismissed_total{reason}

package notify

import (
	"sync"
	"time"

	"github.com/yanizio/shortly/internal/metrics"
)

// DefaultDuration is how long a notification stays visible.
const DefaultDuration = 2 * time.Second

// Kind is the visual category of a notification.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Notification is an immutable snapshot of one message.
type Notification struct {
	ID      uint64
	Message string
	Kind    Kind
	Shown   time.Time
	Expires time.Time
}

// Timer is the subset of *time.Timer a Center needs.
type Timer interface {
	Stop() bool
}

// Options overrides the clock and scheduler, mainly for tests.
type Options struct {
	Now       func() time.Time
	AfterFunc func(d time.Duration, f func()) Timer
}

// Center is safe for concurrent use.
type Center struct {
	ttl       time.Duration
	now       func() time.Time
	afterFunc func(time.Duration, func()) Timer

	mu     sync.Mutex
	seq    uint64
	cur    *Notification
	timer  Timer
	closed bool
}

// NewCenter returns a Center whose notifications last ttl.  A non-positive
// ttl selects DefaultDuration.
func NewCenter(ttl time.Duration, opts Options) *Center {
	if ttl <= 0 {
		ttl = DefaultDuration
	}
	c := &Center{ttl: ttl, now: opts.Now, afterFunc: opts.AfterFunc}
	if c.now == nil {
		c.now = time.Now
	}
	if c.afterFunc == nil {
		c.afterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	return c
}

// Show makes msg the live notification and schedules its removal.
func (c *Center) Show(msg string, kind Kind) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cur != nil {
		c.stopLocked("replaced")
	}

	c.seq++
	now := c.now()
	n := Notification{ID: c.seq, Message: msg, Kind: kind, Shown: now, Expires: now.Add(c.ttl)}
	metrics.NotificationsShown.WithLabelValues(string(kind)).Inc()
	if c.closed {
		return n
	}

	c.cur = &n
	id := n.ID
	c.timer = c.afterFunc(c.ttl, func() { c.expire(id) })
	return n
}

// Dismiss removes notification id if it is still live.  It reports whether
// anything was removed.
func (c *Center) Dismiss(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil || c.cur.ID != id {
		return false
	}
	c.stopLocked("user")
	return true
}

// Current returns the live notification, if any.
func (c *Center) Current() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return Notification{}, false
	}
	return *c.cur, true
}

// Close stops any pending timer.  Later Show calls are counted but never
// become visible.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != nil {
		c.stopLocked("closed")
	}
	c.closed = true
}

func (c *Center) expire(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil || c.cur.ID != id {
		return
	}
	c.cur = nil
	c.timer = nil
	metrics.NotificationsDismissed.WithLabelValues("timeout").Inc()
}

func (c *Center) stopLocked(reason string) {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.cur = nil
	metrics.NotificationsDismissed.WithLabelValues(reason).Inc()
}
