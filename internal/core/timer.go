package core

import "time"

// Throttle limits how often an action may fire. Calls between slots are
// remembered so the last one can be flushed once the interval passes.
// It is meant for the single-threaded UI loop and is not synchronized.
type Throttle struct {
	interval time.Duration
	last     time.Time
	pending  bool
	now      func() time.Time
}

// NewThrottle allows at most perSecond firings per second.
func NewThrottle(perSecond int) *Throttle {
	t := &Throttle{now: time.Now}
	t.SetRate(perSecond)
	return t
}

// SetRate changes the allowed firings per second. Non-positive means 30.
func (t *Throttle) SetRate(perSecond int) {
	if perSecond <= 0 {
		perSecond = 30
	}
	t.interval = time.Second / time.Duration(perSecond)
}

// Trigger records a request and reports whether it may fire now.
func (t *Throttle) Trigger() bool {
	now := t.now()
	if t.last.IsZero() || now.Sub(t.last) >= t.interval {
		t.last = now
		t.pending = false
		return true
	}
	t.pending = true
	return false
}

// Flush reports whether a suppressed request is due. Call it every frame.
func (t *Throttle) Flush() bool {
	if !t.pending {
		return false
	}
	now := t.now()
	if now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	t.pending = false
	return true
}

// Pending reports whether a request is waiting to be flushed.
func (t *Throttle) Pending() bool { return t.pending }
