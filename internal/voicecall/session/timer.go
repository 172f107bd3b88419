package session

import "time"

// timer is a single-shot timer handle owned by the session goroutine.
// Relies on Go 1.23 timer semantics: after Stop or Reset no stale expiry is
// delivered on C.
type timer struct {
	t *time.Timer
}

// Arm starts the timer, replacing any pending expiry.
func (w *timer) Arm(d time.Duration) {
	if w.t == nil {
		w.t = time.NewTimer(d)
		return
	}
	w.t.Reset(d)
}

// Stop cancels the pending expiry, if any.
func (w *timer) Stop() {
	if w.t != nil {
		w.t.Stop()
		w.t = nil
	}
}

// Armed reports whether an expiry is pending.
func (w *timer) Armed() bool {
	return w.t != nil
}

// C is nil while the timer is not armed, which blocks forever in a select.
func (w *timer) C() <-chan time.Time {
	if w.t == nil {
		return nil
	}
	return w.t.C
}

// fired clears the handle after its expiry has been received.
func (w *timer) fired() {
	w.t = nil
}

// watchdog is the inactivity timer, rearmed by caller activity while the
// session is ACTIVE.
type watchdog struct {
	timer
	timeout time.Duration
}

func newWatchdog(timeout time.Duration) *watchdog {
	return &watchdog{timeout: timeout}
}

// Reset rearms the watchdog for a full timeout from now.
func (w *watchdog) Reset() {
	w.Arm(w.timeout)
}
