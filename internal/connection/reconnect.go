package connection

import "time"

// stopper is the part of *time.Timer the scheduler needs.
type stopper interface {
	Stop() bool
}

// afterFunc matches time.AfterFunc.
type afterFunc func(d time.Duration, f func()) stopper

func realAfterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// backoffDelay is linear: base for the first attempt, 2*base for the
// second, and so on.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(attempt)
}

// reconnectScheduler holds at most one pending reconnect timer. It is not
// safe for concurrent use; the Manager guards it with its own mutex.
//
// Every arm or cancel bumps the generation, so a callback that was already
// running when its timer was cancelled can tell it is stale.
type reconnectScheduler struct {
	after afterFunc
	timer stopper
	gen   uint64
}

// arm replaces any pending timer with one that calls fire(gen) after delay.
func (s *reconnectScheduler) arm(delay time.Duration, fire func(gen uint64)) {
	s.cancel()
	gen := s.gen
	s.timer = s.after(delay, func() { fire(gen) })
}

// cancel stops the pending timer, if any.
func (s *reconnectScheduler) cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// claim reports whether gen is the pending timer and, if so, clears it.
func (s *reconnectScheduler) claim(gen uint64) bool {
	if s.timer == nil || gen != s.gen {
		return false
	}
	s.timer = nil
	return true
}

func (s *reconnectScheduler) pending() bool {
	return s.timer != nil
}
