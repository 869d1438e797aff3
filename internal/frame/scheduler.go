// Package frame coalesces a session's signal-pipe wakes into frames at a
// target cadence, per §4.5: bursty PTY output must not exceed one redraw
// per frame interval, but the last update in a burst must always land
// within one frame of being seen.
package frame

import (
	"time"

	"github.com/oneopane/prise/internal/loop"
)

// TargetInterval bounds redraw notifications to roughly 125 Hz per
// session regardless of how bursty the underlying PTY output is.
const TargetInterval = 8 * time.Millisecond

// Clock abstracts time.Now so tests can drive the scheduler deterministically.
type Clock func() time.Time

// Scheduler owns one session's render cadence. It is driven entirely from
// the loop thread: Wake is called when the session's signal pipe becomes
// readable, and the render timer (when armed) posts back through the same
// loop via SubmitTimeout.
type Scheduler struct {
	lp     *loop.Loop
	now    Clock
	render func()

	lastRender time.Time
	timerArmed bool
	timerTask  loop.Handle
}

// New builds a scheduler that calls render() whenever a frame is due.
// render must not block; it runs on the loop thread.
func New(lp *loop.Loop, now Clock, render func()) *Scheduler {
	return &Scheduler{lp: lp, now: now, render: render}
}

// Wake is called after the session's signal pipe has been drained. It
// implements §4.5's algorithm exactly: render immediately if the last
// frame was long enough ago and nothing is already scheduled; otherwise
// arm a one-shot timer for the remainder of the interval; otherwise do
// nothing, since a pending timer already covers this wake.
func (s *Scheduler) Wake() {
	if s.timerArmed {
		return
	}

	delta := s.now().Sub(s.lastRender)
	if delta >= TargetInterval {
		s.fire()
		return
	}

	s.armTimer(TargetInterval - delta)
}

func (s *Scheduler) armTimer(d time.Duration) {
	s.timerArmed = true
	s.timerTask = s.lp.SubmitTimeout(d, func(c loop.Completion) {
		s.timerArmed = false
		if c.Cancelled {
			return
		}
		s.fire()
	})
}

func (s *Scheduler) fire() {
	s.lastRender = s.now()
	s.render()
}

// CancelPending cancels any scheduled render timer, used during session
// teardown so a queued render never fires against a freed session.
func (s *Scheduler) CancelPending() {
	if s.timerArmed {
		s.lp.CancelTask(s.timerTask)
		s.timerArmed = false
	}
}
