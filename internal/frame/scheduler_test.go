package frame

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneopane/prise/internal/loop"
)

func fakeClock(start time.Time) (Clock, *time.Time) {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return t
	}, &t
}

func TestWakeRendersImmediatelyWhenIntervalElapsed(t *testing.T) {
	lp := loop.New()
	go lp.Run()
	defer lp.Stop()

	now := time.Now()
	clock, _ := fakeClock(now.Add(-time.Second))

	var renders atomic.Int32
	s := New(lp, clock, func() { renders.Add(1) })

	s.Wake()
	assert.Equal(t, int32(1), renders.Load())
}

func TestWakeSchedulesTimerWhenTooSoon(t *testing.T) {
	lp := loop.New()
	go lp.Run()
	defer lp.Stop()

	base := time.Now()
	var mu sync.Mutex
	cur := base
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return cur
	}

	var renders atomic.Int32
	done := make(chan struct{})
	s := New(lp, clock, func() {
		renders.Add(1)
		close(done)
	})

	s.lastRender = base // prime lastRender to "now"
	renders.Store(0)

	mu.Lock()
	cur = base.Add(2 * time.Millisecond)
	mu.Unlock()

	s.Wake()
	assert.True(t, s.timerArmed)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	assert.Equal(t, int32(1), renders.Load())
	assert.False(t, s.timerArmed)
}

func TestWakeIsNoOpWhileTimerAlreadyArmed(t *testing.T) {
	lp := loop.New()
	go lp.Run()
	defer lp.Stop()

	base := time.Now()
	clock := func() time.Time { return base }

	var renders atomic.Int32
	s := New(lp, clock, func() { renders.Add(1) })
	s.lastRender = base

	s.armTimer(50 * time.Millisecond)
	s.Wake() // should be swallowed; a timer already covers it
	s.Wake()

	assert.Equal(t, int32(0), renders.Load())
}

func TestCancelPendingVoidsScheduledTimer(t *testing.T) {
	lp := loop.New()
	go lp.Run()
	defer lp.Stop()

	clock := func() time.Time { return time.Now() }
	var renders atomic.Int32
	s := New(lp, clock, func() { renders.Add(1) })

	s.armTimer(30 * time.Millisecond)
	s.CancelPending()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), renders.Load())
}

func TestTargetIntervalIsEightMilliseconds(t *testing.T) {
	require.Equal(t, 8*time.Millisecond, TargetInterval)
}
