package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestMonitor(t *testing.T) (*IdleMonitor, *Host, *fakeClock, *[]uint64) {
	t.Helper()
	clock := newFakeClock()
	host := NewHost()
	fired := &[]uint64{}
	m := newIdleMonitor(clock, host, 5*time.Minute, time.Second, func(gen uint64) {
		*fired = append(*fired, gen)
	})
	return m, host, clock, fired
}

func TestIdleMonitor_FiresAfterTimeout(t *testing.T) {
	m, _, clock, fired := newTestMonitor(t)

	m.Arm()
	assert.True(t, m.Armed())

	clock.Advance(5*time.Minute - time.Millisecond)
	assert.Empty(t, *fired)

	clock.Advance(time.Millisecond)
	assert.Len(t, *fired, 1)
	assert.True(t, m.isCurrent((*fired)[0]))
}

func TestIdleMonitor_DisarmClearsEverything(t *testing.T) {
	m, host, clock, fired := newTestMonitor(t)

	m.Arm()
	host.Emit(ActivityTouchStart)
	assert.Equal(t, 2, clock.pending())

	m.Disarm()
	assert.False(t, m.Armed())
	assert.Equal(t, 0, host.ActivitySubscribers())
	assert.Equal(t, 0, clock.pending())

	clock.Advance(time.Hour)
	assert.Empty(t, *fired)
}

func TestIdleMonitor_RearmDoesNotLeakSubscriptions(t *testing.T) {
	m, host, _, _ := newTestMonitor(t)

	for range 5 {
		m.Arm()
	}
	assert.Equal(t, 1, host.ActivitySubscribers())

	m.Disarm()
	m.Disarm()
	assert.Equal(t, 0, host.ActivitySubscribers())
}

func TestIdleMonitor_StaleDebounceIgnoredAfterRearm(t *testing.T) {
	m, host, clock, fired := newTestMonitor(t)

	m.Arm()
	host.Emit(ActivityPointerDown)
	m.Disarm()
	m.Arm()

	// The old debounce timer was stopped; the fresh countdown runs untouched.
	clock.Advance(5 * time.Minute)
	assert.Len(t, *fired, 1)
}

func TestIdleMonitor_ResetIgnoredWhileDisarmed(t *testing.T) {
	m, _, clock, fired := newTestMonitor(t)

	m.Reset()
	assert.Equal(t, 0, clock.pending())

	clock.Advance(10 * time.Minute)
	assert.Empty(t, *fired)
}

func TestIdleMonitor_ActivityIgnoredWhileDisarmed(t *testing.T) {
	m, _, clock, _ := newTestMonitor(t)

	m.activity(ActivityScroll)
	assert.Equal(t, 0, clock.pending())
}
