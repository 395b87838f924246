package tracker

import (
	"sync"
	"time"
)

// IdleMonitor watches the merged activity stream and fires once no qualifying
// activity has been seen for the idle timeout.
//
// Activity is debounced: the first signal after a quiet spell opens a window, and
// the idle countdown is restarted once when that window closes, however many
// signals arrived inside it.
type IdleMonitor struct {
	mu       sync.Mutex
	clock    Clock
	source   ActivitySource
	timeout  time.Duration
	debounce time.Duration
	onIdle   func(gen uint64)

	armed       bool
	arming      uint64 // bumped on every Arm/Disarm; stale debounce callbacks compare against it
	idleGen     uint64 // bumped whenever the idle countdown is restarted or cleared
	unsubscribe func()
	idleTimer   Timer
	debounceTmr Timer
}

func newIdleMonitor(clock Clock, source ActivitySource, timeout, debounce time.Duration, onIdle func(gen uint64)) *IdleMonitor {
	return &IdleMonitor{
		clock:    clock,
		source:   source,
		timeout:  timeout,
		debounce: debounce,
		onIdle:   onIdle,
	}
}

// Arm subscribes to activity and starts a fresh idle countdown.
// Arming an armed monitor starts over.
func (m *IdleMonitor) Arm() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.disarmLocked()
	m.armed = true
	m.arming++
	if m.source != nil {
		m.unsubscribe = m.source.SubscribeActivity(ActivityKinds, m.activity)
	}
	m.restartLocked()
}

// Disarm unsubscribes from activity and clears both timers.
func (m *IdleMonitor) Disarm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disarmLocked()
}

// Reset restarts the idle countdown immediately, bypassing the debounce window.
// It does nothing while disarmed.
func (m *IdleMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.armed {
		m.restartLocked()
	}
}

// Armed reports whether the monitor is subscribed and counting down.
func (m *IdleMonitor) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

// isCurrent reports whether an idle callback carrying gen is still the live countdown.
func (m *IdleMonitor) isCurrent(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed && gen == m.idleGen
}

func (m *IdleMonitor) disarmLocked() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
	if m.debounceTmr != nil {
		m.debounceTmr.Stop()
		m.debounceTmr = nil
	}
	if m.armed {
		m.arming++
	}
	m.idleGen++
	m.armed = false
}

func (m *IdleMonitor) restartLocked() {
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}
	m.idleGen++
	gen := m.idleGen
	m.idleTimer = m.clock.AfterFunc(m.timeout, func() { m.expired(gen) })
}

func (m *IdleMonitor) activity(ActivityKind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.armed || m.debounceTmr != nil {
		return
	}
	arming := m.arming
	m.debounceTmr = m.clock.AfterFunc(m.debounce, func() { m.settled(arming) })
}

func (m *IdleMonitor) settled(arming uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.armed || arming != m.arming {
		return
	}
	m.debounceTmr = nil
	m.restartLocked()
}

func (m *IdleMonitor) expired(gen uint64) {
	m.mu.Lock()
	live := m.armed && gen == m.idleGen
	m.mu.Unlock()

	if live && m.onIdle != nil {
		m.onIdle(gen)
	}
}
