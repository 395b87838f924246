package tracker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/listenupapp/readtrack/internal/domain"
)

// fakeClock fires timers synchronously from Advance, in deadline order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward by d, running every timer that comes due on the way.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()

		next.fn()
	}
}

// pending returns the number of timers that have neither fired nor been stopped.
func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (c *fakeClock) nextDueLocked(target time.Time) *fakeTimer {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	c.timers = live

	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].at.Equal(c.timers[j].at) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].at.Before(c.timers[j].at)
	})
	if len(c.timers) == 0 || c.timers[0].at.After(target) {
		return nil
	}
	return c.timers[0]
}

// fakeGateway records every delivery.
type fakeGateway struct {
	mu        sync.Mutex
	sent      []domain.SessionRecord
	beacons   []domain.SessionRecord
	sendErr   error
	beaconErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{}
}

func (g *fakeGateway) Send(_ context.Context, rec domain.SessionRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, rec)
	return g.sendErr
}

func (g *fakeGateway) Beacon(rec domain.SessionRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.beaconErr != nil {
		return g.beaconErr
	}
	g.beacons = append(g.beacons, rec)
	return nil
}

func (g *fakeGateway) Sent() []domain.SessionRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.SessionRecord(nil), g.sent...)
}

func (g *fakeGateway) Beacons() []domain.SessionRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.SessionRecord(nil), g.beacons...)
}

var errOffline = errors.New("offline")
