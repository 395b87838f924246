package tracker

import "sync"

// ActivityKind is one class of user input that counts as engagement.
type ActivityKind string

const (
	ActivityPointerMove ActivityKind = "pointermove"
	ActivityPointerDown ActivityKind = "pointerdown"
	ActivityKeyPress    ActivityKind = "keypress"
	ActivityScroll      ActivityKind = "scroll"
	ActivityTouchStart  ActivityKind = "touchstart"
)

// ActivityKinds is the fixed set of signals the idle monitor listens to.
var ActivityKinds = []ActivityKind{
	ActivityPointerMove,
	ActivityPointerDown,
	ActivityKeyPress,
	ActivityScroll,
	ActivityTouchStart,
}

// ActivitySource delivers user-input signals.
type ActivitySource interface {
	// SubscribeActivity registers fn for the given kinds and returns a function that
	// removes the subscription. The returned function is safe to call more than once.
	SubscribeActivity(kinds []ActivityKind, fn func(ActivityKind)) (unsubscribe func())
}

// PageSignals delivers host lifecycle signals.
type PageSignals interface {
	// OnVisibilityChange registers fn to be called with the new hidden state on every transition.
	OnVisibilityChange(fn func(hidden bool)) (unsubscribe func())
	// OnTeardown registers fn to be called once when the host is going away.
	// fn must return quickly; nothing it starts can be awaited.
	OnTeardown(fn func()) (unsubscribe func())
}

// Environment is everything the tracker needs from its host.
type Environment interface {
	ActivitySource
	PageSignals
}

type activitySub struct {
	kinds map[ActivityKind]bool
	fn    func(ActivityKind)
}

// Host is an in-process Environment. Host programs push signals into it and the
// tracker subscribes to them. Handlers run synchronously on the caller's goroutine
// with no Host lock held.
type Host struct {
	mu         sync.Mutex
	nextID     int
	activity   map[int]activitySub
	visibility map[int]func(bool)
	teardown   map[int]func()
	hidden     bool
	tornDown   bool
}

// NewHost creates a visible host with no subscribers.
func NewHost() *Host {
	return &Host{
		activity:   make(map[int]activitySub),
		visibility: make(map[int]func(bool)),
		teardown:   make(map[int]func()),
	}
}

// SubscribeActivity implements ActivitySource.
func (h *Host) SubscribeActivity(kinds []ActivityKind, fn func(ActivityKind)) func() {
	set := make(map[ActivityKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.activity[id] = activitySub{kinds: set, fn: fn}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.activity, id)
		h.mu.Unlock()
	}
}

// OnVisibilityChange implements PageSignals.
func (h *Host) OnVisibilityChange(fn func(hidden bool)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.visibility[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.visibility, id)
		h.mu.Unlock()
	}
}

// OnTeardown implements PageSignals.
func (h *Host) OnTeardown(fn func()) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.teardown[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.teardown, id)
		h.mu.Unlock()
	}
}

// Emit delivers one activity signal to every subscriber of that kind.
func (h *Host) Emit(kind ActivityKind) {
	h.mu.Lock()
	fns := make([]func(ActivityKind), 0, len(h.activity))
	for _, sub := range h.activity {
		if sub.kinds[kind] {
			fns = append(fns, sub.fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(kind)
	}
}

// SetHidden records the host's visibility. Subscribers are notified only on a transition.
func (h *Host) SetHidden(hidden bool) {
	h.mu.Lock()
	if h.hidden == hidden || h.tornDown {
		h.mu.Unlock()
		return
	}
	h.hidden = hidden
	fns := make([]func(bool), 0, len(h.visibility))
	for _, fn := range h.visibility {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(hidden)
	}
}

// Hidden reports the current visibility state.
func (h *Host) Hidden() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hidden
}

// Teardown fires the teardown signal. Only the first call has any effect.
func (h *Host) Teardown() {
	h.mu.Lock()
	if h.tornDown {
		h.mu.Unlock()
		return
	}
	h.tornDown = true
	fns := make([]func(), 0, len(h.teardown))
	for _, fn := range h.teardown {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// ActivitySubscribers returns the number of live activity subscriptions.
func (h *Host) ActivitySubscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.activity)
}
