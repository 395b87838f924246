package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHost_EmitFiltersByKind(t *testing.T) {
	h := NewHost()

	var got []ActivityKind
	unsubscribe := h.SubscribeActivity([]ActivityKind{ActivityKeyPress}, func(k ActivityKind) {
		got = append(got, k)
	})

	h.Emit(ActivityPointerMove)
	h.Emit(ActivityKeyPress)
	assert.Equal(t, []ActivityKind{ActivityKeyPress}, got)

	unsubscribe()
	unsubscribe()
	h.Emit(ActivityKeyPress)
	assert.Len(t, got, 1)
	assert.Equal(t, 0, h.ActivitySubscribers())
}

func TestHost_VisibilityFiresOnTransitionsOnly(t *testing.T) {
	h := NewHost()

	var changes []bool
	h.OnVisibilityChange(func(hidden bool) { changes = append(changes, hidden) })

	h.SetHidden(false)
	h.SetHidden(true)
	h.SetHidden(true)
	h.SetHidden(false)

	assert.Equal(t, []bool{true, false}, changes)
	assert.False(t, h.Hidden())
}

func TestHost_TeardownFiresOnce(t *testing.T) {
	h := NewHost()

	calls := 0
	h.OnTeardown(func() { calls++ })

	var changes []bool
	h.OnVisibilityChange(func(hidden bool) { changes = append(changes, hidden) })

	h.Teardown()
	h.Teardown()
	h.SetHidden(true)

	assert.Equal(t, 1, calls)
	assert.Empty(t, changes, "no visibility changes after teardown")
}

func TestHost_HandlersMayResubscribe(t *testing.T) {
	h := NewHost()

	var inner func()
	h.SubscribeActivity(ActivityKinds, func(ActivityKind) {
		if inner == nil {
			inner = h.SubscribeActivity(ActivityKinds, func(ActivityKind) {})
		}
	})

	h.Emit(ActivityScroll)
	assert.Equal(t, 2, h.ActivitySubscribers())
	inner()
	assert.Equal(t, 1, h.ActivitySubscribers())
}
