package tracker

// handleVisibility gates the idle monitor on host visibility. It never touches
// session content: a hidden host freezes the countdown, a visible one restarts it
// from the full window so time spent in the background is never credited toward idling out.
func (t *Tracker) handleVisibility(hidden bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return
	}

	switch {
	case hidden && t.state == StateActive:
		t.idle.Disarm()
		t.state = StatePaused
		t.logger.Debug("reading session paused", "book_id", t.session.bookID)
	case !hidden && t.state == StatePaused:
		t.idle.Arm()
		t.state = StateActive
		t.logger.Debug("reading session resumed", "book_id", t.session.bookID)
	}
}
