package buffer

// signal is the readiness flag of a BipBuffer. It is raised on the
// empty -> non-empty transition and lowered on non-empty -> empty. Each raise
// also posts to notify without blocking, so a waiter can select on it to drive
// its own wake-up. Callers hold the buffer lock.
type signal struct {
	on     bool
	notify chan struct{}
}

func newSignal() signal {
	return signal{notify: make(chan struct{}, 1)}
}

func (s *signal) raise() {
	if s.on {
		return
	}
	s.on = true
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *signal) lower() {
	s.on = false
}

// update raises or lowers the flag for a used-size transition.
func (s *signal) update(before, after int) {
	switch {
	case before <= 0 && after > 0:
		s.raise()
	case before > 0 && after <= 0:
		s.lower()
	}
}

// sync forces the flag to match the used size. Growth and Clear use it
// because they rebuild the ledger instead of moving through commits.
func (s *signal) sync(used int) {
	if used > 0 {
		s.raise()
		return
	}
	s.lower()
}
