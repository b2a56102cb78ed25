package fetch

import "sync"

// Subscription is one subscriber's attachment to a cache key.
type Subscription struct {
	id       uint64
	cache    *Cache
	entry    *entry
	listener Listener

	mu     sync.Mutex
	last   State
	closed bool

	notify   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newSubscription(id uint64, c *Cache, e *entry, listener Listener) *Subscription {
	s := &Subscription{
		id:       id,
		cache:    c,
		entry:    e,
		listener: listener,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if listener != nil {
		go s.loop()
	} else {
		close(s.done)
	}
	return s
}

// State returns the latest state seen by the subscription.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Key returns the canonical cache key, or "" for a subscription refused by a
// closed cache.
func (s *Subscription) Key() string {
	if s.entry == nil {
		return ""
	}
	return s.entry.key
}

// Refetch issues a new fetch for the subscription's key. A closed
// subscription refetches nothing.
func (s *Subscription) Refetch() bool {
	if s.entry == nil {
		return false
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return false
	}
	return s.cache.refetch(s.entry)
}

// Close detaches the subscription. Results settling afterwards are not
// delivered to it. Close may be called from the listener.
func (s *Subscription) Close() {
	s.stop()
	s.cache.detach(s)
}

// Done is closed once the listener goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.notify)
	})
}

// deliver records st and wakes the listener. States older than the last one
// delivered are dropped.
func (s *Subscription) deliver(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || st.version < s.last.version {
		return
	}
	s.last = st
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) loop() {
	defer close(s.done)
	for range s.notify {
		s.mu.Lock()
		st, closed := s.last, s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		s.listener(st)
	}
}
