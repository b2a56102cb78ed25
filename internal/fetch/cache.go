package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrClosed is reported to subscriptions made after the cache was closed.
var ErrClosed = errors.New("fetch cache closed")

// Fetcher loads the value for a key. It runs on its own goroutine with the
// cache's context, not the subscriber's.
type Fetcher func(ctx context.Context) (any, error)

// Listener receives state changes for a subscription on the subscription's
// own goroutine. Calls are serialised; intermediate states may be coalesced
// so the listener always sees the latest one.
type Listener func(State)

// Options configures a Cache.
type Options struct {
	Logger *slog.Logger
	// RefetchOnFocus is the default focus policy for queries that do not set one.
	RefetchOnFocus bool
	// Registerer receives the cache metrics. Nil disables registration.
	Registerer prometheus.Registerer
	// Namespace prefixes metric names.
	Namespace string
}

type queryOptions struct {
	placeholder    any
	hasPlaceholder bool
	refetchOnFocus bool
}

// QueryOption configures a query on its first subscription.
type QueryOption func(*queryOptions)

// WithPlaceholder serves value synchronously until the first result arrives.
func WithPlaceholder(value any) QueryOption {
	return func(o *queryOptions) {
		o.placeholder = value
		o.hasPlaceholder = true
	}
}

// WithRefetchOnFocus overrides the cache's focus refetch policy for a query.
func WithRefetchOnFocus(enabled bool) QueryOption {
	return func(o *queryOptions) {
		o.refetchOnFocus = enabled
	}
}

type entry struct {
	key       string
	parts     Key
	status    Status
	value     any
	hasValue  bool
	err       error
	inFlight  int
	gen       uint64
	version   uint64
	fetcher   Fetcher
	opts      queryOptions
	subs      map[uint64]*Subscription
	updatedAt time.Time
}

func (e *entry) stateLocked() State {
	st := State{
		Status:     e.status,
		Value:      e.value,
		Err:        e.err,
		IsLoading:  e.status == StatusLoading && !e.hasValue,
		IsError:    e.status == StatusErrored,
		IsFetching: e.inFlight > 0,
		UpdatedAt:  e.updatedAt,
		version:    e.version,
	}
	if !e.hasValue && e.opts.hasPlaceholder {
		st.Value = e.opts.placeholder
		st.IsPlaceholder = true
	}
	return st
}

func (e *entry) subscribersLocked() []*Subscription {
	subs := make([]*Subscription, 0, len(e.subs))
	for _, s := range e.subs {
		subs = append(subs, s)
	}
	return subs
}

// Cache is a process-local, keyed query cache. Each key has at most one
// entry; errors and values never cross keys.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextSub uint64
	closed  bool

	opts    Options
	logger  *slog.Logger
	metrics *metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a cache. Close releases it.
func New(opts Options) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := newMetrics(opts.Namespace)
	if opts.Registerer != nil {
		if err := m.register(opts.Registerer); err != nil {
			logger.Warn("failed to register fetch cache metrics", "error", err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		entries: make(map[string]*entry),
		opts:    opts,
		logger:  logger,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Subscribe registers listener for key. The first subscription for an idle
// key issues fetch; subscriptions while a fetch is in flight join it; settled
// entries are served from cache. Options apply only when the subscription
// creates the entry.
func (c *Cache) Subscribe(key Key, fetch Fetcher, listener Listener, opts ...QueryOption) *Subscription {
	id := key.String()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sub := newSubscription(0, c, nil, listener)
		sub.deliver(State{Status: StatusErrored, Err: ErrClosed, IsError: true, version: 1})
		return sub
	}

	e, ok := c.entries[id]
	if !ok {
		q := queryOptions{refetchOnFocus: c.opts.RefetchOnFocus}
		for _, opt := range opts {
			opt(&q)
		}
		e = &entry{
			key:     id,
			parts:   key,
			status:  StatusIdle,
			fetcher: fetch,
			opts:    q,
			subs:    make(map[uint64]*Subscription),
			version: 1,
		}
		c.entries[id] = e
	}

	c.nextSub++
	sub := newSubscription(c.nextSub, c, e, listener)
	e.subs[sub.id] = sub

	switch {
	case e.status == StatusIdle:
		c.metrics.subscriptions.WithLabelValues("miss").Inc()
		c.startLocked(e)
	case e.inFlight > 0:
		c.metrics.subscriptions.WithLabelValues("dedup").Inc()
	default:
		c.metrics.subscriptions.WithLabelValues("hit").Inc()
	}
	st := e.stateLocked()
	c.mu.Unlock()

	sub.deliver(st)
	return sub
}

// startLocked issues a new fetch generation for e. Results of earlier
// generations still in flight will be discarded.
func (c *Cache) startLocked(e *entry) {
	e.gen++
	gen := e.gen
	e.status = StatusLoading
	e.inFlight++
	e.version++
	fetch := e.fetcher

	c.metrics.fetches.Inc()
	c.metrics.inFlight.Inc()
	c.logger.Debug("fetch started", "key", e.key, "generation", gen)

	c.wg.Add(1)
	go c.run(e, gen, fetch)
}

func (c *Cache) run(e *entry, gen uint64, fetch Fetcher) {
	defer c.wg.Done()

	value, err := safeFetch(c.ctx, fetch)
	c.metrics.inFlight.Dec()

	c.mu.Lock()
	e.inFlight--
	if c.entries[e.key] != e || gen != e.gen {
		c.mu.Unlock()
		c.metrics.staleResults.Inc()
		c.logger.Debug("discarding stale fetch result", "key", e.key, "generation", gen)
		return
	}

	e.updatedAt = time.Now()
	e.version++
	if err != nil {
		e.status = StatusErrored
		e.err = err
		c.metrics.errors.Inc()
		c.logger.Warn("fetch failed", "key", e.key, "generation", gen, "error", err)
	} else {
		e.status = StatusReady
		e.value = value
		e.hasValue = true
		e.err = nil
	}
	st := e.stateLocked()
	subs := e.subscribersLocked()
	c.mu.Unlock()

	for _, s := range subs {
		s.deliver(st)
	}
}

func safeFetch(ctx context.Context, fetch Fetcher) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return fetch(ctx)
}

// Refetch issues a new fetch for key. It reports false when no entry exists.
func (c *Cache) Refetch(key Key) bool {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	c.mu.Unlock()
	if !ok {
		return false
	}
	return c.refetch(e)
}

// RefetchMatching refetches every entry whose key satisfies match and returns
// how many were refetched.
func (c *Cache) RefetchMatching(match func(Key) bool) int {
	c.mu.Lock()
	var targets []*entry
	for _, e := range c.entries {
		if match(e.parts) {
			targets = append(targets, e)
		}
	}
	c.mu.Unlock()

	n := 0
	for _, e := range targets {
		if c.refetch(e) {
			n++
		}
	}
	return n
}

// Focus signals that the environment regained focus. Ready entries whose
// query allows it are refetched; the number refetched is returned. Errored
// entries wait for an explicit refetch.
func (c *Cache) Focus() int {
	c.mu.Lock()
	var targets []*entry
	for _, e := range c.entries {
		if e.opts.refetchOnFocus && e.inFlight == 0 && e.status == StatusReady {
			targets = append(targets, e)
		}
	}
	c.mu.Unlock()

	n := 0
	for _, e := range targets {
		if c.refetch(e) {
			n++
		}
	}
	return n
}

func (c *Cache) refetch(e *entry) bool {
	c.mu.Lock()
	if c.closed || c.entries[e.key] != e {
		c.mu.Unlock()
		return false
	}
	c.startLocked(e)
	st := e.stateLocked()
	subs := e.subscribersLocked()
	c.mu.Unlock()

	for _, s := range subs {
		s.deliver(st)
	}
	return true
}

// Invalidate drops the stored value and error for key and refetches it, so
// subscribers see a first-load state again. It reports false when no entry
// exists.
func (c *Cache) Invalidate(key Key) bool {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	if !ok || c.closed {
		c.mu.Unlock()
		return false
	}
	e.value = nil
	e.hasValue = false
	e.err = nil
	c.startLocked(e)
	st := e.stateLocked()
	subs := e.subscribersLocked()
	c.mu.Unlock()

	for _, s := range subs {
		s.deliver(st)
	}
	return true
}

// Update replaces the settled value for key with fn(current) and notifies
// subscribers. It reports false when the key has no value yet.
func (c *Cache) Update(key Key, fn func(current any) any) bool {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	if !ok || !e.hasValue {
		c.mu.Unlock()
		return false
	}
	e.value = fn(e.value)
	e.version++
	e.updatedAt = time.Now()
	st := e.stateLocked()
	subs := e.subscribersLocked()
	c.mu.Unlock()

	for _, s := range subs {
		s.deliver(st)
	}
	return true
}

// Peek returns the current state for key without subscribing.
func (c *Cache) Peek(key Key) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return State{}, false
	}
	return e.stateLocked(), true
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// detach removes a subscription; the entry is released with its last subscriber.
func (c *Cache) detach(s *Subscription) {
	if s.entry == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e := s.entry
	delete(e.subs, s.id)
	if len(e.subs) == 0 && c.entries[e.key] == e {
		delete(c.entries, e.key)
		c.logger.Debug("cache entry released", "key", e.key)
	}
}

// Close releases every entry, stops subscriber delivery, cancels in-flight
// fetches and waits for them to return.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	var subs []*Subscription
	for _, e := range c.entries {
		subs = append(subs, e.subscribersLocked()...)
	}
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
	c.cancel()
	c.wg.Wait()
}
