package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmcdole/scout/internal/domain"
	"golang.org/x/sync/singleflight"
)

const historyQueueSize = 32

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithCacheSize bounds the number of cached result sets
func WithCacheSize(n int) Option {
	return func(o *Orchestrator) { o.cacheSize = n }
}

// WithCacheTTL expires cached result sets older than d (0 keeps them for the session)
func WithCacheTTL(d time.Duration) Option {
	return func(o *Orchestrator) { o.cacheTTL = d }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithClock replaces time.Now (tests)
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithHistory records every non-empty submitted query in store
func WithHistory(store domain.HistoryStore) Option {
	return func(o *Orchestrator) { o.history = store }
}

// Orchestrator turns a stream of submitted queries into a stream of
// result sets. Every Submit starts a new generation; only the response
// belonging to the current generation is ever published or cached.
//
// The generation counter, the published snapshot and the cache share one
// mutex so they always move together.
type Orchestrator struct {
	client    domain.SearchClient
	history   domain.HistoryStore
	logger    *slog.Logger
	now       func() time.Time
	cacheSize int
	cacheTTL  time.Duration

	// root context for transport calls, canceled by Dispose
	ctx    context.Context
	cancel context.CancelFunc

	group        singleflight.Group
	backendCalls atomic.Uint64

	historyCh   chan domain.Query
	historyDone chan struct{}

	mu         sync.Mutex
	generation uint64
	current    Snapshot
	changed    chan struct{} // closed and replaced on every publish
	cache      *resultCache
	inflight   map[string]int // query key -> generations waiting on it
	disposed   bool
	stats      Stats
}

// New creates an orchestrator backed by client
func New(client domain.SearchClient, opts ...Option) (*Orchestrator, error) {
	if client == nil {
		return nil, fmt.Errorf("search client is required")
	}

	o := &Orchestrator{
		client:    client,
		logger:    slog.Default(),
		now:       time.Now,
		cacheSize: DefaultCacheSize,
		changed:   make(chan struct{}),
		inflight:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	cache, err := newResultCache(o.cacheSize, o.cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	o.cache = cache
	o.ctx, o.cancel = context.WithCancel(context.Background())

	if o.history != nil {
		o.historyCh = make(chan domain.Query, historyQueueSize)
		o.historyDone = make(chan struct{})
		go o.historyWorker()
	}

	return o, nil
}

// Submit replaces the current search intent with q. It never blocks:
// the outcome is observed through Wait, Read or Peek.
func (o *Orchestrator) Submit(q domain.Query) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return domain.ErrDisposed
	}

	o.generation++
	gen := o.generation

	if q.IsEmpty() {
		rs := domain.EmptyResult(q)
		rs.Generation = gen
		o.publish(Snapshot{Generation: gen, Query: q, State: StateReady, Result: rs})
		o.logger.Debug("empty query resolved locally", "generation", gen)
		return nil
	}

	o.enqueueHistory(q)

	key := q.Key()
	if cached, ok := o.cache.get(key, o.now()); ok {
		o.stats.CacheHits++
		o.publish(Snapshot{
			Generation: gen,
			Query:      q,
			State:      StateReady,
			Result:     cached.WithGeneration(gen, true),
		})
		o.logger.Debug("search served from cache", "generation", gen, "query", key)
		return nil
	}

	o.publish(Snapshot{Generation: gen, Query: q, State: StatePending})

	if o.inflight[key] > 0 {
		o.stats.Joined++
		o.logger.Debug("joining in-flight search", "generation", gen, "query", key)
	} else {
		o.logger.Debug("dispatching search", "generation", gen, "query", key)
	}
	o.inflight[key]++

	ch := o.group.DoChan(key, func() (interface{}, error) {
		o.backendCalls.Add(1)
		return o.client.Search(o.ctx, q)
	})
	go o.await(gen, q, ch)

	return nil
}

// await delivers the shared response for key to generation gen
func (o *Orchestrator) await(gen uint64, q domain.Query, ch <-chan singleflight.Result) {
	res := <-ch

	var rs *domain.ResultSet
	if res.Err == nil {
		rs, _ = res.Val.(*domain.ResultSet)
	}
	o.complete(gen, q, rs, res.Err)
}

func (o *Orchestrator) complete(gen uint64, q domain.Query, rs *domain.ResultSet, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	key := q.Key()
	if n := o.inflight[key]; n <= 1 {
		delete(o.inflight, key)
	} else {
		o.inflight[key] = n - 1
	}

	if o.disposed || gen != o.generation {
		o.stats.Discarded++
		if err != nil {
			o.logger.Debug("discarding stale search failure", "generation", gen, "current", o.generation, "error", err)
		} else {
			o.logger.Debug("discarding stale search response", "generation", gen, "current", o.generation)
		}
		return
	}

	if err == nil && rs == nil {
		err = fmt.Errorf("%w: empty response", domain.ErrMalformedResponse)
	}
	if err != nil {
		o.logger.Warn("search failed", "generation", gen, "query", key, "error", err)
		o.publish(Snapshot{
			Generation: gen,
			Query:      q,
			State:      StateFailed,
			Err:        &FailureError{Generation: gen, Query: q, Err: err},
		})
		return
	}

	now := o.now()
	result := rs.WithGeneration(gen, false)
	result.Query = q
	result.ResolvedAt = now

	if evicted := o.cache.put(key, result, now); evicted {
		o.logger.Debug("evicted least recently used result", "cacheLen", o.cache.len())
	}
	o.publish(Snapshot{Generation: gen, Query: q, State: StateReady, Result: result})
	o.logger.Debug("search resolved", "generation", gen, "query", key, "items", len(result.Items))
}

// Cancel invalidates a pending request. The transport call is left to
// finish and its response is discarded. It reports whether anything was
// pending.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed || o.current.State != StatePending {
		return false
	}

	o.generation++
	o.publish(Snapshot{Generation: o.generation, State: StateIdle})
	o.logger.Debug("search canceled", "generation", o.generation)
	return true
}

// Dispose ends the session: pending generations are invalidated, in-flight
// transport calls are canceled, the cache is released and blocked readers
// receive ErrDisposed. Safe to call more than once.
func (o *Orchestrator) Dispose() {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return
	}
	o.disposed = true
	o.generation++
	o.current = Snapshot{Generation: o.generation, State: StateIdle}
	o.cache.purge()
	close(o.changed)
	if o.historyCh != nil {
		close(o.historyCh)
	}
	o.mu.Unlock()

	o.cancel()
	if o.historyDone != nil {
		<-o.historyDone
	}
	o.logger.Debug("search session disposed")
}

// Peek returns the current snapshot without waiting
func (o *Orchestrator) Peek() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Wait blocks until the current generation is settled and returns its
// snapshot. Generations superseded while waiting are skipped.
func (o *Orchestrator) Wait(ctx context.Context) (Snapshot, error) {
	for {
		o.mu.Lock()
		if o.disposed {
			o.mu.Unlock()
			return Snapshot{}, domain.ErrDisposed
		}
		snap, changed := o.current, o.changed
		o.mu.Unlock()

		if snap.Settled() {
			return snap, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

// Read is the suspension point: it returns the current generation's
// result set, or its failure, once available.
func (o *Orchestrator) Read(ctx context.Context) (*domain.ResultSet, error) {
	snap, err := o.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if snap.State == StateFailed {
		return nil, snap.Err
	}
	return snap.Result, nil
}

// Stats returns a copy of the session counters
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.stats
	s.Generation = o.generation
	s.BackendCalls = o.backendCalls.Load()
	s.CacheLen = o.cache.len()
	return s
}

// publish must be called with mu held
func (o *Orchestrator) publish(snap Snapshot) {
	o.current = snap
	close(o.changed)
	o.changed = make(chan struct{})
}

// enqueueHistory must be called with mu held. Drops the record when the
// queue is full.
func (o *Orchestrator) enqueueHistory(q domain.Query) {
	if o.historyCh == nil {
		return
	}
	select {
	case o.historyCh <- q:
	default:
		o.logger.Debug("history queue full, dropping query", "query", q.Key())
	}
}

func (o *Orchestrator) historyWorker() {
	defer close(o.historyDone)
	for q := range o.historyCh {
		if err := o.history.Record(q); err != nil {
			o.logger.Warn("failed to record query history", "error", err)
		}
	}
}
