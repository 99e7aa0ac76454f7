package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/scout/internal/domain"
)

const testTimeout = 2 * time.Second

type reply struct {
	rs  *domain.ResultSet
	err error
}

// call is one request received by fakeClient
type call struct {
	ctx   context.Context
	query domain.Query
	resp  chan reply
}

func (c *call) resolve(titles ...string) {
	items := make([]domain.Item, len(titles))
	for i, title := range titles {
		items[i] = domain.Item{ID: fmt.Sprintf("%s-%d", c.query.Normalized(), i), Title: title}
	}
	c.resp <- reply{rs: &domain.ResultSet{Query: c.query, Items: items, TotalCount: len(items)}}
}

func (c *call) fail(err error) {
	c.resp <- reply{err: err}
}

// fakeClient hands every request to the test, which decides when and how
// it completes
type fakeClient struct {
	calls chan *call
}

func newFakeClient() *fakeClient {
	return &fakeClient{calls: make(chan *call, 64)}
}

func (f *fakeClient) Search(ctx context.Context, q domain.Query) (*domain.ResultSet, error) {
	c := &call{ctx: ctx, query: q, resp: make(chan reply, 1)}
	f.calls <- c
	select {
	case r := <-c.resp:
		return r.rs, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, ctx.Err())
	}
}

func (f *fakeClient) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for backend call")
		return nil
	}
}

func (f *fakeClient) expectNoCall(t *testing.T) {
	t.Helper()
	select {
	case c := <-f.calls:
		t.Fatalf("unexpected backend call for %q", c.query.Text)
	case <-time.After(50 * time.Millisecond):
	}
}

// autoClient resolves every query after a per-query delay
type autoClient struct {
	mu    sync.Mutex
	delay func(q domain.Query) time.Duration
}

func (a *autoClient) Search(ctx context.Context, q domain.Query) (*domain.ResultSet, error) {
	a.mu.Lock()
	d := a.delay(q)
	a.mu.Unlock()

	select {
	case <-time.After(d):
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, ctx.Err())
	}
	return &domain.ResultSet{
		Query:      q,
		Items:      []domain.Item{{ID: q.Normalized(), Title: q.Text}},
		TotalCount: 1,
	}, nil
}

// fakeHistory records queries in memory
type fakeHistory struct {
	mu      sync.Mutex
	queries []string
}

func (h *fakeHistory) Record(q domain.Query) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queries = append(h.queries, q.Text)
	return nil
}

func (h *fakeHistory) Recent(int) ([]domain.HistoryEntry, error)          { return nil, nil }
func (h *fakeHistory) Suggest(string, int) ([]domain.HistoryEntry, error) { return nil, nil }
func (h *fakeHistory) Clear() error                                       { return nil }
func (h *fakeHistory) Close() error                                       { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(t *testing.T, client domain.SearchClient, opts ...Option) *Orchestrator {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	o, err := New(client, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(o.Dispose)
	return o
}

func readResult(t *testing.T, o *Orchestrator) (*domain.ResultSet, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	return o.Read(ctx)
}

func mustSubmit(t *testing.T, o *Orchestrator, text string) domain.Query {
	t.Helper()
	q := domain.NewQuery(text, 0, 10)
	if err := o.Submit(q); err != nil {
		t.Fatalf("Submit(%q) error = %v", text, err)
	}
	return q
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func cached(o *Orchestrator, q domain.Query) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cache.contains(q.Key())
}
