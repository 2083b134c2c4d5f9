package discovery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent resolutions in Request.Resolve.
const DefaultConcurrency = 8

// Result is the outcome of resolving one selector.
type Result struct {
	Selector Selector
	Err      error
}

// OK reports whether the selector resolved.
func (r Result) OK() bool { return r.Err == nil }

// RequestOption configures a Request.
type RequestOption func(*Request)

// WithLogger sets the logger used for resolution events.
func WithLogger(logger *slog.Logger) RequestOption {
	return func(r *Request) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConcurrency bounds concurrent resolutions. Values below one mean
// DefaultConcurrency.
func WithConcurrency(n int) RequestOption {
	return func(r *Request) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// Request collects selectors, dropping duplicates by identity. The first
// instance added for a key is kept.
type Request struct {
	id          string
	logger      *slog.Logger
	concurrency int

	mu        sync.Mutex
	selectors []Selector
	index     map[string]int
}

// NewRequest creates an empty request with a fresh ID.
func NewRequest(opts ...RequestOption) *Request {
	r := &Request{
		id:          uuid.New().String(),
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
		index:       make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("request_id", r.id)
	return r
}

// ID returns the request ID.
func (r *Request) ID() string { return r.id }

// Add appends selectors not already present and returns how many were
// added. Nil selectors are ignored.
func (r *Request) Add(selectors ...Selector) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, s := range selectors {
		if s == nil {
			continue
		}
		key := s.Key()
		if i, ok := r.index[key]; ok {
			r.logger.Debug("Duplicate selector dropped",
				"selector", key,
				"kept", r.selectors[i].String())
			continue
		}
		r.index[key] = len(r.selectors)
		r.selectors = append(r.selectors, s)
		added++
	}
	return added
}

// Selectors returns the selectors in insertion order.
func (r *Request) Selectors() []Selector {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Selector, len(r.selectors))
	copy(out, r.selectors)
	return out
}

// Len returns the number of distinct selectors.
func (r *Request) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.selectors)
}

// Resolve resolves every selector and returns one Result per selector in
// insertion order. Resolution failures are recorded in the results; the
// returned error is only set when ctx ends before all selectors were
// scheduled. Results of unscheduled selectors carry ctx.Err().
func (r *Request) Resolve(ctx context.Context) ([]Result, error) {
	selectors := r.Selectors()
	results := make([]Result, len(selectors))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	var scheduleErr error
	for i, s := range selectors {
		results[i].Selector = s
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			if scheduleErr == nil {
				scheduleErr = err
			}
			continue
		}
		g.Go(func() error {
			if err := s.Resolve(); err != nil {
				results[i].Err = err
				r.logger.Warn("Selector resolution failed",
					"selector", s.Key(),
					"error", err)
				return nil
			}
			r.logger.Debug("Selector resolved", "selector", s.Key())
			return nil
		})
	}

	// Workers never return errors.
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.logger.Info("Request resolved",
		"selectors", len(results),
		"failed", failed,
		"duration", time.Since(start))

	return results, scheduleErr
}
