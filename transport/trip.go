package transport

import (
	"context"
	"errors"
	"fmt"
	"github.com/viant/mcp/jsonrpc"
	"sync"
	"time"
)

// RoundTrip represents a trip
type RoundTrip struct {
	Request  *jsonrpc.Request
	Response *jsonrpc.Response
	err      error
	done     chan struct{}
}

// NewRoundTrip creates a new round trip
func NewRoundTrip(request *jsonrpc.Request) *RoundTrip {
	return &RoundTrip{
		Request: request,
		done:    make(chan struct{}),
	}
}

// Wait waits for the trip to finish
func (t *RoundTrip) Wait(ctx context.Context, timeout time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return errors.New("timeout")
	case <-t.done:
		if t.err != nil {
			return t.err
		}
	}
	return nil
}

// SetError sets the error
func (t *RoundTrip) SetError(err *jsonrpc.InnerError) {
	t.Response = &jsonrpc.Response{Id: t.Request.Id, Jsonrpc: t.Request.Jsonrpc, Error: err}
	close(t.done)
}

// SetResponse sets the response
func (t *RoundTrip) SetResponse(response *jsonrpc.Response) {
	t.Response = response
	close(t.done)
}

// RoundTrips is an outstanding-request correlation table: Add registers a
// sent request by its id, Match pops it back out once the matching response
// arrives. It is keyed by request id rather than by a fixed-size ring slot,
// so it never runs out of room the way a slot allocator that only ever
// advances forward would once more than capacity requests have been issued
// in the connection's lifetime - freed slots (popped by Match) are reused
// for new ones.
type RoundTrips struct {
	mu      sync.Mutex
	pending map[string]*RoundTrip
	order   []string // insertion order, for Get/Size (diagnostics, test use)
	error   error
}

// CloseWithError closes trips with error: every pending trip is released
// with err, and later Add and Match calls return err.
func (r *RoundTrips) CloseWithError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.error = err
	for key, trip := range r.pending {
		trip.err = err
		close(trip.done)
		delete(r.pending, key)
	}
	r.order = nil
}

// Match matches a trip by id, removing it from the table.
func (r *RoundTrips) Match(id jsonrpc.RequestId) (*RoundTrip, error) {
	key := id.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.error != nil {
		return nil, r.error
	}
	trip, ok := r.pending[key]
	if !ok {
		return nil, fmt.Errorf("trip not found")
	}
	delete(r.pending, key)
	r.removeFromOrder(key)
	return trip, nil
}

// Add registers request and returns its RoundTrip to wait on.
func (r *RoundTrips) Add(request *jsonrpc.Request) (*RoundTrip, error) {
	key := request.Id.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.error != nil {
		return nil, r.error
	}
	ret := NewRoundTrip(request)
	r.pending[key] = ret
	r.order = append(r.order, key)
	return ret, nil
}

func (r *RoundTrips) removeFromOrder(key string) {
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// Get returns the index-th still-pending trip (insertion order), or nil if
// index is out of range. Intended for diagnostics/tests that need to reach
// into the table by position rather than by id.
func (r *RoundTrips) Get(index int) *RoundTrip {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.order) {
		return nil
	}
	return r.pending[r.order[index]]
}

// Size returns the number of currently pending (unmatched) trips.
func (r *RoundTrips) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// NewRoundTrips creates a new round trips table. capacity only sizes the
// initial map allocation - the table grows as needed and never rejects an
// Add once more than capacity requests have been outstanding over the
// connection's lifetime.
func NewRoundTrips(capacity int) *RoundTrips {
	return &RoundTrips{
		pending: make(map[string]*RoundTrip, capacity),
	}
}
