package queue

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/webclient/internal/apierror"
)

// ErrCancelAll is the default reason given to entries dropped by CancelAll.
var ErrCancelAll = errors.New("queue cancelled")

// Stats is a point-in-time view of the gate.
type Stats struct {
	Max      int
	InFlight int
	Queued   int
	Admitted uint64
	Rejected uint64
}

// entry is a call waiting for a slot.
type entry struct {
	ready      chan struct{}
	err        error
	enqueuedAt time.Time
	elem       *list.Element
}

// Gate admits at most Max concurrent calls and queues the rest in FIFO order.
type Gate struct {
	max int

	mu       sync.Mutex
	inFlight int
	waiting  *list.List
	admitted uint64
	rejected uint64
	closed   error

	// OnAdmit, when set, is called with the time an entry spent queued.
	OnAdmit func(wait time.Duration)
}

// New creates a gate with the given concurrency limit.
func New(max int) (*Gate, error) {
	if max < 1 {
		return nil, fmt.Errorf("max concurrency must be at least 1, got %d", max)
	}
	return &Gate{max: max, waiting: list.New()}, nil
}

// Do waits for a slot, runs fn, and releases the slot when fn returns.
//
// If the entry is dropped before admission (CancelAll or ctx done) fn is
// not run and a Cancelled error is returned. Once fn is running it is never
// interrupted by the gate.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.acquire(ctx); err != nil {
		return err
	}
	defer g.release()

	return fn(ctx)
}

// acquire blocks until the caller holds a slot.
func (g *Gate) acquire(ctx context.Context) error {
	g.mu.Lock()
	if err := ctx.Err(); err != nil {
		g.rejected++
		g.mu.Unlock()
		return apierror.NewCancelled(err)
	}
	if g.closed != nil {
		g.rejected++
		g.mu.Unlock()
		return apierror.NewCancelled(g.closed)
	}

	if g.inFlight < g.max && g.waiting.Len() == 0 {
		g.inFlight++
		g.admitted++
		onAdmit := g.OnAdmit
		g.mu.Unlock()
		if onAdmit != nil {
			onAdmit(0)
		}
		return nil
	}

	e := &entry{ready: make(chan struct{}), enqueuedAt: time.Now()}
	e.elem = g.waiting.PushBack(e)
	g.mu.Unlock()

	select {
	case <-e.ready:
		return g.admittedOrErr(e)
	case <-ctx.Done():
	}

	g.mu.Lock()
	select {
	case <-e.ready:
		// Granted or cancelled while we were noticing ctx.
		g.mu.Unlock()
		if e.err != nil {
			return e.err
		}
		g.release()
		return apierror.NewCancelled(ctx.Err())
	default:
	}
	g.waiting.Remove(e.elem)
	g.rejected++
	g.mu.Unlock()

	return apierror.NewCancelled(ctx.Err())
}

func (g *Gate) admittedOrErr(e *entry) error {
	if e.err != nil {
		return e.err
	}
	if g.OnAdmit != nil {
		g.OnAdmit(time.Since(e.enqueuedAt))
	}
	return nil
}

// release hands the caller's slot to the head of the queue, or frees it.
func (g *Gate) release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if front := g.waiting.Front(); front != nil {
		e := g.waiting.Remove(front).(*entry)
		g.admitted++
		close(e.ready)
		return
	}

	g.inFlight--
}

// CancelAll rejects every queued entry with a Cancelled error wrapping
// reason and returns how many were dropped. In-flight calls are untouched.
func (g *Gate) CancelAll(reason error) int {
	if reason == nil {
		reason = ErrCancelAll
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancelAll(reason)
}

// Close rejects every queued entry and every later Do with a Cancelled
// error wrapping reason. In-flight calls are untouched. It returns how many
// queued entries were dropped; closing twice keeps the first reason.
func (g *Gate) Close(reason error) int {
	if reason == nil {
		reason = ErrCancelAll
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed == nil {
		g.closed = reason
	}
	return g.cancelAll(g.closed)
}

// cancelAll drops the queue. Caller holds mu.
func (g *Gate) cancelAll(reason error) int {
	n := 0
	for front := g.waiting.Front(); front != nil; front = g.waiting.Front() {
		e := g.waiting.Remove(front).(*entry)
		e.err = apierror.NewCancelled(reason)
		close(e.ready)
		n++
	}
	g.rejected += uint64(n)
	return n
}

// Max returns the concurrency limit.
func (g *Gate) Max() int {
	return g.max
}

// InFlight returns the number of admitted calls that have not released.
func (g *Gate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Queued returns the number of calls waiting for a slot.
func (g *Gate) Queued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiting.Len()
}

// Stats returns a snapshot of the gate's counters.
func (g *Gate) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Stats{
		Max:      g.max,
		InFlight: g.inFlight,
		Queued:   g.waiting.Len(),
		Admitted: g.admitted,
		Rejected: g.rejected,
	}
}
