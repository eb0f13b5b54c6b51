package bcast

import (
	"context"
	"iter"
	"sync/atomic"
)

// Receiver is a consumer handle. Each Receiver owns an independent read
// position; Clone starts a new subscriber at the current head of the stream.
// A Receiver's methods must not be called concurrently with each other, but
// any number of Receivers may run in parallel against the same Sender.
type Receiver[T any] struct {
	ch        *channel[T]
	ri        uint64 // next logical index to read
	skipAhead uint64
	skipped   uint64
	closed    atomic.Bool
}

// TryRecv returns the next item without blocking. It returns ErrQueueIsEmpty
// when the receiver has consumed everything published so far, and
// ErrDisconnected once the Sender is closed and the backlog is drained.
func (r *Receiver[T]) TryRecv() (*T, error) {
	if r.closed.Load() {
		return nil, ErrDisconnected
	}
	v, nr, skipped, err := r.ch.recvAt(r.ri, r.skipAhead)
	if err != nil {
		return nil, err
	}
	r.ri = nr
	r.skipped += skipped
	return v, nil
}

// Recv returns the next item, parking the goroutine until the Sender
// publishes or closes. Arming the listener before the second poll guarantees
// that a publish landing between the poll and the wait still wakes this
// receiver.
func (r *Receiver[T]) Recv() (*T, error) {
	for {
		v, err := r.TryRecv()
		if err != ErrQueueIsEmpty {
			return v, err
		}
		wake := r.ch.event.listen()
		v, err = r.TryRecv()
		if err != ErrQueueIsEmpty {
			return v, err
		}
		<-wake
	}
}

// RecvContext is Recv with cancellation: it additionally returns ctx.Err()
// once the context is done.
func (r *Receiver[T]) RecvContext(ctx context.Context) (*T, error) {
	for {
		v, err := r.TryRecv()
		if err != ErrQueueIsEmpty {
			return v, err
		}
		wake := r.ch.event.listen()
		v, err = r.TryRecv()
		if err != ErrQueueIsEmpty {
			return v, err
		}
		select {
		case <-wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Clone registers a new subscriber that observes items published after this
// call; the unread backlog stays with the parent.
func (r *Receiver[T]) Clone() *Receiver[T] {
	r.ch.register()
	return &Receiver[T]{
		ch:        r.ch,
		ri:        r.ch.wi.Load(),
		skipAhead: r.skipAhead,
	}
}

// Close deregisters the subscriber. Safe to call more than once.
func (r *Receiver[T]) Close() {
	if r.closed.Swap(true) {
		return
	}
	r.ch.deregister()
}

// Len estimates how many items are ready for this receiver, clamped to the
// channel capacity.
func (r *Receiver[T]) Len() uint64 {
	n := r.ch.wi.Load() - r.ri
	if n > r.ch.size {
		n = r.ch.size
	}
	return n
}

// Capacity returns the size of the visible window.
func (r *Receiver[T]) Capacity() uint64 {
	return r.ch.size
}

// SkippedItemsSize returns the cumulative number of items this receiver lost
// to publisher overruns.
func (r *Receiver[T]) SkippedItemsSize() uint64 {
	return r.skipped
}

// SetSkipItems makes the receiver pass over n extra items beyond the oldest
// visible one whenever the publisher laps it. n is clamped to capacity-1.
// The extra items count toward SkippedItemsSize.
func (r *Receiver[T]) SetSkipItems(n uint64) {
	if n > r.ch.size-1 {
		n = r.ch.size - 1
	}
	r.skipAhead = n
}

// IsSenderAvailable reports whether the Sender is still open.
func (r *Receiver[T]) IsSenderAvailable() bool {
	return r.ch.senderAvailable()
}

// All drains the receiver without blocking, yielding items until the queue is
// empty or the Sender is gone.
func (r *Receiver[T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for {
			v, err := r.TryRecv()
			if err != nil {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}
