// Package bcast implements a bounded, lock-free, single-producer broadcast
// queue (pub/sub): one Sender, any number of Receivers, overwrite on overrun.
//
// The Sender never blocks. A Receiver that polls fast enough observes every
// published item in order; a slow Receiver is fast-forwarded past the items
// the Sender overwrote and keeps an exact count of them. Delivered items are
// shared: every Receiver of an item observes the same *T, so values must not
// be mutated after Broadcast.
package bcast

import "fmt"

var (
	ErrNoSubscribers = fmt.Errorf("no subscribers")
	ErrDisconnected  = fmt.Errorf("sender is disconnected")
	ErrQueueIsEmpty  = fmt.Errorf("queue is empty")
)

// New creates a broadcast channel whose visible window holds the last
// 'capacity' published items. Capacity must be > 0; it is rounded up
// internally for mask indexing, but Len, overwrite and skip accounting honor
// the exact capacity requested. The returned Receiver observes everything
// published after this call.
func New[T any](capacity uint64) (*Sender[T], *Receiver[T]) {
	c := newChannel[T](capacity)
	return &Sender[T]{ch: c}, &Receiver[T]{ch: c}
}
