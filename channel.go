package bcast

import (
	"math/bits"
	"sync/atomic"
)

// channel is the ring shared by one Sender and all Receivers.
//
// The slot array is a power of two strictly larger than the requested
// capacity, so the publisher's next store never lands on the slot holding the
// oldest index still visible to readers. A reader can race a slot overwrite
// only after being lapped a full extra cycle, and recvAt detects that by
// re-reading wi after the load.
type channel[T any] struct {
	// Optional padding to avoid false sharing between frequently accessed fields
	_        [64]byte
	mask     uint64
	size     uint64 // visible window; overwrite and skip arithmetic use this, not len(slots)
	slots    []slot[T]
	event    *event
	_        [64]byte
	wi       atomic.Uint64 // logical write index, advanced only by the Sender
	_        [64]byte
	subCount atomic.Int64
	closed   atomic.Bool
	_        [64]byte

	broadcasts          uint64
	failedNoSubscribers uint64
	emptyPolls          uint64
	fastForwards        uint64
	lapRetries          uint64
	wakeups             uint64
}

// Stats is a point-in-time snapshot of the channel counters.
type Stats struct {
	Broadcasts          uint64
	FailedNoSubscribers uint64
	EmptyPolls          uint64
	FastForwards        uint64
	LapRetries          uint64
	Wakeups             uint64
}

// newChannel creates the shared core with one live subscriber.
// Capacity must be > 0 and leave the distance arithmetic unambiguous.
func newChannel[T any](capacity uint64) *channel[T] {
	if capacity == 0 {
		panic("capacity must be > 0")
	}
	if capacity > 1<<62 {
		panic("capacity must be <= 1<<62")
	}

	// One slot of slack past the window, rounded up to a power of two for
	// mask indexing.
	phys := uint64(1) << bits.Len64(capacity)

	c := &channel[T]{
		mask:  phys - 1,
		size:  capacity,
		slots: make([]slot[T], phys),
		event: newEvent(),
	}
	c.subCount.Store(1)
	return c
}

// broadcast publishes v. It never blocks: a reader that has not kept up loses
// the oldest visible item. Must be called from the single producer.
func (c *channel[T]) broadcast(v *T) error {
	if c.subCount.Load() == 0 {
		atomic.AddUint64(&c.failedNoSubscribers, 1)
		return ErrNoSubscribers
	}

	w := c.wi.Load()
	c.slots[w&c.mask].store(v)
	// publish: a reader observing w+1 also observes the slot store
	c.wi.Store(w + 1)
	atomic.AddUint64(&c.broadcasts, 1)

	atomic.AddUint64(&c.wakeups, 1)
	c.event.notifyAll()
	return nil
}

// recvAt reads the item at logical index r on behalf of one receiver.
// Returns the item, the receiver's next read index and how many indices were
// passed over because the publisher lapped the receiver. skipAhead is the
// receiver's extra fast-forward distance on overrun (see SetSkipItems).
// Never blocks.
func (c *channel[T]) recvAt(r, skipAhead uint64) (*T, uint64, uint64, error) {
	for {
		w := c.wi.Load()
		if r == w {
			if c.closed.Load() {
				return nil, r, 0, ErrDisconnected
			}
			atomic.AddUint64(&c.emptyPolls, 1)
			return nil, r, 0, ErrQueueIsEmpty
		}

		// Fast-forward a lapped reader to the oldest visible index.
		// All distances are modular, so the arithmetic survives counter wrap.
		ri := r
		if w-ri > c.size {
			ri = w - c.size + skipAhead
			atomic.AddUint64(&c.fastForwards, 1)
		}

		v := c.slots[ri&c.mask].load()
		if v == nil {
			// The store for ri has not landed yet; take another run.
			continue
		}
		// The publisher may have lapped us between picking ri and loading the
		// slot, in which case the loaded value belongs to a newer index.
		// Discard it and retry with a fresh wi.
		if c.wi.Load()-ri > c.size {
			atomic.AddUint64(&c.lapRetries, 1)
			continue
		}
		return v, ri + 1, ri - r, nil
	}
}

// closeTx marks the producer gone and wakes all parked readers so they
// observe termination.
func (c *channel[T]) closeTx() {
	c.closed.Store(true)
	atomic.AddUint64(&c.wakeups, 1)
	c.event.notifyAll()
}

// register adds a live subscriber.
func (c *channel[T]) register() {
	c.subCount.Add(1)
}

// deregister removes a live subscriber. The zero transition is observed by
// the next broadcast, which then fails with ErrNoSubscribers.
func (c *channel[T]) deregister() {
	c.subCount.Add(-1)
}

func (c *channel[T]) senderAvailable() bool {
	return !c.closed.Load()
}

// stats retrieves the current channel counters.
func (c *channel[T]) stats() Stats {
	return Stats{
		Broadcasts:          atomic.LoadUint64(&c.broadcasts),
		FailedNoSubscribers: atomic.LoadUint64(&c.failedNoSubscribers),
		EmptyPolls:          atomic.LoadUint64(&c.emptyPolls),
		FastForwards:        atomic.LoadUint64(&c.fastForwards),
		LapRetries:          atomic.LoadUint64(&c.lapRetries),
		Wakeups:             atomic.LoadUint64(&c.wakeups),
	}
}
