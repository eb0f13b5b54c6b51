package bcast

import "sync/atomic"

// slot is a single cell of the ring: empty or exactly one published value.
// A load racing a store observes either the old or the new value, never a
// torn one. The previous value becomes collectable once the store completes
// and the last reader drops its pointer.
type slot[T any] struct {
	p atomic.Pointer[T]
}

// store installs a new value, releasing the previous one.
func (s *slot[T]) store(v *T) {
	s.p.Store(v)
}

// load returns a pointer sharing ownership with the slot, or nil if empty.
func (s *slot[T]) load() *T {
	return s.p.Load()
}
