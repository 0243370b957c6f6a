// Package handle hands out opaque integer handles to Go values that must
// cross a foreign-function boundary.
//
// Foreign callers cannot hold Go pointers, so values are kept in a Table and
// referred to by Handle. Each slot carries a generation counter; freeing a
// slot bumps it, so a stale handle never resolves to a later value that
// reuses the slot.
package handle

import (
	"errors"
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// ErrInvalid is returned for a zero, unknown, or already freed handle.
var ErrInvalid = errors.New("handle: invalid or stale handle")

// Handle identifies a value in a Table. The zero Handle is never valid.
//
// The low 32 bits hold slot+1, the high 32 bits the slot generation.
type Handle uint64

func makeHandle(slot int, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot+1))
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h == 0 }

func (h Handle) slot() int { return int(uint32(h)) - 1 }

func (h Handle) gen() uint32 { return uint32(h >> 32) }

// Table stores values addressed by Handle. It is safe for concurrent use.
type Table[T any] struct {
	mu    sync.Mutex
	vals  []T
	gens  []uint32
	live  *bitset.BitSet
	count int
}

// NewTable creates a Table with room for capacity values before growing.
func NewTable[T any](capacity int) *Table[T] {
	capacity = max(capacity, 1)
	return &Table[T]{
		vals: make([]T, 0, capacity),
		gens: make([]uint32, 0, capacity),
		live: bitset.New(uint(capacity)),
	}
}

// Alloc stores v and returns its handle. Freed slots are reused first.
func (t *Table[T]) Alloc(v T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot := len(t.vals)
	if free, ok := t.live.NextClear(0); ok && int(free) < len(t.vals) {
		slot = int(free)
	} else {
		t.vals = append(t.vals, v)
		t.gens = append(t.gens, 0)
	}

	t.vals[slot] = v
	t.live.Set(uint(slot))
	t.count++
	return makeHandle(slot, t.gens[slot])
}

// Get returns the value for h.
func (t *Table[T]) Get(h Handle) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	slot, ok := t.resolve(h)
	if !ok {
		return zero, ErrInvalid
	}
	return t.vals[slot], nil
}

// Free releases h and returns the value it held.
// Freeing a handle twice returns ErrInvalid the second time.
func (t *Table[T]) Free(h Handle) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	slot, ok := t.resolve(h)
	if !ok {
		return zero, ErrInvalid
	}

	v := t.vals[slot]
	t.vals[slot] = zero
	t.gens[slot]++
	t.live.Clear(uint(slot))
	t.count--
	return v, nil
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func (t *Table[T]) resolve(h Handle) (int, bool) {
	if h.IsZero() {
		return 0, false
	}
	slot := h.slot()
	if slot < 0 || slot >= len(t.vals) {
		return 0, false
	}
	if !t.live.Test(uint(slot)) || t.gens[slot] != h.gen() {
		return 0, false
	}
	return slot, true
}
