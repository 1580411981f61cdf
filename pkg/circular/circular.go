// Package circular implements a fixed-capacity ring buffer that keeps the
// most recent values pushed into it.
package circular

import (
	"errors"
	"sync"
)

// ErrSizeMismatch is returned by Retrieve when the target is not Cap() long.
var ErrSizeMismatch = errors.New("circular: target buffer must match buffer capacity")

/*
 * Buffer holds up to Cap() elements. Once full, every Push overwrites the
 * oldest element.
 *
 * Semantics: first write to the slot at pointer, then increment pointer.
 * Pointer always addresses the oldest element, or the next slot to fill.
 */
type Buffer[T any] struct {
	mutex   sync.RWMutex
	values  []T
	pointer int
	count   int
}

// New creates a circular buffer able to hold size elements.
func New[T any](size int) *Buffer[T] {
	if size < 1 {
		size = 1
	}
	return &Buffer[T]{values: make([]T, size)}
}

// Push appends elements, overwriting the oldest ones when full.
func (b *Buffer[T]) Push(elems ...T) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	n := len(b.values)

	/*
	 * More elements than fit: only the tail survives, already in order.
	 */
	if len(elems) >= n {
		copy(b.values, elems[len(elems)-n:])
		b.pointer = 0
		b.count = n
		return
	}

	for _, e := range elems {
		b.values[b.pointer] = e
		b.pointer = (b.pointer + 1) % n
	}
	b.count = min(b.count+len(elems), n)
}

// Len returns the number of stored elements.
func (b *Buffer[T]) Len() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.count
}

// Cap returns the buffer capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.values)
}

// Reset drops all stored elements.
func (b *Buffer[T]) Reset() {
	b.mutex.Lock()
	b.pointer = 0
	b.count = 0
	b.mutex.Unlock()
}

// At returns the i-th stored element, oldest first.
func (b *Buffer[T]) At(i int) (T, bool) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	var zero T
	if i < 0 || i >= b.count {
		return zero, false
	}
	return b.values[b.start(i)], true
}

// AppendTo appends the stored elements, oldest first, to dst and returns it.
func (b *Buffer[T]) AppendTo(dst []T) []T {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	for i := 0; i < b.count; i++ {
		dst = append(dst, b.values[b.start(i)])
	}
	return dst
}

// Retrieve copies the full backing store, oldest slot first, into buf.
// buf must be exactly Cap() long.
func (b *Buffer[T]) Retrieve(buf []T) error {
	n := len(b.values)
	if len(buf) != n {
		return ErrSizeMismatch
	}

	b.mutex.RLock()
	ptr := b.pointer
	tail := n - ptr
	copy(buf[0:tail], b.values[ptr:n])
	copy(buf[tail:n], b.values[0:ptr])
	b.mutex.RUnlock()
	return nil
}

// start maps a logical index to a slot. Callers hold the lock.
func (b *Buffer[T]) start(i int) int {
	n := len(b.values)
	oldest := (b.pointer - b.count + n) % n
	return (oldest + i) % n
}
