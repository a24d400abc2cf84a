package device

import (
	"fmt"
	"sync/atomic"
)

var liveAllocs atomic.Int64

// Buffer exclusively owns one device-resident allocation of n elements.
// The allocation is created at construction and released exactly once by
// Free; the buffer must never be copied or shared, and the slice returned
// by Data must not outlive it.
type Buffer[T any] struct {
	data  []T
	freed bool
}

// NewBuffer allocates a buffer of n elements, n >= 1.
func NewBuffer[T any](n int) (*Buffer[T], error) {
	if n < 1 {
		return nil, fmt.Errorf("device: buffer length must be at least 1, got %d", n)
	}
	liveAllocs.Add(1)
	return &Buffer[T]{data: make([]T, n)}, nil
}

// NewBufferFrom allocates a buffer sized to host and fills it.
func NewBufferFrom[T any](host []T) (*Buffer[T], error) {
	b, err := NewBuffer[T](len(host))
	if err != nil {
		return nil, err
	}
	copy(b.data, host)
	return b, nil
}

// Len reports the element count of the allocation.
func (b *Buffer[T]) Len() int { return len(b.data) }

// Data exposes the device storage for kernel use. Ownership stays with the
// buffer.
func (b *Buffer[T]) Data() []T {
	if b.freed {
		panic("device: use of freed buffer")
	}
	return b.data
}

// CopyFrom transfers exactly Len elements from host memory.
func (b *Buffer[T]) CopyFrom(host []T) error {
	if b.freed {
		panic("device: use of freed buffer")
	}
	if len(host) != len(b.data) {
		return fmt.Errorf("device: copy of %d elements into buffer of %d", len(host), len(b.data))
	}
	copy(b.data, host)
	return nil
}

// CopyTo transfers exactly Len elements back to host memory.
func (b *Buffer[T]) CopyTo(host []T) error {
	if b.freed {
		panic("device: use of freed buffer")
	}
	if len(host) != len(b.data) {
		return fmt.Errorf("device: copy of buffer of %d elements into %d", len(b.data), len(host))
	}
	copy(host, b.data)
	return nil
}

// Zero clears every element in place.
func (b *Buffer[T]) Zero() {
	if b.freed {
		panic("device: use of freed buffer")
	}
	clear(b.data)
}

// Free releases the allocation. Each buffer is freed exactly once; a
// second Free panics.
func (b *Buffer[T]) Free() {
	if b.freed {
		panic("device: double free")
	}
	b.freed = true
	b.data = nil
	liveAllocs.Add(-1)
}

// LiveBuffers reports the number of allocations not yet freed.
func LiveBuffers() int64 { return liveAllocs.Load() }
