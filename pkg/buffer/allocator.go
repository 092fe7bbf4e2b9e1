package buffer

import (
	"fmt"
	"sync"
)

// Allocator provides the backing storage of a BipBuffer. Alloc must return a
// slice of exactly size bytes; Free hands a slice obtained from Alloc back.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(buf []byte)
}

// HeapAllocator allocates with make and leaves freed storage to the GC.
type HeapAllocator struct{}

// Alloc implements Allocator.
func (HeapAllocator) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrAllocation, size)
	}
	return make([]byte, size), nil
}

// Free implements Allocator.
func (HeapAllocator) Free([]byte) {}

// Pool size classes. Growth always asks for page multiples, so the classes
// start at one default page.
const (
	Size4K   = 1 << 12
	Size16K  = 1 << 14
	Size64K  = 1 << 16
	Size256K = 1 << 18
	Size1M   = 1 << 20
	Size4M   = 1 << 22
)

var poolClasses = [...]int{Size4K, Size16K, Size64K, Size256K, Size1M, Size4M}

// PoolAllocator recycles storage through one sync.Pool per size class.
// Requests above the largest class are allocated directly.
type PoolAllocator struct {
	pools [len(poolClasses)]sync.Pool
}

// NewPoolAllocator returns a PoolAllocator with empty pools.
func NewPoolAllocator() *PoolAllocator {
	pa := &PoolAllocator{}
	for i, class := range poolClasses {
		class := class
		pa.pools[i].New = func() any { return make([]byte, class) }
	}
	return pa
}

// Alloc implements Allocator.
func (pa *PoolAllocator) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrAllocation, size)
	}
	for i, class := range poolClasses {
		if size <= class {
			buf := pa.pools[i].Get().([]byte)
			return buf[:size], nil
		}
	}
	return make([]byte, size), nil
}

// Free implements Allocator. Slices whose capacity is not a size class are
// left to the GC.
func (pa *PoolAllocator) Free(buf []byte) {
	if buf == nil {
		return
	}
	for i, class := range poolClasses {
		if cap(buf) == class {
			pa.pools[i].Put(buf[:class])
			return
		}
	}
}

// LimitAllocator refuses allocations larger than Limit and delegates the rest
// to Next (HeapAllocator when nil).
type LimitAllocator struct {
	Limit int
	Next  Allocator
}

// Alloc implements Allocator.
func (la LimitAllocator) Alloc(size int) ([]byte, error) {
	if size > la.Limit {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit %d", ErrAllocation, size, la.Limit)
	}
	return la.next().Alloc(size)
}

// Free implements Allocator.
func (la LimitAllocator) Free(buf []byte) {
	la.next().Free(buf)
}

func (la LimitAllocator) next() Allocator {
	if la.Next == nil {
		return HeapAllocator{}
	}
	return la.Next
}
