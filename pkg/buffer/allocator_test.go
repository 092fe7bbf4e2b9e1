package buffer

import (
	"bytes"
	"errors"
	"testing"
)

func TestPoolAllocator(t *testing.T) {
	pa := NewPoolAllocator()

	tests := []struct {
		size    int
		wantCap int
	}{
		{1, Size4K},
		{Size4K, Size4K},
		{Size4K + 1, Size16K},
		{Size1M, Size1M},
		{Size4M + 1, Size4M + 1},
	}
	for _, tt := range tests {
		buf, err := pa.Alloc(tt.size)
		if err != nil {
			t.Fatalf("Alloc(%d) error: %v", tt.size, err)
		}
		if len(buf) != tt.size {
			t.Errorf("Alloc(%d) len = %d", tt.size, len(buf))
		}
		if cap(buf) != tt.wantCap {
			t.Errorf("Alloc(%d) cap = %d, want %d", tt.size, cap(buf), tt.wantCap)
		}
		pa.Free(buf)
	}

	pa.Free(nil)
	pa.Free(make([]byte, 100))

	if _, err := pa.Alloc(-1); !errors.Is(err, ErrAllocation) {
		t.Errorf("Alloc(-1) error = %v, want ErrAllocation", err)
	}
}

func TestBipBuffer_PoolAllocator(t *testing.T) {
	pa := NewPoolAllocator()
	bb, err := New(Size4K, Size4K, WithAllocator(pa))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	payload := bytes.Repeat([]byte{0xab}, Size4K+10)
	mustWrite(t, bb, payload)
	if bb.Cap() != 2*Size4K {
		t.Fatalf("Cap() = %d, want %d", bb.Cap(), 2*Size4K)
	}
	if got := mustRead(t, bb, len(payload)); !bytes.Equal(got, payload) {
		t.Fatal("payload mismatch after growth through the pool")
	}
	bb.Release()
}

func TestLimitAllocator(t *testing.T) {
	la := LimitAllocator{Limit: 16}
	buf, err := la.Alloc(16)
	if err != nil || len(buf) != 16 {
		t.Fatalf("Alloc(16) = (%d bytes, %v)", len(buf), err)
	}
	la.Free(buf)

	if _, err := la.Alloc(17); !errors.Is(err, ErrAllocation) {
		t.Fatalf("Alloc(17) error = %v, want ErrAllocation", err)
	}
}

type shortAllocator struct{}

func (shortAllocator) Alloc(size int) ([]byte, error) { return make([]byte, size/2), nil }
func (shortAllocator) Free([]byte)                    {}

type failingAllocator struct{ err error }

func (f failingAllocator) Alloc(int) ([]byte, error) { return nil, f.err }
func (failingAllocator) Free([]byte)                 {}

func TestBipBuffer_MisbehavingAllocator(t *testing.T) {
	if _, err := New(8, 8, WithAllocator(shortAllocator{})); !errors.Is(err, ErrAllocation) {
		t.Errorf("short allocation error = %v, want ErrAllocation", err)
	}

	oom := errors.New("out of memory")
	_, err := New(8, 8, WithAllocator(failingAllocator{err: oom}))
	if !errors.Is(err, ErrAllocation) || !errors.Is(err, oom) {
		t.Errorf("failing allocator error = %v, want ErrAllocation wrapping %v", err, oom)
	}
}
