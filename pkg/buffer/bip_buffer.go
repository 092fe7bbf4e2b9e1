package buffer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
)

// DefaultPageSize is the growth granularity used when New is given a
// non-positive page size.
const DefaultPageSize = 4096

// BipBuffer is a growable circular byte buffer that always exposes the oldest
// committed bytes as one contiguous slice, even after the storage wrapped.
//
// Committed data lives in up to two blocks. Block A holds the oldest bytes.
// Block B starts at offset 0 and only exists while A could not be extended
// towards the end of the storage; once the reader consumes all of A, B
// becomes the new A. Writers and readers work with reservations: a reserve
// call hands out a Reservation, the caller fills or consumes its bytes, and
// the matching commit folds it into the ledger.
//
// One mutex guards the whole ledger, so every method is a single critical
// section. The protocol assumes one writer and one reader at a time.
// Reservation bytes are accessed outside the lock; they stay valid until the
// matching commit or until a growth replaces the storage (see Valid).
type BipBuffer struct {
	mu sync.Mutex

	buf      []byte
	pageSize int

	blockA Region
	blockB Region
	writeR Region
	readR  Region

	sig   signal
	gen   uint64
	grows int

	alloc  Allocator
	logger *slog.Logger
}

// Option configures a BipBuffer.
type Option func(*BipBuffer)

// WithAllocator sets the allocator used for the backing storage.
func WithAllocator(a Allocator) Option {
	return func(b *BipBuffer) {
		if a != nil {
			b.alloc = a
		}
	}
}

// WithLogger sets the logger used for growth events.
func WithLogger(l *slog.Logger) Option {
	return func(b *BipBuffer) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates an empty BipBuffer. A positive capacity is rounded up to a
// multiple of pageSize and allocated eagerly; zero defers allocation to the
// first growth. A non-positive pageSize selects DefaultPageSize.
func New(capacity, pageSize int, opts ...Option) (*BipBuffer, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: negative capacity %d", ErrInvalidArgument, capacity)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	b := &BipBuffer{
		pageSize: pageSize,
		sig:      newSignal(),
		alloc:    HeapAllocator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if capacity > 0 {
		size, err := roundUp(capacity, pageSize)
		if err != nil {
			return nil, err
		}
		buf, err := b.allocate(size)
		if err != nil {
			return nil, fmt.Errorf("buffer: initial storage: %w", err)
		}
		b.buf = buf
	}
	return b, nil
}

// roundUp rounds n up to a multiple of page. It fails when the result does
// not fit in an int.
func roundUp(n, page int) (int, error) {
	if n > math.MaxInt-page+1 {
		return 0, fmt.Errorf("%w: %d bytes exceeds the addressable size", ErrInvalidArgument, n)
	}
	return (n + page - 1) / page * page, nil
}

// growTargetLocked returns the capacity that makes room for n more bytes
// and strictly enlarges the storage.
func (b *BipBuffer) growTargetLocked(n int) (int, error) {
	used := b.usedLocked()
	if n > math.MaxInt-used {
		return 0, fmt.Errorf("%w: %d bytes exceeds the addressable size", ErrInvalidArgument, n)
	}
	return max(used+n, len(b.buf)+1), nil
}

func (b *BipBuffer) allocate(size int) ([]byte, error) {
	buf, err := b.alloc.Alloc(size)
	if err != nil {
		if !errors.Is(err, ErrAllocation) {
			err = fmt.Errorf("%w: %w", ErrAllocation, err)
		}
		return nil, err
	}
	if len(buf) != size {
		b.alloc.Free(buf)
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrAllocation, len(buf), size)
	}
	return buf, nil
}

// UsedSize returns the number of committed bytes.
func (b *BipBuffer) UsedSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.usedLocked()
}

// Cap returns the size of the backing storage.
func (b *BipBuffer) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// PageSize returns the growth granularity.
func (b *BipBuffer) PageSize() int {
	return b.pageSize
}

// State returns the occupancy state of the committed blocks.
func (b *BipBuffer) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return stateOf(b.blockA, b.blockB)
}

// IsSignaled reports whether the buffer holds committed data.
func (b *BipBuffer) IsSignaled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sig.on
}

// Ready returns a channel that receives a value whenever the buffer goes from
// empty to non-empty. Sends never block and coalesce, so a receiver must
// re-check IsSignaled after waking.
func (b *BipBuffer) Ready() <-chan struct{} {
	return b.sig.notify
}

// Valid reports whether r still points into the current storage. Once it
// reports false the view must not be touched: with a PoolAllocator the old
// storage may already back another buffer.
func (b *BipBuffer) Valid(r Reservation) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return r.data != nil && r.gen == b.gen
}

// Clear drops all committed data and outstanding reservations. The storage
// is kept.
func (b *BipBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
}

// Release hands the storage back to the allocator and leaves an empty,
// zero-capacity buffer that grows again on demand.
func (b *BipBuffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf != nil {
		b.alloc.Free(b.buf)
		b.buf = nil
	}
	b.resetLocked()
}

func (b *BipBuffer) resetLocked() {
	b.blockA.clear()
	b.blockB.clear()
	b.writeR.clear()
	b.readR.clear()
	b.gen++
	b.sig.sync(0)
}

func (b *BipBuffer) usedLocked() int {
	return b.blockA.Size + b.blockB.Size
}

func (b *BipBuffer) viewLocked(r Region) Reservation {
	return Reservation{
		Region: r,
		gen:    b.gen,
		data:   b.buf[r.Index:r.End():r.End()],
	}
}

// TryReserveWrite reserves up to n contiguous writable bytes without growing.
// It reports false when no space is free at the position the next write must
// go to. A new call replaces any outstanding write reservation.
func (b *BipBuffer) TryReserveWrite(n int) (Reservation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tryReserveWriteLocked(n)
}

func (b *BipBuffer) tryReserveWriteLocked(n int) (Reservation, bool) {
	if n <= 0 {
		return Reservation{}, false
	}
	var r Region
	switch stateOf(b.blockA, b.blockB) {
	case StateEmpty, StateSingleBlock:
		trailing := len(b.buf) - b.blockA.End()
		switch {
		case trailing > 0 && trailing >= b.blockA.Index:
			r = Region{Index: b.blockA.End(), Size: min(n, trailing)}
		case b.blockA.Index > 0:
			// Too little room after A; wrap and start B at the front.
			r = Region{Index: 0, Size: min(n, b.blockA.Index)}
		default:
			return Reservation{}, false
		}
	case StateTwoBlocks:
		gap := b.blockA.Index - b.blockB.End()
		if gap == 0 {
			return Reservation{}, false
		}
		r = Region{Index: b.blockB.End(), Size: min(n, gap)}
	}
	b.writeR = r
	return b.viewLocked(r), true
}

// writableLocked returns how many bytes two successive write reservations
// can hand out without growing.
func (b *BipBuffer) writableLocked() int {
	switch stateOf(b.blockA, b.blockB) {
	case StateTwoBlocks:
		return b.blockA.Index - b.blockB.End()
	default:
		trailing := len(b.buf) - b.blockA.End()
		if trailing >= b.blockA.Index {
			return trailing + b.blockA.Index
		}
		return b.blockA.Index
	}
}

// ReserveWrite reserves exactly n contiguous writable bytes, growing the
// storage when the current layout cannot provide them.
func (b *BipBuffer) ReserveWrite(n int) (Reservation, error) {
	if n <= 0 {
		return Reservation{}, fmt.Errorf("%w: reserve %d bytes", ErrInvalidArgument, n)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if r, ok := b.tryReserveWriteLocked(n); ok && r.Len() == n {
		return r, nil
	}
	target, err := b.growTargetLocked(n)
	if err != nil {
		b.writeR.clear()
		return Reservation{}, err
	}
	if err := b.growLocked(target); err != nil {
		b.writeR.clear()
		return Reservation{}, err
	}
	if r, ok := b.tryReserveWriteLocked(n); ok && r.Len() == n {
		return r, nil
	}
	b.writeR.clear()
	return Reservation{}, fmt.Errorf("%w: reserve %d bytes", ErrOutOfSpace, n)
}

// CommitWrite commits the first n bytes of the outstanding write
// reservation. n is clamped to the reservation size and zero cancels it.
func (b *BipBuffer) CommitWrite(n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.commitWriteLocked(n)
}

func (b *BipBuffer) commitWriteLocked(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: commit %d bytes", ErrInvalidArgument, n)
	}
	r := b.writeR
	b.writeR.clear()
	if n == 0 {
		return nil
	}
	if r.Empty() {
		return ErrNoReservation
	}
	n = min(n, r.Size)

	before := b.usedLocked()
	switch stateOf(b.blockA, b.blockB) {
	case StateEmpty:
		b.blockA = Region{Index: r.Index, Size: n}
	case StateSingleBlock:
		if r.Index == b.blockA.End() {
			b.blockA.Size += n
		} else {
			b.blockB = Region{Index: r.Index, Size: n}
		}
	case StateTwoBlocks:
		if r.Index == b.blockA.End() {
			b.blockA.Size += n
		} else {
			b.blockB.Size += n
		}
	}
	b.sig.update(before, b.usedLocked())
	return nil
}

// TryReserveRead reserves up to n of the oldest committed bytes; n <= 0
// reserves all of block A. It reports false when there is no data.
func (b *BipBuffer) TryReserveRead(n int) (Reservation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tryReserveReadLocked(n)
}

func (b *BipBuffer) tryReserveReadLocked(n int) (Reservation, bool) {
	if b.blockA.Empty() {
		return Reservation{}, false
	}
	size := b.blockA.Size
	if n > 0 && n < size {
		size = n
	}
	b.readR = Region{Index: b.blockA.Index, Size: size}
	return b.viewLocked(b.readR), true
}

// ReserveRead reserves exactly n of the oldest committed bytes as one
// contiguous view. When the data is split between A and B, the storage is
// grown by one page to linearise it.
func (b *BipBuffer) ReserveRead(n int) (Reservation, error) {
	if n <= 0 {
		return Reservation{}, fmt.Errorf("%w: reserve %d bytes", ErrInvalidArgument, n)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if used := b.usedLocked(); used < n {
		return Reservation{}, fmt.Errorf("%w: want %d bytes, have %d", ErrNoData, n, used)
	}
	if r, ok := b.tryReserveReadLocked(n); ok && r.Len() == n {
		return r, nil
	}
	if err := b.growLocked(len(b.buf) + 1); err != nil {
		return Reservation{}, err
	}
	if r, ok := b.tryReserveReadLocked(n); ok && r.Len() == n {
		return r, nil
	}
	b.readR.clear()
	return Reservation{}, fmt.Errorf("%w: want %d contiguous bytes", ErrNoData, n)
}

// CommitRead consumes n bytes from the front of block A. n is clamped to
// the size of A; consuming all of A rotates B into A.
func (b *BipBuffer) CommitRead(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commitReadLocked(n)
}

func (b *BipBuffer) commitReadLocked(n int) {
	before := b.usedLocked()
	b.readR.clear()
	n = max(n, 0)
	if n >= b.blockA.Size {
		b.blockA = b.blockB
		b.blockB.clear()
	} else {
		b.blockA.Index += n
		b.blockA.Size -= n
	}
	b.sig.update(before, b.usedLocked())
}

// Grow makes the storage at least minCap bytes, rounded up to a multiple of
// the page size. It never shrinks. Committed data is moved to the front of
// the new storage as a single block, and every outstanding reservation is
// invalidated. On ErrAllocation the buffer is left unchanged.
func (b *BipBuffer) Grow(minCap int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.growLocked(minCap)
}

func (b *BipBuffer) growLocked(minCap int) error {
	size, err := roundUp(minCap, b.pageSize)
	if err != nil {
		return fmt.Errorf("buffer: grow: %w", err)
	}
	if size <= len(b.buf) {
		return nil
	}
	buf, err := b.allocate(size)
	if err != nil {
		b.logger.Warn("buffer: grow failed", "from", len(b.buf), "to", size, "error", err)
		return fmt.Errorf("buffer: grow to %d bytes: %w", size, err)
	}

	drained := 0
	for i := 0; i < 2; i++ {
		r, ok := b.tryReserveReadLocked(0)
		if !ok {
			break
		}
		drained += copy(buf[drained:], r.Bytes())
		b.commitReadLocked(r.Size)
	}

	old := len(b.buf)
	if b.buf != nil {
		b.alloc.Free(b.buf)
	}
	b.buf = buf
	b.blockA.clear()
	b.blockB.clear()
	b.writeR.clear()
	b.readR.clear()
	b.blockA = Region{Index: 0, Size: drained}
	b.gen++
	b.grows++
	b.sig.sync(drained)

	b.logger.Debug("buffer: grow", "from", old, "to", size, "drained", drained, "generation", b.gen)
	return nil
}

// Write copies p into the buffer, growing it when the free space reachable
// from the current layout is too small. It returns -1 and ErrInvalidArgument
// on a nil buffer. When growth fails it returns 0 and the growth error, and a
// short write returns the bytes written with ErrOutOfSpace.
func (b *BipBuffer) Write(p []byte) (int, error) {
	if b == nil {
		return -1, ErrInvalidArgument
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeLocked(p)
}

func (b *BipBuffer) writeLocked(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.writableLocked() < len(p) {
		target, err := b.growTargetLocked(len(p))
		if err != nil {
			return 0, err
		}
		if err := b.growLocked(target); err != nil {
			return 0, err
		}
	}

	n := 0
	for i := 0; i < 2; i++ {
		r, ok := b.tryReserveWriteLocked(len(p) - n)
		if !ok {
			break
		}
		w := copy(r.Bytes(), p[n:])
		if err := b.commitWriteLocked(w); err != nil {
			return n, err
		}
		n += w
		if n == len(p) {
			return n, nil
		}
	}
	return n, fmt.Errorf("%w: wrote %d of %d bytes", ErrOutOfSpace, n, len(p))
}

// Read copies up to len(p) of the oldest bytes into p and consumes them. It
// returns 0 and a nil error when the buffer is empty, and -1 with
// ErrInvalidArgument on a nil buffer. A short read is not an error.
func (b *BipBuffer) Read(p []byte) (int, error) {
	if b == nil {
		return -1, ErrInvalidArgument
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readLocked(p), nil
}

func (b *BipBuffer) readLocked(p []byte) int {
	n := 0
	for i := 0; i < 2; i++ {
		if n == len(p) {
			break
		}
		r, ok := b.tryReserveReadLocked(len(p) - n)
		if !ok {
			break
		}
		m := copy(p[n:], r.Bytes())
		b.commitReadLocked(m)
		n += m
	}
	return n
}

// Stats is a point-in-time snapshot of a BipBuffer.
type Stats struct {
	Capacity         int    `yaml:"capacity" json:"capacity"`
	PageSize         int    `yaml:"page_size" json:"page_size"`
	Used             int    `yaml:"used" json:"used"`
	Free             int    `yaml:"free" json:"free"`
	State            State  `yaml:"state" json:"state"`
	BlockA           Region `yaml:"block_a" json:"block_a"`
	BlockB           Region `yaml:"block_b" json:"block_b"`
	WriteReservation Region `yaml:"write_reservation" json:"write_reservation"`
	ReadReservation  Region `yaml:"read_reservation" json:"read_reservation"`
	Signaled         bool   `yaml:"signaled" json:"signaled"`
	Generation       uint64 `yaml:"generation" json:"generation"`
	Grows            int    `yaml:"grows" json:"grows"`
}

// Stats returns a snapshot of the ledger.
func (b *BipBuffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	used := b.usedLocked()
	return Stats{
		Capacity:         len(b.buf),
		PageSize:         b.pageSize,
		Used:             used,
		Free:             len(b.buf) - used,
		State:            stateOf(b.blockA, b.blockB),
		BlockA:           b.blockA,
		BlockB:           b.blockB,
		WriteReservation: b.writeR,
		ReadReservation:  b.readR,
		Signaled:         b.sig.on,
		Generation:       b.gen,
		Grows:            b.grows,
	}
}
