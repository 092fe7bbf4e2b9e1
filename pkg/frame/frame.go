// Package frame writes and reads length-prefixed messages through a
// buffer.BipBuffer.
//
// Every frame is reserved and committed as a single contiguous write, so the
// committed blocks of the buffer always start at a frame boundary and a frame
// never straddles the wrap. NextFrame can therefore hand out the payload as a
// view into the buffer without copying.
//
// Wire layout:
//
//	+----------------+------------------+
//	| length (4, BE) | payload (length) |
//	+----------------+------------------+
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/haivivi/bipbuf/pkg/buffer"
)

// HeaderSize is the size of the big-endian length prefix.
const HeaderSize = 4

// DefaultMaxSize is the largest payload accepted when no limit is given.
const DefaultMaxSize = 1 << 20

var (
	// ErrIncomplete is returned when the buffer does not hold a whole frame.
	ErrIncomplete = errors.New("frame: incomplete frame")

	// ErrTooLarge is returned for payloads above the configured maximum.
	ErrTooLarge = errors.New("frame: frame too large")
)

// Writer appends frames to a BipBuffer.
type Writer struct {
	bb      *buffer.BipBuffer
	maxSize int
}

// NewWriter returns a Writer on bb. A non-positive maxSize selects
// DefaultMaxSize.
func NewWriter(bb *buffer.BipBuffer, maxSize int) *Writer {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Writer{bb: bb, maxSize: maxSize}
}

// WriteFrame writes payload as one frame.
func (w *Writer) WriteFrame(payload []byte) error {
	if len(payload) > w.maxSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrTooLarge, len(payload), w.maxSize)
	}
	r, err := w.bb.ReserveWrite(HeaderSize + len(payload))
	if err != nil {
		return fmt.Errorf("frame: reserve: %w", err)
	}
	p := r.Bytes()
	binary.BigEndian.PutUint32(p, uint32(len(payload)))
	copy(p[HeaderSize:], payload)
	if err := w.bb.CommitWrite(len(p)); err != nil {
		return fmt.Errorf("frame: commit: %w", err)
	}
	return nil
}

// Reader takes frames out of a BipBuffer.
type Reader struct {
	bb      *buffer.BipBuffer
	maxSize int
	pending int
}

// NewReader returns a Reader on bb. A non-positive maxSize selects
// DefaultMaxSize.
func NewReader(bb *buffer.BipBuffer, maxSize int) *Reader {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Reader{bb: bb, maxSize: maxSize}
}

// NextFrame returns the payload of the oldest frame as a view into the
// buffer. The view is valid until Release, which consumes the frame; calling
// NextFrame again without Release returns the same frame.
func (r *Reader) NextFrame() ([]byte, error) {
	h, err := r.bb.ReserveRead(HeaderSize)
	if err != nil {
		if errors.Is(err, buffer.ErrNoData) {
			return nil, ErrIncomplete
		}
		return nil, fmt.Errorf("frame: reserve header: %w", err)
	}
	n := int(binary.BigEndian.Uint32(h.Bytes()))
	if n > r.maxSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrTooLarge, n, r.maxSize)
	}
	f, err := r.bb.ReserveRead(HeaderSize + n)
	if err != nil {
		if errors.Is(err, buffer.ErrNoData) {
			return nil, ErrIncomplete
		}
		return nil, fmt.Errorf("frame: reserve payload: %w", err)
	}
	r.pending = f.Len()
	return f.Bytes()[HeaderSize:], nil
}

// Release consumes the frame returned by the last NextFrame.
func (r *Reader) Release() {
	if r.pending == 0 {
		return
	}
	r.bb.CommitRead(r.pending)
	r.pending = 0
}

// ReadFrame returns a copy of the oldest frame's payload and consumes it.
func (r *Reader) ReadFrame() ([]byte, error) {
	p, err := r.NextFrame()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(p))
	copy(out, p)
	r.Release()
	return out, nil
}

// Skip consumes the oldest frame without looking at its payload.
func (r *Reader) Skip() error {
	if _, err := r.NextFrame(); err != nil {
		return err
	}
	r.Release()
	return nil
}
