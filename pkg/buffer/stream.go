package buffer

import (
	"fmt"
	"io"
	"sync"
)

var (
	_ io.Reader = (*Stream)(nil)
	_ io.Writer = (*Stream)(nil)
	_ io.Closer = (*Stream)(nil)
)

// Stream is a blocking io.Reader and io.Writer on top of a BipBuffer.
//
// Read blocks until the buffer is signaled or the stream is closed. Write
// blocks while the buffer holds limit bytes or more; a zero limit never
// blocks writers and lets the buffer grow freely. A Stream is meant for one
// writer goroutine and one reader goroutine.
//
// CloseWrite lets readers drain what is left and then return io.EOF.
// CloseWithError closes both ends immediately.
type Stream struct {
	bb    *BipBuffer
	cond  *sync.Cond
	limit int

	closeWrite bool
	closeErr   error
}

// NewStream wraps bb. The Stream shares bb's lock but only its own calls wake
// waiters, so once wrapped, bb should be written and read through the Stream.
func NewStream(bb *BipBuffer, limit int) *Stream {
	return &Stream{
		bb:    bb,
		cond:  sync.NewCond(&bb.mu),
		limit: max(limit, 0),
	}
}

// Buffer returns the underlying BipBuffer.
func (s *Stream) Buffer() *BipBuffer {
	return s.bb
}

// Write copies p into the buffer, blocking while it is at the limit.
//
// Returns the number of bytes written. Returns io.ErrClosedPipe if the write
// side is closed.
func (s *Stream) Write(p []byte) (int, error) {
	s.bb.mu.Lock()
	defer s.bb.mu.Unlock()
	if s.closeErr != nil {
		return 0, fmt.Errorf("buffer: write to closed stream: %w", s.closeErr)
	}
	if s.closeWrite {
		return 0, fmt.Errorf("buffer: write to closed stream: %w", io.ErrClosedPipe)
	}

	wn := 0
	for len(p) > 0 {
		room := len(p)
		if s.limit > 0 {
			for s.bb.usedLocked() >= s.limit {
				s.cond.Wait()
				if s.closeErr != nil {
					return wn, fmt.Errorf("buffer: write to closed stream: %w", s.closeErr)
				}
			}
			room = min(room, s.limit-s.bb.usedLocked())
		}
		n, err := s.bb.writeLocked(p[:room])
		wn += n
		p = p[n:]
		if n > 0 {
			s.cond.Broadcast()
		}
		if err != nil {
			return wn, err
		}
	}
	return wn, nil
}

// Read copies the oldest buffered bytes into p, blocking until data is
// available.
//
// Returns io.EOF once the write side is closed and the buffer is drained.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	s.bb.mu.Lock()
	defer s.bb.mu.Unlock()
	if s.closeErr != nil {
		return 0, fmt.Errorf("buffer: read from closed stream: %w", s.closeErr)
	}

	for !s.bb.sig.on {
		if s.closeWrite {
			return 0, io.EOF
		}
		s.cond.Wait()
		if s.closeErr != nil {
			return 0, fmt.Errorf("buffer: read from closed stream: %w", s.closeErr)
		}
	}

	n := s.bb.readLocked(p)
	s.cond.Broadcast()
	return n, nil
}

// Len returns the number of buffered bytes.
func (s *Stream) Len() int {
	return s.bb.UsedSize()
}

// CloseWrite closes the write side. Readers drain the remaining bytes and
// then get io.EOF.
func (s *Stream) CloseWrite() error {
	s.bb.mu.Lock()
	defer s.bb.mu.Unlock()
	if s.closeWrite {
		return nil
	}
	s.closeWrite = true
	s.cond.Broadcast()
	return nil
}

// CloseWithError closes both sides. Pending and later calls return err,
// or io.ErrClosedPipe when err is nil. Buffered data is discarded.
func (s *Stream) CloseWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	s.bb.mu.Lock()
	defer s.bb.mu.Unlock()
	if s.closeErr != nil {
		return nil
	}
	s.closeErr = err
	s.closeWrite = true
	s.bb.resetLocked()
	s.cond.Broadcast()
	return nil
}

// Close is CloseWithError(io.ErrClosedPipe).
func (s *Stream) Close() error {
	return s.CloseWithError(io.ErrClosedPipe)
}

// Error returns the error the stream was closed with, if any.
func (s *Stream) Error() error {
	s.bb.mu.Lock()
	defer s.bb.mu.Unlock()
	return s.closeErr
}
