package buffer

import "errors"

var (
	// ErrOutOfSpace is returned when a write reservation cannot be granted,
	// even after growth. It is not fatal; retry after the reader drains data.
	ErrOutOfSpace = errors.New("buffer: out of space")

	// ErrNoData is returned when a read reservation asks for more bytes than
	// are committed.
	ErrNoData = errors.New("buffer: no data")

	// ErrAllocation is returned when the Allocator fails to provide storage
	// for a growth.
	ErrAllocation = errors.New("buffer: allocation failed")

	// ErrInvalidArgument is returned for a nil buffer or a non-positive size.
	ErrInvalidArgument = errors.New("buffer: invalid argument")

	// ErrNoReservation is returned when committing bytes without an
	// outstanding write reservation, including one that a growth invalidated.
	ErrNoReservation = errors.New("buffer: no outstanding reservation")
)
