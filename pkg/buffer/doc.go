// Package buffer provides a bip buffer: a growable circular byte buffer that
// always hands out the oldest readable data as one contiguous slice.
//
// A plain ring buffer splits data that crosses the end of its storage into
// two pieces. A BipBuffer instead keeps two committed blocks, A and B. When a
// write would wrap, it starts block B at the front of the storage and keeps
// appending there until the reader has consumed all of A, at which point B
// becomes the new A. Readers therefore always see a single slice.
//
// Both sides follow a reserve/commit protocol:
//
//	bb, _ := buffer.New(4096, 0)
//
//	// writer
//	r, err := bb.ReserveWrite(5)
//	if err != nil {
//		return err
//	}
//	copy(r.Bytes(), "hello")
//	bb.CommitWrite(5)
//
//	// reader
//	if r, ok := bb.TryReserveRead(0); ok {
//		consume(r.Bytes())
//		bb.CommitRead(r.Len())
//	}
//
// Write and Read wrap the protocol for callers that just copy bytes, and
// Stream adds blocking io.Reader and io.Writer semantics on top.
//
// The storage grows in multiples of a page size when a reservation cannot be
// satisfied. Growth moves the committed data to the front of the new storage
// and invalidates outstanding reservations; BipBuffer.Valid reports whether a
// Reservation still refers to the current storage.
//
// IsSignaled reports whether the buffer holds data, and Ready delivers a
// notification on every empty to non-empty transition for callers that drive
// their own wake-up.
package buffer
