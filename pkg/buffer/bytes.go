package buffer

import "fmt"

func mustNew(capacity int) *BipBuffer {
	bb, err := New(capacity, DefaultPageSize)
	if err != nil {
		panic(fmt.Sprintf("buffer: preset of %d bytes: %v", capacity, err))
	}
	return bb
}

// Bip64KB creates a BipBuffer with 64KB of storage.
func Bip64KB() *BipBuffer {
	return mustNew(1 << 16)
}

// Bip16KB creates a BipBuffer with 16KB of storage.
func Bip16KB() *BipBuffer {
	return mustNew(1 << 14)
}

// Bip4KB creates a BipBuffer with 4KB of storage, one default page.
func Bip4KB() *BipBuffer {
	return mustNew(1 << 12)
}

// BytesStream creates a Stream over a new BipBuffer of the given capacity
// whose writers block once capacity bytes are buffered.
func BytesStream(capacity int) *Stream {
	return NewStream(mustNew(capacity), capacity)
}
