package buffer

// Reservation is a view into the storage of a BipBuffer handed out by the
// reserve calls. It does not own the bytes: it is valid until the matching
// commit, or until a growth replaces the storage. BipBuffer.Valid reports
// whether a view still belongs to the current storage generation.
type Reservation struct {
	Region

	gen  uint64
	data []byte
}

// Bytes returns the reserved bytes. Writers fill it before CommitWrite;
// readers consume it before CommitRead. Do not retain it past the commit.
func (r Reservation) Bytes() []byte {
	return r.data
}

// Len returns the number of reserved bytes.
func (r Reservation) Len() int {
	return len(r.data)
}

// Generation returns the storage generation the view was taken from.
func (r Reservation) Generation() uint64 {
	return r.gen
}
