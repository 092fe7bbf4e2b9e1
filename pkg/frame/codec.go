package frame

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoder writes msgpack-encoded values, one per frame.
type Encoder struct {
	w *Writer
}

// NewEncoder returns an Encoder writing through w.
func NewEncoder(w *Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode marshals v and writes it as a frame.
func (e *Encoder) Encode(v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("frame: encode: %w", err)
	}
	return e.w.WriteFrame(data)
}

// Decoder reads msgpack-encoded values, one per frame.
type Decoder struct {
	r *Reader
}

// NewDecoder returns a Decoder reading through r.
func NewDecoder(r *Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode unmarshals the oldest frame into v straight from the buffer and
// consumes it. A frame that fails to decode is consumed as well, so one bad
// record does not wedge the reader.
func (d *Decoder) Decode(v any) error {
	p, err := d.r.NextFrame()
	if err != nil {
		return err
	}
	defer d.r.Release()
	if err := msgpack.Unmarshal(p, v); err != nil {
		return fmt.Errorf("frame: decode: %w", err)
	}
	return nil
}
