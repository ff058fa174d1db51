package streamfile

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Cursor reads big-endian fields from an in-memory stream file. Every byte it
// consumes is also written to the attached digests, so a decoder gets its
// running hashes without re-reading the input.
type Cursor struct {
	data    []byte
	pos     int
	digests []io.Writer
}

// NewCursor ...
func NewCursor(data []byte, digests ...io.Writer) *Cursor {
	return &Cursor{
		data:    data,
		digests: digests,
	}
}

// Attach adds a digest fed from the current position onwards.
func (c *Cursor) Attach(w io.Writer) {
	c.digests = append(c.digests, w)
}

// Detach stops feeding w.
func (c *Cursor) Detach(w io.Writer) {
	for i, d := range c.digests {
		if d == w {
			c.digests = append(c.digests[:i], c.digests[i+1:]...)
			return
		}
	}
}

// Position is the number of bytes consumed so far.
func (c *Cursor) Position() int {
	return c.pos
}

// Remaining is the number of bytes left.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// AtEnd ...
func (c *Cursor) AtEnd() bool {
	return c.pos >= len(c.data)
}

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, fmt.Errorf("truncated at offset %d: need %d bytes, have %d", c.pos, n, c.Remaining())
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	for _, d := range c.digests {
		d.Write(b)
	}
	return b, nil
}

// ReadByte ...
func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt32 ...
func (c *Cursor) ReadInt32() (int32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// ReadInt64 ...
func (c *Cursor) ReadInt64() (int64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// ReadBytes reads exactly n bytes. The returned slice aliases the input.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	return c.take(n)
}

// ReadMarker reads one byte and checks it.
func (c *Cursor) ReadMarker(expected byte, what string) error {
	offset := c.pos
	b, err := c.ReadByte()
	if err != nil {
		return err
	}
	if b != expected {
		return fmt.Errorf("%s marker at offset %d: got %d, expected %d", what, offset, b, expected)
	}
	return nil
}

// ReadInt32Expect reads an int32 and checks it.
func (c *Cursor) ReadInt32Expect(expected int32, what string) error {
	offset := c.pos
	v, err := c.ReadInt32()
	if err != nil {
		return err
	}
	if v != expected {
		return fmt.Errorf("%s at offset %d: got %d, expected %d", what, offset, v, expected)
	}
	return nil
}

// ReadLengthPrefixed reads an int32 length followed by that many bytes. The
// length must be in [min, max].
func (c *Cursor) ReadLengthPrefixed(min, max int, what string) ([]byte, error) {
	offset := c.pos
	n, err := c.ReadInt32()
	if err != nil {
		return nil, err
	}
	if int(n) < min || int(n) > max {
		return nil, fmt.Errorf("%s length at offset %d: %d not in [%d, %d]", what, offset, n, min, max)
	}
	return c.take(int(n))
}

// PeekInt64 returns the next 8 bytes as an int64 without consuming them.
func (c *Cursor) PeekInt64() (int64, bool) {
	if c.Remaining() < 8 {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(c.data[c.pos : c.pos+8])), true
}

// Rest consumes everything left.
func (c *Cursor) Rest() []byte {
	b, _ := c.take(c.Remaining())
	return b
}

// Writer builds stream files with the same field conventions. It is used to
// produce fixtures and by the signing tool.
type Writer struct {
	buf []byte
}

// Bytes ...
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len ...
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteByte ...
func (w *Writer) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

// WriteInt32 ...
func (w *Writer) WriteInt32(v int32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
}

// WriteInt64 ...
func (w *Writer) WriteInt64(v int64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
}

// Write implements io.Writer.
func (w *Writer) Write(b []byte) (int, error) {
	w.buf = append(w.buf, b...)
	return len(b), nil
}

// WriteLengthPrefixed writes an int32 length and the bytes.
func (w *Writer) WriteLengthPrefixed(b []byte) {
	w.WriteInt32(int32(len(b)))
	w.buf = append(w.buf, b...)
}
