package parse

import (
	"bytes"
	"fmt"
	"io"
)

// Magic is the sync pattern that opens every frame in the sensor stream.
var Magic = []byte{0x02, 0x01, 0x04, 0x03, 0x06, 0x05, 0x08, 0x07}

// MagicWord is Magic read as a little-endian uint64, as it appears in the
// first field of a decoded FrameHeader.
const MagicWord uint64 = 0x0708050603040102

// Cursor owns a captured byte buffer and a forward-only read offset.
type Cursor struct {
	buf    []byte
	offset int
}

// NewCursor returns a cursor positioned at the start of buf. The buffer is
// not copied; callers must not modify it while the cursor is in use.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset returns the absolute read position within the original buffer.
func (c *Cursor) Offset() int {
	return c.offset
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.offset
}

// HasAtLeast reports whether at least n unread bytes remain.
func (c *Cursor) HasAtLeast(n int) bool {
	return n >= 0 && c.Remaining() >= n
}

// ResyncToMagic discards every byte before the next occurrence of Magic and
// leaves the cursor positioned on it. If no further sync pattern exists the
// remainder of the buffer is discarded and found is false. skipped is the
// number of bytes discarded either way.
func (c *Cursor) ResyncToMagic() (skipped int, found bool) {
	idx := bytes.Index(c.buf[c.offset:], Magic)
	if idx < 0 {
		skipped = c.Remaining()
		c.offset = len(c.buf)
		return skipped, false
	}
	c.offset += idx
	return idx, true
}

// ReadExact returns the next n bytes and advances past them. The returned
// slice aliases the underlying buffer. If fewer than n bytes remain the
// cursor does not move and io.ErrUnexpectedEOF is returned.
func (c *Cursor) ReadExact(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read length %d", n)
	}
	if !c.HasAtLeast(n) {
		return nil, io.ErrUnexpectedEOF
	}
	out := c.buf[c.offset : c.offset+n]
	c.offset += n
	return out, nil
}

// Skip advances past n bytes without returning them.
func (c *Cursor) Skip(n int) error {
	_, err := c.ReadExact(n)
	return err
}
