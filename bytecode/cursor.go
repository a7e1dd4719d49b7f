package bytecode

import "encoding/binary"

// Cursor is the ByteCursor primitive: a read position over a raw byte
// buffer, with little-endian fixed-width integer decode. Decoder builds on
// it; encoding goes through the free function PutInt32LE below.
type Cursor struct {
	buf []byte
	pos uint32
}

// NewCursor wraps buf for reading starting at offset 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current byte offset.
func (c *Cursor) Pos() uint32 { return c.pos }

// SetPos repositions the cursor.
func (c *Cursor) SetPos(pos uint32) { c.pos = pos }

// Len returns the size of the underlying buffer.
func (c *Cursor) Len() uint32 { return uint32(len(c.buf)) }

// Remaining reports how many bytes are unread.
func (c *Cursor) Remaining() uint32 {
	if c.pos >= uint32(len(c.buf)) {
		return 0
	}
	return uint32(len(c.buf)) - c.pos
}

// ReadByte reads one byte and advances the cursor by 1.
func (c *Cursor) ReadByte() (byte, error) {
	if c.Remaining() < 1 {
		return 0, ErrTruncated
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// ReadInt32 reads a little-endian signed 32-bit integer and advances the
// cursor by 4.
func (c *Cursor) ReadInt32() (int32, error) {
	if c.Remaining() < 4 {
		return 0, ErrTruncated
	}
	v := int32(binary.LittleEndian.Uint32(c.buf[c.pos:]))
	c.pos += 4
	return v, nil
}

// Bytes returns the underlying buffer.
func (c *Cursor) Bytes() []byte { return c.buf }

// PutInt32LE encodes v as little-endian into dst, which must have room for
// 4 bytes. It is a free function rather than a Cursor method because the
// assembler and the translator both need to write an immediate into a
// buffer they otherwise manage growth of themselves.
func PutInt32LE(dst []byte, v int32) {
	binary.LittleEndian.PutUint32(dst, uint32(v))
}

// Int32LE decodes a little-endian signed 32-bit integer from src.
func Int32LE(src []byte) int32 {
	return int32(binary.LittleEndian.Uint32(src))
}
