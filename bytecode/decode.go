package bytecode

import "fmt"

// Decode reads the instruction at c's current position, advances c past it,
// and returns the decoded instruction. An opcode byte with HasImmediate()
// true consumes a further 4 bytes as a little-endian signed immediate; every
// other opcode consumes only the tag byte.
//
// Decode never advances past a short read: on ErrTruncated or
// ErrUndefinedOpcode, c's position is left at the start of the failed
// instruction so callers can report the offending offset.
func Decode(c *Cursor) (Instruction, error) {
	start := c.Pos()

	tag, err := c.ReadByte()
	if err != nil {
		c.SetPos(start)
		return Instruction{}, ErrTruncated
	}

	op := Opcode(int8(tag))
	if !op.Defined() {
		c.SetPos(start)
		return Instruction{}, fmt.Errorf("%w: 0x%02x at offset %d", ErrUndefinedOpcode, tag, start)
	}

	if !op.HasImmediate() {
		return Instruction{Op: op}, nil
	}

	imm, err := c.ReadInt32()
	if err != nil {
		c.SetPos(start)
		return Instruction{}, ErrTruncated
	}
	return Instruction{Op: op, Imm: imm}, nil
}

// DecodeAll decodes every instruction in bin in order, stopping at the first
// error. It is used by tests; the
// translator and interpreter decode one instruction at a time instead, since
// they each need to interleave decoding with per-instruction bookkeeping.
func DecodeAll(bin []byte) ([]Instruction, error) {
	c := NewCursor(bin)
	var out []Instruction
	for c.Remaining() > 0 {
		instr, err := Decode(c)
		if err != nil {
			return out, err
		}
		out = append(out, instr)
	}
	return out, nil
}
