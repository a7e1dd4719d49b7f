package bytecode

import "errors"

var (
	// ErrTruncated is returned when a Cursor runs out of bytes mid-read: an
	// opcode byte with no immediate following it, or no opcode byte at all.
	ErrTruncated = errors.New("bytecode: truncated instruction")

	// ErrUndefinedOpcode is returned when the decoder reads a byte that does
	// not name a member of the instruction set.
	ErrUndefinedOpcode = errors.New("bytecode: undefined opcode")
)
