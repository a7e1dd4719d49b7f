// Package bytecode defines the wire format shared by the assembler, the
// reference interpreter, and the binary translator: the opcode set, the
// little-endian instruction encoding, and a cursor for reading it.
package bytecode

import "fmt"

// Opcode is a tagged enumeration of the SVM instruction set. Every opcode has
// fixed arity: either no immediate, or one 4-byte signed immediate.
type Opcode int8

const (
	// Undefined is a sentinel that is never emitted to a binary; it marks a
	// decode or lookup failure.
	Undefined Opcode = -1

	Halt   Opcode = 0x00
	Push   Opcode = 0x01
	Pop    Opcode = 0x02
	Add    Opcode = 0x03
	Load   Opcode = 0x04
	Store  Opcode = 0x05
	Input  Opcode = 0x06
	Output Opcode = 0x07
	Jmp    Opcode = 0x09
	Jmc    Opcode = 0x0A
	Sub    Opcode = 0x0B
	Mul    Opcode = 0x0C
	Div    Opcode = 0x0D
	Gz     Opcode = 0x0E
	Bz     Opcode = 0x0F
	Gez    Opcode = 0x10
	Bez    Opcode = 0x11
	Call   Opcode = 0x12
	Ret    Opcode = 0x13
	PushBp Opcode = 0x14
	PopBp  Opcode = 0x15
	Eqz    Opcode = 0x16
	Neqz   Opcode = 0x17
)

var opcodeNames = map[Opcode]string{
	Halt:   "halt",
	Push:   "push",
	Pop:    "pop",
	Add:    "add",
	Load:   "load",
	Store:  "store",
	Input:  "input",
	Output: "output",
	Jmp:    "jmp",
	Jmc:    "jmc",
	Sub:    "sub",
	Mul:    "mul",
	Div:    "div",
	Gz:     "gz",
	Bz:     "bz",
	Gez:    "gez",
	Bez:    "bez",
	Call:   "call",
	Ret:    "ret",
	PushBp: "pushbp",
	PopBp:  "popbp",
	Eqz:    "eqz",
	Neqz:   "neqz",
}

// nameToOpcode is built from opcodeNames in init, the same way teacher's
// instrToStrMap is derived from strToInstrMap.
var nameToOpcode map[string]Opcode

func init() {
	nameToOpcode = make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		nameToOpcode[name] = op
	}
}

// String implements fmt.Stringer for use with Print/Sprint and test failure
// messages.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "?unknown?"
}

// Lookup returns the opcode named by s, case-sensitive, and whether it was
// found.
func Lookup(s string) (Opcode, bool) {
	op, ok := nameToOpcode[s]
	return op, ok
}

// HasImmediate reports whether op carries a 4-byte immediate in the binary
// encoding, per the decoder table in the wire format.
func (op Opcode) HasImmediate() bool {
	switch op {
	case Push, Load, Store, Jmp, Jmc, Call:
		return true
	default:
		return false
	}
}

// Defined reports whether op is a member of the instruction set.
func (op Opcode) Defined() bool {
	_, ok := opcodeNames[op]
	return ok
}

// Instruction is a decoded (opcode, immediate) pair. Imm is unused when
// Op.HasImmediate() is false.
type Instruction struct {
	Op  Opcode
	Imm int32
}

func (i Instruction) String() string {
	if !i.Op.HasImmediate() {
		return i.Op.String()
	}
	return fmt.Sprintf("%s %d", i.Op.String(), i.Imm)
}
