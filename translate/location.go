package translate

// Location tags where an operand lives going into, or a result lives coming
// out of, a single IR instruction's native encoding. The code emitter uses
// it to pick which LoadOperands/WriteResult byte sequence to emit; the
// peephole optimizer rewrites it to route a value through R9 instead of the
// data stack.
type Location int

const (
	LocNone Location = iota
	LocStack
	LocRax
	LocR8
	LocR9
	LocR14
	LocImmediate
	LocStdin
	LocStdout
)

func (l Location) String() string {
	switch l {
	case LocNone:
		return "none"
	case LocStack:
		return "stack"
	case LocRax:
		return "rax"
	case LocR8:
		return "r8"
	case LocR9:
		return "r9"
	case LocR14:
		return "r14"
	case LocImmediate:
		return "imm"
	case LocStdin:
		return "stdin"
	case LocStdout:
		return "stdout"
	default:
		return "?"
	}
}
