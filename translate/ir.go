// Package translate is the binary translator: it decodes a wire-format
// program, builds an append-only IR over it, peephole-optimizes adjacent
// arithmetic, emits x86-64 machine code into a JIT arena, patches branch
// displacements, and runs the result.
package translate

import (
	"errors"
	"fmt"

	"zvm/bytecode"
)

// ErrUnsupportedOpcode is returned when the guest program uses an opcode the
// translator does not emit code for. RET, PUSHBP and POPBP fall here: the
// interpreter supports the full instruction set as the oracle, but the
// translator only ever needs to handle programs that avoid them (round-trip
// testing excludes them for exactly this reason).
var ErrUnsupportedOpcode = errors.New("translate: unsupported opcode")

// Instr is one node of the IR: a decoded guest instruction plus the
// bookkeeping the later stages (optimizer, emitter, linker) attach to it.
type Instr struct {
	Op  bytecode.Opcode
	Imm int32

	GuestOffset int // byte offset in the guest program this came from
	NativeOffset int // byte offset into the emitted code, set by the emitter

	Op1Loc, Op2Loc, ResLoc Location
}

func (in *Instr) isArithmetic() bool {
	return in.Op == bytecode.Add || in.Op == bytecode.Sub || in.Op == bytecode.Mul
}

// Program is the translator's IR: an append-only list of instructions
// indexed by position, plus the two maps spec.md names explicitly.
//
// GuestAddrMap and JumpMap hold IR indices rather than node pointers: the
// std::list<BtInstr> node-pointer identity the original C++ relies on has no
// safe analogue over a Go slice that might reallocate, so every reference is
// a stable integer index into Instrs instead.
type Program struct {
	Instrs []Instr

	GuestAddrMap map[uint32]int // guest byte offset -> IR index
	JumpMap      map[int]int    // source IR index -> target IR index
}

// Build decodes bin in full and constructs its IR, including the (still
// undirected) GuestAddrMap. Jump targets are resolved in a second pass by
// LinkJumps, since a forward jump's target index isn't known until the
// whole program has been decoded.
func Build(bin []byte) (*Program, error) {
	prog := &Program{
		GuestAddrMap: make(map[uint32]int),
	}

	c := bytecode.NewCursor(bin)
	for c.Remaining() > 0 {
		offset := c.Pos()
		instr, err := bytecode.Decode(c)
		if err != nil {
			return nil, err
		}

		if instr.Op == bytecode.Ret || instr.Op == bytecode.PushBp || instr.Op == bytecode.PopBp {
			return nil, fmt.Errorf("%w: %s at offset %d", ErrUnsupportedOpcode, instr.Op, offset)
		}

		irIdx := len(prog.Instrs)
		node := Instr{Op: instr.Op, Imm: instr.Imm, GuestOffset: int(offset)}
		initLocations(&node)
		prog.Instrs = append(prog.Instrs, node)
		prog.GuestAddrMap[offset] = irIdx
	}

	return prog, nil
}

// LinkJumps populates JumpMap: for every JMP/JMC/CALL node, maps its IR
// index to the IR index of the instruction at its target guest offset.
func (p *Program) LinkJumps() error {
	p.JumpMap = make(map[int]int)
	for i := range p.Instrs {
		in := &p.Instrs[i]
		switch in.Op {
		case bytecode.Jmp, bytecode.Jmc, bytecode.Call:
			target, ok := p.GuestAddrMap[uint32(in.Imm)]
			if !ok {
				return fmt.Errorf("translate: jump target %d is not an instruction boundary", in.Imm)
			}
			p.JumpMap[i] = target
		}
	}
	return nil
}

// initLocations fills in the default operand/result locations for in,
// matching InitDataLocations in the original translator: arithmetic reads
// both operands from the stack, PUSH/LOAD/STORE carry an immediate,
// JMP/JMC/CALL all share one row (immediate target plus a stack operand,
// even though JMP itself never reads it), and INPUT/OUTPUT bridge to the
// host.
func initLocations(in *Instr) {
	switch in.Op {
	case bytecode.Halt, bytecode.Pop:
		in.Op1Loc, in.Op2Loc, in.ResLoc = LocNone, LocNone, LocNone

	case bytecode.Push, bytecode.Load, bytecode.Store:
		in.Op1Loc, in.Op2Loc, in.ResLoc = LocImmediate, LocNone, LocStack

	case bytecode.Jmp, bytecode.Jmc, bytecode.Call:
		in.Op1Loc, in.Op2Loc, in.ResLoc = LocImmediate, LocStack, LocNone

	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div:
		in.Op1Loc, in.Op2Loc, in.ResLoc = LocStack, LocStack, LocStack

	case bytecode.Gz, bytecode.Bz, bytecode.Gez, bytecode.Bez, bytecode.Eqz, bytecode.Neqz:
		in.Op1Loc, in.Op2Loc, in.ResLoc = LocStack, LocNone, LocStack

	case bytecode.Input:
		in.Op1Loc, in.Op2Loc, in.ResLoc = LocStdin, LocNone, LocStack

	case bytecode.Output:
		in.Op1Loc, in.Op2Loc, in.ResLoc = LocStack, LocNone, LocStdout
	}
}
