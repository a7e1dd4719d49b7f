package translate

import (
	"testing"

	"zvm/bytecode"
)

func buildAndLink(t *testing.T, bin []byte) *Program {
	t.Helper()
	prog, err := Build(bin)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if err := prog.LinkJumps(); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	return prog
}

func TestOptimizeForwardsAdjacentArithmetic(t *testing.T) {
	bin := assemble(
		bytecode.Instruction{Op: bytecode.Push, Imm: 1},
		bytecode.Instruction{Op: bytecode.Push, Imm: 2},
		bytecode.Instruction{Op: bytecode.Push, Imm: 3},
		bytecode.Instruction{Op: bytecode.Add},
		bytecode.Instruction{Op: bytecode.Mul},
	)
	prog := buildAndLink(t, bin)
	Optimize(prog)

	add := prog.Instrs[3]
	mul := prog.Instrs[4]
	if add.ResLoc != LocR9 {
		t.Fatalf("expected ADD result forwarded through R9, got %v", add.ResLoc)
	}
	if mul.Op2Loc != LocR9 {
		t.Fatalf("expected MUL op2 sourced from R9, got %v", mul.Op2Loc)
	}
}

func TestOptimizeNeverForwardsDiv(t *testing.T) {
	bin := assemble(
		bytecode.Instruction{Op: bytecode.Push, Imm: 6},
		bytecode.Instruction{Op: bytecode.Push, Imm: 2},
		bytecode.Instruction{Op: bytecode.Div},
		bytecode.Instruction{Op: bytecode.Push, Imm: 1},
		bytecode.Instruction{Op: bytecode.Add},
	)
	prog := buildAndLink(t, bin)
	Optimize(prog)

	div := prog.Instrs[2]
	add := prog.Instrs[4]
	if div.ResLoc == LocR9 || add.Op2Loc == LocR9 {
		t.Fatalf("DIV must never participate in R9 forwarding")
	}
}

func TestOptimizeSkipsJumpTargets(t *testing.T) {
	// jmp skips add and lands on mul, so mul must not read its second
	// operand out of R9 even though add immediately precedes it in program
	// order.
	bin := assemble(
		bytecode.Instruction{Op: bytecode.Push, Imm: 1},
		bytecode.Instruction{Op: bytecode.Push, Imm: 2},
		bytecode.Instruction{Op: bytecode.Push, Imm: 3},
		bytecode.Instruction{Op: bytecode.Jmp, Imm: 21}, // offset 15
		bytecode.Instruction{Op: bytecode.Add},          // offset 20
		bytecode.Instruction{Op: bytecode.Mul},          // jump target, offset 21
	)
	prog := buildAndLink(t, bin)
	Optimize(prog)

	add := prog.Instrs[4]
	mul := prog.Instrs[5]
	if add.ResLoc == LocR9 || mul.Op2Loc == LocR9 {
		t.Fatalf("must not forward across a jump target")
	}
}
