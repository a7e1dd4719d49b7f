package asmsvm

import (
	"strings"
	"testing"

	"zvm/bytecode"
)

func split(src string) []string {
	return strings.Split(src, "\n")
}

func TestAssembleSimpleAdd(t *testing.T) {
	bin, err := Assemble(split(`
		push 7
		push 5
		add
		output
		halt
	`))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	instrs, err := bytecode.DecodeAll(bin)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	want := []bytecode.Opcode{bytecode.Push, bytecode.Push, bytecode.Add, bytecode.Output, bytecode.Halt}
	if len(instrs) != len(want) {
		t.Fatalf("got %d instructions, want %d", len(instrs), len(want))
	}
	for i, op := range want {
		if instrs[i].Op != op {
			t.Fatalf("instr %d: got %s, want %s", i, instrs[i].Op, op)
		}
	}
}

func TestAssembleLabelForwardJump(t *testing.T) {
	bin, err := Assemble(split(`
		jmp done
		push 1
	done:
		halt
	`))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	c := bytecode.NewCursor(bin)
	instr, err := bytecode.Decode(c)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if instr.Op != bytecode.Jmp {
		t.Fatalf("got %s, want jmp", instr.Op)
	}
	// jmp target should be the offset of "halt": 5 (push) + 5 (jmp) = 10
	if instr.Imm != 10 {
		t.Fatalf("got jmp target %d, want 10", instr.Imm)
	}
}

func TestAssembleCharLiteral(t *testing.T) {
	bin, err := Assemble(split(`push 'A'`))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	c := bytecode.NewCursor(bin)
	instr, err := bytecode.Decode(c)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if instr.Imm != 65 {
		t.Fatalf("got %d, want 65", instr.Imm)
	}
}

func TestAssembleUndefinedLabel(t *testing.T) {
	_, err := Assemble(split(`jmp nowhere`))
	if err == nil {
		t.Fatalf("expected undefined label error")
	}
}

func TestAssembleLabelRedefinition(t *testing.T) {
	_, err := Assemble(split(`
	loop:
		halt
	loop:
		halt
	`))
	if err == nil {
		t.Fatalf("expected label redefinition error")
	}
}
