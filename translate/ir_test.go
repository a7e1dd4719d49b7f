package translate

import (
	"testing"

	"zvm/bytecode"
)

func assemble(instrs ...bytecode.Instruction) []byte {
	var buf []byte
	for _, in := range instrs {
		buf = append(buf, byte(in.Op))
		if in.Op.HasImmediate() {
			tmp := make([]byte, 4)
			bytecode.PutInt32LE(tmp, in.Imm)
			buf = append(buf, tmp...)
		}
	}
	return buf
}

func TestBuildRejectsRet(t *testing.T) {
	bin := assemble(bytecode.Instruction{Op: bytecode.Ret})
	if _, err := Build(bin); err == nil {
		t.Fatalf("expected Build to reject RET")
	}
}

func TestBuildRejectsPushBpPopBp(t *testing.T) {
	for _, op := range []bytecode.Opcode{bytecode.PushBp, bytecode.PopBp} {
		bin := assemble(bytecode.Instruction{Op: op})
		if _, err := Build(bin); err == nil {
			t.Fatalf("expected Build to reject %s", op)
		}
	}
}

func TestLinkJumpsForward(t *testing.T) {
	bin := assemble(
		bytecode.Instruction{Op: bytecode.Jmp, Imm: 10}, // 5 bytes: offset 0
		bytecode.Instruction{Op: bytecode.Push, Imm: 1},  // 5 bytes: offset 5
		bytecode.Instruction{Op: bytecode.Halt},          // 1 byte: offset 10
	)
	prog, err := Build(bin)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if err := prog.LinkJumps(); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	target, ok := prog.JumpMap[0]
	if !ok || target != 2 {
		t.Fatalf("got JumpMap[0]=%d,%v want 2,true", target, ok)
	}
}

func TestLinkJumpsRejectsMisalignedTarget(t *testing.T) {
	bin := assemble(
		bytecode.Instruction{Op: bytecode.Jmp, Imm: 3}, // lands mid-instruction
		bytecode.Instruction{Op: bytecode.Halt},
	)
	prog, err := Build(bin)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if err := prog.LinkJumps(); err == nil {
		t.Fatalf("expected LinkJumps to reject a non-boundary target")
	}
}

func TestInitLocationsArithmeticUsesStack(t *testing.T) {
	bin := assemble(
		bytecode.Instruction{Op: bytecode.Push, Imm: 1},
		bytecode.Instruction{Op: bytecode.Push, Imm: 2},
		bytecode.Instruction{Op: bytecode.Add},
	)
	prog, err := Build(bin)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	add := prog.Instrs[2]
	if add.Op1Loc != LocStack || add.Op2Loc != LocStack || add.ResLoc != LocStack {
		t.Fatalf("got locations %v/%v/%v, want all stack", add.Op1Loc, add.Op2Loc, add.ResLoc)
	}
}
