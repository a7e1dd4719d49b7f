package translate

import (
	"fmt"

	"zvm/bytecode"
)

// Emitter accumulates the native code buffer for one translation. Every
// Write* helper below appends a fixed byte template — copied verbatim from
// the reference x86-64 translator this package is grounded on — and advances
// the buffer; callers never compute offsets by hand.
type Emitter struct {
	buf []byte
}

func (e *Emitter) pos() int { return len(e.buf) }

func (e *Emitter) bytes(b ...byte) { e.buf = append(e.buf, b...) }

func (e *Emitter) imm32(v int32) {
	tmp := make([]byte, 4)
	bytecode.PutInt32LE(tmp, v)
	e.buf = append(e.buf, tmp...)
}

// Header is the translated function's prologue: it captures the guest
// stack's frame base in r10 (rsp - 8, since each guest stack cell occupies
// one 8-byte native slot), and stashes the caller-supplied input/output
// function pointers (rdi, rsi) in r11/r12 for the lifetime of the call.
func (e *Emitter) Header() {
	e.bytes(
		0x49, 0x89, 0xE2, // mov r10, rsp
		0x49, 0x83, 0xEA, 0x08, // sub r10, 8
		0x49, 0x89, 0xFB, // mov r11, rdi
		0x49, 0x89, 0xF4, // mov r12, rsi
		0x49, 0x89, 0xE5, // mov r13, rsp
	)
}

// Footer restores rsp from r13 and returns, the same sequence HALT emits,
// guaranteeing a clean return even for a program that falls off its end.
func (e *Emitter) Footer() {
	e.writeHalt()
}

func (e *Emitter) writeHalt() {
	e.bytes(
		0x4C, 0x89, 0xEC, // mov rsp, r13
		0xC3, // ret
	)
}

func (e *Emitter) writePush(imm int32) {
	e.bytes(0x68) // push imm32
	e.imm32(imm)
}

func (e *Emitter) writePop() {
	e.bytes(0x58) // pop rax
}

func (e *Emitter) writeLoad(imm int32) {
	e.bytes(
		0x48, 0x31, 0xC0, // xor rax, rax
		0x41, 0x8B, 0x82, // mov eax, [r10+disp32]
	)
	e.imm32(-8 * imm)
	e.bytes(0x50) // push rax
}

func (e *Emitter) writeStore(imm int32) {
	e.bytes(
		0x58, // pop rax
		0x49, 0x89, 0x82, // mov [r10+disp32], rax
	)
	e.imm32(-8 * imm)
}

// loadOperands moves op2 into r8 and op1 into rax, per each location, ahead
// of an arithmetic op. Order matters: op2 first, then op1, mirroring the
// original so a STACK/STACK pair pops in the same order (op2 on top).
func (e *Emitter) loadOperands(in *Instr) {
	switch in.Op2Loc {
	case LocStack:
		e.bytes(0x41, 0x58) // pop r8
	case LocR9:
		e.bytes(0x4D, 0x89, 0xC8) // mov r8, r9
	case LocR14:
		e.bytes(0x4D, 0x89, 0xF0) // mov r8, r14
	}

	switch in.Op1Loc {
	case LocStack:
		e.bytes(0x58) // pop rax
	case LocR9:
		e.bytes(0x4C, 0x89, 0xC8) // mov rax, r9
	case LocR14:
		e.bytes(0x4C, 0x89, 0xF0) // mov rax, r14
	}
}

func (e *Emitter) writeResult(in *Instr) {
	switch in.ResLoc {
	case LocStack:
		e.bytes(0x50) // push rax
	case LocR9:
		e.bytes(0x49, 0x89, 0xC1) // mov r9, rax
	case LocR14:
		e.bytes(0x49, 0x89, 0xC6) // mov r14, rax
	}
}

func (e *Emitter) writeAdd(in *Instr) {
	e.loadOperands(in)
	e.bytes(0x4C, 0x01, 0xC0) // add rax, r8
	e.writeResult(in)
}

func (e *Emitter) writeSub(in *Instr) {
	e.loadOperands(in)
	e.bytes(0x4C, 0x29, 0xC0) // sub rax, r8
	e.writeResult(in)
}

func (e *Emitter) writeMul(in *Instr) {
	e.loadOperands(in)
	e.bytes(0x49, 0x0F, 0xAF, 0xC0) // imul rax, r8
	e.writeResult(in)
}

func (e *Emitter) writeDiv() {
	e.bytes(
		0x41, 0x58, // pop r8   (divisor)
		0x58, // pop rax  (dividend)
		0x49, 0xF7, 0xF8, // idiv r8
		0x50, // push rax
	)
}

// jumpFixup records where a not-yet-resolved displacement needs patching.
type jumpFixup struct {
	// nativeOffset is the byte offset of the opcode byte that begins the
	// jump/call instruction, i.e. BtInstr.x86_addr in the original.
	nativeOffset int
	isJmc        bool
}

func (e *Emitter) writeJump() jumpFixup {
	start := e.pos()
	e.bytes(0xE9) // jmp rel32
	e.imm32(0)
	return jumpFixup{nativeOffset: start}
}

func (e *Emitter) writeCall() jumpFixup {
	start := e.pos()
	e.bytes(0xE8) // call rel32
	e.imm32(0)
	return jumpFixup{nativeOffset: start}
}

func (e *Emitter) writeJmc() jumpFixup {
	start := e.pos()
	e.bytes(
		0x58, // pop rax
		0x48, 0x83, 0xF8, 0x00, // cmp rax, 0
		0x0F, 0x85, // jne rel32
	)
	e.imm32(0)
	return jumpFixup{nativeOffset: start, isJmc: true}
}

// writeCompare emits the shared shape of GZ/BZ/GEZ/BEZ/EQZ/NEQZ: pop the
// operand, materialize 1 and 0, and cmov the right one back based on the
// condition code cc (a 0F-escape condition byte, e.g. 0x4F for cmovg).
func (e *Emitter) writeCompare(cc byte) {
	e.bytes(
		0x58, // pop rax
		0x41, 0xB8, 0x01, 0x00, 0x00, 0x00, // mov r8d, 1
		0x48, 0x83, 0xF8, 0x00, // cmp rax, 0
		0xB8, 0x00, 0x00, 0x00, 0x00, // mov eax, 0
		0x49, 0x0F, cc, 0xC0, // cmovCC rax, r8
		0x50, // push rax
	)
}

func (e *Emitter) writeInput() {
	e.bytes(
		0x41, 0x52, // push r10
		0x41, 0x53, // push r11
		0x41, 0xFF, 0xD3, // call r11
		0x41, 0x5B, // pop r11
		0x41, 0x5A, // pop r10
		0x50, // push rax
	)
}

func (e *Emitter) writeOutput() {
	e.bytes(
		0x5F, // pop rdi
		0x41, 0x52, // push r10
		0x41, 0x53, // push r11
		0x41, 0xFF, 0xD4, // call r12
		0x41, 0x5B, // pop r11
		0x41, 0x5A, // pop r10
	)
}

const (
	ccG  = 0x4F // cmovg
	ccGE = 0x4D // cmovge
	ccL  = 0x4C // cmovl
	ccLE = 0x4E // cmovle
	ccE  = 0x44 // cmove
	ccNE = 0x45 // cmovne
)

// WriteInstr emits one IR instruction's native code, recording its native
// offset on the node and returning a jumpFixup for JMP/JMC/CALL so the
// caller can hand it to the linker once every instruction has an address.
func (e *Emitter) WriteInstr(in *Instr) (jumpFixup, bool, error) {
	in.NativeOffset = e.pos()

	switch in.Op {
	case bytecode.Halt:
		e.writeHalt()
	case bytecode.Push:
		e.writePush(in.Imm)
	case bytecode.Pop:
		e.writePop()
	case bytecode.Load:
		e.writeLoad(in.Imm)
	case bytecode.Store:
		e.writeStore(in.Imm)
	case bytecode.Add:
		e.writeAdd(in)
	case bytecode.Sub:
		e.writeSub(in)
	case bytecode.Mul:
		e.writeMul(in)
	case bytecode.Div:
		e.writeDiv()
	case bytecode.Jmp:
		return e.writeJump(), true, nil
	case bytecode.Jmc:
		return e.writeJmc(), true, nil
	case bytecode.Call:
		return e.writeCall(), true, nil
	case bytecode.Gz:
		e.writeCompare(ccG)
	case bytecode.Bz:
		e.writeCompare(ccL)
	case bytecode.Gez:
		e.writeCompare(ccGE)
	case bytecode.Bez:
		e.writeCompare(ccLE)
	case bytecode.Eqz:
		e.writeCompare(ccE)
	case bytecode.Neqz:
		e.writeCompare(ccNE)
	case bytecode.Input:
		e.writeInput()
	case bytecode.Output:
		e.writeOutput()
	default:
		return jumpFixup{}, false, fmt.Errorf("%w: %s", ErrUnsupportedOpcode, in.Op)
	}

	return jumpFixup{}, false, nil
}

// Bytes returns the full emitted buffer so far.
func (e *Emitter) Bytes() []byte { return e.buf }
