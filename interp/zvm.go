// Package interp implements the reference interpreter: a direct fetch-decode-
// execute loop over the wire format in package bytecode. It is the oracle
// the binary translator's output is checked against, so unlike the
// translator it supports the full instruction set, including RET, PUSHBP and
// POPBP.
package interp

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"zvm/bytecode"
	"zvm/exitcode"
)

// Zvm is one interpreter instance: a flat program image, a data stack, and
// the call/base-pointer stacks RET/PUSHBP/POPBP need.
type Zvm struct {
	program []byte
	pc      uint32

	dataStack []int32
	bp        uint32

	callStack []uint32
	bpStack   []uint32

	halted bool

	stdin  *bufio.Reader
	stdout *bufio.Writer

	logger *log.Logger
}

// Option configures a Zvm at construction time.
type Option func(*Zvm)

// WithDebugLog enables trace logging of every executed instruction to w.
func WithDebugLog(w io.Writer) Option {
	return func(z *Zvm) {
		z.logger = log.New(w, "interp: ", 0)
	}
}

// WithIO overrides the default stdin/stdout, for embedding and for tests
// that need to assert on exactly what a program prints.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(z *Zvm) {
		z.stdin = bufio.NewReader(in)
		z.stdout = bufio.NewWriter(out)
	}
}

// New returns an interpreter reading from os.Stdin and writing to os.Stdout.
func New(opts ...Option) *Zvm {
	z := &Zvm{
		stdin:  bufio.NewReader(os.Stdin),
		stdout: bufio.NewWriter(os.Stdout),
	}
	for _, opt := range opts {
		opt(z)
	}
	return z
}

// LoadProgram installs bin as the program image directly, without going
// through a file, for embedding and for tests that assemble a program in
// memory.
func (z *Zvm) LoadProgram(bin []byte) {
	z.program = bin
}

// LoadBinary reads the program image from path.
func (z *Zvm) LoadBinary(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return exitcode.Wrap(exitcode.FileDoesntExist, fmt.Errorf("file %q doesn't exist", path))
		}
		return exitcode.Wrap(exitcode.FileOpenFailure, err)
	}
	if info.IsDir() {
		return exitcode.Wrap(exitcode.FileOpenFailure, fmt.Errorf("%q is a directory", path))
	}

	f, err := os.Open(path)
	if err != nil {
		return exitcode.Wrap(exitcode.FileOpenFailure, fmt.Errorf("failed to open file %q: %w", path, err))
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return exitcode.Wrap(exitcode.FileOpenFailure, err)
	}

	z.program = buf
	return nil
}

// Run executes the loaded program to completion (HALT, or a runtime error).
func (z *Zvm) Run() error {
	z.pc, z.bp = 0, 0
	defer z.stdout.Flush()

	for !z.halted {
		if z.pc >= uint32(len(z.program)) {
			return exitcode.Wrap(exitcode.OutOfBounds, fmt.Errorf("%w: pc=%d", errOutOfBounds, z.pc))
		}

		c := bytecode.NewCursor(z.program)
		c.SetPos(z.pc)
		instr, err := bytecode.Decode(c)
		if err != nil {
			return z.decodeErrToExit(err)
		}
		z.pc = c.Pos()

		if z.logger != nil {
			z.logger.Printf("pc=%d %s", z.pc, instr)
		}

		if err := z.execute(instr); err != nil {
			return err
		}
	}
	return nil
}

// decodeErrToExit maps a decode failure to its exit code. Both truncated
// reads and undefined opcodes are runtime out-of-bounds conditions, exit
// code 9, matching zvm.cpp's catch block.
func (z *Zvm) decodeErrToExit(err error) error {
	return exitcode.Wrap(exitcode.OutOfBounds, err)
}

func (z *Zvm) execute(instr bytecode.Instruction) error {
	var op1, op2 int32

	switch instr.Op {
	case bytecode.Halt:
		z.halted = true

	case bytecode.Push:
		z.push(instr.Imm)

	case bytecode.Pop:
		if _, err := z.pop(); err != nil {
			return err
		}

	case bytecode.Add:
		op1, op2, err := z.pop2()
		if err != nil {
			return err
		}
		z.push(op1 + op2)

	case bytecode.Sub:
		var err error
		op1, op2, err = z.pop2()
		if err != nil {
			return err
		}
		z.push(op2 - op1)

	case bytecode.Mul:
		var err error
		op1, op2, err = z.pop2()
		if err != nil {
			return err
		}
		z.push(op1 * op2)

	case bytecode.Div:
		var err error
		op1, op2, err = z.pop2()
		if err != nil {
			return err
		}
		if op1 == 0 {
			return exitcode.Wrap(exitcode.OutOfBounds, errDivisionByZero)
		}
		z.push(op2 / op1)

	case bytecode.Load:
		idx := int64(z.bp) + int64(instr.Imm)
		if idx < 0 || idx >= int64(len(z.dataStack)) {
			return exitcode.Wrap(exitcode.OutOfBounds, fmt.Errorf("%w: load %d", errStackUnderflow, idx))
		}
		z.push(z.dataStack[idx])

	case bytecode.Store:
		val, err := z.pop()
		if err != nil {
			return err
		}
		idx := int64(z.bp) + int64(instr.Imm)
		if idx < 0 || idx >= int64(len(z.dataStack)) {
			return exitcode.Wrap(exitcode.OutOfBounds, fmt.Errorf("%w: store %d", errStackUnderflow, idx))
		}
		z.dataStack[idx] = val

	case bytecode.Input:
		if _, err := fmt.Fscan(z.stdin, &op1); err != nil {
			return exitcode.Wrap(exitcode.OutOfBounds, fmt.Errorf("input: %w", err))
		}
		z.push(op1)

	case bytecode.Output:
		var err error
		op1, err = z.pop()
		if err != nil {
			return err
		}
		fmt.Fprintf(z.stdout, "%d\n", op1)

	case bytecode.Jmp:
		if instr.Imm < 0 || uint32(instr.Imm) >= uint32(len(z.program)) {
			return exitcode.Wrap(exitcode.OutOfBounds, fmt.Errorf("%w: jmp %d", errOutOfBounds, instr.Imm))
		}
		z.pc = uint32(instr.Imm)

	case bytecode.Jmc:
		var err error
		op1, err = z.pop()
		if err != nil {
			return err
		}
		if op1 != 0 {
			if instr.Imm < 0 || uint32(instr.Imm) >= uint32(len(z.program)) {
				return exitcode.Wrap(exitcode.OutOfBounds, fmt.Errorf("%w: jmc %d", errOutOfBounds, instr.Imm))
			}
			z.pc = uint32(instr.Imm)
		}

	case bytecode.Gz:
		var err error
		op1, err = z.pop()
		if err != nil {
			return err
		}
		z.push(boolToData(op1 > 0))

	case bytecode.Bz:
		var err error
		op1, err = z.pop()
		if err != nil {
			return err
		}
		z.push(boolToData(op1 < 0))

	case bytecode.Gez:
		var err error
		op1, err = z.pop()
		if err != nil {
			return err
		}
		z.push(boolToData(op1 >= 0))

	case bytecode.Bez:
		var err error
		op1, err = z.pop()
		if err != nil {
			return err
		}
		z.push(boolToData(op1 <= 0))

	case bytecode.Eqz:
		var err error
		op1, err = z.pop()
		if err != nil {
			return err
		}
		z.push(boolToData(op1 == 0))

	case bytecode.Neqz:
		var err error
		op1, err = z.pop()
		if err != nil {
			return err
		}
		z.push(boolToData(op1 != 0))

	case bytecode.Call:
		if instr.Imm < 0 || uint32(instr.Imm) >= uint32(len(z.program)) {
			return exitcode.Wrap(exitcode.OutOfBounds, fmt.Errorf("%w: call %d", errOutOfBounds, instr.Imm))
		}
		z.pushAddr(z.pc)
		z.pc = uint32(instr.Imm)

	case bytecode.Ret:
		addr, err := z.popAddr()
		if err != nil {
			return err
		}
		z.pc = addr

	case bytecode.PushBp:
		z.bpStack = append(z.bpStack, z.bp)

	case bytecode.PopBp:
		if len(z.bpStack) == 0 {
			return exitcode.Wrap(exitcode.StackUnderflow, errBpUnderflow)
		}
		z.bp = z.bpStack[len(z.bpStack)-1]
		z.bpStack = z.bpStack[:len(z.bpStack)-1]

	default:
		return exitcode.Wrap(exitcode.OutOfBounds, fmt.Errorf("%w: %s", errUndefinedOpcode, instr.Op))
	}

	return nil
}

func boolToData(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func (z *Zvm) push(v int32) {
	z.dataStack = append(z.dataStack, v)
}

func (z *Zvm) pop() (int32, error) {
	if len(z.dataStack) == 0 {
		return 0, exitcode.Wrap(exitcode.StackUnderflow, errStackUnderflow)
	}
	v := z.dataStack[len(z.dataStack)-1]
	z.dataStack = z.dataStack[:len(z.dataStack)-1]
	return v, nil
}

// pop2 pops op1 then op2, matching the original's two sequential Pop() calls
// (op1 is popped first, so it is the most-recently-pushed value).
func (z *Zvm) pop2() (op1, op2 int32, err error) {
	op1, err = z.pop()
	if err != nil {
		return 0, 0, err
	}
	op2, err = z.pop()
	if err != nil {
		return 0, 0, err
	}
	return op1, op2, nil
}

func (z *Zvm) pushAddr(addr uint32) {
	z.callStack = append(z.callStack, addr)
}

func (z *Zvm) popAddr() (uint32, error) {
	if len(z.callStack) == 0 {
		return 0, exitcode.Wrap(exitcode.StackUnderflow, errCallUnderflow)
	}
	addr := z.callStack[len(z.callStack)-1]
	z.callStack = z.callStack[:len(z.callStack)-1]
	return addr, nil
}
