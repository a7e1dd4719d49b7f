package translate

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"zvm/bytecode"
	"zvm/interp"
)

// runTranslated assembles instrs, translates and runs them, and returns
// stdout. It exercises the full pipeline: Build, LinkJumps, Optimize, emit,
// Patch, MakeExecutable, Run.
func runTranslated(t *testing.T, stdin string, instrs ...bytecode.Instruction) string {
	t.Helper()
	bin := assemble(instrs...)

	prog, err := Build(bin)
	require.NoError(t, err)
	require.NoError(t, prog.LinkJumps())
	Optimize(prog)

	arena, err := NewArena(DefaultArenaSize)
	require.NoError(t, err)
	defer arena.Close()

	e := &Emitter{}
	e.Header()
	fixups := make(map[int]int)
	for i := range prog.Instrs {
		fixup, isJump, err := e.WriteInstr(&prog.Instrs[i])
		require.NoError(t, err)
		if isJump {
			fixups[i] = fixup.nativeOffset
		}
	}
	e.Footer()
	Patch(e.Bytes(), prog, fixups)

	require.NoError(t, arena.MakeExecutable(e.Bytes()))

	runner := NewRunner(arena)
	in := bufio.NewReader(strings.NewReader(stdin))
	var out bytes.Buffer
	err = runner.Run(
		func() int32 {
			var v int32
			fmt.Fscan(in, &v)
			return v
		},
		func(v int32) {
			fmt.Fprintf(&out, "%d\n", v)
		},
	)
	require.NoError(t, err)
	return out.String()
}

// runInterp runs the same program through the reference interpreter, so
// tests can assert the two agree (the round-trip invariant this package
// exists to satisfy).
func runInterp(t *testing.T, stdin string, instrs ...bytecode.Instruction) string {
	t.Helper()
	bin := assemble(instrs...)
	var out bytes.Buffer
	z := interp.New(interp.WithIO(strings.NewReader(stdin), &out))
	z.LoadProgram(bin)
	require.NoError(t, z.Run())
	return out.String()
}

func TestTranslateMatchesInterpAdd(t *testing.T) {
	instrs := []bytecode.Instruction{
		{Op: bytecode.Push, Imm: 7},
		{Op: bytecode.Push, Imm: 5},
		{Op: bytecode.Add},
		{Op: bytecode.Output},
		{Op: bytecode.Halt},
	}
	require.Equal(t,
		runInterp(t, "", instrs...),
		runTranslated(t, "", instrs...),
	)
}

func TestTranslateMatchesInterpOptimizedChain(t *testing.T) {
	instrs := []bytecode.Instruction{
		{Op: bytecode.Push, Imm: 2},
		{Op: bytecode.Push, Imm: 3},
		{Op: bytecode.Push, Imm: 4},
		{Op: bytecode.Add},
		{Op: bytecode.Mul},
		{Op: bytecode.Output},
		{Op: bytecode.Halt},
	}
	require.Equal(t,
		runInterp(t, "", instrs...),
		runTranslated(t, "", instrs...),
	)
}

func TestTranslateRejectsRetPushBpPopBp(t *testing.T) {
	for _, op := range []bytecode.Opcode{bytecode.Ret, bytecode.PushBp, bytecode.PopBp} {
		bin := assemble(bytecode.Instruction{Op: op})
		_, err := Build(bin)
		require.Error(t, err)
	}
}
