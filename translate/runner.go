package translate

import (
	"fmt"
	"sync"
	"unsafe"
)

// InputFunc supplies one Data value for an INPUT instruction.
type InputFunc func() int32

// OutputFunc consumes one Data value from an OUTPUT instruction.
type OutputFunc func(int32)

// jitcall is implemented in runner_amd64.s. code is the address of the
// translated function's prologue; inputTramp/outputTramp are the addresses
// of the two package-level assembly trampolines below, which the translated
// code calls back into for INPUT/OUTPUT.
func jitcall(code, inputTramp, outputTramp unsafe.Pointer)

func inputTrampoline()
func outputTrampoline()

// runnerMu serializes calls into translated code: the trampolines dispatch
// to whichever InputFunc/OutputFunc is "active" below, and there is only
// one such slot. Running two translated programs concurrently on the same
// process is outside this package's scope.
var (
	runnerMu     sync.Mutex
	activeInput  InputFunc
	activeOutput OutputFunc
)

//go:nosplit
func goInputDispatch() int32 {
	return activeInput()
}

//go:nosplit
func goOutputDispatch(v int32) {
	activeOutput(v)
}

// Runner executes one translated program's native code.
type Runner struct {
	arena *Arena
}

// NewRunner wraps an arena that has already been made executable.
func NewRunner(arena *Arena) *Runner {
	return &Runner{arena: arena}
}

// Run invokes the translated code, routing its INPUT/OUTPUT calls through
// in and out. It blocks until the guest program HALTs.
func (r *Runner) Run(in InputFunc, out OutputFunc) error {
	if r.arena == nil || !r.arena.rx {
		return fmt.Errorf("translate: runner's arena is not executable")
	}

	runnerMu.Lock()
	defer runnerMu.Unlock()

	prevIn, prevOut := activeInput, activeOutput
	activeInput, activeOutput = in, out
	defer func() { activeInput, activeOutput = prevIn, prevOut }()

	codeAddr := r.arena.Addr()
	inTramp := unsafe.Pointer(abi(inputTrampoline))
	outTramp := unsafe.Pointer(abi(outputTrampoline))

	jitcall(codeAddr, inTramp, outTramp)
	return nil
}

// abi recovers a Go function value's code address. reflect is deliberately
// avoided here: funcPC-style tricks are an accepted, narrowly-scoped unsafe
// idiom for exactly this one thing (getting an address to hand to raw
// machine code), not a general escape hatch.
func abi(f func()) uintptr {
	type funcval struct {
		fn uintptr
	}
	return (*(**funcval)(unsafe.Pointer(&f))).fn
}
