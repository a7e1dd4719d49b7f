package translate

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"zvm/exitcode"
)

// Translator owns one guest program's translation and execution: the
// decoded IR, the JIT arena holding its native code, and the stdin/stdout
// that INPUT/OUTPUT are wired to.
type Translator struct {
	prog  *Program
	arena *Arena

	stdin  *bufio.Reader
	stdout *bufio.Writer
}

// New returns a Translator reading from os.Stdin and writing to os.Stdout.
func New() *Translator {
	return &Translator{
		stdin:  bufio.NewReader(os.Stdin),
		stdout: bufio.NewWriter(os.Stdout),
	}
}

// LoadBinary reads the guest program from path and builds its IR.
func (t *Translator) LoadBinary(path string) error {
	buf, err := readFile(path)
	if err != nil {
		return err
	}

	prog, err := Build(buf)
	if err != nil {
		return exitcode.Wrap(exitcode.OutOfBounds, err)
	}
	t.prog = prog
	return nil
}

// Translate runs the full pipeline: jump linking, peephole optimization,
// code emission, and displacement patching. It must be called once, after
// LoadBinary and before Execute.
func (t *Translator) Translate() error {
	if t.prog == nil {
		return fmt.Errorf("translate: no program loaded")
	}

	if err := t.prog.LinkJumps(); err != nil {
		return exitcode.Wrap(exitcode.OutOfBounds, err)
	}

	Optimize(t.prog)

	arena, err := NewArena(DefaultArenaSize)
	if err != nil {
		return exitcode.Wrap(exitcode.FailedMemAlloc, err)
	}

	e := &Emitter{}
	e.Header()

	fixups := make(map[int]int, len(t.prog.JumpMap))
	for i := range t.prog.Instrs {
		fixup, isJump, err := e.WriteInstr(&t.prog.Instrs[i])
		if err != nil {
			arena.Close()
			return exitcode.Wrap(exitcode.OutOfBounds, err)
		}
		if isJump {
			fixups[i] = fixup.nativeOffset
		}
	}
	e.Footer()

	Patch(e.Bytes(), t.prog, fixups)

	if err := arena.MakeExecutable(e.Bytes()); err != nil {
		arena.Close()
		return exitcode.Wrap(exitcode.FailedMemAlloc, err)
	}
	t.arena = arena
	return nil
}

// Execute runs the translated code, wiring INPUT/OUTPUT to stdin/stdout.
func (t *Translator) Execute() error {
	if t.arena == nil {
		return fmt.Errorf("translate: nothing to execute; call Translate or LoadCode first")
	}
	defer t.stdout.Flush()

	runner := NewRunner(t.arena)
	return runner.Run(
		func() int32 {
			var v int32
			fmt.Fscan(t.stdin, &v)
			return v
		},
		func(v int32) {
			fmt.Fprintf(t.stdout, "%d\n", v)
		},
	)
}

// LoadCode loads a previously saved native-code cache instead of
// translating from scratch, the way bintran's main mtime-compares the
// source and the cache file before deciding which path to take.
func (t *Translator) LoadCode(path string) error {
	buf, err := readFile(path)
	if err != nil {
		return err
	}

	arena, err := NewArena(DefaultArenaSize)
	if err != nil {
		return exitcode.Wrap(exitcode.FailedMemAlloc, err)
	}
	if err := arena.MakeExecutable(buf); err != nil {
		arena.Close()
		return exitcode.Wrap(exitcode.FailedMemAlloc, err)
	}
	t.arena = arena
	return nil
}

// SaveCode persists the translated native code so a future run with an
// unchanged source can skip straight to LoadCode.
func (t *Translator) SaveCode(path string) error {
	if t.arena == nil {
		return fmt.Errorf("translate: nothing translated to save")
	}
	f, err := os.Create(path)
	if err != nil {
		return exitcode.Wrap(exitcode.FileOpenFailure, err)
	}
	defer f.Close()

	_, err = f.Write(t.arena.Code())
	return err
}

// Close releases the arena backing this translation, if any.
func (t *Translator) Close() error {
	if t.arena == nil {
		return nil
	}
	return t.arena.Close()
}

// CacheIsFresh reports whether the on-disk native code cache at cachePath
// is at least as new as the source at sourcePath, mirroring
// bintran_main.cpp's last_write_time comparison.
func CacheIsFresh(sourcePath, cachePath string) bool {
	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		return false
	}
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	return !srcInfo.ModTime().After(cacheInfo.ModTime())
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, exitcode.Wrap(exitcode.FileDoesntExist, fmt.Errorf("file %q doesn't exist", path))
		}
		return nil, exitcode.Wrap(exitcode.FileOpenFailure, err)
	}
	if info.IsDir() {
		return nil, exitcode.Wrap(exitcode.FileOpenFailure, fmt.Errorf("%q is a directory", path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, exitcode.Wrap(exitcode.FileOpenFailure, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
