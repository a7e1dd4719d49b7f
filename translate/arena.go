package translate

import (
	"fmt"
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"
)

// DefaultArenaSize matches the original translator's MAX_OUTPUT_SIZE: a
// generous fixed budget for one translated program's native code.
const DefaultArenaSize = 4096 * 16

// Arena is the JIT's backing memory: one anonymous mapping, written while
// RW and executed only after being reprotected to RX, so the mapping is
// never simultaneously writable and executable (W^X).
type Arena struct {
	mem        mmap.MMap
	size       int
	actualSize int
	rx         bool
}

// NewArena allocates an anonymous read/write mapping of size bytes.
func NewArena(size int) (*Arena, error) {
	if size <= 0 {
		size = DefaultArenaSize
	}
	mem, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, fmt.Errorf("translate: failed to allocate jit arena: %w", err)
	}
	return &Arena{mem: mem, size: size}, nil
}

// Bytes exposes the full backing slice. The emitter does not write through
// it: it builds code in its own buffer, which MakeExecutable copies in. It
// must not be called after MakeExecutable.
func (a *Arena) Bytes() []byte {
	return a.mem
}

// MakeExecutable copies code to the start of the arena and transitions the
// mapping from RW to RX. After this call the arena must not be written to
// again; Close and re-allocate for a fresh translation instead.
func (a *Arena) MakeExecutable(code []byte) error {
	if len(code) > a.size {
		return fmt.Errorf("translate: emitted code (%d bytes) exceeds arena size (%d)", len(code), a.size)
	}
	copy(a.mem, code)
	a.actualSize = len(code)

	if err := unix.Mprotect(a.mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("translate: mprotect to r-x failed: %w", err)
	}
	a.rx = true
	return nil
}

// Code returns the portion of the arena actually holding emitted
// instructions, excluding trailing unused capacity.
func (a *Arena) Code() []byte {
	return a.mem[:a.actualSize]
}

// Addr returns a pointer to the first byte of the arena, valid as a call
// target once MakeExecutable has run.
func (a *Arena) Addr() unsafe.Pointer {
	return unsafe.Pointer(&a.mem[0])
}

// Close releases the mapping.
func (a *Arena) Close() error {
	if a.mem == nil {
		return nil
	}
	err := a.mem.Unmap()
	a.mem = nil
	return err
}
