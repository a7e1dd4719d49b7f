package translate

import "zvm/bytecode"

const (
	patchOffset  = 1  // displacement slot starts 1 byte after the opcode
	jmcAddOffset = 6  // JMC's rel32 slot sits 6 bytes further in (cmp+jne prefix after the pop)
	jumpOffset   = -5 // rel32 is relative to the address of the *next* instruction
)

// Patch rewrites every JMP/JMC/CALL's placeholder rel32 displacement now
// that every instruction has a known native offset. fixups maps an IR
// index holding a jump/call to the native byte offset of its opcode byte.
func Patch(buf []byte, p *Program, fixups map[int]int) {
	for srcIdx, targetIdx := range p.JumpMap {
		srcAddr := fixups[srcIdx]
		destAddr := p.Instrs[targetIdx].NativeOffset

		dist := destAddr - srcAddr + jumpOffset
		patchAt := srcAddr + patchOffset

		if p.Instrs[srcIdx].Op == bytecode.Jmc {
			patchAt += jmcAddOffset
			dist -= jmcAddOffset
		}

		bytecode.PutInt32LE(buf[patchAt:patchAt+4], int32(dist))
	}
}
