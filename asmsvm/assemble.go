// Package asmsvm is a textual assembler for the wire format in package
// bytecode: one instruction per line, ';' comments, "label:" definitions,
// and named jump/call targets resolved in a second pass.
package asmsvm

import (
	"fmt"
	"strconv"
	"strings"

	"zvm/bytecode"
	"zvm/exitcode"
)

// SourceError reports a syntax error at a specific source line, the way
// SyntaxError carries a filename and line number in the original assembler.
type SourceError struct {
	Line int
	Code int
	Err  error
	Data string
}

func (e *SourceError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Data)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
func (e *SourceError) ExitCode() int { return e.Code }

// patch records a not-yet-resolved label reference: the byte offset of its
// 4-byte immediate slot, and the label name it refers to.
type patch struct {
	offset int
	label  string
	line   int
}

// Assemble translates source (one logical program, already split into
// lines) into a binary image in the wire format of package bytecode.
func Assemble(lines []string) ([]byte, error) {
	var out []byte
	labels := make(map[string]int)
	var patches []patch

	for lineNo, raw := range lines {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		head := fields[0]

		if strings.HasSuffix(head, ":") && len(fields) == 1 {
			label := strings.TrimSuffix(head, ":")
			if _, exists := labels[label]; exists {
				return nil, &SourceError{Line: lineNo + 1, Code: exitcode.SyntaxLabelRedef, Err: errLabelRedef, Data: label}
			}
			labels[label] = len(out)
			continue
		}

		op, ok := bytecode.Lookup(strings.ToLower(head))
		if !ok {
			return nil, &SourceError{Line: lineNo + 1, Code: exitcode.SyntaxUnknownInstr, Err: errUnknownInstr, Data: head}
		}
		out = append(out, byte(op))

		if !op.HasImmediate() {
			if len(fields) > 1 {
				return nil, &SourceError{Line: lineNo + 1, Code: exitcode.SyntaxWrongArgs, Err: errWrongInstrArgs, Data: head}
			}
			continue
		}

		if len(fields) != 2 {
			return nil, &SourceError{Line: lineNo + 1, Code: exitcode.SyntaxWrongArgs, Err: errWrongInstrArgs, Data: head}
		}
		argTok := fields[1]

		if op == bytecode.Jmp || op == bytecode.Jmc || op == bytecode.Call {
			patches = append(patches, patch{offset: len(out), label: argTok, line: lineNo + 1})
			out = append(out, 0, 0, 0, 0)
			continue
		}

		imm, err := parseImmediate(argTok)
		if err != nil {
			return nil, &SourceError{Line: lineNo + 1, Code: exitcode.SyntaxWrongArgs, Err: errWrongInstrArgs, Data: argTok}
		}
		tmp := make([]byte, 4)
		bytecode.PutInt32LE(tmp, imm)
		out = append(out, tmp...)
	}

	for _, p := range patches {
		target, ok := labels[p.label]
		if !ok {
			return nil, &SourceError{Line: p.line, Code: exitcode.SyntaxUndefLabel, Err: errUndefinedLabel, Data: p.label}
		}
		bytecode.PutInt32LE(out[p.offset:p.offset+4], int32(target))
	}

	return out, nil
}

const commentSymbol = ';'

func stripComment(line string) string {
	if i := strings.IndexByte(line, commentSymbol); i >= 0 {
		return line[:i]
	}
	return line
}

// parseImmediate accepts a decimal/hex integer literal or a 'c' character
// literal, matching zasm.cpp's and the teacher's support for both.
func parseImmediate(tok string) (int32, error) {
	if strings.HasPrefix(tok, "'") {
		runes := []rune(tok)
		if len(runes) != 3 || runes[2] != '\'' {
			return 0, fmt.Errorf("invalid character literal %q", tok)
		}
		return int32(runes[1]), nil
	}

	v, err := strconv.ParseInt(tok, 0, 32)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}
