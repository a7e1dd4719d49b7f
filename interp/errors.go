package interp

import "errors"

// Sentinel runtime errors, matching exceptions.hpp's exception hierarchy one
// for one. Callers compare against these with errors.Is.
var (
	errOutOfBounds     = errors.New("pc out of bounds")
	errStackUnderflow  = errors.New("data stack underflow")
	errBpUnderflow     = errors.New("bp stack underflow")
	errCallUnderflow   = errors.New("call stack underflow")
	errDivisionByZero  = errors.New("division by zero")
	errUndefinedOpcode = errors.New("undefined opcode")
)
