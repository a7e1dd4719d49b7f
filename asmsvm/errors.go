package asmsvm

import "errors"

var (
	errLabelRedef     = errors.New("redefinition of label")
	errUnknownInstr   = errors.New("unknown instruction")
	errWrongInstrArgs = errors.New("wrong instruction args")
	errUndefinedLabel = errors.New("undefined label")
)
