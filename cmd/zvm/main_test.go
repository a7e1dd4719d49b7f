package main

import (
	"testing"

	"zvm/exitcode"
)

func TestRunArgsWrongCount(t *testing.T) {
	for _, args := range [][]string{nil, {"one", "two"}} {
		err := runArgs(args, false)
		if err == nil {
			t.Fatalf("args %v: expected an error", args)
		}
		if got := exitcode.FromError(err); got != exitcode.WrongCmdLineArgs {
			t.Fatalf("args %v: got exit code %d, want %d", args, got, exitcode.WrongCmdLineArgs)
		}
	}
}
