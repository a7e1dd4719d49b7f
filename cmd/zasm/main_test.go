package main

import (
	"testing"

	"zvm/exitcode"
)

func TestRunArgsWrongCount(t *testing.T) {
	for _, args := range [][]string{nil, {"only-one"}, {"one", "two", "three"}} {
		err := runArgs(args)
		if err == nil {
			t.Fatalf("args %v: expected an error", args)
		}
		if got := exitcode.FromError(err); got != exitcode.WrongCmdLineArgs {
			t.Fatalf("args %v: got exit code %d, want %d", args, got, exitcode.WrongCmdLineArgs)
		}
	}
}
