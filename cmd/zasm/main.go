// Command zasm assembles an SVM source file into the wire-format binary
// package bytecode, interp and translate all consume.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"zvm/asmsvm"
	"zvm/exitcode"
)

func main() {
	cmd := &cobra.Command{
		Use:   "zasm SOURCE OUTPUT",
		Short: "Assemble an SVM source file into a binary program image",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArgs(args)
		},
		SilenceUsage: true,
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Syntax error:", err)
		os.Exit(exitcode.FromError(err))
	}
}

// runArgs validates the positional arguments before dispatching to run, the
// way zasm.cpp's main checks argc before touching argv.
func runArgs(args []string) error {
	if len(args) != 2 {
		return exitcode.Wrap(exitcode.WrongCmdLineArgs, fmt.Errorf("usage: zasm SOURCE OUTPUT"))
	}
	return run(args[0], args[1])
}

func run(sourcePath, outPath string) error {
	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		code := exitcode.FileOpenFailure
		if os.IsNotExist(err) {
			code = exitcode.FileDoesntExist
		}
		return exitcode.Wrap(code, err)
	}

	bin, err := asmsvm.Assemble(strings.Split(string(raw), "\n"))
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, bin, 0o644); err != nil {
		return exitcode.Wrap(exitcode.FileOpenFailure, err)
	}
	return nil
}
