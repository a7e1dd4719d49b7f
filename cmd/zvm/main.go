// Command zvm runs an SVM program image under the reference interpreter.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zvm/exitcode"
	"zvm/interp"
)

func main() {
	var debug bool

	cmd := &cobra.Command{
		Use:   "zvm PROGRAM",
		Short: "Run an SVM program under the reference interpreter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArgs(args, debug)
		},
		SilenceUsage: true,
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "trace every executed instruction to stderr")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Runtime error:", err)
		os.Exit(exitcode.FromError(err))
	}
}

// runArgs validates the positional arguments before dispatching to run, the
// way zvm.cpp's main checks argc before touching argv.
func runArgs(args []string, debug bool) error {
	if len(args) != 1 {
		return exitcode.Wrap(exitcode.WrongCmdLineArgs, fmt.Errorf("usage: zvm PROGRAM"))
	}
	return run(args[0], debug)
}

func run(path string, debug bool) error {
	var opts []interp.Option
	if debug {
		opts = append(opts, interp.WithDebugLog(os.Stderr))
	}

	z := interp.New(opts...)
	if err := z.LoadBinary(path); err != nil {
		return err
	}
	return z.Run()
}
