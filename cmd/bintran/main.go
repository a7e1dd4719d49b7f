// Command bintran translates an SVM program image to native x86-64 code
// and runs it, caching the translated code next to the source so a later
// run with an unchanged source skips straight to execution.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zvm/exitcode"
	"zvm/translate"
)

const cacheExt = ".x86"

func main() {
	cmd := &cobra.Command{
		Use:   "bintran PROGRAM",
		Short: "Translate and run an SVM program as native x86-64 code",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArgs(args)
		},
		SilenceUsage: true,
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Runtime error:", err)
		os.Exit(exitcode.FromError(err))
	}
}

// runArgs validates the positional arguments before dispatching to run, the
// way bintran_main.cpp's main checks argc before touching argv.
func runArgs(args []string) error {
	if len(args) != 1 {
		return exitcode.Wrap(exitcode.WrongCmdLineArgs, fmt.Errorf("usage: bintran PROGRAM"))
	}
	return run(args[0])
}

func run(path string) error {
	cachePath := path + cacheExt

	t := translate.New()
	defer t.Close()

	if translate.CacheIsFresh(path, cachePath) {
		if err := t.LoadCode(cachePath); err == nil {
			return t.Execute()
		}
		// Fall through to a full re-translation when the cache cannot be
		// read or does not fit the arena. LoadCode does not check the
		// cache's contents: a cache file that loads is executed as is.
	}

	if err := t.LoadBinary(path); err != nil {
		return err
	}
	if err := t.Translate(); err != nil {
		return err
	}
	if err := t.Execute(); err != nil {
		return err
	}
	return t.SaveCode(cachePath)
}
