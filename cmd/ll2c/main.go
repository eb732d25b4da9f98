package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raymyers/ll2c/pkg/cgen"
)

var version = "0.1.0"

// Exit codes, one per failure class.
const (
	exitOK          = 0
	exitIO          = 1
	exitParse       = 2
	exitTranslation = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps a translation failure onto the documented exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, cgen.ErrInput):
		return exitParse
	case errors.Is(err, cgen.ErrUnsupported),
		errors.Is(err, cgen.ErrMalformedIR),
		errors.Is(err, cgen.ErrInternal):
		return exitTranslation
	}
	return exitIO
}

var quiet bool

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ll2c input.ll [output.c]",
		Short: "ll2c decompiles LLVM IR into C source",
		Long: `ll2c reads a textual LLVM IR module and emits a semantically
equivalent C translation unit: struct definitions, globals, and function
bodies made of labelled blocks. Output goes to stdout unless an output
file is given.`,
		Version:       version,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return translate(args, out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress messages")
	return rootCmd
}

func translate(args []string, out, errOut io.Writer) error {
	input := args[0]

	prog, err := cgen.Translate(input)
	if err != nil {
		fmt.Fprintf(errOut, "ll2c: error: %v\n", err)
		return err
	}
	if !quiet {
		fmt.Fprintf(errOut, "ll2c: translated %s (%d functions)\n", input, prog.FuncCount())
	}
	if prog.StackIgnored() {
		fmt.Fprintf(errOut, "ll2c: warning: intrinsic stacksave/stackrestore ignored\n")
	}

	if len(args) == 2 {
		if err := prog.Save(args[1]); err != nil {
			fmt.Fprintf(errOut, "ll2c: error writing %s: %v\n", args[1], err)
			return err
		}
		if !quiet {
			fmt.Fprintf(errOut, "ll2c: saved %s\n", args[1])
		}
		return nil
	}
	return prog.Print(out)
}
