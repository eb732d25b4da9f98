package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raymyers/ll2c/pkg/cgen"
)

func writeTempIR(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.ll")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const addIR = `
define i32 @add(i32 %a, i32 %b) {
entry:
	%r = add i32 %a, %b
	ret i32 %r
}
`

func TestRootCmdStdout(t *testing.T) {
	path := writeTempIR(t, addIR)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !strings.Contains(out.String(), "return var0 + var1;") {
		t.Errorf("stdout missing translation, got:\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), "translated") {
		t.Errorf("stderr missing progress message, got:\n%s", errOut.String())
	}
}

func TestRootCmdOutputFile(t *testing.T) {
	path := writeTempIR(t, addIR)
	outPath := filepath.Join(t.TempDir(), "out.c")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{path, outPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "int add(int var0, int var1)") {
		t.Errorf("output file missing translation, got:\n%s", data)
	}
	if out.Len() != 0 {
		t.Errorf("stdout not empty with output file: %q", out.String())
	}
}

func TestRootCmdParseError(t *testing.T) {
	path := writeTempIR(t, "this is not LLVM IR")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{path})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for malformed input")
	}
	if got := exitCode(err); got != exitParse {
		t.Errorf("exit code = %d, want %d", got, exitParse)
	}
}

func TestRootCmdMissingInput(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.ll")})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing input file")
	}
	if got := exitCode(err); got != exitIO {
		t.Errorf("exit code = %d, want %d", got, exitIO)
	}
}

func TestRootCmdUnsupported(t *testing.T) {
	path := writeTempIR(t, `
define void @f() {
entry:
	fence seq_cst
	ret void
}
`)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{path})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for unsupported instruction")
	}
	if got := exitCode(err); got != exitTranslation {
		t.Errorf("exit code = %d, want %d", got, exitTranslation)
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"input", fmt.Errorf("wrap: %w", cgen.ErrInput), exitParse},
		{"unsupported", fmt.Errorf("wrap: %w", cgen.ErrUnsupported), exitTranslation},
		{"malformed", fmt.Errorf("wrap: %w", cgen.ErrMalformedIR), exitTranslation},
		{"internal", fmt.Errorf("wrap: %w", cgen.ErrInternal), exitTranslation},
		{"io", os.ErrPermission, exitIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode = %d, want %d", got, tt.want)
			}
		})
	}
}
