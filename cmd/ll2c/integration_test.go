package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/raymyers/ll2c/pkg/cgen"
)

// E2ETestSpec represents a single end-to-end test case
type E2ETestSpec struct {
	Name        string   `yaml:"name"`
	Input       string   `yaml:"input"`         // IR file under testdata/
	Expect      []string `yaml:"expect"`        // Strings that must appear in output
	ExpectOrder []string `yaml:"expect_order"`  // Strings that must appear in this order
	ExpectNot   []string `yaml:"expect_not"`    // Strings that must NOT appear in output
	Skip        string   `yaml:"skip,omitempty"` // Reason to skip this test
}

// E2ETestFile represents the integration.yaml file structure
type E2ETestFile struct {
	Tests []E2ETestSpec `yaml:"tests"`
}

func TestIntegration(t *testing.T) {
	data, err := os.ReadFile("../../testdata/integration.yaml")
	if err != nil {
		t.Fatalf("integration.yaml not found: %v", err)
	}

	var testFile E2ETestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse integration.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}

			prog, err := cgen.Translate(filepath.Join("../../testdata", tc.Input))
			if err != nil {
				t.Fatalf("translate %s: %v", tc.Input, err)
			}
			var buf bytes.Buffer
			if err := prog.Print(&buf); err != nil {
				t.Fatalf("print: %v", err)
			}
			out := buf.String()

			for _, want := range tc.Expect {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q\noutput:\n%s", want, out)
				}
			}

			pos := 0
			for _, want := range tc.ExpectOrder {
				idx := strings.Index(out[pos:], want)
				if idx < 0 {
					t.Errorf("output missing %q at or after offset %d\noutput:\n%s", want, pos, out)
					break
				}
				pos += idx + len(want)
			}

			for _, bad := range tc.ExpectNot {
				if strings.Contains(out, bad) {
					t.Errorf("output must not contain %q\noutput:\n%s", bad, out)
				}
			}
		})
	}
}
