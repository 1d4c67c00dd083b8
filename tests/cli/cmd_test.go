// SPDX-License-Identifier: MPL-2.0

// Package cli contains CLI integration tests using testscript.
//
// Each testdata/*.txtar archive is a self-contained scenario: input files,
// reqsplit invocations and the expected group files.
package cli

import (
	"testing"

	cmd "github.com/reqsplit/reqsplit/cmd/reqsplit"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"reqsplit": cmd.Execute,
	})
}

// TestCLI runs all testscript tests in the testdata directory.
func TestCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		// Continue running all tests even if one fails
		ContinueOnError: true,
	})
}
