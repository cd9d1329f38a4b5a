// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// The depot command manages emulator content from the command line:
// scanning directories, installing files into the registered cache,
// deriving save paths, and mounting the merged content view. The
// command tree lives in cmd/depot/commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/cmd/depot/commands"
)

func main() {
	err := commands.Root().Execute(os.Args[1:])
	if err == nil {
		return
	}

	// An ExitError means the command already wrote its output and the
	// exit status is the answer (compat show exits 1 for an untested
	// title). No extra error line for those.
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
