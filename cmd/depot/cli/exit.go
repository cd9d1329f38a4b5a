// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError carries a process exit code through the error return
// path. Commands whose answer is the exit status (compat show exits
// 1 when a title is untested) print their own output and return an
// ExitError; main unwraps it and exits with that code instead of
// printing a redundant error line.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit code %d", e.Code) }

// ExitCode returns the code for main to pass to os.Exit.
func (e *ExitError) ExitCode() int { return e.Code }
