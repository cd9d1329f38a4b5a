// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger builds the logger every command runs with, at the
// configured minimum level. A terminal on stderr gets slog.TextHandler
// for readability; piped or redirected stderr (scripts, a frontend
// capturing output) gets slog.JSONHandler so the stream stays
// machine-parseable.
//
// Commands add their own context with With:
//
//	logger := cli.NewCommandLogger(level).With("command", "install")
func NewCommandLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
