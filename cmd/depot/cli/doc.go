// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the depot CLI.
//
// [Command] is the central type: one node of the depot command tree,
// either a group with nested [Command.Subcommands] or a leaf whose Run
// function does the work. The tree is assembled in cmd/depot/commands
// and dispatched through [Command.Execute], which resolves the
// subcommand path and parses flags before handing the leftover
// positionals to Run. Help requests (-h, --help, help) short-circuit
// to [Command.PrintHelp].
//
// Unknown subcommands and flags get a "did you mean" hint: suggest.go
// compares the input against every known name by edit distance and
// offers the closest match within three edits.
//
// Most commands declare their flags through a tagged params struct and
// [FlagsFromParams] rather than registering pflag entries by hand; see
// [BindFlags] for the tag grammar. Params structs embed [JSONOutput] to
// gain a --json flag and the [JSONOutput.EmitJSON] helper for machine
// output.
package cli
