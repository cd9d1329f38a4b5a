// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete depot CLI command tree. It
// exists separately from main so tests (and any embedding frontend)
// can construct and dispatch the tree without a process boundary.
package commands

import (
	"fmt"

	cachecmd "github.com/depot-foundation/depot/cmd/depot/cache"
	"github.com/depot-foundation/depot/cmd/depot/cli"
	compatcmd "github.com/depot-foundation/depot/cmd/depot/compat"
	mountcmd "github.com/depot-foundation/depot/cmd/depot/mount"
	patchescmd "github.com/depot-foundation/depot/cmd/depot/patches"
	savecmd "github.com/depot-foundation/depot/cmd/depot/save"
	scancmd "github.com/depot-foundation/depot/cmd/depot/scan"
	"github.com/depot-foundation/depot/lib/version"
)

// Root builds and returns the complete depot CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "depot",
		Description: `Depot: console content resolution and cache management.

Scan content directories for titles, install content into the
registered cache, derive save-data paths, list patch layers, and
serve resolved content as a filesystem.`,
		Subcommands: []*cli.Command{
			scancmd.Command(),
			cachecmd.TitlesCommand(),
			cachecmd.InfoCommand(),
			cachecmd.InstallCommand(),
			cachecmd.UninstallCommand(),
			cachecmd.RefreshCommand(),
			savecmd.Command(),
			patchescmd.Command(),
			compatcmd.Command(),
			mountcmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("depot %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Scan a directory tree for titles",
				Command:     "depot scan --deep ~/games",
			},
			{
				Description: "Install a content file into the cache",
				Command:     "depot install --title-id 0100000000010000 game.nca",
			},
			{
				Description: "Browse installed content as a filesystem",
				Command:     "depot mount /mnt/depot",
			},
		},
	}
}
