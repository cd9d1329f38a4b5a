// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package mount implements the "depot mount" command: serve resolved
// content as a read-only FUSE filesystem.
package mount

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/content/fuse"
)

// mountParams holds the parameters for depot mount.
type mountParams struct {
	cli.DepotConfig
	AllowOther bool `json:"allow_other" flag:"allow-other" desc:"let other users read the mount (needs user_allow_other in /etc/fuse.conf)"`
}

// Command returns the "mount" command.
func Command() *cli.Command {
	var params mountParams

	return &cli.Command{
		Name:    "mount",
		Summary: "Mount resolved content as a filesystem",
		Description: `Mount the provider union as a read-only FUSE filesystem: one
directory per title id, one file per content record. Reads stream
through content resolution, so the mount serves exactly what a
loader would get, including update shadowing.

Serves until interrupted or externally unmounted.`,
		Usage: "depot mount <mountpoint> [flags]",
		Examples: []cli.Example{
			{
				Description: "Browse installed content",
				Command:     "depot mount /mnt/depot",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("mount", &params)
		},
		Run: func(args []string) error {
			return runMount(&params, args)
		},
	}
}

func runMount(params *mountParams, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one <mountpoint> argument")
	}

	depot, err := params.DepotConfig.Open()
	if err != nil {
		return err
	}
	defer depot.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = fuse.Serve(ctx, fuse.Options{
		MountPoint: args[0],
		Provider:   depot.Union,
		AllowOther: params.AllowOther,
		Logger:     depot.Logger,
	})
	if errors.Is(err, context.Canceled) {
		// Interrupt is the normal way to stop serving.
		return nil
	}
	return err
}
