// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

// installParams holds the parameters for depot install.
type installParams struct {
	cli.DepotConfig
	TitleID    string `json:"title_id" flag:"title-id" desc:"title id, 16 hex digits (required)"`
	RecordType string `json:"type" flag:"type" desc:"content record type" default:"program"`
	TitleType  string `json:"title_type" flag:"title-type" desc:"title type" default:"application"`
	Version    string `json:"version" flag:"version" desc:"packed title version (decimal or 0x hex)"`
}

// InstallCommand returns the "install" command.
func InstallCommand() *cli.Command {
	var params installParams

	return &cli.Command{
		Name:    "install",
		Summary: "Install a content file into the registered cache",
		Description: `Copy a content file into the registered cache under the configured
compression, record its digest, and index it for resolution. The
source file is not modified or removed.`,
		Usage: "depot install --title-id <id> [flags] <file>",
		Examples: []cli.Example{
			{
				Description: "Install a program record",
				Command:     "depot install --title-id 0100000000010000 game.nca",
			},
			{
				Description: "Install an update with its packed version",
				Command:     "depot install --title-id 0100000000010800 --title-type update --version 0x20000 update.nca",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("install", &params)
		},
		Run: func(args []string) error {
			return runInstall(&params, args)
		},
	}
}

func runInstall(params *installParams, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one <file> argument")
	}
	if params.TitleID == "" {
		return fmt.Errorf("--title-id is required")
	}

	id, err := title.ParseID(params.TitleID)
	if err != nil {
		return fmt.Errorf("invalid --title-id: %w", err)
	}
	recordType, err := title.ParseContentRecordType(params.RecordType)
	if err != nil {
		return fmt.Errorf("invalid --type: %w", err)
	}
	titleType, err := title.ParseType(params.TitleType)
	if err != nil {
		return fmt.Errorf("invalid --title-type: %w", err)
	}
	var version title.Version
	if params.Version != "" {
		packed, err := strconv.ParseUint(params.Version, 0, 32)
		if err != nil {
			return fmt.Errorf("invalid --version: %w", err)
		}
		version = title.Version(packed)
	}

	file, err := vfs.OpenOSFile(args[0])
	if err != nil {
		return err
	}

	depot, err := params.DepotConfig.Open()
	if err != nil {
		return err
	}
	defer depot.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := depot.Cache.Install(ctx, file, id, titleType, recordType, version); err != nil {
		return err
	}

	fmt.Printf("installed %s %s from %s\n", id, recordType, args[0])
	return nil
}
