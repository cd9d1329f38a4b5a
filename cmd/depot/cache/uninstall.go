// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/title"
)

// uninstallParams holds the parameters for depot uninstall.
type uninstallParams struct {
	cli.DepotConfig
	TitleID    string `json:"title_id" flag:"title-id" desc:"title id, 16 hex digits (required)"`
	RecordType string `json:"type" flag:"type" desc:"content record type" default:"program"`
}

// UninstallCommand returns the "uninstall" command.
func UninstallCommand() *cli.Command {
	var params uninstallParams

	return &cli.Command{
		Name:    "uninstall",
		Summary: "Remove a content record from the registered cache",
		Description: `Remove one content record from the registered cache: the stored file
is deleted and the index row dropped. Other records of the same title
are untouched.`,
		Usage: "depot uninstall --title-id <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Remove a title's program record",
				Command:     "depot uninstall --title-id 0100000000010000",
			},
			{
				Description: "Remove only the control record",
				Command:     "depot uninstall --title-id 0100000000010000 --type control",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("uninstall", &params)
		},
		Run: func(args []string) error {
			return runUninstall(&params, args)
		},
	}
}

func runUninstall(params *uninstallParams, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
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

	depot, err := params.DepotConfig.Open()
	if err != nil {
		return err
	}
	defer depot.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := depot.Cache.Uninstall(ctx, id, recordType); err != nil {
		return err
	}

	fmt.Printf("uninstalled %s %s\n", id, recordType)
	return nil
}
