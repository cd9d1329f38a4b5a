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
	"github.com/depot-foundation/depot/lib/content"
)

// refreshParams holds the parameters for depot refresh.
type refreshParams struct {
	cli.DepotConfig
}

// RefreshCommand returns the "refresh" command.
func RefreshCommand() *cli.Command {
	var params refreshParams

	return &cli.Command{
		Name:    "refresh",
		Summary: "Reconcile the cache index with the files on disk",
		Description: `Walk the registered cache and drop index rows whose backing file has
vanished. Content files are the source of truth; the index is
rebuilt to match them. Run this after removing cache files by hand.`,
		Usage: "depot refresh [flags]",
		Examples: []cli.Example{
			{
				Description: "Reconcile after manual cleanup",
				Command:     "depot refresh",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("refresh", &params)
		},
		Run: func(args []string) error {
			return runRefresh(&params, args)
		},
	}
}

func runRefresh(params *refreshParams, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	depot, err := params.DepotConfig.Open()
	if err != nil {
		return err
	}
	defer depot.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := depot.Cache.Refresh(ctx); err != nil {
		return err
	}

	remaining := len(depot.Cache.List(content.Filter{}))
	fmt.Printf("cache refreshed: %d records indexed\n", remaining)
	return nil
}
