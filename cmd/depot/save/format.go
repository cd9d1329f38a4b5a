// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package save

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
)

// formatParams holds the parameters for save format.
type formatParams struct {
	cli.DepotConfig
	cli.JSONOutput
	saveSpec
}

func formatCommand() *cli.Command {
	var params formatParams

	return &cli.Command{
		Name:    "format",
		Summary: "Create a save space",
		Description: `Create the save space for a title and user. Formatting an existing
space is a no-op: save data is never wiped by re-formatting, only by
"depot save delete".`,
		Usage: "depot save format --title-id <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Create the save space for a second profile",
				Command:     "depot save format --title-id 0100000000010000 --user 1",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("format", &params)
		},
		Run: func(args []string) error {
			return runFormat(&params, args)
		},
	}
}

func runFormat(params *formatParams, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}
	spec, err := params.spec()
	if err != nil {
		return err
	}

	depot, err := params.DepotConfig.Open()
	if err != nil {
		return err
	}
	defer depot.Close()

	dir, err := depot.SaveFactory().Format(spec)
	if err != nil {
		return err
	}

	if done, err := params.EmitJSON(pathResult{Path: dir.Path()}); done {
		return err
	}
	fmt.Printf("formatted %s\n", dir.Path())
	return nil
}
