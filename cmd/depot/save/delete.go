// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package save

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
)

// deleteParams holds the parameters for save delete.
type deleteParams struct {
	cli.DepotConfig
	saveSpec
}

func deleteCommand() *cli.Command {
	var params deleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a save space and everything in it",
		Description: `Delete one save space. This removes the directory and all files in
it; there is no undo. Deleting a space that does not exist is not an
error.`,
		Usage: "depot save delete --title-id <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Wipe the default profile's save",
				Command:     "depot save delete --title-id 0100000000010000",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("delete", &params)
		},
		Run: func(args []string) error {
			return runDelete(&params, args)
		},
	}
}

func runDelete(params *deleteParams, args []string) error {
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

	factory := depot.SaveFactory()
	if err := factory.Delete(spec); err != nil {
		return err
	}

	fmt.Printf("deleted %s\n", factory.Path(spec))
	return nil
}
