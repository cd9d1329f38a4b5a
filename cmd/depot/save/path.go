// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package save

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
)

// pathParams holds the parameters for save path.
type pathParams struct {
	cli.DepotConfig
	cli.JSONOutput
	saveSpec
}

// pathResult is the JSON output of save path.
type pathResult struct {
	Path string `json:"path"`
}

func pathCommand() *cli.Command {
	var params pathParams

	return &cli.Command{
		Name:    "path",
		Summary: "Print the save directory for a title and user",
		Description: `Print the derived save directory. Derivation is pure: the directory
does not need to exist, and nothing is created.`,
		Usage: "depot save path --title-id <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Save directory for the default profile",
				Command:     "depot save path --title-id 0100000000010000",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("path", &params)
		},
		Run: func(args []string) error {
			return runPath(&params, args)
		},
	}
}

func runPath(params *pathParams, args []string) error {
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

	path := depot.SaveFactory().Path(spec)
	if done, err := params.EmitJSON(pathResult{Path: path}); done {
		return err
	}
	fmt.Println(path)
	return nil
}
