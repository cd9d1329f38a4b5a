// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package save

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/title"
)

// usersParams holds the parameters for save users.
type usersParams struct {
	cli.DepotConfig
	cli.JSONOutput
	TitleID string `json:"title_id" flag:"title-id" desc:"title id, 16 hex digits (required)"`
}

func usersCommand() *cli.Command {
	var params usersParams

	return &cli.Command{
		Name:    "users",
		Summary: "List user profiles with save data for a title",
		Usage:   "depot save users --title-id <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Which profiles have saves",
				Command:     "depot save users --title-id 0100000000010000",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("users", &params)
		},
		Run: func(args []string) error {
			return runUsers(&params, args)
		},
	}
}

func runUsers(params *usersParams, args []string) error {
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

	depot, err := params.DepotConfig.Open()
	if err != nil {
		return err
	}
	defer depot.Close()

	users, err := depot.SaveFactory().ListUsers(id)
	if err != nil {
		return err
	}

	if done, err := params.EmitJSON(users); done {
		return err
	}

	if len(users) == 0 {
		fmt.Printf("No save data for %s.\n", id)
		return nil
	}
	for _, user := range users {
		fmt.Printf("%08X\n", user)
	}
	return nil
}
