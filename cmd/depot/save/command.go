// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package save implements the "depot save" command group: derive,
// create, inspect, and delete per-title save spaces.
package save

import (
	"fmt"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/savedata"
	"github.com/depot-foundation/depot/lib/title"
)

// Command returns the "save" parent command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "save",
		Summary: "Manage per-title save spaces",
		Description: `Derive, create, inspect, and delete save spaces under the configured
save root. A save space is one directory per (title, user index)
pair; games read and write their files inside it.`,
		Subcommands: []*cli.Command{
			pathCommand(),
			openCommand(),
			formatCommand(),
			usersCommand(),
			deleteCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Print where a title's save data lives",
				Command:     "depot save path --title-id 0100000000010000",
			},
			{
				Description: "Create the save space for a second profile",
				Command:     "depot save format --title-id 0100000000010000 --user 1",
			},
		},
	}
}

// saveSpec holds the flags shared by every save subcommand that
// addresses one save space. The user index binds as uint32, so
// negative input fails in flag parsing before spec runs.
type saveSpec struct {
	TitleID string `json:"title_id" flag:"title-id" desc:"title id, 16 hex digits (required)"`
	User    uint32 `json:"user" flag:"user" desc:"user profile index" default:"0"`
}

// spec validates the flags and builds the path spec.
func (s *saveSpec) spec() (savedata.PathSpec, error) {
	if s.TitleID == "" {
		return savedata.PathSpec{}, fmt.Errorf("--title-id is required")
	}
	id, err := title.ParseID(s.TitleID)
	if err != nil {
		return savedata.PathSpec{}, fmt.Errorf("invalid --title-id: %w", err)
	}
	return savedata.PathSpec{TitleID: id, UserIndex: s.User}, nil
}
