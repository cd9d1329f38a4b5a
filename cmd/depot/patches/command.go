// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package patches implements the "depot patches" command: list the
// patch layers that would apply to a title.
package patches

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/content"
	"github.com/depot-foundation/depot/lib/patch"
	"github.com/depot-foundation/depot/lib/title"
)

// patchesParams holds the parameters for depot patches.
type patchesParams struct {
	cli.DepotConfig
	cli.JSONOutput
	TitleID string `json:"title_id" flag:"title-id" desc:"base title id, 16 hex digits (required)"`
}

// patchLayer is a single entry in the JSON output.
type patchLayer struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Command returns the "patches" command.
func Command() *cli.Command {
	var params patchesParams

	return &cli.Command{
		Name:    "patches",
		Summary: "List the patch layers for a title",
		Description: `List the patch layers that would apply to a base title, in layering
order: the installed update first (with its version), then mod
directories from the load dir in name order.`,
		Usage: "depot patches --title-id <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "What would layer onto a title",
				Command:     "depot patches --title-id 0100000000010000",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("patches", &params)
		},
		Run: func(args []string) error {
			return runPatches(&params, args)
		},
	}
}

func runPatches(params *patchesParams, args []string) error {
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

	// The overlay makes an installed update's version shadow the
	// base title's, matching what the scan reports.
	manager := patch.NewManager(id, patch.Config{
		Provider: content.NewUpdateOverlay(depot.Union),
		LoadDir:  depot.Config.LoadDir(),
		Logger:   depot.Logger,
	})

	layers := []patchLayer{}
	for _, version := range manager.PatchVersionNames(nil) {
		layers = append(layers, patchLayer{Name: version.Name, Version: version.Version})
	}

	if done, err := params.EmitJSON(layers); done {
		return err
	}

	if len(layers) == 0 {
		fmt.Printf("No patches for %s.\n", id)
		return nil
	}
	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "LAYER\tVERSION")
	for _, layer := range layers {
		fmt.Fprintf(writer, "%s\t%s\n", layer.Name, layer.Version)
	}
	return writer.Flush()
}
