// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/content"
	"github.com/depot-foundation/depot/lib/title"
)

// titlesParams holds the parameters for depot titles.
type titlesParams struct {
	cli.DepotConfig
	cli.JSONOutput
	TitleType  string `json:"title_type" flag:"title-type" desc:"filter by title type (application, update, aoc, ...)"`
	RecordType string `json:"type" flag:"type" desc:"filter by content record type (program, control, ...)"`
}

// titleEntry is a single entry in the JSON output.
type titleEntry struct {
	TitleID    string `json:"title_id"`
	RecordType string `json:"type"`
	Version    string `json:"version,omitempty"`
}

// TitlesCommand returns the "titles" command.
func TitlesCommand() *cli.Command {
	var params titlesParams

	return &cli.Command{
		Name:    "titles",
		Summary: "List resolvable titles",
		Description: `List every content record the provider union can resolve, in title id
then record type order. In a fresh process this is the registered
cache; run "depot scan" to see loose files too.`,
		Usage: "depot titles [flags]",
		Examples: []cli.Example{
			{
				Description: "List all installed content",
				Command:     "depot titles",
			},
			{
				Description: "List only program records",
				Command:     "depot titles --type program",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("titles", &params)
		},
		Run: func(args []string) error {
			return runTitles(&params, args)
		},
	}
}

func runTitles(params *titlesParams, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	var filter content.Filter
	if params.TitleType != "" {
		titleType, err := title.ParseType(params.TitleType)
		if err != nil {
			return fmt.Errorf("invalid --title-type: %w", err)
		}
		filter.TitleType = &titleType
	}
	if params.RecordType != "" {
		recordType, err := title.ParseContentRecordType(params.RecordType)
		if err != nil {
			return fmt.Errorf("invalid --type: %w", err)
		}
		filter.RecordType = &recordType
	}

	depot, err := params.DepotConfig.Open()
	if err != nil {
		return err
	}
	defer depot.Close()

	listed := depot.Union.List(filter)
	entries := make([]titleEntry, len(listed))
	for i, entry := range listed {
		entries[i] = titleEntry{
			TitleID:    entry.TitleID.String(),
			RecordType: entry.Type.String(),
		}
		if version, ok := depot.Union.GetEntryVersion(entry.TitleID); ok {
			entries[i].Version = version.String()
		}
	}

	if done, err := params.EmitJSON(entries); done {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No titles installed.")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "TITLE ID\tTYPE\tVERSION")
	for _, entry := range entries {
		fmt.Fprintf(writer, "%s\t%s\t%s\n", entry.TitleID, entry.RecordType, entry.Version)
	}
	return writer.Flush()
}
