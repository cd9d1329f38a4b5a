// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package compat implements the "depot compat" command group:
// inspect and validate the compatibility list.
package compat

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/compat"
	"github.com/depot-foundation/depot/lib/title"
)

// Command returns the "compat" parent command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "compat",
		Summary: "Inspect the compatibility list",
		Description: `Look up and validate the configured compatibility list: the JSONC
document mapping title ids to how well they run.`,
		Subcommands: []*cli.Command{
			showCommand(),
			checkCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Rating for one title",
				Command:     "depot compat show --title-id 0100000000010000",
			},
			{
				Description: "Validate the list document",
				Command:     "depot compat check",
			},
		},
	}
}

// showParams holds the parameters for compat show.
type showParams struct {
	cli.DepotConfig
	cli.JSONOutput
	TitleID string `json:"title_id" flag:"title-id" desc:"title id, 16 hex digits (required)"`
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show the compatibility rating for a title",
		Description: `Print a title's compatibility tier and notes. Exits 1 when the title
is untested, so scripts can branch on it.`,
		Usage: "depot compat show --title-id <id> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(args []string) error {
			return runShow(&params, args)
		},
	}
}

func runShow(params *showParams, args []string) error {
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

	list, err := depot.CompatList()
	if err != nil {
		return err
	}
	rating := list.Lookup(id)

	if done, err := params.EmitJSON(rating); done {
		if err != nil {
			return err
		}
	} else {
		fmt.Println(rating.Tier)
		if rating.Notes != "" {
			fmt.Println(rating.Notes)
		}
	}

	if rating.Tier == compat.TierUntested {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// checkParams holds the parameters for compat check.
type checkParams struct {
	cli.DepotConfig
	cli.JSONOutput
}

// tierCount is one row of the check summary.
type tierCount struct {
	Tier  string `json:"tier"`
	Count int    `json:"count"`
}

func checkCommand() *cli.Command {
	var params checkParams

	return &cli.Command{
		Name:    "check",
		Summary: "Validate the compatibility list document",
		Description: `Parse the configured compatibility list and summarize it by tier.
Malformed keys and unknown tiers are reported as errors rather than
silently dropped.`,
		Usage: "depot compat check [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("check", &params)
		},
		Run: func(args []string) error {
			return runCheck(&params, args)
		},
	}
}

func runCheck(params *checkParams, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	depot, err := params.DepotConfig.Open()
	if err != nil {
		return err
	}
	defer depot.Close()

	if depot.Config.Compat.Path == "" {
		return fmt.Errorf("no compatibility list configured (set compat.path)")
	}
	list, err := depot.CompatList()
	if err != nil {
		return err
	}

	byTier := map[compat.Tier]int{}
	for _, rating := range list {
		byTier[rating.Tier]++
	}
	tiers := make([]compat.Tier, 0, len(byTier))
	for tier := range byTier {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })

	counts := []tierCount{}
	for _, tier := range tiers {
		counts = append(counts, tierCount{Tier: tier.String(), Count: byTier[tier]})
	}

	if done, err := params.EmitJSON(counts); done {
		return err
	}

	fmt.Printf("%d titles rated\n", len(list))
	if len(counts) == 0 {
		return nil
	}
	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "TIER\tCOUNT")
	for _, row := range counts {
		fmt.Fprintf(writer, "%s\t%d\n", row.Tier, row.Count)
	}
	return writer.Flush()
}
