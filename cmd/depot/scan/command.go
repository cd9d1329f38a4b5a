// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package scan implements the "depot scan" command: run the content
// scanner over the configured (or given) directories and print every
// discovered title as it arrives.
package scan

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/patch"
	"github.com/depot-foundation/depot/lib/scan"
)

// scanParams holds the parameters for depot scan.
type scanParams struct {
	cli.DepotConfig
	cli.JSONOutput
	Deep bool `json:"deep" flag:"deep" desc:"recurse into subdirectories of the given dirs"`
}

// scanEntry is a single entry in the JSON output.
type scanEntry struct {
	Path          string   `json:"path"`
	Name          string   `json:"name"`
	ProgramID     string   `json:"program_id"`
	FileType      string   `json:"file_type"`
	Size          int64    `json:"size"`
	Compatibility string   `json:"compatibility"`
	Patches       []string `json:"patches,omitempty"`
}

// scanResult is the complete JSON output: the entries plus the
// directories a frontend would watch for rescans.
type scanResult struct {
	Entries   []scanEntry `json:"entries"`
	WatchDirs []string    `json:"watch_dirs"`
}

// Command returns the "scan" command.
func Command() *cli.Command {
	var params scanParams

	return &cli.Command{
		Name:    "scan",
		Summary: "Scan content directories and list titles",
		Description: `Walk content directories and print every title found: installable
containers, titles already installed in the registered cache, and
loose executable files a registered loader can open.

Directories given as arguments are scanned instead of the configured
scan.dirs. Entries print as they are found; interrupt with Ctrl-C to
stop a long scan cleanly.`,
		Usage: "depot scan [flags] [<dir>...]",
		Examples: []cli.Example{
			{
				Description: "Scan the configured directories",
				Command:     "depot scan",
			},
			{
				Description: "Scan a directory tree recursively",
				Command:     "depot scan --deep ~/games",
			},
			{
				Description: "Machine-readable output for a frontend",
				Command:     "depot scan --json ~/games",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("scan", &params)
		},
		Run: func(args []string) error {
			return runScan(&params, args)
		},
	}
}

func runScan(params *scanParams, args []string) error {
	depot, err := params.DepotConfig.Open()
	if err != nil {
		return err
	}
	defer depot.Close()

	var roots []scan.RootDir
	for _, dir := range args {
		roots = append(roots, scan.RootDir{Path: dir, Deep: params.Deep})
	}
	if len(roots) == 0 {
		for _, dir := range depot.Config.Scan.Dirs {
			roots = append(roots, scan.RootDir{Path: dir.Path, Deep: dir.Deep})
		}
	}
	if len(roots) == 0 {
		return fmt.Errorf("nothing to scan: give <dir> arguments or configure scan.dirs")
	}

	compatList, err := depot.CompatList()
	if err != nil {
		return err
	}

	scanner, err := scan.NewScanner(scan.Options{
		Roots:   roots,
		Manual:  depot.Manual,
		Union:   depot.Union,
		Loaders: depot.Loaders,
		Parsers: depot.Parsers,
		Compat:  compatList,
		LoadDir: depot.Config.LoadDir(),
		Logger:  depot.Logger,
	})
	if err != nil {
		return err
	}

	// An interrupt cancels the scan rather than killing the process:
	// queued entries still print, then Run returns cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		scanner.Cancel()
	}()

	runDone := make(chan error, 1)
	go func() {
		runDone <- scanner.Run(context.Background())
	}()

	result := scanResult{Entries: []scanEntry{}, WatchDirs: []string{}}
	for event := range scanner.Events() {
		switch event.Kind {
		case scan.EventKindEntry:
			entry := convertEntry(event.Entry)
			if params.OutputJSON {
				result.Entries = append(result.Entries, entry)
			} else {
				fmt.Println(formatEntry(entry))
			}
		case scan.EventKindFinished:
			result.WatchDirs = append(result.WatchDirs, event.WatchList...)
		}
	}

	if err := <-runDone; err != nil {
		return err
	}

	if done, err := params.EmitJSON(result); done {
		return err
	}
	return nil
}

// convertEntry flattens a scan entry for output. The icon is dropped:
// raw image bytes belong in neither a text line nor a listing JSON
// document.
func convertEntry(entry *scan.Entry) scanEntry {
	return scanEntry{
		Path:          entry.Path,
		Name:          entry.Name,
		ProgramID:     entry.ProgramID.String(),
		FileType:      entry.FileType,
		Size:          entry.Size,
		Compatibility: entry.Compatibility.Tier.String(),
		Patches:       patchLabels(entry.Patches),
	}
}

// formatEntry renders one text line: id, format, compatibility, name,
// then the patch layers and path.
func formatEntry(entry scanEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-4s  %-10s  %s", entry.ProgramID, entry.FileType, entry.Compatibility, entry.Name)
	if len(entry.Patches) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(entry.Patches, ", "))
	}
	fmt.Fprintf(&b, "  (%s)", entry.Path)
	return b.String()
}

func patchLabels(patches []patch.Version) []string {
	labels := make([]string, len(patches))
	for i, layer := range patches {
		labels[i] = layer.Name
		if layer.Version != "" {
			labels[i] += " " + layer.Version
		}
	}
	return labels
}
