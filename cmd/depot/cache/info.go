// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/title"
)

// infoParams holds the parameters for depot info.
type infoParams struct {
	cli.DepotConfig
	cli.JSONOutput
	TitleID    string `json:"title_id" flag:"title-id" desc:"title id, 16 hex digits (required)"`
	RecordType string `json:"type" flag:"type" desc:"content record type" default:"program"`
}

// infoEntry is the JSON output for depot info.
type infoEntry struct {
	TitleID      string `json:"title_id"`
	RecordType   string `json:"type"`
	TitleType    string `json:"title_type"`
	Version      string `json:"version"`
	Size         int64  `json:"size"`
	StoredSize   int64  `json:"stored_size"`
	Compression  string `json:"compression"`
	Digest       string `json:"digest"`
	Source       string `json:"source,omitempty"`
	RegisteredAt string `json:"registered_at"`
}

// InfoCommand returns the "info" command.
func InfoCommand() *cli.Command {
	var params infoParams

	return &cli.Command{
		Name:    "info",
		Summary: "Show how one record is stored in the registered cache",
		Description: `Print the index row and install metadata for one content record: the
sizes before and after compression, the storage digest, the file it
was installed from, and when.`,
		Usage: "depot info --title-id <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Inspect a title's program record",
				Command:     "depot info --title-id 0100000000010000",
			},
			{
				Description: "Inspect the control record as JSON",
				Command:     "depot info --title-id 0100000000010000 --type control --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("info", &params)
		},
		Run: func(args []string) error {
			return runInfo(&params, args)
		},
	}
}

func runInfo(params *infoParams, args []string) error {
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
	recordType, err := title.ParseContentRecordType(params.RecordType)
	if err != nil {
		return fmt.Errorf("invalid --type: %w", err)
	}

	depot, err := params.DepotConfig.Open()
	if err != nil {
		return err
	}
	defer depot.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info, err := depot.Cache.EntryInfo(ctx, id, recordType)
	if err != nil {
		return err
	}

	entry := infoEntry{
		TitleID:      info.TitleID.String(),
		RecordType:   info.RecordType.String(),
		TitleType:    info.TitleType.String(),
		Version:      info.Version.String(),
		Size:         info.Size,
		StoredSize:   info.StoredSize,
		Compression:  info.Compression.String(),
		Digest:       info.Digest,
		Source:       info.Source,
		RegisteredAt: info.RegisteredAt.UTC().Format(time.RFC3339),
	}

	if done, err := params.EmitJSON(entry); done {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "Title ID:\t%s\n", entry.TitleID)
	fmt.Fprintf(writer, "Record type:\t%s\n", entry.RecordType)
	fmt.Fprintf(writer, "Title type:\t%s\n", entry.TitleType)
	fmt.Fprintf(writer, "Version:\t%s\n", entry.Version)
	fmt.Fprintf(writer, "Size:\t%d\n", entry.Size)
	fmt.Fprintf(writer, "Stored size:\t%d\n", entry.StoredSize)
	fmt.Fprintf(writer, "Compression:\t%s\n", entry.Compression)
	fmt.Fprintf(writer, "Digest:\t%s\n", entry.Digest)
	if entry.Source != "" {
		fmt.Fprintf(writer, "Source:\t%s\n", entry.Source)
	}
	fmt.Fprintf(writer, "Registered:\t%s\n", entry.RegisteredAt)
	return writer.Flush()
}
