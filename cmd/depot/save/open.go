// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package save

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
)

// openParams holds the parameters for save open.
type openParams struct {
	cli.DepotConfig
	cli.JSONOutput
	saveSpec
}

// saveFile is one file inside a save space, in the JSON output.
type saveFile struct {
	Name string `json:"name"`
	Dir  bool   `json:"dir"`
}

// openResult is the JSON output of save open.
type openResult struct {
	Path  string     `json:"path"`
	Files []saveFile `json:"files"`
}

func openCommand() *cli.Command {
	var params openParams

	return &cli.Command{
		Name:    "open",
		Summary: "Open a save space and list its contents",
		Description: `Open an existing save space and list what's inside. A space that was
never formatted is an error; run "depot save format" first.`,
		Usage: "depot save open --title-id <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Inspect the default profile's save",
				Command:     "depot save open --title-id 0100000000010000",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("open", &params)
		},
		Run: func(args []string) error {
			return runOpen(&params, args)
		},
	}
}

func runOpen(params *openParams, args []string) error {
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

	dir, err := depot.SaveFactory().Open(spec)
	if err != nil {
		return err
	}
	entries, err := dir.ReadDir()
	if err != nil {
		return err
	}

	result := openResult{Path: dir.Path(), Files: []saveFile{}}
	for _, entry := range entries {
		result.Files = append(result.Files, saveFile{Name: entry.Name(), Dir: entry.IsDir()})
	}

	if done, err := params.EmitJSON(result); done {
		return err
	}

	fmt.Println(result.Path)
	if len(result.Files) == 0 {
		fmt.Println("(empty save space)")
		return nil
	}
	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, file := range result.Files {
		kind := "file"
		if file.Dir {
			kind = "dir"
		}
		fmt.Fprintf(writer, "  %s\t%s\n", file.Name, kind)
	}
	return writer.Flush()
}
