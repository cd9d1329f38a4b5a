// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	// Axioms first: identity is free, and against the empty string
	// the distance is the full length.
	if got := levenshtein("scan", "scan"); got != 0 {
		t.Errorf("levenshtein(scan, scan) = %d, want 0", got)
	}
	if got := levenshtein("", "scan"); got != 4 {
		t.Errorf("levenshtein(\"\", scan) = %d, want 4", got)
	}
	if got := levenshtein("scan", ""); got != 4 {
		t.Errorf("levenshtein(scan, \"\") = %d, want 4", got)
	}

	tests := []struct {
		a, b string
		want int
	}{
		{"install", "instal", 1}, // dropped letter
		{"uninstall", "uninstal", 1},
		{"titles", "titels", 2}, // transposed pair costs two
		{"mount", "monut", 2},
		{"scan", "scna", 2},
		{"patches", "path", 3},   // three deletions
		{"kitten", "sitting", 3}, // the textbook vector
	}

	for _, test := range tests {
		t.Run(test.a+"_"+test.b, func(t *testing.T) {
			got := levenshtein(test.a, test.b)
			if got != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
			}
			// The distance is symmetric; the swapped order must agree.
			if reverse := levenshtein(test.b, test.a); reverse != got {
				t.Errorf("levenshtein(%q, %q) = %d, want %d as the reverse", test.b, test.a, reverse, got)
			}
		})
	}
}

func TestClosestCutoff(t *testing.T) {
	candidates := []string{"refresh"}

	// "frsh" is three edits from "refresh" and still suggests; "fish"
	// is four and stays quiet.
	if got := closest("frsh", candidates); got != "refresh" {
		t.Errorf("closest at the cutoff = %q, want refresh", got)
	}
	if got := closest("fish", candidates); got != "" {
		t.Errorf("closest past the cutoff = %q, want no suggestion", got)
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "scan"},
		{Name: "titles"},
		{Name: "install"},
		{Name: "uninstall"},
		{Name: "version"},
	}

	// Input to expected suggestion; "" means stay quiet.
	for input, want := range map[string]string{
		"scna":      "scan",
		"titels":    "titles",
		"instal":    "install",
		"installl":  "install",
		"uninstal":  "uninstall",
		"vrsion":    "version",
		"zzzzzzzzz": "",
	} {
		if got := suggestCommand(input, commands); got != want {
			t.Errorf("suggestCommand(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	installFlags := func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("install", pflag.ContinueOnError)
		flagSet.String("title-id", "", "")
		flagSet.String("type", "", "")
		flagSet.String("compression", "", "")
		flagSet.Bool("deep", false, "")
		flagSet.Bool("json", false, "")
		return flagSet
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		// A dropped hyphen is the usual slip for multi-word flags.
		{"dropped hyphen", []string{"--titleid"}, "--title-id"},
		{"single dash", []string{"-titleid"}, "--title-id"},
		{"attached value", []string{"--titleid=0100000000010000"}, "--title-id"},
		{"swapped letters", []string{"--tpye"}, "--type"},
		{"swapped tail", []string{"--depe"}, "--deep"},
		{"nothing close", []string{"--zzzzzzzzz"}, ""},
		{"no flag in args", []string{"positional"}, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := suggestFlag(test.args, installFlags()); got != test.want {
				t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
			}
		})
	}
}
