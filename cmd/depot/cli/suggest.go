// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is how far a typo may be from a real name before
// we stay quiet. Three edits covers the common slips (a dropped or
// doubled letter, a transposed pair) without suggesting nonsense.
const maxSuggestDistance = 3

// closest returns the candidate nearest to input, or "" when nothing
// is within maxSuggestDistance.
func closest(input string, candidates []string) string {
	best := ""
	bestDistance := maxSuggestDistance + 1
	for _, candidate := range candidates {
		if d := levenshtein(input, candidate); d < bestDistance {
			bestDistance = d
			best = candidate
		}
	}
	return best
}

// suggestCommand names the subcommand closest to the unknown input,
// or "" when nothing is plausible.
func suggestCommand(unknown string, commands []*Command) string {
	names := make([]string, len(commands))
	for i, command := range commands {
		names[i] = command.Name
	}
	return closest(unknown, names)
}

// suggestFlag finds the first flag-shaped arg the set does not define
// and returns the closest defined flag with its dashes, or "".
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	var defined []string
	flagSet.VisitAll(func(f *pflag.Flag) {
		defined = append(defined, f.Name)
	})

	name, ok := firstUnknownFlag(args, flagSet)
	if !ok {
		return ""
	}
	match := closest(name, defined)
	switch {
	case match == "":
		return ""
	case len(match) == 1:
		return "-" + match
	default:
		return "--" + match
	}
}

// firstUnknownFlag scans args for the first -flag or --flag the set
// does not define and returns its bare name.
func firstUnknownFlag(args []string, flagSet *pflag.FlagSet) (string, bool) {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if index := strings.IndexByte(name, '='); index >= 0 {
			name = name[:index]
		}
		if flagSet.Lookup(name) != nil {
			continue
		}
		return name, true
	}
	return "", false
}

// levenshtein is the classic edit distance: the minimum number of
// single-character insertions, deletions, and substitutions turning a
// into b.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	previous := make([]int, len(b)+1)
	current := make([]int, len(b)+1)
	for j := range previous {
		previous[j] = j
	}
	for i := 1; i <= len(a); i++ {
		current[0] = i
		for j := 1; j <= len(b); j++ {
			substitution := previous[j-1]
			if a[i-1] != b[j-1] {
				substitution++
			}
			current[j] = min(substitution, previous[j]+1, current[j-1]+1)
		}
		previous, current = current, previous
	}
	return previous[len(b)]
}
