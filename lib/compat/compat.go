// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package compat loads the per-title compatibility list. The list is
// authored as a JSONC document (JSON extended with comments and
// trailing commas) mapping title ids to a tier and optional notes,
// and is consulted by the scan to decorate listing entries.
package compat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/depot-foundation/depot/lib/title"
)

// Tier grades how well a title runs. Lower is better; Untested sits
// outside the graded range so a zero-value Rating never reads as
// Perfect.
type Tier uint8

const (
	TierPerfect  Tier = 0
	TierGreat    Tier = 1
	TierOkay     Tier = 2
	TierBad      Tier = 3
	TierIntro    Tier = 4
	TierWontBoot Tier = 5
	TierUntested Tier = 99
)

var tierNames = map[Tier]string{
	TierPerfect:  "Perfect",
	TierGreat:    "Great",
	TierOkay:     "Okay",
	TierBad:      "Bad",
	TierIntro:    "Intro",
	TierWontBoot: "Won't Boot",
	TierUntested: "Untested",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tier(%d)", uint8(t))
}

// known reports whether the tier is one the document format defines.
func (t Tier) known() bool {
	_, ok := tierNames[t]
	return ok
}

// Rating is one title's compatibility verdict.
type Rating struct {
	Tier  Tier   `json:"tier"`
	Notes string `json:"notes,omitempty"`
}

// List maps title ids to ratings. A nil List is valid and reports
// every title as untested.
type List map[title.ID]Rating

// Lookup returns the rating for a title, falling back to Untested for
// unknown titles and nil lists.
func (l List) Lookup(id title.ID) Rating {
	if rating, ok := l[id]; ok {
		return rating
	}
	return Rating{Tier: TierUntested}
}

// LoadFile reads a compatibility list from a JSONC document. Keys are
// 16-digit hex title ids; values carry the tier and optional notes.
// An absent file yields an empty list, since a fresh install has no
// list yet; any other read or parse failure is an error.
func LoadFile(path string) (List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return List{}, nil
		}
		return nil, fmt.Errorf("compat: reading %s: %w", path, err)
	}

	list, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("compat: %s: %w", path, err)
	}
	return list, nil
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result. Title keys must parse as hex ids; a key that
// does not is a document error, not a skippable entry, so typos fail
// loudly instead of silently dropping a rating.
func Parse(data []byte) (List, error) {
	stripped := jsonc.ToJSON(data)

	var raw map[string]Rating
	if err := json.Unmarshal(stripped, &raw); err != nil {
		return nil, fmt.Errorf("parsing compatibility list: %w", err)
	}

	list := make(List, len(raw))
	for key, rating := range raw {
		id, err := title.ParseID(key)
		if err != nil {
			return nil, fmt.Errorf("compatibility list key %q: %w", key, err)
		}
		if !rating.Tier.known() {
			return nil, fmt.Errorf("compatibility list entry %s: unknown tier %d", id, rating.Tier)
		}
		list[id] = rating
	}
	return list, nil
}
