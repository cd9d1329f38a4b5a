// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"log/slog"

	"github.com/depot-foundation/depot/lib/compat"
	"github.com/depot-foundation/depot/lib/config"
	"github.com/depot-foundation/depot/lib/container"
	"github.com/depot-foundation/depot/lib/content"
	"github.com/depot-foundation/depot/lib/loader"
	"github.com/depot-foundation/depot/lib/savedata"
)

// DepotConfig selects the configuration source for a command. Embed it
// in a params struct to get the --config flag; call [DepotConfig.Open]
// in Run to load configuration and wire the provider stack.
type DepotConfig struct {
	ConfigPath string `json:"-" flag:"config" desc:"config file path (overrides DEPOT_CONFIG)"`
}

// Depot is the opened command environment: validated configuration,
// the command logger, and the provider stack every subcommand
// resolves content through. The union is wired with the manual
// provider at the frontend-manual slot shadowing the registered cache
// at the user-installed slot.
type Depot struct {
	Config  *config.Config
	Logger  *slog.Logger
	Parsers *container.ParserSet
	Manual  *content.Manual
	Cache   *content.RegisteredCache
	Union   *content.Union
	Loaders *loader.Resolver
}

// Open loads and validates configuration, builds the logger at the
// configured level, creates the storage layout, and wires the
// provider stack. The caller owns the result and must Close it.
//
// Configuration comes from --config when set, otherwise from
// DEPOT_CONFIG, otherwise defaults.
func (d *DepotConfig) Open() (*Depot, error) {
	var cfg *config.Config
	var err error
	if d.ConfigPath != "" {
		cfg, err = config.LoadFile(d.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger := NewCommandLogger(level)

	if err := cfg.EnsurePaths(); err != nil {
		return nil, fmt.Errorf("creating storage layout: %w", err)
	}

	compression, err := content.ParseCompressionTag(cfg.Cache.Compression)
	if err != nil {
		return nil, fmt.Errorf("cache compression: %w", err)
	}

	parsers := container.NewParserSet()
	manual := content.NewManual(parsers)
	cache, err := content.OpenRegisteredCache(content.RegisteredConfig{
		Dir:         cfg.CacheDir(),
		PoolSize:    cfg.Cache.PoolSize,
		Compression: compression,
		Parsers:     parsers,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening registered cache: %w", err)
	}

	union := content.NewUnion()
	union.RegisterProvider(content.SlotFrontendManual, manual)
	union.RegisterProvider(content.SlotUserInstalled, cache)

	return &Depot{
		Config:  cfg,
		Logger:  logger,
		Parsers: parsers,
		Manual:  manual,
		Cache:   cache,
		Union:   union,
		Loaders: loader.NewResolver(),
	}, nil
}

// SaveFactory returns the save-data factory rooted at the configured
// save root.
func (d *Depot) SaveFactory() *savedata.Factory {
	return savedata.NewFactory(d.Config.SaveRoot())
}

// CompatList loads the configured compatibility list. No configured
// path and an absent file both yield an empty list: every title
// reports as untested.
func (d *Depot) CompatList() (compat.List, error) {
	if d.Config.Compat.Path == "" {
		return compat.List{}, nil
	}
	return compat.LoadFile(d.Config.Compat.Path)
}

// Close releases the registered cache's index pool.
func (d *Depot) Close() error {
	return d.Cache.Close()
}
