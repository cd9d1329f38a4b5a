// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports what build of depot is running.
//
// Release builds inject the fields with -ldflags:
//
//	go build -ldflags "-X github.com/depot-foundation/depot/lib/version.Version=1.2.0 \
//	  -X github.com/depot-foundation/depot/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Builds without ldflags fall back to the revision the Go toolchain
// stamps into the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags at build time.
var (
	// Version is the release version.
	Version = "0.1.0-dev"

	// GitCommit is the short commit hash. Empty when not injected.
	GitCommit = ""
)

// commit resolves the commit hash: the ldflags value when present,
// otherwise the toolchain's VCS stamp.
func commit() string {
	if GitCommit != "" {
		return GitCommit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	revision := "unknown"
	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
			if len(revision) > 12 {
				revision = revision[:12]
			}
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if dirty {
		revision += "-dirty"
	}
	return revision
}

// Full returns a multi-line version report: release version and
// commit, then the Go toolchain and platform.
func Full() string {
	return fmt.Sprintf("%s (%s)\n  Go: %s\n  Platform: %s/%s",
		Version, commit(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
