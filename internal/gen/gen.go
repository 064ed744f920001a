// Package gen turns a discovered source tree into platform-bound build
// descriptors: a two-tier makefile pair for the unix targets and a Visual
// Studio project/filters pair for Windows.
package gen

import (
	"strings"
	"time"

	"github.com/veralux/pxmkit/internal/platform"
)

// SourceTree holds the discovered file listings. All paths are
// slash-separated, sorted, and relative to <root>/src (sources, headers) or
// to the repository root (resources).
type SourceTree struct {
	Sources   []string
	Headers   []string
	Resources []string
}

// Generator emits the build descriptors for one platform.
type Generator interface {
	// Generate writes all build files for the platform under root and
	// returns the paths it created.
	Generate(root string, tree *SourceTree, now time.Time) ([]string, error)
}

// ForPlatform resolves the generator strategy for a platform through the
// descriptor table. An unknown identifier fails before anything is written.
func ForPlatform(id platform.ID, module string) (Generator, error) {
	prof, err := platform.Lookup(id)
	if err != nil {
		return nil, err
	}
	if id == platform.Windows {
		return &VCProjectGen{Module: module, Profile: prof}, nil
	}
	return &MakefileGen{Module: module, Profile: prof}, nil
}

const generatorBannerRule = "######################################################################"

// banner renders the comment header carried by every generated build file.
// The timestamp is the only line that changes between otherwise identical
// regenerations.
func banner(module, platformLabel, configuration string, now time.Time) string {
	var sb strings.Builder
	writeln(&sb, generatorBannerRule)
	writeln(&sb, "# PixInsight Makefile Generator Script v1.144")
	writeln(&sb, "# Copyright (C) 2009-2026 Pleiades Astrophoto")
	writeln(&sb, generatorBannerRule)
	writeln(&sb, "# Generated on .... ", timestamp(now))
	writeln(&sb, "# Project id ...... ", module)
	writeln(&sb, "# Project type .... Module")
	writeln(&sb, "# Platform ........ ", platformLabel)
	if configuration != "" {
		writeln(&sb, "# Configuration ... ", configuration)
	}
	writeln(&sb, generatorBannerRule)
	return sb.String()
}

func timestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000000") + "Z"
}
