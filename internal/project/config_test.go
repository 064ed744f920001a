package project

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testEnv() Env {
	return Env{
		TargetOS:   "linux",
		TargetArch: "amd64",
		Environ:    map[string]string{"MODULE_SUFFIX": "Nightly"},
	}
}

// TestParseMinimal checks that the smallest valid config gets every default
// filled in.
func TestParseMinimal(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(strings.NewReader(`
[module]
name = "Sandbox"
`), testEnv())
	require.NoError(t, err)

	require.Equal(t, "Sandbox", cfg.Module.Name)
	require.Equal(t, "Sandbox", cfg.Module.Title)
	require.Equal(t, "Sandbox", cfg.Module.Description)
	expectedCopyright := fmt.Sprintf("Copyright (c) %d Sandbox developers, All Rights Reserved.", time.Now().Year())
	require.Equal(t, expectedCopyright, cfg.Module.Copyright)

	require.Equal(t, []string{"**/*.cpp"}, cfg.Sources.Compile)
	require.Equal(t, []string{"**/*.h"}, cfg.Sources.Headers)
	require.Equal(t, []string{"**/*.svg"}, cfg.Sources.Resources)
	require.Equal(t, "1.8.9", cfg.Release.MinVersion)
	require.Equal(t, "1.9.99", cfg.Release.MaxVersion)
}

// TestParseExplicitValuesWin ensures configured values are never overwritten
// by defaults.
func TestParseExplicitValuesWin(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(strings.NewReader(`
[module]
name = "Sandbox"
title = "Sandbox Process"
description = "Example process module."
copyright = "Copyright (c) 2020-2026 Example Org"

[sources]
compile = ["core/**/*.cpp"]
headers = ["core/**/*.h", "core/**/*.hpp"]
resources = ["rsc/**/*.svg"]

[release]
min-version = "1.9.0"
max-version = "2.0.0"
`), testEnv())
	require.NoError(t, err)

	require.Equal(t, "Sandbox Process", cfg.Module.Title)
	require.Equal(t, "Example process module.", cfg.Module.Description)
	require.Equal(t, "Copyright (c) 2020-2026 Example Org", cfg.Module.Copyright)
	require.Equal(t, []string{"core/**/*.cpp"}, cfg.Sources.Compile)
	require.Equal(t, []string{"core/**/*.h", "core/**/*.hpp"}, cfg.Sources.Headers)
	require.Equal(t, "1.9.0", cfg.Release.MinVersion)
	require.Equal(t, "2.0.0", cfg.Release.MaxVersion)
}

// TestParseMissingName checks the sentinel for a config without a module
// name.
func TestParseMissingName(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader(`
[module]
title = "Anonymous"
`), testEnv())
	require.ErrorIs(t, err, ErrMissingName)

	_, err = Parse(strings.NewReader(""), testEnv())
	require.ErrorIs(t, err, ErrMissingName)
}

// TestParseExpressions checks {{...}} expansion against the evaluation
// environment, including environ lookups.
func TestParseExpressions(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(strings.NewReader(`
[module]
name = "Sandbox"
title = "Sandbox {{ environ['MODULE_SUFFIX'] }}"
description = "Built for {{ target_os }}/{{ target_arch }}"
`), testEnv())
	require.NoError(t, err)

	require.Equal(t, "Sandbox Nightly", cfg.Module.Title)
	require.Equal(t, "Built for linux/amd64", cfg.Module.Description)
}

// TestParseBadExpression ensures a broken expression surfaces as a parse
// error rather than silently passing through.
func TestParseBadExpression(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader(`
[module]
name = "Sandbox"
title = "{{ no_such_symbol }}"
`), testEnv())
	require.Error(t, err)
}

// TestParseBadTOML checks that decode errors are reported with the decoder's
// context.
func TestParseBadTOML(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader(`[module
name = "broken"`), testEnv())
	require.Error(t, err)
}

// TestLoadMissingFile ensures a nonexistent config path fails.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), DefaultConfigFilename), testEnv())
	require.Error(t, err)
}
