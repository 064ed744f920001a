// Package project loads the pxmkit.toml module configuration and locates the
// repository root the tool operates on.
package project

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFilename is looked up at the repository root unless overridden.
const DefaultConfigFilename = "pxmkit.toml"

var ErrMissingName = errors.New("module name is required in [module] section")

// Config is the parsed pxmkit.toml.
type Config struct {
	Module  ModuleSection  `toml:"module"`
	Sources SourcesSection `toml:"sources"`
	Release ReleaseSection `toml:"release"`
}

// ModuleSection names the module being built and packaged. Name is the
// project identifier embedded in every generated artifact; it is injected
// into the generators and the packager once at startup.
type ModuleSection struct {
	Name        string `toml:"name"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Copyright   string `toml:"copyright"`
}

// SourcesSection lists doublestar patterns for file discovery. Compile and
// header patterns are matched under <root>/src, resource patterns under the
// repository root.
type SourcesSection struct {
	Compile   []string `toml:"compile"`
	Headers   []string `toml:"headers"`
	Resources []string `toml:"resources"`
}

// ReleaseSection carries the compatible host-version range advertised in the
// update manifest.
type ReleaseSection struct {
	MinVersion string `toml:"min-version"`
	MaxVersion string `toml:"max-version"`
}

// Env is the evaluation environment for {{...}} expressions in config strings.
type Env struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`
}

func NewEnv() Env {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if i := strings.Index(e, "="); i >= 0 {
			environ[e[:i]] = e[i+1:]
		}
	}

	return Env{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Environ:    environ,
	}
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evaluateString finds and evaluates all {{...}} expressions in a string
func evaluateString(s string, env Env) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var builder strings.Builder
	lastIndex := 0

	for _, matchIndexes := range matches {
		builder.WriteString(s[lastIndex:matchIndexes[0]])

		expression := strings.TrimSpace(s[matchIndexes[2]:matchIndexes[3]])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		builder.WriteString(fmt.Sprintf("%v", result))
		lastIndex = matchIndexes[1]
	}

	builder.WriteString(s[lastIndex:])

	return builder.String(), nil
}

// expandExpressions recursively walks the parsed TOML data and evaluates
// expressions in strings
func expandExpressions(data any, env Env) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			expanded, err := expandExpressions(val, env)
			if err != nil {
				return nil, err
			}
			v[key] = expanded
		}
		return v, nil
	case []any:
		for i, item := range v {
			expanded, err := expandExpressions(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = expanded
		}
		return v, nil
	case string:
		return evaluateString(v, env)
	default:
		return data, nil
	}
}

func mustMarshal(v any) string {
	b, err := toml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// unmarshalSection is a helper to re-parse one section of the raw config
func unmarshalSection(rawCfg map[string]any, name string, dst any) error {
	if data, ok := rawCfg[name]; ok {
		if err := toml.Unmarshal([]byte(mustMarshal(data)), dst); err != nil {
			return fmt.Errorf("failed to parse [%s] section: %w", name, err)
		}
	}
	return nil
}

// Parse decodes a pxmkit.toml, evaluates embedded expressions and applies
// defaults. A missing module name is a configuration error.
func Parse(rdr io.Reader, env Env) (*Config, error) {
	var rawConfig map[string]any
	dec := toml.NewDecoder(rdr)
	if err := dec.Decode(&rawConfig); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}

	expanded, err := expandExpressions(rawConfig, env)
	if err != nil {
		return nil, fmt.Errorf("error processing expressions in config: %w", err)
	}
	rawConfig = expanded.(map[string]any)

	cfg := new(Config)
	if err := unmarshalSection(rawConfig, "module", &cfg.Module); err != nil {
		return nil, err
	}
	if err := unmarshalSection(rawConfig, "sources", &cfg.Sources); err != nil {
		return nil, err
	}
	if err := unmarshalSection(rawConfig, "release", &cfg.Release); err != nil {
		return nil, err
	}

	if cfg.Module.Name == "" {
		return nil, ErrMissingName
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Module.Title == "" {
		c.Module.Title = c.Module.Name
	}
	if c.Module.Description == "" {
		c.Module.Description = c.Module.Title
	}
	if c.Module.Copyright == "" {
		c.Module.Copyright = fmt.Sprintf("Copyright (c) %d %s developers, All Rights Reserved.",
			time.Now().Year(), c.Module.Title)
	}
	if len(c.Sources.Compile) == 0 {
		c.Sources.Compile = []string{"**/*.cpp"}
	}
	if len(c.Sources.Headers) == 0 {
		c.Sources.Headers = []string{"**/*.h"}
	}
	if len(c.Sources.Resources) == 0 {
		c.Sources.Resources = []string{"**/*.svg"}
	}
	if c.Release.MinVersion == "" {
		c.Release.MinVersion = "1.8.9"
	}
	if c.Release.MaxVersion == "" {
		c.Release.MaxVersion = "1.9.99"
	}
}

// Load parses a config file from a filepath.
func Load(path string, env Env) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(bufio.NewReader(f), env)
}
