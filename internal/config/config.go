// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/reqsplit/reqsplit/internal/issue"
	"github.com/reqsplit/reqsplit/pkg/cueutil"
	"github.com/reqsplit/reqsplit/pkg/fspath"
	"github.com/reqsplit/reqsplit/pkg/types"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName           = "reqsplit"
	// PyprojectFileName is the project file searched in the project root.
	PyprojectFileName = "pyproject.toml"
	// ToolTable is the key of the settings table under [tool].
	ToolTable         = "pip-split-requirements"

	schemaDefinition = "#Config"
)

// ErrConfigNotFound is returned when an explicit config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

//go:embed config_schema.cue
var configSchema []byte

// loadWithOptions reads configuration without any package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	projectRoot := opts.ProjectRoot
	if projectRoot == "" {
		projectRoot = "."
	}

	var resolvedPath types.FilesystemPath
	switch {
	case opts.ConfigFilePath != "":
		if !fileExists(opts.ConfigFilePath) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(string(opts.ConfigFilePath)).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'reqsplit config show' to see the default configuration").
				Wrap(fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadFileIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, loadError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	default:
		pyproject := fspath.JoinStr(projectRoot, PyprojectFileName)
		if fileExists(pyproject) {
			if err := loadFileIntoViper(v, pyproject); err != nil {
				return nil, loadError(pyproject, err)
			}
			resolvedPath = pyproject
		}
		// No pyproject.toml means defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.ResolvedPath = resolvedPath

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(string(resolvedPath)).
			WithSuggestion("Group specs take the form name:pattern with a unique name").
			WithSuggestion("Patterns use Go regular expression (RE2) syntax").
			Wrap(err).
			BuildError()
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("requirements_files", defaults.RequirementsFiles)
	v.SetDefault("group_specs", defaults.GroupSpecs)
	v.SetDefault("prefix", defaults.Prefix)
	v.SetDefault("default_group", defaults.DefaultGroup)
	v.SetDefault("remove_empty", defaults.RemoveEmpty)
	v.SetDefault("header", defaults.Header)
	v.SetDefault("no_header", defaults.NoHeader)
}

func loadError(path types.FilesystemPath, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(string(path)).
		WithSuggestion("Check that the file contains valid TOML (or CUE for .cue files)").
		WithSuggestion("Verify the [tool."+ToolTable+"] keys match the expected schema").
		WithSuggestion("See 'reqsplit config --help' for configuration options").
		Wrap(err).
		BuildError()
}

// loadFileIntoViper validates a config file against the #Config schema and
// merges it into v. Files ending in .cue hold the settings at top level; any
// other file is read as TOML with the settings under [tool.pip-split-requirements].
func loadFileIntoViper(v *viper.Viper, path types.FilesystemPath) error {
	data, err := os.ReadFile(string(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, string(path)); err != nil {
		return err
	}

	var configMap map[string]any
	if strings.HasSuffix(string(path), ".cue") {
		result, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, schemaDefinition,
			cueutil.WithFilename(string(path)))
		if err != nil {
			return err
		}
		configMap = *result.Value
	} else {
		table, found, err := toolTable(data, path)
		if err != nil {
			return err
		}
		if !found {
			slog.Debug("no tool table in project file, using defaults", "path", path, "table", "tool."+ToolTable)
			return nil
		}
		result, err := cueutil.DecodeValue[map[string]any](configSchema, table, schemaDefinition,
			cueutil.WithFilename(string(path)))
		if err != nil {
			return err
		}
		configMap = *result.Value
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// toolTable extracts [tool.pip-split-requirements] from a pyproject document.
func toolTable(data []byte, path types.FilesystemPath) (map[string]any, bool, error) {
	var doc struct {
		Tool map[string]any `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, false, fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}

	raw, ok := doc.Tool[ToolTable]
	if !ok {
		return nil, false, nil
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return nil, false, fmt.Errorf("%s: tool.%s must be a table, got %T", path, ToolTable, raw)
	}
	return table, true, nil
}

func fileExists(path types.FilesystemPath) bool {
	info, err := os.Stat(string(path))
	return err == nil && !info.IsDir()
}
