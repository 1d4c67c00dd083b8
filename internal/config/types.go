// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reqsplit/reqsplit/internal/splitter"
	"github.com/reqsplit/reqsplit/pkg/fspath"
	"github.com/reqsplit/reqsplit/pkg/types"
)

// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// Config holds the project configuration.
	Config struct {
		// RequirementsFiles are the inputs, relative to ProjectRoot.
		RequirementsFiles []string `json:"requirements_files" mapstructure:"requirements_files"`
		// GroupSpecs are "name:pattern" strings, tried in order.
		GroupSpecs []string `json:"group_specs" mapstructure:"group_specs"`
		// Prefix starts every output file name, relative to ProjectRoot.
		Prefix string `json:"prefix" mapstructure:"prefix"`
		// DefaultGroup appends the catch-all "other:.*" group (default: true).
		DefaultGroup bool `json:"default_group" mapstructure:"default_group"`
		// RemoveEmpty deletes group files that would hold no requirements.
		RemoveEmpty bool `json:"remove_empty" mapstructure:"remove_empty"`
		// Header is the header template written at the top of each group file.
		Header string `json:"header" mapstructure:"header"`
		// NoHeader disables the header.
		NoHeader bool `json:"no_header" mapstructure:"no_header"`

		// ProjectRoot anchors relative paths. Set by the loader.
		ProjectRoot types.FilesystemPath `json:"-" mapstructure:"-"`
		// ResolvedPath is the file the settings came from, empty for defaults.
		ResolvedPath types.FilesystemPath `json:"-" mapstructure:"-"`
	}

	// InvalidConfigError collects every problem found by Config.Validate.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		RequirementsFiles: []string{},
		GroupSpecs:        []string{},
		Prefix:            splitter.DefaultPrefix,
		DefaultGroup:      true,
		RemoveEmpty:       false,
		Header:            splitter.DefaultHeader,
		NoHeader:          false,
		ProjectRoot:       ".",
	}
}

// Validate checks what the schema cannot: that every group spec parses and
// that group names are unique once the catch-all is appended.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Prefix) == "" {
		errs = append(errs, errors.New("prefix: must not be empty"))
	}
	if _, err := c.Groups(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Groups parses GroupSpecs and appends the catch-all group when DefaultGroup
// is set.
func (c Config) Groups() ([]splitter.GroupSpec, error) {
	groups := make([]splitter.GroupSpec, 0, len(c.GroupSpecs)+1)
	seen := make(map[splitter.GroupName]bool, len(c.GroupSpecs)+1)
	for i, s := range c.GroupSpecs {
		g, err := splitter.ParseGroupSpec(s)
		if err != nil {
			return nil, fmt.Errorf("group_specs[%d]: %w", i, err)
		}
		groups = append(groups, g)
	}
	if c.DefaultGroup {
		groups = append(groups, splitter.DefaultGroup())
	}
	for _, g := range groups {
		if seen[g.Name] {
			return nil, fmt.Errorf("group_specs: %w", &splitter.InvalidGroupSpecError{
				Value:  g.String(),
				Reason: fmt.Sprintf("duplicate group name %q", g.Name),
			})
		}
		seen[g.Name] = true
	}
	return groups, nil
}

// InputFiles resolves RequirementsFiles against ProjectRoot.
func (c Config) InputFiles() []types.FilesystemPath {
	files := make([]types.FilesystemPath, len(c.RequirementsFiles))
	for i, f := range c.RequirementsFiles {
		files[i] = fspath.Resolve(c.root(), types.FilesystemPath(f))
	}
	return files
}

// HeaderTemplate returns the header to write, or nil when headers are disabled.
func (c Config) HeaderTemplate() *string {
	if c.NoHeader {
		return nil
	}
	return splitter.HeaderTemplate(c.Header)
}

// SplitOptions assembles splitter options from the configuration. Output
// files land relative to ProjectRoot.
func (c Config) SplitOptions() (splitter.Options, error) {
	groups, err := c.Groups()
	if err != nil {
		return splitter.Options{}, err
	}
	return splitter.Options{
		InputFiles:  c.InputFiles(),
		Groups:      groups,
		Prefix:      c.Prefix,
		OutputDir:   c.root(),
		Header:      c.HeaderTemplate(),
		RemoveEmpty: c.RemoveEmpty,
	}, nil
}

func (c Config) root() types.FilesystemPath {
	if c.ProjectRoot == "" {
		return "."
	}
	return c.ProjectRoot
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid config: %d field errors", len(e.FieldErrors))
}

// Unwrap exposes ErrInvalidConfig and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
