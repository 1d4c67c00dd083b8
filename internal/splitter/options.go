// SPDX-License-Identifier: MPL-2.0

package splitter

import (
	"errors"
	"fmt"

	"github.com/reqsplit/reqsplit/pkg/types"
)

const (
	// DefaultHeader is the header template the CLI writes unless told otherwise.
	DefaultHeader = "# Generated by pip-split-requirements\n# from {filenames}.\n# Do not edit.\n"

	// FilenamesPlaceholder is replaced in the header by the ", "-joined base
	// names of the input files.
	FilenamesPlaceholder = "{filenames}"

	// DefaultPrefix is the output file prefix used when none is configured.
	DefaultPrefix = "requirementsgroup"
)

// Options describes one split invocation.
type Options struct {
	// InputFiles are the requirements files to read, in order.
	InputFiles []types.FilesystemPath
	// Groups are tried in order; the first matching group claims a line.
	Groups []GroupSpec
	// Prefix starts every output file name: {Prefix}-{group}.txt. An absolute
	// prefix ignores OutputDir.
	Prefix string
	// OutputDir receives the group files. Empty means the working directory.
	OutputDir types.FilesystemPath
	// Header, when non-nil, is written at the top of every group file after
	// FilenamesPlaceholder substitution.
	Header *string
	// RemoveEmpty deletes the file of a group with no requirements instead of
	// writing one that only holds options.
	RemoveEmpty bool
}

// HeaderTemplate returns a pointer to template, for use as Options.Header.
func HeaderTemplate(template string) *string {
	return &template
}

// Validate returns nil if the options describe a runnable split, or the
// first problem found. It does not touch the filesystem.
func (o Options) Validate() error {
	if len(o.InputFiles) == 0 {
		return &SplitError{Op: "validate options", Err: errors.New("no input files given")}
	}
	for _, input := range o.InputFiles {
		if err := input.Validate(); err != nil {
			return &SplitError{Op: "validate options", Err: fmt.Errorf("input file: %w", err)}
		}
	}
	if o.Prefix == "" {
		return &SplitError{Op: "validate options", Err: errors.New("output prefix must not be empty")}
	}
	if o.OutputDir != "" {
		if err := o.OutputDir.Validate(); err != nil {
			return &SplitError{Op: "validate options", Err: fmt.Errorf("output directory: %w", err)}
		}
	}
	_, err := compileGroups(o.Groups)
	return err
}
