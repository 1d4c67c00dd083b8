// SPDX-License-Identifier: MPL-2.0

package splitter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reqsplit/reqsplit/pkg/reqfile"
	"github.com/reqsplit/reqsplit/pkg/types"
)

var (
	// ErrSplit is the base sentinel for every splitter failure other than
	// parse errors, which surface as *reqfile.ParseError.
	ErrSplit = errors.New("split requirements failed")

	// ErrUnmatchedLine is returned when a requirement matches no group.
	ErrUnmatchedLine = fmt.Errorf("%w: requirement matches no group", ErrSplit)

	// ErrInvalidGroupSpec is returned for malformed, duplicate or uncompilable group specs.
	ErrInvalidGroupSpec = fmt.Errorf("%w: invalid group spec", ErrSplit)

	// ErrOutputDir is returned when the output directory is missing or not a directory.
	ErrOutputDir = fmt.Errorf("%w: invalid output directory", ErrSplit)
)

type (
	// SplitError is the generic splitter failure. Op names the step that
	// failed; Path and Line are set when they are known.
	SplitError struct {
		Op   string
		Path types.FilesystemPath
		Line reqfile.Line
		Err  error
	}

	// UnmatchedLineError reports a requirement line no group pattern matched.
	UnmatchedLineError struct {
		Line reqfile.RequirementLine
	}

	// InvalidGroupSpecError reports a group spec that cannot be used.
	InvalidGroupSpecError struct {
		Value  string
		Reason string
		Err    error
	}
)

// Error implements the error interface.
func (e *SplitError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	switch {
	case e.Line != nil:
		sb.WriteString(" ")
		sb.WriteString(e.Line.Origin().Location())
	case e.Path != "":
		sb.WriteString(" ")
		sb.WriteString(string(e.Path))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes ErrSplit and the underlying cause.
func (e *SplitError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSplit}
	}
	return []error{ErrSplit, e.Err}
}

// Error implements the error interface.
func (e *UnmatchedLineError) Error() string {
	return fmt.Sprintf("%s: requirement %q matches no group", e.Line.Origin().Location(), e.Line.Raw)
}

// Unwrap returns ErrUnmatchedLine for errors.Is() compatibility.
func (e *UnmatchedLineError) Unwrap() error { return ErrUnmatchedLine }

// Error implements the error interface.
func (e *InvalidGroupSpecError) Error() string {
	msg := "invalid group spec"
	if e.Value != "" {
		msg += " " + fmt.Sprintf("%q", e.Value)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes ErrInvalidGroupSpec and the underlying cause.
func (e *InvalidGroupSpecError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidGroupSpec}
	}
	return []error{ErrInvalidGroupSpec, e.Err}
}
