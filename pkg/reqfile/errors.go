// SPDX-License-Identifier: MPL-2.0

package reqfile

import (
	"errors"
	"strconv"
	"strings"

	"github.com/reqsplit/reqsplit/pkg/types"
)

// ErrParse is the sentinel error wrapped by every ParseError.
var ErrParse = errors.New("requirements parse error")

// ParseError reports a requirements file that could not be read or contains a
// malformed include directive. It aborts the whole parse.
type ParseError struct {
	// Path is the file being read, or the file holding the bad directive.
	Path types.FilesystemPath
	// LineNumber is the 1-based line of the offending directive, or 0 when the
	// failure concerns the file as a whole.
	LineNumber int
	// Reason is a short human-readable description.
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Path))
	if e.LineNumber > 0 {
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(e.LineNumber))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes both ErrParse and the underlying cause to errors.Is/As.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}
