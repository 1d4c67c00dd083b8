// SPDX-License-Identifier: MPL-2.0

package reqfile

import (
	"errors"
	"fmt"

	"github.com/reqsplit/reqsplit/pkg/types"
)

var (
	// ErrUnhandledLine is returned by Visit when the Visitor has no handler for
	// the variant it was given.
	ErrUnhandledLine = errors.New("unhandled requirements line")

	_ Line = OptionLine{}
	_ Line = RequirementLine{}
	_ Line = NestedRequirementsLine{}
	_ Line = CommentOrBlank{}
)

type (
	// Line is one logical line of a requirements file. The set of
	// implementations is closed: OptionLine, RequirementLine,
	// NestedRequirementsLine and CommentOrBlank. Use Visit to dispatch.
	Line interface {
		// Text returns the logical line exactly as written, trimmed and with
		// continuations joined.
		Text() string
		// Origin returns where the logical line started.
		Origin() Position

		isLine()
	}

	// Position locates a logical line in its source file.
	Position struct {
		// Source is the file the line was read from (include targets are
		// resolved relative to the including file).
		Source types.FilesystemPath
		// LineNumber is the 1-based physical line on which the logical line starts.
		LineNumber int
	}

	// OptionLine is a global option directive such as --index-url. It applies
	// to the whole requirements set and is copied into every group file.
	OptionLine struct {
		Position
		Raw string
	}

	// RequirementLine names a single dependency and is subject to grouping.
	RequirementLine struct {
		Position
		Raw string
	}

	// NestedRequirementsLine is a -r/--requirement directive. It only surfaces
	// when recursion is disabled; otherwise the target's lines replace it.
	NestedRequirementsLine struct {
		Position
		Raw string
		// Target is the include path resolved against the including file's directory.
		Target types.FilesystemPath
	}

	// CommentOrBlank is a comment or empty line. It only surfaces with WithComments(true).
	CommentOrBlank struct {
		Position
		Raw string
	}

	// Visitor holds one handler per Line variant. Visit fails with
	// ErrUnhandledLine when the handler for the visited variant is nil.
	Visitor struct {
		Option      func(OptionLine) error
		Requirement func(RequirementLine) error
		Nested      func(NestedRequirementsLine) error
		Comment     func(CommentOrBlank) error
	}
)

// Origin returns p itself; it is promoted to every Line variant.
func (p Position) Origin() Position { return p }

// Location renders the position as "file:line".
func (p Position) Location() string {
	return fmt.Sprintf("%s:%d", p.Source, p.LineNumber)
}

// Text returns the raw option directive.
func (l OptionLine) Text() string { return l.Raw }

// Text returns the raw requirement specifier.
func (l RequirementLine) Text() string { return l.Raw }

// Text returns the raw include directive.
func (l NestedRequirementsLine) Text() string { return l.Raw }

// Text returns the raw comment (empty for blank lines).
func (l CommentOrBlank) Text() string { return l.Raw }

func (OptionLine) isLine()             {}
func (RequirementLine) isLine()        {}
func (NestedRequirementsLine) isLine() {}
func (CommentOrBlank) isLine()         {}

// Visit dispatches line to the matching Visitor handler.
func Visit(line Line, v Visitor) error {
	switch l := line.(type) {
	case OptionLine:
		if v.Option == nil {
			return unhandled(l)
		}
		return v.Option(l)
	case RequirementLine:
		if v.Requirement == nil {
			return unhandled(l)
		}
		return v.Requirement(l)
	case NestedRequirementsLine:
		if v.Nested == nil {
			return unhandled(l)
		}
		return v.Nested(l)
	case CommentOrBlank:
		if v.Comment == nil {
			return unhandled(l)
		}
		return v.Comment(l)
	default:
		return fmt.Errorf("%w: unknown line type %T", ErrUnhandledLine, line)
	}
}

func unhandled(l Line) error {
	return fmt.Errorf("%w: %T at %s: %s", ErrUnhandledLine, l, l.Origin().Location(), l.Text())
}
