// SPDX-License-Identifier: MPL-2.0

package splitter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultGroupName is the name of the implicit catch-all group.
	DefaultGroupName GroupName = "other"
	// DefaultGroupPattern matches every requirement line.
	DefaultGroupPattern = ".*"
)

// ErrInvalidGroupName is returned when a GroupName is empty or unusable in a
// file name.
var ErrInvalidGroupName = errors.New("invalid group name")

type (
	// GroupName names one output group. It becomes part of the output file name.
	GroupName string

	// InvalidGroupNameError is returned when a GroupName fails validation.
	InvalidGroupNameError struct {
		Value  GroupName
		Reason string
	}

	// GroupSpec is one output bucket and the RE2 pattern tested against
	// requirement lines. A line belongs to the first spec whose pattern
	// matches anywhere in its raw text.
	GroupSpec struct {
		Name    GroupName `json:"name"`
		Pattern string    `json:"pattern"`
	}

	// compiledGroup pairs a spec with its compiled pattern.
	compiledGroup struct {
		spec GroupSpec
		re   *regexp.Regexp
	}
)

// Error implements the error interface.
func (e *InvalidGroupNameError) Error() string {
	return fmt.Sprintf("invalid group name %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidGroupName for errors.Is() compatibility.
func (e *InvalidGroupNameError) Unwrap() error { return ErrInvalidGroupName }

// Validate returns nil if the name is non-empty and contains no path
// separator, or an error describing the problem.
func (n GroupName) Validate() error {
	switch {
	case strings.TrimSpace(string(n)) == "":
		return &InvalidGroupNameError{Value: n, Reason: "must not be empty"}
	case strings.ContainsAny(string(n), `/\`):
		return &InvalidGroupNameError{Value: n, Reason: "must not contain a path separator"}
	}
	return nil
}

// String returns the string representation of the GroupName.
func (n GroupName) String() string { return string(n) }

// DefaultGroup returns the catch-all group appended by the CLI unless disabled.
func DefaultGroup() GroupSpec {
	return GroupSpec{Name: DefaultGroupName, Pattern: DefaultGroupPattern}
}

// ParseGroupSpec parses "name:pattern", splitting on the first colon so the
// pattern itself may contain colons.
func ParseGroupSpec(s string) (GroupSpec, error) {
	name, pattern, found := strings.Cut(s, ":")
	if !found {
		return GroupSpec{}, &InvalidGroupSpecError{Value: s, Reason: "expected name:pattern"}
	}
	spec := GroupSpec{Name: GroupName(name), Pattern: pattern}
	if _, err := spec.compile(); err != nil {
		return GroupSpec{}, err
	}
	return spec, nil
}

// String renders the spec in its name:pattern form.
func (g GroupSpec) String() string {
	return string(g.Name) + ":" + g.Pattern
}

// Validate checks the name and compiles the pattern.
func (g GroupSpec) Validate() error {
	_, err := g.compile()
	return err
}

func (g GroupSpec) compile() (compiledGroup, error) {
	if err := g.Name.Validate(); err != nil {
		return compiledGroup{}, &InvalidGroupSpecError{Value: g.String(), Reason: "bad group name", Err: err}
	}
	re, err := regexp.Compile(g.Pattern)
	if err != nil {
		return compiledGroup{}, &InvalidGroupSpecError{Value: g.String(), Reason: "bad pattern", Err: err}
	}
	return compiledGroup{spec: g, re: re}, nil
}

// compileGroups compiles specs in order and rejects duplicate names.
func compileGroups(specs []GroupSpec) ([]compiledGroup, error) {
	if len(specs) == 0 {
		return nil, &InvalidGroupSpecError{Reason: "at least one group spec is required"}
	}
	seen := make(map[GroupName]bool, len(specs))
	compiled := make([]compiledGroup, 0, len(specs))
	for _, spec := range specs {
		if seen[spec.Name] {
			return nil, &InvalidGroupSpecError{Value: spec.String(), Reason: fmt.Sprintf("duplicate group name %q", spec.Name)}
		}
		seen[spec.Name] = true
		cg, err := spec.compile()
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cg)
	}
	return compiled, nil
}
