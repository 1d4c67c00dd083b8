// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type (
	// ActionableError tells the user what reqsplit was doing, on which file,
	// and what to try next. Build one with NewErrorContext:
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("load configuration").
	//		WithResource("pyproject.toml").
	//		WithSuggestion("Check the [tool.pip-split-requirements] table").
	//		Wrap(originalErr).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "load configuration".
		Operation string
		// Resource is the file involved, if any.
		Resource string
		// Suggestions are shown as a bullet list by Format.
		Suggestions []string
		// Cause is the underlying error, if any.
		Cause error
	}

	// ErrorContext accumulates the fields of an ActionableError.
	ErrorContext struct {
		draft ActionableError
	}
)

// NewErrorContext starts an empty ErrorContext.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WrapWithOperation attaches operation to err. A nil err stays nil.
func WrapWithOperation(err error, operation string) error {
	if err == nil {
		return nil
	}
	return &ActionableError{Operation: operation, Cause: err}
}

// Error renders "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ActionableError) Unwrap() error { return e.Cause }

// Format renders Error followed by the suggestions. verbose appends the
// numbered chain of wrapped causes.
func (e *ActionableError) Format(verbose bool) string {
	out := e.Error()
	if len(e.Suggestions) > 0 {
		out += "\n\n  • " + strings.Join(e.Suggestions, "\n  • ")
	}
	if !verbose || e.Cause == nil {
		return out
	}

	var chain strings.Builder
	chain.WriteString("\n\nError chain:")
	for i, err := 1, e.Cause; err != nil; i, err = i+1, errors.Unwrap(err) {
		fmt.Fprintf(&chain, "\n  %d. %s", i, err)
	}
	return out + chain.String()
}

func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.draft.Operation = op
	return c
}

func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.draft.Resource = res
	return c
}

func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.draft.Suggestions = append(c.draft.Suggestions, sug)
	return c
}

// Wrap sets the cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.draft.Cause = err
	return c
}

// BuildError returns the accumulated *ActionableError, or nil when no
// operation was set.
func (c *ErrorContext) BuildError() error {
	if c.draft.Operation == "" {
		return nil
	}
	ae := c.draft
	ae.Suggestions = slices.Clip(ae.Suggestions)
	return &ae
}
