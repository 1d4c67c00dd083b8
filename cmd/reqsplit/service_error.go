// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/reqsplit/reqsplit/internal/config"
	"github.com/reqsplit/reqsplit/internal/issue"
	"github.com/reqsplit/reqsplit/internal/splitter"
	"github.com/reqsplit/reqsplit/pkg/reqfile"

	"github.com/charmbracelet/fang"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. When the CLI layer receives a ServiceError, it renders the
// styled error message (if present) before the issue catalog entry.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError maps a failure to its issue catalog ID and returns a styled
// message for CLI rendering. Zero means no catalog entry applies.
func classifyError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	var parseErr *reqfile.ParseError

	switch {
	case errors.Is(err, errNoInputFiles):
		issueID = issue.NoInputFilesId
	case errors.Is(err, fs.ErrPermission):
		issueID = issue.PermissionDeniedId
	case errors.Is(err, config.ErrConfigNotFound):
		issueID = issue.ConfigLoadFailedId
	case errors.As(err, &parseErr) && errors.Is(parseErr, fs.ErrNotExist):
		issueID = issue.RequirementsFileNotFoundId
	case errors.As(err, &parseErr) && strings.HasPrefix(parseErr.Reason, "include cycle"):
		issueID = issue.IncludeCycleId
	case errors.As(err, &parseErr):
		issueID = issue.RequirementsParseErrorId
	case errors.Is(err, splitter.ErrUnmatchedLine):
		issueID = issue.UnmatchedRequirementId
	case errors.Is(err, splitter.ErrInvalidGroupSpec):
		issueID = issue.InvalidGroupSpecId
	case errors.Is(err, splitter.ErrOutputDir):
		issueID = issue.OutputDirectoryId
	case errors.Is(err, config.ErrInvalidConfig):
		issueID = issue.ConfigLoadFailedId
	default:
		var ae *issue.ActionableError
		if errors.As(err, &ae) && strings.HasSuffix(ae.Operation, "configuration") {
			issueID = issue.ConfigLoadFailedId
		}
	}

	return issueID, fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// renderServiceError renders a ServiceError in the CLI layer.
// It prints any styled message first, then the optional issue help section.
func renderServiceError(stderr io.Writer, svcErr *ServiceError) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render("dark")
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// renderError writes any error returned by the command tree to stderr.
func renderError(stderr io.Writer, err error) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		renderServiceError(stderr, svcErr)
		return
	}
	fmt.Fprintf(stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), err)
}

// fangErrorHandler replaces fang's default error box with renderError.
func fangErrorHandler(w io.Writer, _ fang.Styles, err error) {
	renderError(w, err)
}
