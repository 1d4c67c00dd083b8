// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/reqsplit/reqsplit/internal/config"
	"github.com/reqsplit/reqsplit/internal/issue"
	"github.com/reqsplit/reqsplit/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the values bound to the root command's flags.
type rootFlags struct {
	groupSpecs   []string
	prefix       string
	defaultGroup bool
	removeEmpty  bool
	header       string
	noHeader     bool
	projectRoot  string
	configFile   string
	dryRun       bool
	watch        bool
	verbose      bool
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "reqsplit [REQUIREMENTS_FILE...]",
		Short: "Split pip requirements files into groups",
		Long: TitleStyle.Render("reqsplit") + SubtitleStyle.Render(" - Split pip requirements files into groups") + `

Every requirement of the input files is assigned to the first group whose
regular expression matches it. Each group is written to {prefix}-{group}.txt
together with all option lines (index URLs, constraints, ...) of the inputs.
Included files (-r) are expanded in place.

Settings are read from the [tool.pip-split-requirements] table of
pyproject.toml in the project root. Flags override them.

` + SubtitleStyle.Render("Examples:") + `
  reqsplit requirements.txt -g test:^pytest -g web:^(django|flask)
  reqsplit --dry-run
  reqsplit --watch
  reqsplit config show`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.installLogger(flags.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, app, flags, args)
		},
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: types.ExitUsage, Err: err}
	})

	f := rootCmd.Flags()
	f.StringArrayVarP(&flags.groupSpecs, "group-spec", "g", nil, "group spec name:pattern, tried in order (repeatable)")
	f.StringVarP(&flags.prefix, "prefix", "p", config.DefaultConfig().Prefix, "output file name prefix")
	f.BoolVar(&flags.defaultGroup, "default-group", true, `append the catch-all "other:.*" group`)
	f.BoolVar(&flags.removeEmpty, "remove-empty", false, "delete group files that would hold no requirements")
	f.StringVar(&flags.header, "header", config.DefaultConfig().Header, "header template; {filenames} becomes the input file names")
	f.BoolVar(&flags.noHeader, "no-header", false, "write group files without a header")
	f.BoolVar(&flags.dryRun, "dry-run", false, "print the planned group files without writing anything")
	f.BoolVarP(&flags.watch, "watch", "w", false, "split again whenever an input, included file or the config changes")

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&flags.projectRoot, "project-root", "", "directory holding pyproject.toml (default is the working directory)")
	pf.StringVar(&flags.configFile, "config", "", "config file (.toml with a [tool.pip-split-requirements] table, or .cue)")

	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command and exits with its status. It is called by
// main.main.
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(fangErrorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(types.ExitFailure))
	}
}

// loadOptions converts the path flags into config.LoadOptions.
func (f *rootFlags) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		ProjectRoot:    types.FilesystemPath(f.projectRoot),
		ConfigFilePath: types.FilesystemPath(f.configFile),
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// failure wraps err for rendering and a non-zero exit.
func failure(code types.ExitCode, err error, verbose bool) error {
	issueID, styled := classifyError(err, verbose)
	return &ExitError{Code: code, Err: newServiceError(err, issueID, styled)}
}
