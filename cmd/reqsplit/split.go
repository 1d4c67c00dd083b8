// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/reqsplit/reqsplit/internal/config"
	"github.com/reqsplit/reqsplit/internal/issue"
	"github.com/reqsplit/reqsplit/internal/splitter"
	"github.com/reqsplit/reqsplit/internal/watch"
	"github.com/reqsplit/reqsplit/pkg/types"

	"github.com/spf13/cobra"
)

var errNoInputFiles = errors.New("no requirements files given")

func runSplit(cmd *cobra.Command, app *App, flags *rootFlags, args []string) error {
	ctx := cmd.Context()

	plan, cfg, err := splitOnce(ctx, cmd, app, flags, args)
	if !flags.watch {
		return err
	}
	if err != nil {
		var exitErr *ExitError
		if cfg == nil || errors.As(err, &exitErr) && exitErr.Code == types.ExitUsage {
			return err
		}
		renderError(app.stderr, err)
	}

	w, err := watch.New(watch.Config{
		Files:    watchedFiles(args, plan, cfg),
		Stderr:   app.stderr,
		OnChange: func(ctx context.Context, changed []types.FilesystemPath) ([]types.FilesystemPath, error) {
			slog.Info("change detected, splitting again", "files", changed)
			plan, cfg, err := splitOnce(ctx, cmd, app, flags, args)
			if err != nil {
				renderError(app.stderr, err)
				if cfg == nil {
					return nil, nil
				}
			}
			return watchedFiles(args, plan, cfg), nil
		},
	})
	if err != nil {
		return failure(types.ExitFailure, issue.WrapWithOperation(err, "watch requirements files"), flags.verbose)
	}

	fmt.Fprintf(app.stdout, "%s %s, press Ctrl+C to stop\n",
		SubtitleStyle.Render("watching"), pluralize(len(w.Files()), "file"))
	if err := w.Run(ctx); err != nil {
		return failure(types.ExitFailure, issue.WrapWithOperation(err, "watch requirements files"), flags.verbose)
	}
	return nil
}

// splitOnce loads the configuration, plans the split and applies it, or
// prints it for --dry-run. Errors are already wrapped by failure. plan is nil
// when planning failed and cfg is nil when the configuration did not load.
func splitOnce(ctx context.Context, cmd *cobra.Command, app *App, flags *rootFlags, args []string) (*splitter.Plan, *config.Config, error) {
	cfg, err := app.Config.Load(ctx, flags.loadOptions())
	if err != nil {
		return nil, nil, failure(types.ExitFailure, err, flags.verbose)
	}
	flags.applyTo(cmd, cfg)

	opts, err := cfg.SplitOptions()
	if err != nil {
		return nil, cfg, failure(types.ExitFailure, err, flags.verbose)
	}
	if len(args) > 0 {
		opts.InputFiles = inputPaths(args)
	}
	if len(opts.InputFiles) == 0 {
		return nil, cfg, failure(types.ExitUsage, fmt.Errorf("%w: pass them as arguments or set requirements_files in [tool.%s]",
			errNoInputFiles, config.ToolTable), flags.verbose)
	}

	plan, err := splitter.NewPlan(ctx, opts)
	if err != nil {
		return nil, cfg, failure(types.ExitFailure, err, flags.verbose)
	}
	if flags.dryRun {
		return plan, cfg, printPlan(app.stdout, plan)
	}

	result, err := plan.Apply(ctx)
	if err != nil {
		return plan, cfg, failure(types.ExitFailure, err, flags.verbose)
	}
	printResult(app.stdout, result)
	return plan, cfg, nil
}

// watchedFiles returns the files whose change should trigger another split:
// every source of the last plan, the inputs themselves (so a missing include
// can be fixed) and the configuration file.
func watchedFiles(args []string, plan *splitter.Plan, cfg *config.Config) []types.FilesystemPath {
	var files []types.FilesystemPath
	if plan != nil {
		files = append(files, plan.Sources...)
	}
	files = append(files, inputPaths(args)...)
	if cfg != nil {
		if cfg.ResolvedPath != "" {
			files = append(files, cfg.ResolvedPath)
		}
		if len(args) == 0 {
			files = append(files, cfg.InputFiles()...)
		}
	}
	return files
}

func inputPaths(args []string) []types.FilesystemPath {
	paths := make([]types.FilesystemPath, len(args))
	for i, arg := range args {
		paths[i] = types.FilesystemPath(arg)
	}
	return paths
}

// applyTo overrides cfg with every flag set on the command line.
func (f *rootFlags) applyTo(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("group-spec") {
		cfg.GroupSpecs = f.groupSpecs
	}
	if changed("prefix") {
		cfg.Prefix = f.prefix
	}
	if changed("default-group") {
		cfg.DefaultGroup = f.defaultGroup
	}
	if changed("remove-empty") {
		cfg.RemoveEmpty = f.removeEmpty
	}
	if changed("header") {
		cfg.Header = f.header
		cfg.NoHeader = false
	}
	if changed("no-header") {
		cfg.NoHeader = f.noHeader
	}
}

func printPlan(w io.Writer, plan *splitter.Plan) error {
	fmt.Fprintln(w, WarningStyle.Render("Dry run: no files will be changed."))
	for _, g := range plan.Groups {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s (%s, %s)\n",
			TitleStyle.Render(g.Spec.Name.String()),
			CmdStyle.Render(g.Path.String()),
			g.Action,
			pluralize(len(g.Requirements), "requirement"))
		if g.Action == splitter.ActionRemove {
			continue
		}

		var buf bytes.Buffer
		if err := plan.Render(&buf, g.Spec.Name); err != nil {
			return err
		}
		for line := range strings.Lines(buf.String()) {
			fmt.Fprint(w, "  "+VerboseStyle.Render(strings.TrimSuffix(line, "\n"))+"\n")
		}
	}
	return nil
}

func printResult(w io.Writer, result *splitter.Result) {
	for _, g := range result.Groups {
		switch g.Outcome {
		case splitter.OutcomeWritten:
			fmt.Fprintf(w, "%s %s (%s)\n", SuccessStyle.Render("wrote"), CmdStyle.Render(g.Path.String()),
				pluralize(g.Requirements, "requirement"))
		case splitter.OutcomeRemoved:
			fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("removed"), CmdStyle.Render(g.Path.String()))
		case splitter.OutcomeAbsent:
			fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render("skipped empty group"), g.Name)
		}
	}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
