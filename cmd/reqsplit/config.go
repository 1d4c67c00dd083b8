// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/reqsplit/reqsplit/internal/config"
	"github.com/reqsplit/reqsplit/pkg/types"

	"github.com/spf13/cobra"
)

const usingDefaults = "(using defaults)"

// newConfigCommand creates the `reqsplit config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect reqsplit configuration",
		Long: `Inspect reqsplit configuration.

Configuration is read from the [tool.` + config.ToolTable + `] table of
` + config.PyprojectFileName + ` in the project root, or from the file given with --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), app, flags)
			if err != nil {
				return err
			}
			showConfig(app.stdout, cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), app, flags)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, configSource(cfg))
			return nil
		},
	})

	return cfgCmd
}

func loadConfig(ctx context.Context, app *App, flags *rootFlags) (*config.Config, error) {
	cfg, err := app.Config.Load(ctx, flags.loadOptions())
	if err != nil {
		return nil, failure(types.ExitFailure, err, flags.verbose)
	}
	return cfg, nil
}

func configSource(cfg *config.Config) string {
	if cfg.ResolvedPath == "" {
		return usingDefaults
	}
	return cfg.ResolvedPath.String()
}

func showConfig(w io.Writer, cfg *config.Config) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	source := configSource(cfg)
	if cfg.ResolvedPath == "" {
		source = SubtitleStyle.Render(source)
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), source)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Project root"), cfg.ProjectRoot)
	fmt.Fprintln(w)

	printList(w, "requirements_files", cfg.RequirementsFiles)
	printList(w, "group_specs", cfg.GroupSpecs)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("prefix"), valueStyle.Render(cfg.Prefix))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("default_group"), valueStyle.Render(fmt.Sprint(cfg.DefaultGroup)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("remove_empty"), valueStyle.Render(fmt.Sprint(cfg.RemoveEmpty)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("no_header"), valueStyle.Render(fmt.Sprint(cfg.NoHeader)))

	fmt.Fprintf(w, "%s:\n", keyStyle.Render("header"))
	if cfg.Header == "" {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(empty)"))
	}
	for line := range strings.Lines(cfg.Header) {
		fmt.Fprintf(w, "  %s\n", valueStyle.Render(strings.TrimSuffix(line, "\n")))
	}
}

func printList(w io.Writer, key string, values []string) {
	fmt.Fprintf(w, "%s:\n", CmdStyle.Render(key))
	if len(values) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none configured)"))
		return
	}
	for _, v := range values {
		fmt.Fprintf(w, "  - %s\n", SuccessStyle.Render(v))
	}
}
