// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the reqsplit command line.
//
// The root command splits one or more pip requirements files into group
// files. Settings come from, in increasing precedence, built-in defaults,
// the [tool.pip-split-requirements] table of pyproject.toml (or an explicit
// --config file) and command-line flags. The config subcommands show the
// effective configuration and where it was loaded from.
package cmd
