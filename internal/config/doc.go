// SPDX-License-Identifier: MPL-2.0

// Package config loads reqsplit project configuration with Viper.
//
// Settings live in the [tool.pip-split-requirements] table of the project's
// pyproject.toml, or in a file named with --config (TOML or CUE). The table is
// validated against an embedded CUE schema (config_schema.cue) before it is
// merged over the defaults, so type errors are reported with the offending
// key path.
package config
