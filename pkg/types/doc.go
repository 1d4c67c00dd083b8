// SPDX-License-Identifier: MPL-2.0

// Package types holds the small typed primitives shared by the parser, the
// splitter and the CLI layer.
package types
