// SPDX-License-Identifier: MPL-2.0

// Package splitter partitions pip requirements files into group files.
//
// Every requirement line read from the inputs is assigned to the first
// GroupSpec whose pattern matches it, and each group is emitted as
// {prefix}-{name}.txt carrying the shared option lines followed by that
// group's requirements. Splitting happens in two phases: NewPlan parses and
// classifies everything without touching the filesystem, and Plan.Apply
// writes the result. A line that no group claims fails the plan, so no output
// file is ever left half-updated.
package splitter
