// SPDX-License-Identifier: MPL-2.0

// Package fspath provides typed wrappers around path/filepath functions that
// accept and return types.FilesystemPath, so include resolution and output
// path construction stay typed end to end.
package fspath

import (
	"fmt"
	"path/filepath"

	"github.com/reqsplit/reqsplit/pkg/types"
)

// JoinStr wraps filepath.Join, accepting a typed base path and raw string
// segments such as an include target or an output file name.
func JoinStr(base types.FilesystemPath, elem ...string) types.FilesystemPath {
	parts := make([]string, 1, 1+len(elem))
	parts[0] = string(base)
	parts = append(parts, elem...)
	return types.FilesystemPath(filepath.Join(parts...))
}

// Dir wraps filepath.Dir for FilesystemPath.
func Dir(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Dir(string(p)))
}

// Base wraps filepath.Base for FilesystemPath. The result is a bare file name.
func Base(p types.FilesystemPath) string {
	return filepath.Base(string(p))
}

// Abs wraps filepath.Abs for FilesystemPath. Returns an error if the
// underlying OS call fails.
func Abs(p types.FilesystemPath) (types.FilesystemPath, error) {
	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return types.FilesystemPath(abs), nil
}

// Clean wraps filepath.Clean for FilesystemPath.
func Clean(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Clean(string(p)))
}

// IsAbs wraps filepath.IsAbs for FilesystemPath.
func IsAbs(p types.FilesystemPath) bool {
	return filepath.IsAbs(string(p))
}

// Resolve returns target unchanged when it is absolute, otherwise joined onto base.
func Resolve(base, target types.FilesystemPath) types.FilesystemPath {
	if IsAbs(target) {
		return Clean(target)
	}
	return JoinStr(base, string(target))
}
