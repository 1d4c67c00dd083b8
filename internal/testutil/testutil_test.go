// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestMustWriteFile_CreatesParents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := MustWriteFile(t, dir, "reqs/dev/requirements.txt", "pkga\n")
	if want := filepath.Join(dir, "reqs", "dev", "requirements.txt"); string(path) != want {
		t.Errorf("MustWriteFile() = %q, want %q", path, want)
	}
	if got := MustReadFile(t, string(path)); got != "pkga\n" {
		t.Errorf("MustReadFile() = %q, want %q", got, "pkga\n")
	}
}

func TestMustListDir_Sorted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "c.txt"} {
		MustWriteFile(t, dir, name, "")
	}
	MustMkdirAll(t, filepath.Join(dir, "sub"), 0o755)

	want := []string{"a.txt", "b.txt", "c.txt", "sub"}
	if got := MustListDir(t, dir); !slices.Equal(got, want) {
		t.Errorf("MustListDir() = %v, want %v", got, want)
	}
}

func TestMustChdir_Restores(t *testing.T) {
	original, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	restore := MustChdir(t, dir)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	resolvedDir, _ := filepath.EvalSymlinks(dir)
	resolvedWd, _ := filepath.EvalSymlinks(wd)
	if resolvedWd != resolvedDir {
		t.Errorf("working directory = %q, want %q", wd, dir)
	}

	restore()
	if wd, _ := os.Getwd(); wd != original {
		t.Errorf("working directory after restore = %q, want %q", wd, original)
	}
}
