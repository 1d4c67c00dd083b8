// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/reqsplit/reqsplit/internal/config"
	"github.com/reqsplit/reqsplit/internal/issue"
	"github.com/reqsplit/reqsplit/internal/testutil"
	"github.com/reqsplit/reqsplit/pkg/types"
)

const pyprojectFixture = `[tool.pip-split-requirements]
prefix = "cfg"
group_specs = ["a:^pkga"]
requirements_files = ["requirements.txt"]
no_header = true
`

type stubProvider struct {
	cfg *config.Config
	err error
}

func (s stubProvider) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	return s.cfg, s.err
}

// executeRoot runs the command tree in-process. Callers must not run in
// parallel: the root command installs the slog default logger.
func executeRoot(t *testing.T, provider ConfigProvider, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	return executeRootContext(t, context.Background(), provider, args...)
}

func executeRootContext(t *testing.T, ctx context.Context, provider ConfigProvider, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out, errOut bytes.Buffer
	rootCmd := NewRootCommand(NewApp(Dependencies{Config: provider, Stdout: &out, Stderr: &errOut}))
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err = rootCmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func requireExitError(t *testing.T, err error, code types.ExitCode, issueID issue.Id) {
	t.Helper()

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v (%T), want *ExitError", err, err)
	}
	if exitErr.Code != code {
		t.Errorf("exit code = %d, want %d", exitErr.Code, code)
	}
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error should carry a *ServiceError, got %v", err)
	}
	if svcErr.IssueID != issueID {
		t.Errorf("IssueID = %d, want %d", svcErr.IssueID, issueID)
	}
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got := getVersionString(); got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got, want := getVersionString(), "dev (built from source)"; got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestRootCommand_SplitsPositionalFiles(t *testing.T) {
	dir := t.TempDir()
	input := testutil.MustWriteFile(t, dir, "requirements.txt", "--index-url https://pypi.org/simple\npkga\npkgb\nother\n")

	stdout, _, err := executeRoot(t, nil, string(input),
		"-g", "ab:^pkg[ab]$",
		"-p", "reqs",
		"--no-header",
		"--project-root", dir)
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}

	if got := testutil.MustReadFile(t, filepath.Join(dir, "reqs-ab.txt")); got != "--index-url https://pypi.org/simple\npkga\npkgb\n" {
		t.Errorf("reqs-ab.txt = %q", got)
	}
	if got := testutil.MustReadFile(t, filepath.Join(dir, "reqs-other.txt")); got != "--index-url https://pypi.org/simple\nother\n" {
		t.Errorf("reqs-other.txt = %q", got)
	}
	if !strings.Contains(stdout, "reqs-ab.txt") || !strings.Contains(stdout, "2 requirements") {
		t.Errorf("stdout = %q, want a line for reqs-ab.txt with 2 requirements", stdout)
	}
}

func TestRootCommand_ConfigPrecedence(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantFiles []string
	}{
		{
			name:      "configuration file",
			wantFiles: []string{"cfg-a.txt", "cfg-other.txt", "pyproject.toml", "requirements.txt"},
		},
		{
			name:      "prefix flag",
			args:      []string{"-p", "cli"},
			wantFiles: []string{"cli-a.txt", "cli-other.txt", "pyproject.toml", "requirements.txt"},
		},
		{
			name:      "group flags replace configured groups",
			args:      []string{"-g", "b:^pkgb", "--default-group=false", "--remove-empty"},
			wantFiles: []string{"cfg-b.txt", "pyproject.toml", "requirements.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			testutil.MustWriteFile(t, dir, "pyproject.toml", pyprojectFixture)
			content := "pkga\nmisc\n"
			if slices.Contains(tt.args, "b:^pkgb") {
				content = "pkgb\n"
			}
			testutil.MustWriteFile(t, dir, "requirements.txt", content)

			args := append([]string{"--project-root", dir}, tt.args...)
			if _, _, err := executeRoot(t, nil, args...); err != nil {
				t.Fatalf("execute error = %v", err)
			}
			if got := testutil.MustListDir(t, dir); !slices.Equal(got, tt.wantFiles) {
				t.Errorf("files = %v, want %v", got, tt.wantFiles)
			}
		})
	}
}

func TestRootCommand_HeaderFlagOverridesNoHeader(t *testing.T) {
	dir := t.TempDir()
	testutil.MustWriteFile(t, dir, "pyproject.toml", pyprojectFixture)
	testutil.MustWriteFile(t, dir, "requirements.txt", "pkga\n")

	if _, _, err := executeRoot(t, nil, "--project-root", dir, "--header", "# from {filenames}"); err != nil {
		t.Fatalf("execute error = %v", err)
	}
	if got := testutil.MustReadFile(t, filepath.Join(dir, "cfg-a.txt")); got != "# from requirements.txt\npkga\n" {
		t.Errorf("cfg-a.txt = %q", got)
	}
}

func TestRootCommand_DryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	input := testutil.MustWriteFile(t, dir, "requirements.txt", "pkga\n")

	stdout, _, err := executeRoot(t, nil, string(input), "--project-root", dir, "--dry-run", "--remove-empty", "-g", "a:^pkga")
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}
	if got := testutil.MustListDir(t, dir); !slices.Equal(got, []string{"requirements.txt"}) {
		t.Errorf("files = %v, dry run must not write", got)
	}
	for _, want := range []string{"Dry run", "requirementsgroup-a.txt", "write", "remove", "  pkga", "Generated by pip-split-requirements"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout should contain %q, got:\n%s", want, stdout)
		}
	}
}

func TestRootCommand_Failures(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		args     func(dir string) []string
		wantCode types.ExitCode
		wantID   issue.Id
	}{
		{
			name:     "no input files",
			args:     func(dir string) []string { return []string{"--project-root", dir} },
			wantCode: types.ExitUsage,
			wantID:   issue.NoInputFilesId,
		},
		{
			name:  "unmatched requirement",
			files: map[string]string{"requirements.txt": "pkga\nstray\n"},
			args: func(dir string) []string {
				return []string{filepath.Join(dir, "requirements.txt"), "--project-root", dir, "-g", "a:^pkga", "--default-group=false"}
			},
			wantCode: types.ExitFailure,
			wantID:   issue.UnmatchedRequirementId,
		},
		{
			name: "missing input file",
			args: func(dir string) []string {
				return []string{filepath.Join(dir, "missing.txt"), "--project-root", dir}
			},
			wantCode: types.ExitFailure,
			wantID:   issue.RequirementsFileNotFoundId,
		},
		{
			name: "include cycle",
			files: map[string]string{
				"a.txt": "-r b.txt\n",
				"b.txt": "-r a.txt\n",
			},
			args:     func(dir string) []string { return []string{filepath.Join(dir, "a.txt"), "--project-root", dir} },
			wantCode: types.ExitFailure,
			wantID:   issue.IncludeCycleId,
		},
		{
			name:  "duplicate group name",
			files: map[string]string{"requirements.txt": "pkga\n"},
			args: func(dir string) []string {
				return []string{filepath.Join(dir, "requirements.txt"), "--project-root", dir, "-g", "other:^x"}
			},
			wantCode: types.ExitFailure,
			wantID:   issue.InvalidGroupSpecId,
		},
		{
			name:     "missing config file",
			args:     func(dir string) []string { return []string{"--config", filepath.Join(dir, "nope.toml")} },
			wantCode: types.ExitFailure,
			wantID:   issue.ConfigLoadFailedId,
		},
		{
			name:  "missing output directory",
			files: map[string]string{"requirements.txt": "pkga\n"},
			args: func(dir string) []string {
				return []string{filepath.Join(dir, "requirements.txt"), "--project-root", filepath.Join(dir, "absent")}
			},
			wantCode: types.ExitFailure,
			wantID:   issue.OutputDirectoryId,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				testutil.MustWriteFile(t, dir, name, content)
			}
			before := testutil.MustListDir(t, dir)

			_, _, err := executeRoot(t, nil, tt.args(dir)...)
			requireExitError(t, err, tt.wantCode, tt.wantID)

			if after := testutil.MustListDir(t, dir); !slices.Equal(after, before) {
				t.Errorf("files changed from %v to %v on failure", before, after)
			}
		})
	}
}

func TestRootCommand_UnknownFlagIsUsageError(t *testing.T) {
	_, _, err := executeRoot(t, nil, "--no-such-flag")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *ExitError", err)
	}
	if exitErr.Code != types.ExitUsage {
		t.Errorf("exit code = %d, want %d", exitErr.Code, types.ExitUsage)
	}
}

func TestRootCommand_ConfigProviderError(t *testing.T) {
	provider := stubProvider{err: issue.WrapWithOperation(errors.New("boom"), "load configuration")}

	_, _, err := executeRoot(t, provider, "requirements.txt")
	requireExitError(t, err, types.ExitFailure, issue.ConfigLoadFailedId)
}

func TestRootCommand_VerboseLogsDebugRecords(t *testing.T) {
	dir := t.TempDir()
	input := testutil.MustWriteFile(t, dir, "requirements.txt", "pkga\n")

	_, stderr, err := executeRoot(t, nil, string(input), "--project-root", dir, "-v")
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}
	if !strings.Contains(stderr, "parsed requirements file") {
		t.Errorf("stderr should carry debug records with --verbose, got %q", stderr)
	}

	_, stderr, err = executeRoot(t, nil, string(input), "--project-root", dir)
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}
	if strings.Contains(stderr, "parsed requirements file") {
		t.Errorf("stderr should not carry debug records by default, got %q", stderr)
	}
}

func TestRootCommand_WatchSplitsAgainOnChange(t *testing.T) {
	dir := t.TempDir()
	input := testutil.MustWriteFile(t, dir, "requirements.txt", "pkga\n")
	output := filepath.Join(dir, "reqs-a.txt")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		stdout string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		stdout, _, err := executeRootContext(t, ctx, nil, string(input),
			"-g", "a:^pkg", "-p", "reqs", "--no-header", "--project-root", dir, "--watch")
		done <- outcome{stdout: stdout, err: err}
	}()

	deadline := time.Now().Add(10 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the initial split")
		}
		if got, err := os.ReadFile(output); err == nil && string(got) == "pkga\n" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	// Keep touching the input: the watcher is registered after the first split.
	for {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the watched input to be split again")
		}
		if got, err := os.ReadFile(output); err == nil && string(got) == "pkga\npkgb\n" {
			break
		}
		if err := os.WriteFile(string(input), []byte("pkga\npkgb\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(400 * time.Millisecond)
	}

	cancel()
	res := <-done
	if res.err != nil {
		t.Fatalf("execute error = %v", res.err)
	}
	if !strings.Contains(res.stdout, "watching 1 file") {
		t.Errorf("stdout should announce the watch, got:\n%s", res.stdout)
	}
	if !strings.Contains(res.stdout, "reqs-a.txt (1 requirement)") || !strings.Contains(res.stdout, "reqs-a.txt (2 requirements)") {
		t.Errorf("stdout should report the initial split and the split after the change, got:\n%s", res.stdout)
	}
}

func TestRootCommand_WatchStopsOnUsageError(t *testing.T) {
	dir := t.TempDir()

	_, _, err := executeRoot(t, nil, "--project-root", dir, "--watch")
	requireExitError(t, err, types.ExitUsage, issue.NoInputFilesId)
}
