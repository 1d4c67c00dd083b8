// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/reqsplit/reqsplit/internal/splitter"
	"github.com/reqsplit/reqsplit/pkg/types"
)

func TestConfig_Groups(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       Config
		wantNames []string
		wantErr   bool
	}{
		{
			name:      "defaults give the catch-all only",
			cfg:       *DefaultConfig(),
			wantNames: []string{"other"},
		},
		{
			name:      "specs keep their order before the catch-all",
			cfg:       Config{GroupSpecs: []string{"test:^pytest", "web:^(django|flask)"}, DefaultGroup: true},
			wantNames: []string{"test", "web", "other"},
		},
		{
			name:      "no catch-all",
			cfg:       Config{GroupSpecs: []string{"a:^a"}},
			wantNames: []string{"a"},
		},
		{
			name:    "duplicate names",
			cfg:     Config{GroupSpecs: []string{"a:^a", "a:^b"}},
			wantErr: true,
		},
		{
			name:    "invalid pattern",
			cfg:     Config{GroupSpecs: []string{"a:[z-a]"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			groups, err := tt.cfg.Groups()
			if tt.wantErr {
				if !errors.Is(err, splitter.ErrInvalidGroupSpec) {
					t.Errorf("Groups() error = %v, want ErrInvalidGroupSpec", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Groups() error = %v", err)
			}
			names := make([]string, len(groups))
			for i, g := range groups {
				names[i] = g.Name.String()
			}
			if !slices.Equal(names, tt.wantNames) {
				t.Errorf("group names = %v, want %v", names, tt.wantNames)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := Config{Prefix: "  ", GroupSpecs: []string{"x:^x", "x:^y"}}
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
	}
	var invalid *InvalidConfigError
	if !errors.As(err, &invalid) {
		t.Fatalf("error should be *InvalidConfigError, got %T", err)
	}
	if len(invalid.FieldErrors) != 2 {
		t.Errorf("len(FieldErrors) = %d, want 2", len(invalid.FieldErrors))
	}
	if !strings.Contains(err.Error(), "2 field errors") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestConfig_InputFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	abs := filepath.Join(root, "elsewhere", "reqs.txt")
	cfg := Config{
		RequirementsFiles: []string{"requirements.txt", "sub/dev.txt", abs},
		ProjectRoot:       types.FilesystemPath(root),
	}

	want := []types.FilesystemPath{
		types.FilesystemPath(filepath.Join(root, "requirements.txt")),
		types.FilesystemPath(filepath.Join(root, "sub", "dev.txt")),
		types.FilesystemPath(abs),
	}
	if got := cfg.InputFiles(); !slices.Equal(got, want) {
		t.Errorf("InputFiles() = %v, want %v", got, want)
	}
}

func TestConfig_HeaderTemplate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	header := cfg.HeaderTemplate()
	if header == nil || *header != cfg.Header {
		t.Errorf("HeaderTemplate() = %v, want %q", header, cfg.Header)
	}

	cfg.NoHeader = true
	if got := cfg.HeaderTemplate(); got != nil {
		t.Errorf("HeaderTemplate() with NoHeader = %q, want nil", *got)
	}
}

func TestConfig_SplitOptions(t *testing.T) {
	t.Parallel()

	root := types.FilesystemPath(t.TempDir())
	cfg := DefaultConfig()
	cfg.ProjectRoot = root
	cfg.RequirementsFiles = []string{"requirements.txt"}
	cfg.GroupSpecs = []string{"test:^pytest"}
	cfg.Prefix = "reqs"
	cfg.RemoveEmpty = true

	opts, err := cfg.SplitOptions()
	if err != nil {
		t.Fatalf("SplitOptions() error = %v", err)
	}
	if opts.OutputDir != root {
		t.Errorf("OutputDir = %q, want %q", opts.OutputDir, root)
	}
	if opts.Prefix != "reqs" || !opts.RemoveEmpty {
		t.Errorf("SplitOptions() = %+v", opts)
	}
	if len(opts.Groups) != 2 {
		t.Errorf("len(Groups) = %d, want 2", len(opts.Groups))
	}
	if opts.Header == nil {
		t.Error("Header should be set")
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("Options.Validate() = %v", err)
	}

	cfg.GroupSpecs = []string{"broken"}
	if _, err := cfg.SplitOptions(); err == nil {
		t.Error("SplitOptions() should fail for a malformed group spec")
	}
}
