// SPDX-License-Identifier: MPL-2.0

package splitter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/reqsplit/reqsplit/pkg/fspath"
	"github.com/reqsplit/reqsplit/pkg/types"
)

const (
	// OutcomeWritten means the group file was created or replaced.
	OutcomeWritten Outcome = iota
	// OutcomeRemoved means an existing group file was deleted.
	OutcomeRemoved
	// OutcomeAbsent means the group was empty and no file existed to remove.
	OutcomeAbsent
)

const defaultFileMode fs.FileMode = 0o644

type (
	// Outcome is what Apply did with one group file.
	Outcome int

	// GroupResult reports the outcome for one group.
	GroupResult struct {
		Name         GroupName
		Path         types.FilesystemPath
		Outcome      Outcome
		Requirements int
	}

	// Result lists group outcomes in group order.
	Result struct {
		Groups []GroupResult
	}
)

// String returns "written", "removed" or "absent".
func (o Outcome) String() string {
	switch o {
	case OutcomeWritten:
		return "written"
	case OutcomeRemoved:
		return "removed"
	case OutcomeAbsent:
		return "absent"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Split plans and applies a split in one call.
func Split(ctx context.Context, opts Options) (*Result, error) {
	plan, err := NewPlan(ctx, opts)
	if err != nil {
		return nil, err
	}
	return plan.Apply(ctx)
}

// Apply writes or removes every group file in group order. Output
// directories are checked before the first file is touched.
func (p *Plan) Apply(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.checkOutputDirs(); err != nil {
		return nil, err
	}

	result := &Result{Groups: make([]GroupResult, 0, len(p.Groups))}
	for _, g := range p.Groups {
		gr := GroupResult{Name: g.Spec.Name, Path: g.Path, Requirements: len(g.Requirements)}
		switch g.Action {
		case ActionRemove:
			err := os.Remove(string(g.Path))
			switch {
			case err == nil:
				gr.Outcome = OutcomeRemoved
			case errors.Is(err, fs.ErrNotExist):
				gr.Outcome = OutcomeAbsent
			default:
				return result, &SplitError{Op: "remove group file", Path: g.Path, Err: err}
			}
		default:
			if err := writeAtomic(g.Path, p.content(g)); err != nil {
				return result, &SplitError{Op: "write group file", Path: g.Path, Err: err}
			}
			gr.Outcome = OutcomeWritten
		}
		slog.Debug("applied group", "group", g.Spec.Name, "path", g.Path, "outcome", gr.Outcome, "requirements", gr.Requirements)
		result.Groups = append(result.Groups, gr)
	}
	return result, nil
}

func (p *Plan) checkOutputDirs() error {
	checked := make(map[types.FilesystemPath]bool)
	for _, g := range p.Groups {
		dir := fspath.Dir(g.Path)
		if checked[dir] {
			continue
		}
		checked[dir] = true

		info, err := os.Stat(string(dir))
		if err != nil {
			return &SplitError{Op: "check output directory", Path: dir, Err: fmt.Errorf("%w: %w", ErrOutputDir, err)}
		}
		if !info.IsDir() {
			return &SplitError{Op: "check output directory", Path: dir, Err: fmt.Errorf("%w: not a directory", ErrOutputDir)}
		}
	}
	return nil
}

// writeAtomic replaces path with data through a temp file in the same
// directory. An existing file keeps its permissions.
func writeAtomic(path types.FilesystemPath, data []byte) (err error) {
	dir := fspath.Dir(path)
	mode := defaultFileMode
	if info, statErr := os.Stat(string(path)); statErr == nil {
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(string(dir), "."+fspath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpPath, mode); err != nil {
		return err
	}
	if err = os.Rename(tmpPath, string(path)); err != nil {
		return err
	}
	syncDir(dir)
	return nil
}

// syncDir flushes directory metadata where the platform supports it.
func syncDir(dir types.FilesystemPath) {
	f, err := os.Open(string(dir))
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}
