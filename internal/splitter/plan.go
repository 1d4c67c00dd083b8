// SPDX-License-Identifier: MPL-2.0

package splitter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/reqsplit/reqsplit/pkg/fspath"
	"github.com/reqsplit/reqsplit/pkg/reqfile"
	"github.com/reqsplit/reqsplit/pkg/types"
)

const (
	// ActionWrite creates or truncates the group file.
	ActionWrite Action = iota
	// ActionRemove deletes the group file if it exists.
	ActionRemove
)

type (
	// Action is what Apply does with one group's output file.
	Action int

	// GroupPlan is the computed outcome for one group.
	GroupPlan struct {
		Spec         GroupSpec
		Path         types.FilesystemPath
		Requirements []reqfile.RequirementLine
		Action       Action
	}

	// Plan is the fully classified result of a split before any output file
	// is touched. Groups follow the order of Options.Groups.
	Plan struct {
		// Inputs are the top-level input files, in order.
		Inputs []types.FilesystemPath
		// Options are the option lines from every input, in encounter order.
		Options []reqfile.OptionLine
		Groups  []GroupPlan
		// Sources are the inputs plus every included file that contributed a
		// line, each once, in encounter order.
		Sources []types.FilesystemPath

		// header is the substituted header block, or empty for none.
		header string
	}
)

// String returns "write" or "remove".
func (a Action) String() string {
	switch a {
	case ActionWrite:
		return "write"
	case ActionRemove:
		return "remove"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// NewPlan parses and classifies every input file and decides what each group
// file should become. It reads the inputs but never writes.
func NewPlan(ctx context.Context, opts Options) (*Plan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	groups, err := compileGroups(opts.Groups)
	if err != nil {
		return nil, err
	}

	p := &Plan{Inputs: opts.InputFiles}
	matched := make(map[GroupName][]reqfile.RequirementLine, len(groups))

	visitor := reqfile.Visitor{
		Option: func(l reqfile.OptionLine) error {
			p.Options = append(p.Options, l)
			return nil
		},
		Requirement: func(l reqfile.RequirementLine) error {
			name, ok := classify(groups, l.Raw)
			if !ok {
				return &UnmatchedLineError{Line: l}
			}
			matched[name] = append(matched[name], l)
			return nil
		},
		Nested: func(l reqfile.NestedRequirementsLine) error {
			return &SplitError{Op: "classify", Line: l, Err: errors.New("include directive was not expanded")}
		},
		Comment: func(reqfile.CommentOrBlank) error { return nil },
	}

	seen := make(map[types.FilesystemPath]bool)
	addSource := func(path types.FilesystemPath) {
		if !seen[path] {
			seen[path] = true
			p.Sources = append(p.Sources, path)
		}
	}

	for _, input := range opts.InputFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := reqfile.Parse(input)
		if err != nil {
			return nil, err
		}
		slog.Debug("parsed requirements file", "path", input, "lines", len(lines))
		addSource(input)
		for _, line := range lines {
			addSource(line.Origin().Source)
			if err := reqfile.Visit(line, visitor); err != nil {
				return nil, err
			}
		}
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = "."
	}
	for _, g := range groups {
		reqs := matched[g.spec.Name]
		action := ActionWrite
		if opts.RemoveEmpty && len(reqs) == 0 {
			action = ActionRemove
		}
		p.Groups = append(p.Groups, GroupPlan{
			Spec:         g.spec,
			Path:         outputPath(outDir, opts.Prefix, g.spec.Name),
			Requirements: reqs,
			Action:       action,
		})
	}

	if opts.Header != nil {
		p.header = renderHeader(*opts.Header, opts.InputFiles)
	}
	return p, nil
}

// Group returns the plan for the named group.
func (p *Plan) Group(name GroupName) (GroupPlan, bool) {
	for _, g := range p.Groups {
		if g.Spec.Name == name {
			return g, true
		}
	}
	return GroupPlan{}, false
}

// Render writes the content the named group file would receive. It renders
// groups planned for removal too, which shows their options-only content.
func (p *Plan) Render(w io.Writer, name GroupName) error {
	g, ok := p.Group(name)
	if !ok {
		return &SplitError{Op: "render", Err: fmt.Errorf("unknown group %q", name)}
	}
	_, err := w.Write(p.content(g))
	return err
}

func (p *Plan) content(g GroupPlan) []byte {
	var buf bytes.Buffer
	buf.WriteString(p.header)
	for _, opt := range p.Options {
		buf.WriteString(opt.Raw)
		buf.WriteByte('\n')
	}
	for _, req := range g.Requirements {
		buf.WriteString(req.Raw)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func classify(groups []compiledGroup, raw string) (GroupName, bool) {
	for _, g := range groups {
		if g.re.MatchString(raw) {
			return g.spec.Name, true
		}
	}
	return "", false
}

func outputPath(dir types.FilesystemPath, prefix string, name GroupName) types.FilesystemPath {
	return fspath.Resolve(dir, types.FilesystemPath(prefix+"-"+string(name)+".txt"))
}

// renderHeader substitutes the input base names and terminates the block
// with a newline so the first option line starts on its own line.
func renderHeader(template string, inputs []types.FilesystemPath) string {
	if template == "" {
		return ""
	}
	names := make([]string, len(inputs))
	for i, input := range inputs {
		names[i] = fspath.Base(input)
	}
	header := strings.ReplaceAll(template, FilenamesPlaceholder, strings.Join(names, ", "))
	if !strings.HasSuffix(header, "\n") {
		header += "\n"
	}
	return header
}
