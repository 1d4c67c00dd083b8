// SPDX-License-Identifier: MPL-2.0

package reqfile

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/reqsplit/reqsplit/pkg/fspath"
	"github.com/reqsplit/reqsplit/pkg/types"

	"mvdan.cc/sh/v3/shell"
)

// DefaultMaxFileSize is the largest requirements file Parse accepts (5 MiB).
const DefaultMaxFileSize int64 = 5 << 20

var (
	// inlineCommentRE matches pip's comment syntax: a '#' at the start of the
	// line or preceded by whitespace. URL fragments such as "#egg=" survive.
	inlineCommentRE = regexp.MustCompile(`(^|\s+)#.*$`)

	// remoteTargetRE matches URL-style include targets.
	remoteTargetRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

	includeFlags = map[string]bool{
		"-r":            true,
		"--requirement": true,
	}

	// optionFlags are the pip global options. Constraint files are treated as
	// options: they restrict versions but add no requirements of their own.
	optionFlags = map[string]bool{
		"-i":                true,
		"--index-url":       true,
		"--extra-index-url": true,
		"--no-index":        true,
		"-f":                true,
		"--find-links":      true,
		"--pre":             true,
		"--trusted-host":    true,
		"--prefer-binary":   true,
		"--require-hashes":  true,
		"--only-binary":     true,
		"--no-binary":       true,
		"--use-feature":     true,
		"-c":                true,
		"--constraint":      true,
	}
)

type (
	// Option configures Parse and ParseBytes.
	Option func(*parseOptions)

	parseOptions struct {
		recurse     bool
		comments    bool
		maxFileSize int64
	}

	// parser accumulates lines across one top-level file and its includes.
	parser struct {
		opts parseOptions
		// active is the include stack as absolute paths, for cycle detection.
		active []types.FilesystemPath
		lines  []Line
	}

	logicalLine struct {
		number int
		text   string
	}
)

// WithRecurse controls whether -r directives are expanded in place (the
// default) or returned as NestedRequirementsLine values.
func WithRecurse(recurse bool) Option {
	return func(o *parseOptions) { o.recurse = recurse }
}

// WithComments controls whether comment and blank lines are returned as
// CommentOrBlank values. They are dropped by default.
func WithComments(comments bool) Option {
	return func(o *parseOptions) { o.comments = comments }
}

// WithMaxFileSize overrides DefaultMaxFileSize for every file read.
func WithMaxFileSize(size int64) Option {
	return func(o *parseOptions) { o.maxFileSize = size }
}

// Parse reads the requirements file at path and returns its logical lines,
// with includes expanded depth-first unless WithRecurse(false) is given.
func Parse(path types.FilesystemPath, opts ...Option) ([]Line, error) {
	p := newParser(opts)
	if err := p.parseFile(path, nil); err != nil {
		return nil, err
	}
	return p.lines, nil
}

// ParseBytes parses requirements content held in memory. path names the
// content in positions and errors, and anchors relative include targets.
func ParseBytes(data []byte, path types.FilesystemPath, opts ...Option) ([]Line, error) {
	p := newParser(opts)
	if err := p.parseData(data, path); err != nil {
		return nil, err
	}
	return p.lines, nil
}

func newParser(opts []Option) *parser {
	o := parseOptions{
		recurse:     true,
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &parser{opts: o}
}

// parseFile reads one file. from is the include directive that referenced
// it, nil for a top-level file.
func (p *parser) parseFile(path types.FilesystemPath, from *Position) error {
	data, err := os.ReadFile(string(path))
	if err != nil {
		reason := "cannot read requirements file"
		if from != nil {
			reason += " included from " + from.Location()
		}
		return &ParseError{Path: path, Reason: reason, Err: err}
	}
	return p.parseData(data, path)
}

func (p *parser) parseData(data []byte, path types.FilesystemPath) error {
	if int64(len(data)) > p.opts.maxFileSize {
		return &ParseError{
			Path:   path,
			Reason: fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", len(data), p.opts.maxFileSize),
		}
	}

	p.active = append(p.active, identity(path))
	defer func() { p.active = p.active[:len(p.active)-1] }()

	for _, ll := range joinLines(data) {
		pos := Position{Source: path, LineNumber: ll.number}
		if err := p.classify(ll.text, pos); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) classify(text string, pos Position) error {
	raw := strings.TrimSpace(text)
	content := strings.TrimSpace(inlineCommentRE.ReplaceAllString(raw, ""))
	if content == "" {
		if p.opts.comments {
			p.lines = append(p.lines, CommentOrBlank{Position: pos, Raw: raw})
		}
		return nil
	}

	if !strings.HasPrefix(content, "-") {
		p.lines = append(p.lines, RequirementLine{Position: pos, Raw: raw})
		return nil
	}

	head := content
	if i := strings.IndexFunc(content, unicode.IsSpace); i >= 0 {
		head = content[:i]
	}
	name, _, _ := splitFlag(head)

	switch {
	case includeFlags[name]:
		return p.includeDirective(raw, content, pos)
	case optionFlags[name]:
		p.lines = append(p.lines, OptionLine{Position: pos, Raw: raw})
	default:
		// -e/--editable and anything pip would attach to a requirement.
		p.lines = append(p.lines, RequirementLine{Position: pos, Raw: raw})
	}
	return nil
}

func (p *parser) includeDirective(raw, content string, pos Position) error {
	target, err := includeTarget(content)
	if err != nil {
		return &ParseError{
			Path:       pos.Source,
			LineNumber: pos.LineNumber,
			Reason:     "malformed include directive " + strconv.Quote(raw),
			Err:        err,
		}
	}
	if remoteTargetRE.MatchString(target) {
		return &ParseError{
			Path:       pos.Source,
			LineNumber: pos.LineNumber,
			Reason:     "remote requirements files are not supported: " + target,
		}
	}

	resolved := fspath.Resolve(fspath.Dir(pos.Source), types.FilesystemPath(target))
	if !p.opts.recurse {
		p.lines = append(p.lines, NestedRequirementsLine{Position: pos, Raw: raw, Target: resolved})
		return nil
	}

	key := identity(resolved)
	if i := slices.Index(p.active, key); i >= 0 {
		chain := append(slices.Clone(p.active[i:]), key)
		parts := make([]string, len(chain))
		for j, c := range chain {
			parts[j] = string(c)
		}
		return &ParseError{
			Path:       pos.Source,
			LineNumber: pos.LineNumber,
			Reason:     "include cycle: " + strings.Join(parts, " -> "),
		}
	}

	return p.parseFile(resolved, &pos)
}

// includeTarget extracts the single file argument of a -r directive. Words
// are split the way pip splits them: quotes and backslashes group, whitespace
// separates, everything else is literal.
func includeTarget(content string) (string, error) {
	fields, err := shell.Fields(shellLiteral(content), nil)
	if err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", errors.New("empty directive")
	}

	_, inline, hasInline := splitFlag(fields[0])
	args := fields[1:]
	if hasInline {
		args = append([]string{inline}, args...)
	}

	switch {
	case len(args) == 0 || strings.TrimSpace(args[0]) == "":
		return "", errors.New("missing file path")
	case len(args) > 1:
		return "", fmt.Errorf("expected exactly one file path, got %d", len(args))
	}
	return args[0], nil
}

// splitFlag separates a directive token into its flag name and an attached
// value: "--requirement=x.txt" and "-rx.txt" both yield a value.
func splitFlag(token string) (name, value string, attached bool) {
	if strings.HasPrefix(token, "--") {
		return strings.Cut(token, "=")
	}
	if len(token) > 2 {
		return token[:2], token[2:], true
	}
	return token, "", false
}

// shellMeta holds the characters a shell would interpret outside quotes but
// pip reads as part of a path.
const shellMeta = "()&;|<>~$`*?[]{}#!"

// shellLiteral escapes s so that shell.Fields honours only quoting,
// backslash escapes and whitespace. Single-quoted text is already literal;
// inside double quotes only $ and ` need escaping, and a backslash before
// either stays a literal backslash.
func shellLiteral(s string) string {
	var (
		b       strings.Builder
		quote   rune
		escaped bool
	)
	for _, r := range s {
		switch {
		case quote == '\'':
			if r == '\'' {
				quote = 0
			}
		case escaped:
			escaped = false
			if quote == '"' && (r == '$' || r == '`') {
				b.WriteString(`\\`)
			}
		case r == '\\':
			escaped = true
		case quote == '"':
			if r == '"' {
				quote = 0
			} else if r == '$' || r == '`' {
				b.WriteByte('\\')
			}
		case r == '\'' || r == '"':
			quote = r
		case strings.ContainsRune(shellMeta, r):
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// joinLines splits data into logical lines, joining physical lines that end
// with a backslash. A comment line terminates a continuation.
func joinLines(data []byte) []logicalLine {
	text := strings.TrimPrefix(string(data), "\ufeff")

	var (
		out     []logicalLine
		pending []string
		start   int
	)
	physical := strings.Split(text, "\n")
	if n := len(physical); physical[n-1] == "" {
		physical = physical[:n-1]
	}
	for i, line := range physical {
		line = strings.TrimRight(line, "\r")
		number := i + 1
		comment := isCommentLine(line)

		if !strings.HasSuffix(line, `\`) || comment {
			if pending == nil {
				out = append(out, logicalLine{number: number, text: line})
				continue
			}
			if comment {
				line = " " + line
			}
			pending = append(pending, line)
			out = append(out, logicalLine{number: start, text: strings.Join(pending, "")})
			pending = nil
			continue
		}

		if pending == nil {
			start = number
		}
		pending = append(pending, strings.TrimSuffix(line, `\`))
	}
	if pending != nil {
		out = append(out, logicalLine{number: start, text: strings.Join(pending, "")})
	}
	return out
}

func isCommentLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), "#")
}

// identity returns the key used to detect include cycles.
func identity(path types.FilesystemPath) types.FilesystemPath {
	abs, err := fspath.Abs(path)
	if err != nil {
		return fspath.Clean(path)
	}
	return abs
}
