// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	RequirementsFileNotFoundId Id = iota + 1
	RequirementsParseErrorId
	IncludeCycleId
	UnmatchedRequirementId
	InvalidGroupSpecId
	OutputDirectoryId
	ConfigLoadFailedId
	NoInputFilesId
	PermissionDeniedId
)

const (
	pipRequirementsFormat HttpLink = "https://pip.pypa.io/en/stable/reference/requirements-file-format/"
	re2Syntax             HttpLink = "https://github.com/google/re2/wiki/Syntax"
	pyprojectSpec         HttpLink = "https://packaging.python.org/en/latest/specifications/pyproject-toml/"
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Renderer interface {
		Render(in string, stylePath string) (string, error)
	}

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink  // reference documentation for the failure kind
		extLinks []HttpLink  // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the Markdown message with glamour, followed by a
// "See also" list when the issue has links.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range append(slices.Clone(i.docLinks), i.extLinks...) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	requirementsFileNotFoundIssue = &Issue{
		id: RequirementsFileNotFoundId,
		mdMsg: `
# Requirements file not found!

One of the input files, or a file pulled in with ` + "`-r`" + `, could not be read.

## Things you can try:
- Check the path given on the command line or in ` + "`requirements_files`" + `
- Remember that ` + "`-r`" + ` targets resolve relative to the file that includes them
- Configured paths resolve relative to the project root (` + "`--project-root`" + `)`,
		docLinks: []HttpLink{pipRequirementsFormat},
	}

	requirementsParseErrorIssue = &Issue{
		id: RequirementsParseErrorId,
		mdMsg: `
# Malformed requirements file!

A line in a requirements file could not be understood.

## Things you can try:
- Give ` + "`-r`" + ` exactly one file path; quote paths containing spaces
- Download remote requirements files first, URLs are not fetched
- Split very large generated files, the size limit is 5 MiB`,
		docLinks: []HttpLink{pipRequirementsFormat},
	}

	includeCycleIssue = &Issue{
		id: IncludeCycleId,
		mdMsg: `
# Include cycle detected!

A requirements file includes itself, directly or through other files.

## Things you can try:
- Follow the chain printed above and remove one of the ` + "`-r`" + ` lines
- Move shared requirements into a separate base file that includes nothing`,
		docLinks: []HttpLink{pipRequirementsFormat},
	}

	unmatchedRequirementIssue = &Issue{
		id: UnmatchedRequirementId,
		mdMsg: `
# Requirement matches no group!

Every requirement must land in exactly one group, and this one matched none
of the group patterns. No output file was written.

## Things you can try:
- Keep the implicit catch-all group (drop ` + "`--default-group=false`" + `)
- Add a group for it:
~~~
$ reqsplit -g 'dev:^(pytest|ruff)' requirements.txt
~~~

- Remember patterns match anywhere in the line unless anchored with ` + "`^`" + ``,
		extLinks: []HttpLink{re2Syntax},
	}

	invalidGroupSpecIssue = &Issue{
		id: InvalidGroupSpecId,
		mdMsg: `
# Invalid group spec!

Group specs take the form ` + "`name:pattern`" + `. Names must be unique and
non-empty, and patterns use Go regular expression (RE2) syntax.

## Things you can try:
- Split on the first colon: ` + "`urls:^git\\+https://`" + ` is valid
- Give each group a distinct name
- Lookaheads and backreferences are not supported by RE2`,
		extLinks: []HttpLink{re2Syntax},
	}

	outputDirectoryIssue = &Issue{
		id: OutputDirectoryId,
		mdMsg: `
# Output directory unavailable!

Group files are written next to the prefix, and that directory is missing
or is not a directory. Nothing was written.

## Things you can try:
- Create the directory first
- Check the ` + "`--prefix`" + ` value, an absolute prefix ignores the project root`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The ` + "`[tool.pip-split-requirements]`" + ` table could not be loaded.

## Things you can try:
- Check the TOML syntax of pyproject.toml
- Compare your settings with the effective configuration:
~~~
$ reqsplit config show
~~~

## Example:
~~~toml
[tool.pip-split-requirements]
requirements_files = ["requirements.txt"]
group_specs = ["ab:^pkg[ab]$", "c:^pkgc$"]
prefix = "requirementsgroup"
remove_empty = true
~~~`,
		extLinks: []HttpLink{pyprojectSpec},
	}

	noInputFilesIssue = &Issue{
		id: NoInputFilesId,
		mdMsg: `
# No requirements files given!

Pass requirements files as arguments or list them in ` + "`requirements_files`" + `.

## Things you can try:
~~~
$ reqsplit -g 'test:^pytest' requirements.txt requirements-test.txt
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

A requirements file could not be read, or a group file could not be written.

## Things you can try:
- Check file and directory permissions
- Run reqsplit from a directory you own`,
	}

	issues = map[Id]*Issue{
		requirementsFileNotFoundIssue.Id(): requirementsFileNotFoundIssue,
		requirementsParseErrorIssue.Id():   requirementsParseErrorIssue,
		includeCycleIssue.Id():             includeCycleIssue,
		unmatchedRequirementIssue.Id():     unmatchedRequirementIssue,
		invalidGroupSpecIssue.Id():         invalidGroupSpecIssue,
		outputDirectoryIssue.Id():          outputDirectoryIssue,
		configLoadFailedIssue.Id():         configLoadFailedIssue,
		noInputFilesIssue.Id():             noInputFilesIssue,
		permissionDeniedIssue.Id():         permissionDeniedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
