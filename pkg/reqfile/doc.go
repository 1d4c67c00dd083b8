// SPDX-License-Identifier: MPL-2.0

// Package reqfile parses pip requirements files into typed logical lines.
//
// A requirements file is line oriented. After backslash continuations are
// joined, every logical line is one of:
//
//   - an option line applying to the whole set (--index-url, --find-links, -c ...)
//   - a requirement line naming one dependency
//   - a nested include (-r other.txt), expanded in place when recursion is on
//   - a comment or blank line, dropped unless WithComments is set
//
// Parse walks includes depth-first, so the returned slice is equivalent to the
// included files having been pasted at each include directive.
//
//	lines, err := reqfile.Parse("requirements.txt")
//	if err != nil {
//	    return err // *reqfile.ParseError
//	}
//	for _, line := range lines {
//	    err := reqfile.Visit(line, reqfile.Visitor{...})
//	}
package reqfile
