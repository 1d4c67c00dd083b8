// SPDX-License-Identifier: MPL-2.0

package reqfile

import (
	"errors"
	"strings"
	"testing"
)

func TestVisit_Dispatch(t *testing.T) {
	t.Parallel()

	pos := Position{Source: "reqs.txt", LineNumber: 7}
	tests := []struct {
		name string
		line Line
		want string
	}{
		{"option", OptionLine{Position: pos, Raw: "--pre"}, "option"},
		{"requirement", RequirementLine{Position: pos, Raw: "pkga"}, "requirement"},
		{"nested", NestedRequirementsLine{Position: pos, Raw: "-r x.txt", Target: "x.txt"}, "nested"},
		{"comment", CommentOrBlank{Position: pos, Raw: "# hi"}, "comment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got string
			err := Visit(tt.line, Visitor{
				Option:      func(OptionLine) error { got = "option"; return nil },
				Requirement: func(RequirementLine) error { got = "requirement"; return nil },
				Nested:      func(NestedRequirementsLine) error { got = "nested"; return nil },
				Comment:     func(CommentOrBlank) error { got = "comment"; return nil },
			})
			if err != nil {
				t.Fatalf("Visit() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Visit() dispatched to %q, want %q", got, tt.want)
			}
			if tt.line.Origin() != pos {
				t.Errorf("Origin() = %+v, want %+v", tt.line.Origin(), pos)
			}
		})
	}
}

func TestVisit_HandlerErrorPropagates(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("stop")
	err := Visit(RequirementLine{Raw: "pkga"}, Visitor{
		Requirement: func(RequirementLine) error { return sentinel },
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Visit() error = %v, want %v", err, sentinel)
	}
}

func TestVisit_Unhandled(t *testing.T) {
	t.Parallel()

	line := NestedRequirementsLine{
		Position: Position{Source: "reqs.txt", LineNumber: 3},
		Raw:      "-r other.txt",
	}
	err := Visit(line, Visitor{
		Requirement: func(RequirementLine) error { return nil },
	})
	if !errors.Is(err, ErrUnhandledLine) {
		t.Fatalf("Visit() error = %v, want ErrUnhandledLine", err)
	}
	if !strings.Contains(err.Error(), "reqs.txt:3") {
		t.Errorf("error %q should name the line position", err.Error())
	}
}

func TestLine_Text(t *testing.T) {
	t.Parallel()

	lines := []Line{
		OptionLine{Raw: "--index-url https://pypi.org/simple"},
		RequirementLine{Raw: "pkga>=1"},
		NestedRequirementsLine{Raw: "-r base.txt"},
		CommentOrBlank{Raw: ""},
	}
	want := []string{"--index-url https://pypi.org/simple", "pkga>=1", "-r base.txt", ""}
	for i, line := range lines {
		if got := line.Text(); got != want[i] {
			t.Errorf("%T.Text() = %q, want %q", line, got, want[i])
		}
	}
}
