// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output, tuned for dark terminal backgrounds.
const (
	// ColorPrimary is purple, for titles and headers.
	ColorPrimary = lipgloss.Color("#7C3AED")
	// ColorMuted is gray, for subtitles and de-emphasized content.
	ColorMuted = lipgloss.Color("#6B7280")
	// ColorSuccess is green, for written group files.
	ColorSuccess = lipgloss.Color("#10B981")
	// ColorError is red, for errors.
	ColorError = lipgloss.Color("#EF4444")
	// ColorWarning is amber, for removed files and dry-run notices.
	ColorWarning = lipgloss.Color("#F59E0B")
	// ColorHighlight is blue, for paths and configuration keys.
	ColorHighlight = lipgloss.Color("#3B82F6")
	// ColorVerbose is light gray, for supplementary details.
	ColorVerbose = lipgloss.Color("#9CA3AF")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages and written files.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for removed files and dry-run notices.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for paths, keys and command names.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// VerboseStyle is for supplementary information such as file content previews.
	VerboseStyle = lipgloss.NewStyle().
			Foreground(ColorVerbose)
)
