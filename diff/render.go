package diff

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	plainStyle      = lipgloss.NewStyle().TabWidth(lipgloss.NoTabConversion)
	fileHeaderStyle = plainStyle.Bold(true)
	hunkStyle       = plainStyle.Foreground(lipgloss.Color("#7aa2f7"))
	addStyle        = plainStyle.Foreground(lipgloss.Color("#9ece6a"))
	deleteStyle     = plainStyle.Foreground(lipgloss.Color("#f7768e"))
	markerStyle     = plainStyle.Faint(true)
)

// LineType classifies a line of a unified diff
type LineType int

const (
	LineTypeFileHeader LineType = iota // --- or +++ before the first hunk
	LineTypeHunk                       // @@ -a,b +c,d @@
	LineTypeContext                    // unchanged line
	LineTypeAdd                        // +line
	LineTypeDelete                     // -line
	LineTypeMarker                     // \ No newline at end of file
)

// Classify returns the type of every line of a unified diff. File headers
// are only recognised before the first hunk, so a removed "-- comment" line
// is still a deletion.
func Classify(lines []string) []LineType {
	types := make([]LineType, len(lines))
	inHunk := false
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "@@"):
			inHunk = true
			types[i] = LineTypeHunk
		case !inHunk:
			types[i] = LineTypeFileHeader
		case strings.HasPrefix(line, "+"):
			types[i] = LineTypeAdd
		case strings.HasPrefix(line, "-"):
			types[i] = LineTypeDelete
		case strings.HasPrefix(line, "\\"):
			types[i] = LineTypeMarker
		default:
			types[i] = LineTypeContext
		}
	}
	return types
}

// Colorize styles a unified diff for the terminal. Line content is kept;
// on terminals without colour support the text comes back unchanged.
func Colorize(unified string) string {
	if unified == "" {
		return ""
	}

	lines := strings.Split(strings.TrimSuffix(unified, "\n"), "\n")
	for i, lineType := range Classify(lines) {
		lines[i] = styleFor(lineType).Render(lines[i])
	}
	return strings.Join(lines, "\n") + "\n"
}

func styleFor(lineType LineType) lipgloss.Style {
	switch lineType {
	case LineTypeFileHeader:
		return fileHeaderStyle
	case LineTypeHunk:
		return hunkStyle
	case LineTypeAdd:
		return addStyle
	case LineTypeDelete:
		return deleteStyle
	case LineTypeMarker:
		return markerStyle
	default:
		return plainStyle
	}
}

// Stats counts added and removed lines of a unified diff
func Stats(unified string) (added, removed int) {
	lines := strings.Split(unified, "\n")
	for _, lineType := range Classify(lines) {
		switch lineType {
		case LineTypeAdd:
			added++
		case LineTypeDelete:
			removed++
		}
	}
	return added, removed
}
