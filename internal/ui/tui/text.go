package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const ellipsis = "..."

// truncateText cuts text to at most width terminal cells.
func truncateText(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(text) <= width {
		return text
	}
	tail := ellipsis
	if width <= len(tail) {
		tail = ""
	}
	return takeCells(text, width-len(tail)) + tail
}

func takeCells(text string, width int) string {
	var b strings.Builder
	used := 0
	for _, r := range text {
		w := lipgloss.Width(string(r))
		if used+w > width {
			break
		}
		b.WriteRune(r)
		used += w
	}
	return b.String()
}

// formatDetail renders label followed by text wrapped to width, with
// continuation lines indented under the first.
func formatDetail(label, text string, width int) string {
	indent := lipgloss.Width(label)
	if width <= indent {
		return label + text
	}
	lines := strings.Split(wrapText(text, width-indent), "\n")
	return label + strings.Join(lines, "\n"+strings.Repeat(" ", indent))
}

// wrapText word-wraps every line of text to width cells. Line breaks already
// in text, as in multiline property values, are kept.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var out []string
	for _, para := range strings.Split(text, "\n") {
		out = append(out, wrapLine(strings.Fields(para), width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(words []string, width int) []string {
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line, used := words[0], lipgloss.Width(words[0])
	for _, word := range words[1:] {
		w := lipgloss.Width(word)
		if used+1+w > width {
			lines = append(lines, line)
			line, used = word, w
			continue
		}
		line += " " + word
		used += 1 + w
	}
	return append(lines, line)
}
