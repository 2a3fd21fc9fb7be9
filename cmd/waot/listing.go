package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	commentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	keywordStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	symbolStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
)

// colorize styles an IR listing line by line: comments, function headers,
// aliases and block labels.
func colorize(listing string) string {
	lines := strings.Split(listing, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, ";"):
			lines[i] = commentStyle.Render(line)
		case strings.HasPrefix(line, "define "), strings.HasPrefix(line, "declare "):
			kw, rest, _ := strings.Cut(line, " ")
			lines[i] = keywordStyle.Render(kw) + " " + rest
		case strings.HasPrefix(line, "@"):
			sym, rest, _ := strings.Cut(line, " ")
			lines[i] = symbolStyle.Render(sym) + " " + rest
		case strings.HasSuffix(line, ":") && !strings.HasPrefix(line, " "):
			lines[i] = labelStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
