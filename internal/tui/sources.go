package tui

import (
	"strconv"
	"strings"
)

// renderSources formats an assistant message's source list. Collapsed by
// default; ctrl+s expands all of them.
func (t *TUI) renderSources(sources []string) string {
	if !t.showSources {
		return t.styles.Sources.Render("Sources (" + strconv.Itoa(len(sources)) + ") · ctrl+s to expand")
	}

	formatted := make([]string, len(sources))
	for i, s := range sources {
		formatted[i] = formatSource(s)
	}
	return t.styles.Sources.Render("Sources: " + strings.Join(formatted, ", "))
}

// formatSource renders a "Label|URL" source as an OSC 8 terminal hyperlink.
// A source without a link, or with more than one separator, passes through
// unchanged.
func formatSource(source string) string {
	parts := strings.Split(source, "|")
	if len(parts) != 2 || parts[1] == "" {
		return source
	}
	return "\x1b]8;;" + parts[1] + "\x1b\\" + parts[0] + "\x1b]8;;\x1b\\"
}
