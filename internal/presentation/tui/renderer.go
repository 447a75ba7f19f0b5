package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/tellatale/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
// It auto-detects the terminal background for light/dark styling.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// SegmentMarkdown lays out one segment as markdown: narrative first, then
// the numbered choices the reader can pick from.
func SegmentMarkdown(title string, segment *domain.Segment) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	b.WriteString(segment.Text)
	b.WriteString("\n")
	if segment.Concluded() {
		b.WriteString("\n*The story has reached its end.*\n")
		return b.String()
	}
	b.WriteString("\n---\n\n")
	for i, choice := range segment.Choices {
		fmt.Fprintf(&b, "%d. **%s** — *%s*\n", i+1, choice.Text, choice.Consequence)
	}
	return b.String()
}

// ProfileMarkdown lays out the soul mirror: one bar per trait plus the
// mystical summary line.
func ProfileMarkdown(profile domain.PersonalityProfile) string {
	var b strings.Builder
	b.WriteString("## Soul Mirror\n\n")
	fmt.Fprintf(&b, "> %s\n\n", profile.Summary)
	fmt.Fprintf(&b, "Archetype: **%s**\n\n", profile.ArchetypeMatch)
	rows := []struct {
		name  string
		value int
	}{
		{"Valiance", profile.Traits.Valiance},
		{"Empathy", profile.Traits.Empathy},
		{"Shadow", profile.Traits.Shadow},
		{"Logic", profile.Traits.Logic},
		{"Chaos", profile.Traits.Chaos},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "- %-8s `%s` %d\n", row.name, traitBar(row.value), row.value)
	}
	return b.String()
}

// traitBar renders a 10-cell bar for a 0-100 value.
func traitBar(value int) string {
	filled := value / 10
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}
