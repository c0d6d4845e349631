// Package render draws analysis reports and plot data for a terminal.
// Colors come from an explicit Theme handed to NewPrinter; nothing here
// keeps process-wide presentation state.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a color palette.
type Theme struct {
	Name       string
	Title      lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Math       lipgloss.Color
	Border     lipgloss.Color
	Curve      lipgloss.Color
	Axis       lipgloss.Color
	Maximum    lipgloss.Color
	Minimum    lipgloss.Color
	Inflection lipgloss.Color
	Positive   lipgloss.Color
	Negative   lipgloss.Color
}

func Dark() Theme {
	return Theme{
		Name:       "dark",
		Title:      lipgloss.Color("#bb86fc"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#888888"),
		Math:       lipgloss.Color("#ffffff"),
		Border:     lipgloss.Color("#444444"),
		Curve:      lipgloss.Color("#03dac6"),
		Axis:       lipgloss.Color("#ffffff"),
		Maximum:    lipgloss.Color("#ff5555"),
		Minimum:    lipgloss.Color("#5555ff"),
		Inflection: lipgloss.Color("#50fa7b"),
		Positive:   lipgloss.Color("#50fa7b"),
		Negative:   lipgloss.Color("#cf6679"),
	}
}

func Light() Theme {
	return Theme{
		Name:       "light",
		Title:      lipgloss.Color("#4B0082"),
		Text:       lipgloss.Color("#333333"),
		Muted:      lipgloss.Color("#777777"),
		Math:       lipgloss.Color("#000000"),
		Border:     lipgloss.Color("#cccccc"),
		Curve:      lipgloss.Color("#2196F3"),
		Axis:       lipgloss.Color("#000000"),
		Maximum:    lipgloss.Color("#d32f2f"),
		Minimum:    lipgloss.Color("#1565c0"),
		Inflection: lipgloss.Color("#2e7d32"),
		Positive:   lipgloss.Color("#2e7d32"),
		Negative:   lipgloss.Color("#F44336"),
	}
}

// ThemeByName returns the dark or light theme.
func ThemeByName(name string) (Theme, error) {
	switch strings.ToLower(name) {
	case "", "dark":
		return Dark(), nil
	case "light":
		return Light(), nil
	}
	return Theme{}, fmt.Errorf("unknown theme %q (want dark or light)", name)
}

type styles struct {
	title, text, muted, math lipgloss.Style
	box                      lipgloss.Style
	curve, axis              lipgloss.Style
	max, min, infl           lipgloss.Style
	pos, neg                 lipgloss.Style
}

// Printer renders with one theme for one output. The color profile is
// detected from the writer, so a plain buffer yields uncolored text.
type Printer struct {
	theme Theme
	s     styles
}

func NewPrinter(w io.Writer, theme Theme) *Printer {
	r := lipgloss.NewRenderer(w)
	fg := func(c lipgloss.Color) lipgloss.Style { return r.NewStyle().Foreground(c) }
	return &Printer{
		theme: theme,
		s: styles{
			title: fg(theme.Title).Bold(true),
			text:  fg(theme.Text),
			muted: fg(theme.Muted),
			math:  fg(theme.Math).Italic(true),
			box: r.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(theme.Border).
				Padding(0, 1),
			curve: fg(theme.Curve),
			axis:  fg(theme.Axis),
			max:   fg(theme.Maximum).Bold(true),
			min:   fg(theme.Minimum).Bold(true),
			infl:  fg(theme.Inflection).Bold(true),
			pos:   fg(theme.Positive),
			neg:   fg(theme.Negative),
		},
	}
}

func (p *Printer) Theme() Theme { return p.theme }
