package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/njchilds90/curvesketch/analysis"
)

// Report renders the five report sections followed by a summary box of the
// classified points.
func (p *Printer) Report(r *analysis.Report) string {
	var blocks []string
	for _, sec := range r.Sections() {
		lines := []string{p.s.title.Render(sec.Title)}
		for _, l := range sec.Lines {
			lines = append(lines, "  "+p.s.text.Render(l))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	blocks = append(blocks, p.summary(r))
	return strings.Join(blocks, "\n\n")
}

func (p *Printer) summary(r *analysis.Report) string {
	var lines []string
	lines = append(lines, p.s.math.Render("f(x) = "+r.Derivatives.Function))
	for _, m := range r.Maxima {
		lines = append(lines, p.s.max.Render(fmt.Sprintf("Max (%s, %s)", m.XExpr, m.YExpr)))
	}
	for _, m := range r.Minima {
		lines = append(lines, p.s.min.Render(fmt.Sprintf("Min (%s, %s)", m.XExpr, m.YExpr)))
	}
	for _, c := range r.Inflection.Candidates {
		label := fmt.Sprintf("Inf x = %s", c.Root)
		if !c.SignChange {
			lines = append(lines, p.s.muted.Render(label+" (no sign change)"))
			continue
		}
		lines = append(lines, p.s.infl.Render(label))
	}
	lines = append(lines, p.intervals("f'", r.Monotonicity.Intervals), p.intervals("f''", r.Concavity.Intervals))
	return p.s.box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (p *Printer) intervals(ref string, ivs []analysis.Interval) string {
	parts := make([]string, len(ivs))
	for i, iv := range ivs {
		text := fmt.Sprintf("(%s, %s) %s", iv.Lower, iv.Upper, glyph(iv.State))
		switch iv.State {
		case analysis.Increasing, analysis.ConcaveUp:
			parts[i] = p.s.pos.Render(text)
		case analysis.Decreasing, analysis.ConcaveDown:
			parts[i] = p.s.neg.Render(text)
		default:
			parts[i] = p.s.muted.Render(text)
		}
	}
	return p.s.muted.Render(ref+": ") + strings.Join(parts, p.s.muted.Render("  "))
}

func glyph(s analysis.State) string {
	switch s {
	case analysis.Increasing:
		return "↑"
	case analysis.Decreasing:
		return "↓"
	case analysis.ConcaveUp:
		return "∪"
	case analysis.ConcaveDown:
		return "∩"
	case analysis.Constant:
		return "="
	}
	return "?"
}
