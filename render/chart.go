package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/njchilds90/curvesketch/plot"
)

const (
	DefaultWidth  = 64
	DefaultHeight = 20
)

type cell struct {
	r    rune
	kind byte // 0 blank, 'a' axis, 'c' curve, or a marker kind initial
}

// Chart draws d on a width x height character grid. Axes are drawn where
// x = 0 or y = 0 fall inside the range; markers are M (maximum), m
// (minimum) and i (inflection).
func (p *Printer) Chart(d *plot.Data, width, height int) string {
	if width < 8 {
		width = DefaultWidth
	}
	if height < 4 {
		height = DefaultHeight
	}
	ylo, yhi := d.YMin, d.YMax
	if yhi-ylo < 1e-12 {
		ylo, yhi = ylo-1, yhi+1
	}
	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
		for j := range grid[i] {
			grid[i][j] = cell{r: ' '}
		}
	}
	col := func(x float64) int { return scale(x, d.XMin, d.XMax, width) }
	row := func(y float64) int { return height - 1 - scale(y, ylo, yhi, height) }

	if d.XMin <= 0 && 0 <= d.XMax {
		c := col(0)
		for i := range grid {
			grid[i][c] = cell{r: '│', kind: 'a'}
		}
	}
	if ylo <= 0 && 0 <= yhi {
		r := row(0)
		for j := range grid[r] {
			if grid[r][j].kind == 'a' {
				grid[r][j] = cell{r: '┼', kind: 'a'}
				continue
			}
			grid[r][j] = cell{r: '─', kind: 'a'}
		}
	}
	for _, s := range d.Samples {
		if s.Y == nil {
			continue
		}
		grid[row(*s.Y)][col(s.X)] = cell{r: '•', kind: 'c'}
	}
	for _, m := range d.Markers {
		if m.YMissing {
			continue
		}
		r, k := 'i', byte('i')
		switch m.Kind {
		case plot.MarkMaximum:
			r, k = 'M', 'M'
		case plot.MarkMinimum:
			r, k = 'm', 'm'
		}
		grid[row(m.Y)][col(m.X)] = cell{r: r, kind: k}
	}

	var b strings.Builder
	b.WriteString(p.s.title.Render("f(x) = "+d.Function) + "\n")
	for i, line := range grid {
		label := strings.Repeat(" ", 10)
		switch i {
		case 0:
			label = fmt.Sprintf("%10.4g", yhi)
		case height - 1:
			label = fmt.Sprintf("%10.4g", ylo)
		}
		b.WriteString(p.s.muted.Render(label) + " ")
		for _, c := range line {
			b.WriteString(p.paint(c))
		}
		b.WriteByte('\n')
	}
	lo, hi := fmt.Sprintf("%.4g", d.XMin), fmt.Sprintf("%.4g", d.XMax)
	gap := width - len(lo) - len(hi)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(strings.Repeat(" ", 11) + p.s.muted.Render(lo+strings.Repeat(" ", gap)+hi))
	return b.String()
}

func (p *Printer) paint(c cell) string {
	s := string(c.r)
	switch c.kind {
	case 'a':
		return p.s.axis.Render(s)
	case 'c':
		return p.s.curve.Render(s)
	case 'M':
		return p.s.max.Render(s)
	case 'm':
		return p.s.min.Render(s)
	case 'i':
		return p.s.infl.Render(s)
	}
	return s
}

// scale maps v in [lo, hi] onto 0..n-1, clamping outside values.
func scale(v, lo, hi float64, n int) int {
	if hi <= lo {
		return 0
	}
	i := int(math.Round((v - lo) / (hi - lo) * float64(n-1)))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
