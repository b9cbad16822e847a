package formatter

import (
	"math"
	"strconv"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
)

// Bar is one labelled value of a bar chart. Invalid bars have no numeric
// value and render as a placeholder.
type Bar struct {
	Label string
	Value float64
	Valid bool
}

// ChartOptions configures RenderBarChart.
type ChartOptions struct {
	NoColor bool
	// Width is the total line width. If 0, uses terminal width.
	Width int
	// Placeholder is shown for bars without a value.
	Placeholder string
}

const (
	barRune       = "█"
	maxLabelWidth = 24
)

// RenderBarChart draws one horizontal bar per point, scaled to the largest
// absolute value. Negative values draw the same length as positive ones.
func RenderBarChart(bars []Bar, opts ChartOptions) string {
	if len(bars) == 0 {
		return ""
	}
	width := opts.Width
	if width <= 0 {
		width = TerminalWidth()
	}

	labelWidth := 1
	valueWidth := 1
	peak := 0.0
	for _, b := range bars {
		labelWidth = max(labelWidth, runewidth.StringWidth(b.Label))
		if b.Valid {
			valueWidth = max(valueWidth, len(formatChartValue(b.Value)))
			peak = math.Max(peak, math.Abs(b.Value))
		} else {
			valueWidth = max(valueWidth, runewidth.StringWidth(opts.Placeholder))
		}
	}
	labelWidth = min(labelWidth, maxLabelWidth)

	// label, space, bar, space, value
	barSpace := max(width-labelWidth-valueWidth-2, 10)

	var b strings.Builder
	for _, bar := range bars {
		label := padRight(bar.Label, labelWidth)
		if !opts.NoColor {
			label = keyStyle.Render(label)
		}

		if !bar.Valid {
			placeholder := opts.Placeholder
			if !opts.NoColor {
				placeholder = mutedStyle.Render(placeholder)
			}
			b.WriteString(label + " " + placeholder + "\n")
			continue
		}

		n := 0
		if peak > 0 {
			n = int(math.Round(math.Abs(bar.Value) / peak * float64(barSpace)))
		}
		line := strings.Repeat(barRune, n)
		if !opts.NoColor {
			line = barStyle.Render(line)
		}
		pad := strings.Repeat(" ", barSpace-n)
		b.WriteString(label + " " + line + pad + " " + formatChartValue(bar.Value) + "\n")
	}
	return b.String()
}

func formatChartValue(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
