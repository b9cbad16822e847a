// Package formatter renders documents, widget cards, tables and charts as
// terminal text.
package formatter

import (
	"image/color"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
)

var (
	defaultHeaderFG   = lipgloss.Color("12")
	defaultHeaderBG   = lipgloss.Color("236")
	defaultKeyColor   = lipgloss.Color("14")
	defaultValueColor = lipgloss.Color("248")
	defaultSeparator  = lipgloss.Color("240")
	defaultBarColor   = lipgloss.Color("10")
	defaultMutedColor = lipgloss.Color("242")

	headerStyle    lipgloss.Style
	keyStyle       lipgloss.Style
	valueStyle     lipgloss.Style
	separatorStyle lipgloss.Style
	barStyle       lipgloss.Style
	mutedStyle     lipgloss.Style
)

// TableColors controls the rendered colors. Nil fields fall back to the
// ANSI 256 defaults.
type TableColors struct {
	HeaderFG       color.Color
	HeaderBG       color.Color
	KeyColor       color.Color
	ValueColor     color.Color
	SeparatorColor color.Color
	BarColor       color.Color
}

func applyTableTheme(tc TableColors) {
	pick := func(c, def color.Color) color.Color {
		if c == nil {
			return def
		}
		return c
	}

	headerStyle = lipgloss.NewStyle().Bold(true).
		Foreground(pick(tc.HeaderFG, defaultHeaderFG)).
		Background(pick(tc.HeaderBG, defaultHeaderBG))
	keyStyle = lipgloss.NewStyle().Foreground(pick(tc.KeyColor, defaultKeyColor))
	valueStyle = lipgloss.NewStyle().Foreground(pick(tc.ValueColor, defaultValueColor))
	separatorStyle = lipgloss.NewStyle().Foreground(pick(tc.SeparatorColor, defaultSeparator))
	barStyle = lipgloss.NewStyle().Foreground(pick(tc.BarColor, defaultBarColor))
	mutedStyle = lipgloss.NewStyle().Foreground(defaultMutedColor)
}

// SetTableTheme overrides the global styles.
func SetTableTheme(tc TableColors) {
	applyTableTheme(tc)
}

//nolint:gochecknoinits // initialize default table theme for package consumers
func init() {
	applyTableTheme(TableColors{})
}

// Stringify returns single-line display text for a value: strings unquoted
// with control characters escaped, containers as compact JSON, the empty
// string for an absent value.
func Stringify(v jsonvalue.Value) string {
	if v.Kind() == jsonvalue.String {
		s, _ := v.Str()
		return escapeScalarString(s)
	}
	return v.String()
}

// StringifyPreserveNewlines keeps real line breaks in strings, for views that
// show one value at a time.
func StringifyPreserveNewlines(v jsonvalue.Value) string {
	if v.Kind() == jsonvalue.String {
		s, _ := v.Str()
		return normalizeScalarString(s, false)
	}
	return v.String()
}

// escapeScalarString flattens control characters so table rows stay single-line.
func escapeScalarString(s string) string {
	return normalizeScalarString(s, true)
}

// normalizeScalarString maps CRLF and bare CR to LF, then optionally renders
// LF as a literal "\n".
func normalizeScalarString(s string, escapeNewlines bool) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\t", "    ")
	if escapeNewlines {
		s = strings.ReplaceAll(s, "\n", "\\n")
	}
	return s
}

// truncate shortens s to maxLen display cells, ending in "..." when there is room.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 || runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}

// padRight pads s with spaces to width display cells, truncating when longer.
func padRight(s string, width int) string {
	s = truncate(s, width)
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// padLeft right-aligns s within width display cells.
func padLeft(s string, width int) string {
	s = truncate(s, width)
	if w := runewidth.StringWidth(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}

// termGetSize is replaced in tests.
var termGetSize = term.GetSize

// TerminalWidth returns the width of stdout, or 120 when it is not a terminal.
func TerminalWidth() int {
	width, _, err := termGetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 120
	}
	return width
}

// RenderRows prints a two-column KEY/VALUE table for precomputed rows.
// A zero keyColWidth sizes the key column to its content; a zero
// valueColWidth gives the value column the rest of the terminal.
func RenderRows(rows [][]string, noColor bool, keyColWidth, valueColWidth int) string {
	return renderKeyValue("KEY", "VALUE", rows, noColor, keyColWidth, valueColWidth)
}

func renderKeyValue(keyHeader, valueHeader string, rows [][]string, noColor bool, keyColWidth, valueColWidth int) string {
	const sepWidth = 2
	const minValueWidth = 20
	sep := strings.Repeat(" ", sepWidth)

	keyWidth := keyColWidth
	if keyWidth <= 0 {
		keyWidth = runewidth.StringWidth(keyHeader)
		for _, row := range rows {
			if len(row) > 0 {
				keyWidth = max(keyWidth, runewidth.StringWidth(row[0]))
			}
		}
		keyWidth = min(keyWidth, 40)
	}

	valueWidth := valueColWidth
	if valueWidth <= 0 {
		valueWidth = TerminalWidth() - keyWidth - sepWidth
	}
	valueWidth = max(valueWidth, minValueWidth)

	var b strings.Builder

	headerKey := padRight(keyHeader, keyWidth)
	headerValue := padRight(valueHeader, valueWidth)
	if !noColor {
		headerKey = headerStyle.Render(headerKey)
		headerValue = headerStyle.Render(headerValue)
	}
	b.WriteString(headerKey + sep + headerValue + "\n")

	separator := strings.Repeat("─", keyWidth+sepWidth+valueWidth)
	if !noColor {
		separator = separatorStyle.Render(separator)
	}
	b.WriteString(separator + "\n")

	for _, row := range rows {
		key, val := "", ""
		if len(row) > 0 {
			key = row[0]
		}
		if len(row) > 1 {
			val = row[1]
		}
		keyStr := padRight(key, keyWidth)
		valStr := strings.TrimRight(padRight(val, valueWidth), " ")
		if !noColor {
			keyStr = keyStyle.Render(keyStr)
			valStr = valueStyle.Render(valStr)
		}
		b.WriteString(keyStr + sep + valStr + "\n")
	}

	return b.String()
}

// ValueRows turns an object's members or an array's elements into KEY/VALUE
// rows. Scalars become a single "(value)" row.
func ValueRows(v jsonvalue.Value) [][]string {
	switch v.Kind() {
	case jsonvalue.Object:
		rows := make([][]string, 0, v.Len())
		for _, m := range v.Members() {
			rows = append(rows, []string{m.Key, Stringify(m.Value)})
		}
		return rows
	case jsonvalue.Array:
		rows := make([][]string, 0, v.Len())
		for i, e := range v.Elements() {
			rows = append(rows, []string{FormatArrayIndex(i, "index"), Stringify(e)})
		}
		return rows
	default:
		return [][]string{{"(value)", Stringify(v)}}
	}
}
