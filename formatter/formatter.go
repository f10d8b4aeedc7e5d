// Package formatter renders compile errors, compiled patterns and scan hits
// for the terminal.
package formatter

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/gnolang/metasyntax"
	"github.com/gnolang/metasyntax/scan"
)

const tabWidth = 8

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	kindStyle    = color.New(color.FgYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
	ruleStyle    = color.New(color.FgGreen, color.Bold)
	labelStyle   = color.New(color.FgWhite, color.Bold)
)

// FormatError renders err as raised by compiling pattern. Errors that are
// not a *metasyntax.Error are rendered on a single line.
func FormatError(pattern string, err error) string {
	var e *metasyntax.Error
	if !errors.As(err, &e) {
		return errorStyle.Sprint("error: ") + err.Error() + "\n"
	}

	var b strings.Builder
	b.WriteString(errorStyle.Sprint("error: ") + kindStyle.Sprint(string(e.Kind)))
	if e.Bug {
		b.WriteString(" (internal)")
	}
	b.WriteString("\n")
	b.WriteString(lineStyle.Sprint(" --> ") + fileStyle.Sprint("pattern") + "\n")
	b.WriteString(lineStyle.Sprint("  |\n"))
	b.WriteString(lineStyle.Sprint("  | ") + expandTabs(pattern) + "\n")

	if u := underline(pattern, e.Token, e.Offset); u != "" {
		b.WriteString(lineStyle.Sprint("  | ") + u + "\n")
	}
	b.WriteString(lineStyle.Sprint("  = ") + messageStyle.Sprint(e.Message) + "\n")

	if e.Pointer != "" {
		b.WriteString(lineStyle.Sprint("  | ") + "In token '" + e.Token + "'\n")
		b.WriteString(lineStyle.Sprint("  | ") + messageStyle.Sprint(e.Pointer) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// underline marks the bytes of token found at offset in pattern. It returns
// an empty string when the position is unknown.
func underline(pattern, token string, offset int) string {
	if offset < 0 || offset > len(pattern) || token == "" {
		return ""
	}

	token = strings.TrimSpace(token)
	if i := strings.Index(pattern[offset:], token); i > 0 {
		offset += i
	}

	width := utf8.RuneCountInString(token)
	if rest := utf8.RuneCountInString(pattern[offset:]); width > rest {
		width = rest
	}
	if width < 1 {
		width = 1
	}

	col := calculateVisualColumn(pattern[:offset])
	return strings.Repeat(" ", col) + messageStyle.Sprint("^"+strings.Repeat("~", width-1))
}

// FormatProgram describes a compiled pattern.
func FormatProgram(m *metasyntax.Metasyntax) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Sprintf("%-9s", label+":") + value + "\n")
	}

	row("pattern", m.Source())
	row("regexp", m.String())
	key := m.Key()
	if len(key) == 0 {
		row("key", "-")
	} else {
		row("key", strings.Join(key, ", "))
	}
	if prefix := m.Prefix(); len(prefix) > 0 {
		row("prefix", strings.Join(prefix, " "))
	}
	return b.String()
}

// FormatHits renders hits grouped by consecutive filename.
func FormatHits(hits []scan.Hit) string {
	var b strings.Builder
	for start := 0; start < len(hits); {
		end := start
		for end < len(hits) && hits[end].Filename == hits[start].Filename {
			end++
		}
		writeFile(&b, hits[start:end])
		start = end
	}
	return b.String()
}

func writeFile(b *strings.Builder, hits []scan.Hit) {
	width := len(strconv.Itoa(hits[len(hits)-1].Line))
	padding := strings.Repeat(" ", width)

	b.WriteString(lineStyle.Sprint("--> ") + fileStyle.Sprint(hits[0].Filename) + "\n")
	last := 0
	for _, h := range hits {
		if h.Line != last {
			b.WriteString(lineStyle.Sprintf("%*d | ", width, h.Line) + expandTabs(h.Text) + "\n")
			last = h.Line
		}
		b.WriteString(lineStyle.Sprintf("%s = ", padding) + ruleStyle.Sprint(h.Rule))
		if len(h.Values) > 0 {
			b.WriteString(" " + FormatValues(h.Values))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// FormatValues renders extracted values as a bracketed list.
func FormatValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "undefined"
	case string:
		return strconv.Quote(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case *big.Int:
		return v.String() + "n"
	case *regexp.Regexp:
		return "/" + v.String() + "/"
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case []any:
		return FormatValues(v)
	default:
		return fmt.Sprint(v)
	}
}

func expandTabs(line string) string {
	var expanded strings.Builder
	col := 0
	for _, ch := range line {
		if ch == '\t' {
			spaceCount := tabWidth - (col % tabWidth)
			expanded.WriteString(strings.Repeat(" ", spaceCount))
			col += spaceCount
		} else {
			expanded.WriteRune(ch)
			col++
		}
	}
	return expanded.String()
}

// calculateVisualColumn returns the display width of s after tab expansion.
func calculateVisualColumn(s string) int {
	col := 0
	for _, ch := range s {
		if ch == '\t' {
			col += tabWidth - (col % tabWidth)
		} else {
			col++
		}
	}
	return col
}
