// Package extract runs compiled patterns against input and converts the
// captured text into typed values.
package extract

import (
	"strings"

	"github.com/gnolang/metasyntax/internal/compiler"
	"github.com/gnolang/metasyntax/internal/types"
)

// Normalize prepares input the way the program was compiled to expect it.
func Normalize(p *compiler.Program, input string) string {
	if !p.Strict {
		input = strings.TrimSpace(input)
	}
	if p.Fold {
		input = strings.ToLower(input)
	}
	return input
}

// Test reports whether input matches p. No values are converted.
func Test(p *compiler.Program, input string) bool {
	return p.Regexp.MatchString(Normalize(p, input))
}

// Exec matches input against p and returns one value per placeholder or
// anchor token, in pattern order. Absent optional slots hold nil.
// The boolean is false when input does not match or when p declares no
// slots at all.
func Exec(p *compiler.Program, input string) ([]any, bool) {
	if p.Values == 0 {
		return nil, false
	}

	in := Normalize(p, input)
	loc := p.Regexp.FindStringSubmatchIndex(in)
	if loc == nil {
		return nil, false
	}

	values := make([]any, p.Values)
	for _, slot := range p.Key {
		start, end := loc[2*slot.Group], loc[2*slot.Group+1]
		if start < 0 {
			continue
		}
		text := strings.TrimSpace(in[start:end])
		if slot.Array {
			values[slot.Value] = Split(slot.Def, text)
			continue
		}
		values[slot.Value] = slot.Def.Convert(text)
	}
	return values, true
}

// Split converts a comma-separated list with def, dropping absent items.
// A list with no remaining items is itself absent.
func Split(def *types.Definition, text string) any {
	var items []any
	for _, piece := range splitList(text) {
		piece = strings.ReplaceAll(strings.TrimSpace(piece), `\,`, ",")
		if v := def.Convert(piece); v != nil {
			items = append(items, v)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

// splitList splits s on commas not preceded by a backslash. Items that start
// with a quote keep their commas.
func splitList(s string) []string {
	var (
		parts []string
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case (c == '"' || c == '\'') && strings.TrimSpace(s[start:i]) == "":
			quote = c
		case c == ',':
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
