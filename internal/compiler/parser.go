package compiler

import (
	"fmt"
	"strings"

	"github.com/gnolang/metasyntax/internal/types"
)

// Node represents a parsed pattern token
type Node interface {
	String() string
}

// LiteralNode is a bare word matched verbatim
type LiteralNode struct {
	Value string
}

func (l LiteralNode) String() string {
	return fmt.Sprintf("Literal(%q)", l.Value)
}

// AnchorNode is the `$` token
type AnchorNode struct {
	Offset int
}

func (AnchorNode) String() string { return "Anchor" }

// PlaceholderNode is a `<...>` or `[...]` token holding a union of members
type PlaceholderNode struct {
	Optional bool
	Last     bool
	Members  []Member
	Token    string
	Offset   int
}

func (p PlaceholderNode) String() string {
	names := make([]string, len(p.Members))
	for i, m := range p.Members {
		names[i] = m.String()
	}
	kind := "Required"
	if p.Optional {
		kind = "Optional"
	}
	return fmt.Sprintf("%s(%s)", kind, strings.Join(names, "|"))
}

// MemberKind distinguishes the forms a union member can take
type MemberKind int

const (
	MemberName   MemberKind = iota // type, alias or label name
	MemberQuoted                   // "literal" or 'literal'
	MemberArray                    // name()
)

// Member is one alternative of a placeholder union
type Member struct {
	Kind MemberKind
	// Text is the name, the unescaped literal, or the array item name.
	Text string
	Raw  string
}

func (m Member) String() string {
	switch m.Kind {
	case MemberQuoted:
		return fmt.Sprintf("%q", m.Text)
	case MemberArray:
		return m.Text + "()"
	default:
		return m.Text
	}
}

// Parse converts a sequence of tokens into a slice of Nodes.
func Parse(tokens []Token) ([]Node, error) {
	var nodes []Node

	last := len(tokens) - 1
	if last >= 0 && tokens[last].Type == TokenEOF {
		last--
	}

	for pos, token := range tokens {
		if token.Type == TokenEOF {
			break
		}
		switch token.Type {
		case TokenLiteral:
			nodes = append(nodes, LiteralNode{Value: types.Unescape(token.Value)})
		case TokenAnchor:
			nodes = append(nodes, AnchorNode{Offset: token.Offset})
		case TokenRequired, TokenOptional:
			members, err := ParseUnion(token.Inner)
			if err != nil {
				return nil, locate(err, token)
			}
			nodes = append(nodes, PlaceholderNode{
				Optional: token.Type == TokenOptional,
				Last:     pos == last,
				Members:  members,
				Token:    token.Value,
				Offset:   token.Offset,
			})
		default:
			return nil, fmt.Errorf("unexpected token type: %v", token.Type)
		}
	}
	return nodes, nil
}

// ParseUnion splits a type specifier on unescaped pipes and classifies each
// member. Duplicate members are dropped, keeping the first occurrence.
func ParseUnion(union string) ([]Member, error) {
	parts := splitUnescaped(union, '|')
	seen := make(map[string]bool, len(parts))
	members := make([]Member, 0, len(parts))

	for _, part := range parts {
		raw := strings.TrimSpace(part)
		if seen[raw] {
			continue
		}
		seen[raw] = true

		m, err := parseMember(raw)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

func parseMember(raw string) (Member, error) {
	if raw == "" {
		return Member{}, syntaxError("Empty type in placeholder.").at(raw, -1)
	}

	first, end := raw[0], raw[len(raw)-1]
	if first == '"' || first == '\'' {
		if len(raw) < 2 || end != first {
			return Member{}, syntaxError("Unterminated string literal.").
				missing(raw, -1, false, fmt.Sprintf("Expected closing '%c'.", first))
		}
		return Member{Kind: MemberQuoted, Text: types.Unescape(raw[1 : len(raw)-1]), Raw: raw}, nil
	}
	if end == '"' || end == '\'' {
		return Member{}, syntaxError("Unterminated string literal.").
			missing(raw, -1, true, fmt.Sprintf("Expected opening '%c'.", end))
	}

	if item, ok := strings.CutSuffix(raw, "()"); ok {
		if strings.HasSuffix(item, "()") {
			return Member{}, syntaxError("Array types can't be nested.").
				pointAt(raw, -1, len(item)-2, "Nested array marker.")
		}
		return Member{Kind: MemberArray, Text: item, Raw: raw}, nil
	}

	return Member{Kind: MemberName, Text: raw, Raw: raw}, nil
}

// locate fills in the pattern offset for member errors raised while parsing
// the content of token.
func locate(err error, token Token) error {
	if e, ok := err.(*Error); ok && e.Offset < 0 {
		e.Offset = token.Offset
		if e.Token == "" {
			e.Token = token.Value
		}
	}
	return err
}

// splitUnescaped splits s on sep wherever sep is not preceded by a backslash.
func splitUnescaped(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
