package compiler

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// TokenType defines the type of a token
type TokenType int

const (
	TokenEOF      TokenType = iota
	TokenLiteral            // bare word, matched as itself
	TokenRequired           // <...>
	TokenOptional           // [...]
	TokenAnchor             // $
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenLiteral:
		return "Literal"
	case TokenRequired:
		return "Required"
	case TokenOptional:
		return "Optional"
	case TokenAnchor:
		return "Anchor"
	default:
		return "Unknown"
	}
}

// Token represents one whitespace-delimited unit of a pattern.
type Token struct {
	Type   TokenType
	Value  string // token as written
	Inner  string // placeholder content without the enclosing brackets
	Offset int    // byte offset of Value in the pattern
}

// Lex splits a pattern on whitespace and classifies each token by its
// bracket form. The returned slice always ends with a TokenEOF.
func Lex(input string) ([]Token, error) {
	var tokens []Token

	start := -1
	flush := func(end int) error {
		if start < 0 {
			return nil
		}
		tok, err := classify(input[start:end], start)
		if err != nil {
			return err
		}
		tokens = append(tokens, tok)
		start = -1
		return nil
	}

	for i, r := range input {
		if unicode.IsSpace(r) {
			if err := flush(i); err != nil {
				return nil, err
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if err := flush(len(input)); err != nil {
		return nil, err
	}

	if len(tokens) == 0 {
		return nil, typeError("No tokens provided.")
	}

	tokens = append(tokens, Token{Type: TokenEOF, Offset: len(input)})
	return tokens, nil
}

func classify(value string, offset int) (Token, error) {
	if value == "$" {
		return Token{Type: TokenAnchor, Value: value, Offset: offset}, nil
	}

	first := value[0]
	opens := first == '[' || first == '<'
	closes := len(value) > 1 && isCloser(value[len(value)-1]) && value[len(value)-2] != '\\'
	if len(value) == 1 && isCloser(first) {
		closes = true
	}

	switch {
	case opens && closes && len(value) >= 2:
		want := closerOf(first)
		if value[len(value)-1] != want {
			return Token{}, syntaxError("Invalid metasyntax.").
				missing(value[:len(value)-1], offset, false, fmt.Sprintf("Expected closing '%c'.", want))
		}
		inner := value[1 : len(value)-1]
		if i := unescapedBracket(inner); i >= 0 {
			return Token{}, syntaxError("Invalid metasyntax.").
				pointAt(value, offset, i+1, fmt.Sprintf("Unexpected '%c' inside placeholder.", inner[i]))
		}
		typ := TokenRequired
		if first == '[' {
			typ = TokenOptional
		}
		return Token{Type: typ, Value: value, Inner: inner, Offset: offset}, nil

	case opens:
		return Token{}, syntaxError("Invalid metasyntax.").
			missing(value, offset, false, fmt.Sprintf("Expected closing '%c'.", closerOf(first)))

	case closes:
		return Token{}, syntaxError("Invalid metasyntax.").
			missing(value, offset, true, fmt.Sprintf("Expected opening '%c'.", openerOf(value[len(value)-1])))
	}

	if i := unescapedBracket(value); i >= 0 {
		return Token{}, syntaxError("Invalid metasyntax.").
			pointAt(value, offset, i, "Expected opening and closing '[]' or '<>'.")
	}
	return Token{Type: TokenLiteral, Value: value, Offset: offset}, nil
}

// unescapedBracket returns the index of the first bracket in s that is not
// preceded by a backslash, or -1.
func unescapedBracket(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '[', ']', '<', '>':
			return i
		}
	}
	return -1
}

func isCloser(c byte) bool { return c == ']' || c == '>' }

func closerOf(c byte) byte {
	if c == '[' {
		return ']'
	}
	return '>'
}

func openerOf(c byte) byte {
	if c == ']' {
		return '['
	}
	return '<'
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierChar(r rune) bool {
	return isIdentifierStart(r) || unicode.IsDigit(r) || r == '-'
}

// isIdentifier reports whether s looks like a type or label name.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	first, size := utf8.DecodeRuneInString(s)
	if !isIdentifierStart(first) {
		return false
	}
	for _, r := range s[size:] {
		if !isIdentifierChar(r) {
			return false
		}
	}
	return true
}
