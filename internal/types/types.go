package types

import (
	"regexp"
	"strings"
)

// Kind identifies a value type a placeholder can hold.
type Kind uint8

const (
	KindString    Kind = iota // quoted text or a bare word
	KindNumber                // float64
	KindInteger               // int64
	KindBigInt                // *big.Int
	KindBoolean               // bool
	KindUndefined             // absent value (nil)
	KindNull                  // Null{}
	KindAny                   // raw text, one or more characters
	KindChar                  // raw text, exactly one character
	KindRegex                 // *regexp.Regexp
	KindDuration              // float64 milliseconds
	KindDate                  // time.Time
	KindLiteral               // quoted literal or `$` anchor, matched verbatim
	KindUser                  // user-registered type
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBigInt:
		return "bigint"
	case KindBoolean:
		return "boolean"
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindAny:
		return "any"
	case KindChar:
		return "char"
	case KindRegex:
		return "regex"
	case KindDuration:
		return "duration"
	case KindDate:
		return "date"
	case KindLiteral:
		return "literal"
	case KindUser:
		return "user"
	default:
		return "unknown"
	}
}

// Null is the value produced by the `null` type. It is distinct from nil,
// which marks an absent value.
type Null struct{}

func (Null) String() string { return "null" }

// MarshalJSON renders Null as JSON null.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// MarshalYAML renders Null as YAML null.
func (Null) MarshalYAML() (any, error) { return nil, nil }

func (Null) GobEncode() ([]byte, error) { return []byte{}, nil }

func (Null) GobDecode([]byte) error { return nil }

// Converter turns matched text into a runtime value. A nil result is an
// absent value.
type Converter func(match string) any

// Definition describes how one type is matched and converted.
// Definitions are immutable once built.
type Definition struct {
	Kind Kind
	Name string

	// pattern is the RE2 fragment for a single value. It never contains
	// capturing groups for built-ins; user patterns may.
	pattern string
	// item is the fragment used for one element of an array.
	item string
	// bare, when set, is tried after every other member of a union.
	bare    string
	groups  int
	convert Converter
}

// Pattern returns the fragment matching one value, without a capture group.
func (d *Definition) Pattern() string { return d.pattern }

// Required returns the fragment used inside a `<...>` placeholder.
func (d *Definition) Required() string {
	return "(" + d.pattern + ")"
}

// Optional returns the fragment used inside a `[...]` placeholder. It also
// consumes the whitespace separating the value from whatever follows.
func (d *Definition) Optional() string {
	return "(" + d.pattern + `)(?:\s+|$)`
}

// Item returns the fragment matching one element of a comma-separated array.
func (d *Definition) Item() string {
	if d.item != "" {
		return "(?:" + d.item + ")"
	}
	return "(?:" + d.pattern + ")"
}

// Bare returns the fallback definition tried last in a union, or nil.
func (d *Definition) Bare() *Definition {
	if d.bare == "" {
		return nil
	}
	return &Definition{
		Kind:    d.Kind,
		Name:    d.Name,
		pattern: d.bare,
		convert: d.convert,
	}
}

// Groups reports the number of capturing groups inside Pattern.
func (d *Definition) Groups() int { return d.groups }

// Convert applies the definition's converter to trimmed text. Empty text is
// always absent.
func (d *Definition) Convert(match string) any {
	if match == "" {
		return nil
	}
	if d.convert == nil {
		return match
	}
	return d.convert(match)
}

// NewLiteral returns a definition matching text verbatim.
func NewLiteral(text string) *Definition {
	return &Definition{
		Kind:    KindLiteral,
		Name:    text,
		pattern: Escape(text),
		convert: identity,
	}
}

// NewUser wraps a user-registered type. A nil convert passes the matched text
// through unchanged.
func NewUser(name string, re *regexp.Regexp, convert Converter) *Definition {
	return &Definition{
		Kind:    KindUser,
		Name:    name,
		pattern: re.String(),
		groups:  re.NumSubexp(),
		convert: convert,
	}
}

// Escape quotes every regular expression metacharacter in a literal.
func Escape(literal string) string {
	return regexp.QuoteMeta(literal)
}

// Unescape drops the backslash in front of escaped characters, so `a\|b`
// becomes `a|b`.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func identity(match string) any { return match }
