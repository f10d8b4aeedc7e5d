package metasyntax

import (
	"fmt"

	"github.com/gnolang/metasyntax/internal/compiler"
	"github.com/gnolang/metasyntax/internal/extract"
	"github.com/gnolang/metasyntax/internal/types"
)

// Metasyntax is a compiled pattern.
type Metasyntax struct {
	prog *compiler.Program
}

// New compiles pattern. The returned error, if any, is a *Error.
func New(pattern string, opts ...Option) (*Metasyntax, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return NewWithOptions(pattern, o)
}

// NewWithOptions compiles pattern with o.
func NewWithOptions(pattern string, o Options) (*Metasyntax, error) {
	cfg := compiler.Config{
		Anchor:  o.Anchor,
		Aliases: o.Aliases,
		Strict:  o.Strict,
		Partial: o.Partial,
		Case:    o.Case,
	}

	if len(o.Types) > 0 {
		cfg.Types = make(map[string]*types.Definition, len(o.Types))
		for name, typ := range o.Types {
			if typ.Pattern == nil {
				return nil, &Error{
					Kind:    KindType,
					Message: fmt.Sprintf("Type '%s' has no pattern.", name),
					Token:   name,
					Offset:  -1,
				}
			}
			cfg.Types[name] = types.NewUser(name, typ.Pattern, typ.Convert)
		}
	}

	prog, err := compiler.Compile(pattern, cfg)
	if err != nil {
		return nil, err
	}
	return &Metasyntax{prog: prog}, nil
}

// MustCompile is like New but panics if the pattern cannot be compiled.
func MustCompile(pattern string, opts ...Option) *Metasyntax {
	m, err := New(pattern, opts...)
	if err != nil {
		panic(fmt.Sprintf("metasyntax: New(%q): %v", pattern, err))
	}
	return m
}

// Exec matches input and returns one value per placeholder or anchor token.
// It reports false when input does not match or the pattern has no
// placeholders.
func (m *Metasyntax) Exec(input string) ([]any, bool) {
	return extract.Exec(m.prog, input)
}

// Test reports whether input matches.
func (m *Metasyntax) Test(input string) bool {
	return extract.Test(m.prog, input)
}

// NumValues returns the number of values Exec produces on a match. It is
// zero for patterns made only of literal words.
func (m *Metasyntax) NumValues() int {
	return m.prog.Values
}

// Source returns the pattern m was compiled from.
func (m *Metasyntax) Source() string {
	return m.prog.Source
}

// String returns the source text of the compiled regular expression.
func (m *Metasyntax) String() string {
	return m.prog.Regexp.String()
}

// Key returns the type name behind each capture group, in group order.
// Array slots are suffixed with "()" and quoted literals are returned as
// written without quotes.
func (m *Metasyntax) Key() []string {
	names := make([]string, len(m.prog.Key))
	for i, slot := range m.prog.Key {
		names[i] = slot.Name()
	}
	return names
}

// Prefix returns the literal words every matching input starts with, in the
// form Exec compares them (lowercased when the pattern ignores case).
func (m *Metasyntax) Prefix() []string {
	return m.prog.Prefix
}
