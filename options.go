package metasyntax

import (
	"regexp"

	"github.com/gnolang/metasyntax/internal/types"
)

// Null is the value produced by the `null` type. It marshals to null in JSON
// and YAML and is distinct from nil, which marks an absent value.
type Null = types.Null

// Converter turns the text matched by a user type into a value.
// Returning nil marks the value as absent.
type Converter = types.Converter

// Type registers a user type. Pattern must match one value. A nil Convert
// returns the matched text unchanged.
type Type struct {
	Pattern *regexp.Regexp
	Convert Converter
}

// Options configures compilation. The zero value is valid.
type Options struct {
	// Anchor is the text `$` stands for. Patterns using `$` fail to compile
	// when it is empty.
	Anchor string
	// Types holds user types by name. Built-in names take precedence.
	Types map[string]Type
	// Aliases maps a name to a pipe-separated union. An alias may not name
	// another alias.
	Aliases map[string]string
	// Strict disables trimming input before matching.
	Strict bool
	// Partial drops the start and end anchors so the pattern may match
	// anywhere in the input.
	Partial bool
	// Case lowercases input and matches literals case-insensitively.
	Case bool
}

// Option modifies Options.
type Option func(*Options)

// WithAnchor sets the text each `$` token in a pattern stands for.
func WithAnchor(anchor string) Option {
	return func(o *Options) { o.Anchor = anchor }
}

// WithType registers a user type whose matched text is used as-is.
func WithType(name string, pattern *regexp.Regexp) Option {
	return WithConverter(name, pattern, nil)
}

// WithConverter registers a user type with a converter.
func WithConverter(name string, pattern *regexp.Regexp, convert Converter) Option {
	return func(o *Options) {
		if o.Types == nil {
			o.Types = make(map[string]Type)
		}
		o.Types[name] = Type{Pattern: pattern, Convert: convert}
	}
}

// WithAlias registers name as a shorthand for a union of types.
func WithAlias(name, union string) Option {
	return func(o *Options) {
		if o.Aliases == nil {
			o.Aliases = make(map[string]string)
		}
		o.Aliases[name] = union
	}
}

// WithStrict matches input without trimming surrounding whitespace.
func WithStrict() Option {
	return func(o *Options) { o.Strict = true }
}

// WithPartial lets the pattern match anywhere in the input.
func WithPartial() Option {
	return func(o *Options) { o.Partial = true }
}

// WithCase ignores case when matching.
func WithCase() Option {
	return func(o *Options) { o.Case = true }
}
