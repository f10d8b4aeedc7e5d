package types

import (
	"math/big"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gnolang/metasyntax/duration"
)

const (
	quoted     = `"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`
	bareWord   = `\S+`
	bareItem   = `(?:[^\s,\\]|\\.)+`
	decimal    = `[+-]?(?:\d+(?:\.\d*)?|\.\d+)`
	digits     = `[+-]?\d+`
	regexLit   = `/(?:[^/\\*+?]|\\.)(?:[^/\\]|\\.)*/`
	timeUnits  = `milliseconds?|msecs?|ms|seconds?|secs?|s|minutes?|mins?|m|hours?|hrs?|h|days?|d|weeks?|w|years?|yrs?|y`
	durationLt = `-?(?:\d+)?\.?\d+ *(?i:` + timeUnits + `)?`
	isoDate    = `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})`
)

// builtins is the fixed catalog of types every pattern can reference.
// It is never mutated after package initialization.
var builtins = map[string]*Definition{
	"string":    {Kind: KindString, Name: "string", pattern: quoted, item: quoted + "|" + bareItem, bare: bareWord, convert: convertString},
	"number":    {Kind: KindNumber, Name: "number", pattern: decimal, convert: convertNumber},
	"integer":   {Kind: KindInteger, Name: "integer", pattern: digits, convert: convertInteger},
	"bigint":    {Kind: KindBigInt, Name: "bigint", pattern: digits, convert: convertBigInt},
	"boolean":   {Kind: KindBoolean, Name: "boolean", pattern: `true|false`, convert: convertBoolean},
	"undefined": {Kind: KindUndefined, Name: "undefined", pattern: `undefined`, convert: func(string) any { return nil }},
	"null":      {Kind: KindNull, Name: "null", pattern: `null`, convert: func(string) any { return Null{} }},
	"any":       {Kind: KindAny, Name: "any", pattern: `[\s\S]+`, convert: identity},
	"char":      {Kind: KindChar, Name: "char", pattern: `[\s\S]`, convert: identity},
	"regex":     {Kind: KindRegex, Name: "regex", pattern: regexLit, convert: convertRegex},
	"duration":  {Kind: KindDuration, Name: "duration", pattern: durationLt, convert: convertDuration},
	"date":      {Kind: KindDate, Name: "date", pattern: isoDate, convert: convertDate},
}

// Lookup returns the built-in definition registered under name.
func Lookup(name string) (*Definition, bool) {
	def, ok := builtins[name]
	return def, ok
}

// IsBuiltin reports whether name is a built-in type.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// Names returns the built-in type names in lexical order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// convertString strips one pair of matching quotes and unescapes the quote
// character inside. Bare words are returned as-is.
func convertString(match string) any {
	if len(match) >= 2 {
		q := match[0]
		if (q == '"' || q == '\'') && match[len(match)-1] == q {
			inner := match[1 : len(match)-1]
			return strings.ReplaceAll(inner, `\`+string(q), string(q))
		}
	}
	return match
}

func convertNumber(match string) any {
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return f
}

func convertInteger(match string) any {
	n, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return nil
	}
	return n
}

func convertBigInt(match string) any {
	n, ok := new(big.Int).SetString(match, 10)
	if !ok {
		return nil
	}
	return n
}

func convertBoolean(match string) any {
	return match == "true"
}

func convertRegex(match string) any {
	if len(match) < 2 {
		return nil
	}
	re, err := regexp.Compile(match[1 : len(match)-1])
	if err != nil {
		return nil
	}
	return re
}

func convertDuration(match string) any {
	ms, err := duration.Parse(match)
	if err != nil {
		return nil
	}
	return ms
}

func convertDate(match string) any {
	t, err := time.Parse(time.RFC3339, strings.ToUpper(match))
	if err != nil {
		return nil
	}
	return t
}
