// Package metasyntax compiles compact usage patterns into a matcher that tests
// input and extracts typed values from it.
//
// A pattern is a whitespace-separated sequence of tokens:
//
//	word        a literal word, matched as written
//	<types>     a required placeholder
//	[types]     an optional placeholder
//	$           the anchor, replaced by the configured anchor text
//
// A placeholder holds a pipe-separated union of built-in type names, user
// type names, aliases, quoted literals and, in the last token only, an array
// marker such as `number()` matching a comma-separated list.
//
// Built-in types:
//
//	string      "quoted" or 'quoted' text, or a bare word as the last resort
//	number      float64
//	integer     int64
//	bigint      *big.Int
//	boolean     bool
//	undefined   nil
//	null        Null
//	any         the raw text, one or more characters
//	char        the raw text, exactly one character
//	regex       *regexp.Regexp from a /pattern/ literal
//	duration    float64 milliseconds, from "2 days", "1.5h", "500ms"
//	date        time.Time from an ISO-8601 date-time
//
// Usage:
//
//	m, err := metasyntax.New("set [key] <string|number>")
//	if err != nil {
//	    // err is a *metasyntax.Error
//	}
//
//	values, ok := m.Exec("set name John") // ["name", "John"], true
//	values, ok = m.Exec("set 42")         // [nil, 42.0], true
//
// Exec returns one value per placeholder or anchor token. Optional slots that
// did not match hold nil.
//
// A compiled *Metasyntax is immutable and safe for concurrent use.
package metasyntax
