package compiler

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/gnolang/metasyntax/internal/types"
)

// Config holds everything besides the pattern that affects compilation.
type Config struct {
	// Anchor replaces `$`. Empty means `$` is not allowed.
	Anchor  string
	Types   map[string]*types.Definition
	Aliases map[string]string
	Strict  bool
	Partial bool
	Case    bool
}

// Slot ties one capture group to the value it produces.
type Slot struct {
	// Group is the capture group index in Program.Regexp.
	Group int
	// Value is the position of the produced value in the exec result.
	Value int
	Def   *types.Definition
	Array bool
}

// Name returns the type name this slot was compiled from.
func (s Slot) Name() string {
	if s.Array {
		return s.Def.Name + "()"
	}
	return s.Def.Name
}

// Program is the result of compiling a pattern. It is never mutated after
// Compile returns and is safe for concurrent use.
type Program struct {
	Source string
	Regexp *regexp.Regexp
	// Key lists capture slots in group order.
	Key []Slot
	// Values is the number of values an exec result holds.
	Values int
	// Prefix holds the leading literal words every matching input starts with.
	Prefix []string
	Strict bool
	Fold   bool
}

type alternative struct {
	def   *types.Definition
	array bool
}

// compilation is the state threaded through the compile stages.
type compilation struct {
	pattern string
	cfg     Config

	tokens []Token
	nodes  []Node

	expr   strings.Builder
	key    []Slot
	group  int
	values int
	prefix []string
	re     *regexp.Regexp
}

// Compile turns a pattern into a Program.
func Compile(pattern string, cfg Config) (*Program, error) {
	c, err := createOption(&compilation{pattern: pattern, cfg: cfg, group: 1}, nil).
		Bind(aliasStage).
		Bind(lexStage).
		Bind(parseStage).
		Bind(buildStage).
		Map(prefixStage).
		Bind(regexpStage).
		Unwrap()
	if err != nil {
		return nil, err
	}

	return &Program{
		Source: pattern,
		Regexp: c.re,
		Key:    c.key,
		Values: c.values,
		Prefix: c.prefix,
		Strict: cfg.Strict,
		Fold:   cfg.Case,
	}, nil
}

// aliasStage rejects aliases that name other aliases, whether or not the
// pattern uses them.
func aliasStage(c *compilation) Option[*compilation] {
	names := make([]string, 0, len(c.cfg.Aliases))
	for name := range c.cfg.Aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		members, err := ParseUnion(c.cfg.Aliases[name])
		if err != nil {
			return createOption(c, withinAlias(err, name))
		}
		for _, m := range members {
			if _, ok := c.cfg.Aliases[m.Text]; ok && m.Kind == MemberName {
				return createOption(c, nestedAlias(m.Text, name))
			}
		}
	}
	return createOption(c, nil)
}

func lexStage(c *compilation) Option[*compilation] {
	tokens, err := Lex(c.pattern)
	c.tokens = tokens
	return createOption(c, err)
}

func parseStage(c *compilation) Option[*compilation] {
	nodes, err := Parse(c.tokens)
	c.nodes = nodes
	return createOption(c, err)
}

// buildStage concatenates the per-token fragments. A token following an
// optional one needs no separator since optional fragments consume their own
// trailing whitespace.
func buildStage(c *compilation) Option[*compilation] {
	prevOptional := false
	for i, node := range c.nodes {
		frag, optional, err := c.fragment(node)
		if err != nil {
			return createOption(c, err)
		}
		if i > 0 && !prevOptional {
			if optional {
				c.expr.WriteString(`\s*`)
			} else {
				c.expr.WriteString(`\s+`)
			}
		}
		c.expr.WriteString(frag)
		prevOptional = optional
	}
	return createOption(c, nil)
}

// prefixStage records the leading literal words, anchor text included, that
// are separated from the next token by mandatory whitespace. Partial patterns
// have no prefix.
func prefixStage(c *compilation) *compilation {
	if c.cfg.Partial {
		return c
	}
	for i, node := range c.nodes {
		var word string
		switch n := node.(type) {
		case LiteralNode:
			word = n.Value
		case AnchorNode:
			word = c.cfg.Anchor
		}
		if word == "" || strings.ContainsFunc(word, unicode.IsSpace) {
			break
		}
		if i+1 < len(c.nodes) {
			if p, ok := c.nodes[i+1].(PlaceholderNode); ok && p.Optional {
				break
			}
		}
		if c.cfg.Case {
			word = strings.ToLower(word)
		}
		c.prefix = append(c.prefix, word)
	}
	return c
}

func regexpStage(c *compilation) Option[*compilation] {
	var src strings.Builder
	if c.cfg.Case {
		src.WriteString("(?i)")
	}
	if !c.cfg.Partial {
		src.WriteString("^")
	}
	src.WriteString(c.expr.String())
	if !c.cfg.Partial {
		src.WriteString("$")
	}

	re, err := regexp.Compile(src.String())
	if err != nil {
		return createOption(c, syntaxError(fmt.Sprintf("Compiled expression is invalid: %v.", err)))
	}
	if want := c.group - 1; re.NumSubexp() != want {
		e := referenceError(fmt.Sprintf("Expression has %d groups, key expects %d.", re.NumSubexp(), want))
		e.Bug = true
		return createOption(c, e)
	}
	c.re = re
	return createOption(c, nil)
}

// fragment returns the expression for one node and whether it is optional.
func (c *compilation) fragment(node Node) (string, bool, error) {
	switch n := node.(type) {
	case LiteralNode:
		return types.Escape(n.Value), false, nil

	case AnchorNode:
		if c.cfg.Anchor == "" {
			return "", false, typeError("Special symbol '$' requires a value to be used.").at("$", n.Offset)
		}
		value := c.values
		c.values++
		return c.alternative(alternative{def: types.NewLiteral(c.cfg.Anchor)}, false, value), false, nil

	case PlaceholderNode:
		alts, err := c.union(n)
		if err != nil {
			return "", false, locate(err, Token{Value: n.Token, Offset: n.Offset})
		}
		value := c.values
		c.values++

		frags := make([]string, 0, len(alts)+1)
		for _, alt := range alts {
			frags = append(frags, c.alternative(alt, n.Optional, value))
		}
		if n.Optional {
			frags = append(frags, `\s*`)
		}
		return "(?:" + strings.Join(frags, "|") + ")", n.Optional, nil
	}
	e := referenceError(fmt.Sprintf("Unexpected node %T.", node))
	e.Bug = true
	return "", false, e
}

// alternative emits one capturing alternative and records its slot.
func (c *compilation) alternative(alt alternative, optional bool, value int) string {
	c.key = append(c.key, Slot{Group: c.group, Value: value, Def: alt.def, Array: alt.array})

	if alt.array {
		c.group += 1 + 2*alt.def.Groups()
		item := alt.def.Item()
		list := `((?:` + item + `\s*,\s*)*` + item + `)`
		if optional {
			return list + `\s*$`
		}
		return list + `$`
	}

	c.group += 1 + alt.def.Groups()
	if optional {
		return alt.def.Optional()
	}
	return alt.def.Required()
}

// union resolves every member of a placeholder, then appends the bare-word
// fallbacks of the resolved types so quoted and typed forms win first.
func (c *compilation) union(n PlaceholderNode) ([]alternative, error) {
	var alts []alternative
	sole := len(n.Members) == 1
	for _, m := range n.Members {
		resolved, err := c.resolve(m, n, false, sole)
		if err != nil {
			return nil, err
		}
		alts = append(alts, resolved...)
	}

	seen := make(map[string]bool)
	for _, alt := range alts {
		if alt.array || seen[alt.def.Name] {
			continue
		}
		if bare := alt.def.Bare(); bare != nil {
			seen[alt.def.Name] = true
			alts = append(alts, alternative{def: bare})
		}
	}
	return alts, nil
}

func (c *compilation) resolve(m Member, n PlaceholderNode, inAlias, sole bool) ([]alternative, error) {
	if m.Kind == MemberName {
		if union, ok := c.cfg.Aliases[m.Text]; ok {
			if inAlias {
				return nil, nestedAlias(m.Text, "")
			}
			return c.expand(m.Text, union, n)
		}
	}

	switch m.Kind {
	case MemberQuoted:
		return []alternative{{def: types.NewLiteral(m.Text)}}, nil

	case MemberArray:
		if !n.Last {
			return nil, syntaxError("Array types must be last.").at(m.Raw, -1)
		}
		if _, ok := c.cfg.Aliases[m.Text]; ok {
			return nil, typeError(fmt.Sprintf("Array item '%s' is an alias; array items must be a single type.", m.Text)).at(m.Raw, -1)
		}
		if !c.defined(m.Text) {
			return nil, typeError(fmt.Sprintf("Unknown type '%s'.", m.Raw)).at(m.Raw, -1)
		}
		def, err := c.lookup(m.Text)
		if err != nil {
			return nil, err
		}
		return []alternative{{def: def, array: true}}, nil
	}

	if c.defined(m.Text) {
		def, err := c.lookup(m.Text)
		if err != nil {
			return nil, err
		}
		return []alternative{{def: def}}, nil
	}

	// A lone unknown name labels a string slot, as in `set [key] <string>`.
	if sole && !inAlias && isIdentifier(m.Text) {
		label, err := c.lookup("string")
		if err != nil {
			return nil, err
		}
		return []alternative{{def: label}}, nil
	}

	return nil, typeError(fmt.Sprintf("Unknown type '%s'.", m.Text)).at(m.Raw, -1)
}

// expand resolves each member of an alias one level deep.
func (c *compilation) expand(name, union string, n PlaceholderNode) ([]alternative, error) {
	members, err := ParseUnion(union)
	if err != nil {
		return nil, withinAlias(err, name)
	}

	var alts []alternative
	for _, m := range members {
		resolved, err := c.resolve(m, n, true, false)
		if err != nil {
			return nil, err
		}
		alts = append(alts, resolved...)
	}
	return alts, nil
}

func nestedAlias(name, in string) *Error {
	msg := fmt.Sprintf("Aliases cannot be included in another alias. Alias '%s' is included in another alias.", name)
	if in != "" {
		msg = fmt.Sprintf("Aliases cannot be included in another alias. Alias '%s' is included in alias '%s'.", name, in)
	}
	return referenceError(msg).at(name, -1)
}

func withinAlias(err error, name string) error {
	if e, ok := err.(*Error); ok {
		e.Message = fmt.Sprintf("%s In alias '%s'.", e.Message, name)
	}
	return err
}

func (c *compilation) defined(name string) bool {
	if types.IsBuiltin(name) {
		return true
	}
	_, ok := c.cfg.Types[name]
	return ok
}

// lookup resolves a name that defined has already accepted. Failing here is a
// compiler bug, not a user error.
func (c *compilation) lookup(name string) (*types.Definition, error) {
	if def, ok := types.Lookup(name); ok {
		return def, nil
	}
	if def := c.cfg.Types[name]; def != nil {
		return def, nil
	}
	e := referenceError(fmt.Sprintf("Type '%s' was asserted as defined but couldn't be found.", name))
	e.Bug = true
	return nil, e
}
