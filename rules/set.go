package rules

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gnolang/metasyntax"
	"github.com/gnolang/metasyntax/internal/trie"
)

// Match is the result of matching input against a Set.
type Match struct {
	Rule   string `json:"rule" yaml:"rule"`
	Values []any  `json:"values" yaml:"values"`
}

type compiled struct {
	rule Rule
	m    *metasyntax.Metasyntax
}

// exec matches input against the rule. A rule without placeholders matches
// with no values.
func (c compiled) exec(input string) ([]any, bool) {
	if c.m.NumValues() == 0 {
		return nil, c.m.Test(input)
	}
	return c.m.Exec(input)
}

// Set is a compiled rule file. It is safe for concurrent use.
type Set struct {
	rules []compiled
	index *trie.Trie
	fold  bool
}

// Compile compiles every rule of f. All failures are reported together,
// each prefixed with the rule name. A nil logger discards log output.
func Compile(f *File, logger *zap.Logger) (*Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	base, err := f.Options()
	if err != nil {
		logger.Error("Invalid user type", zap.Error(err))
		return nil, err
	}

	set := &Set{index: trie.New(), fold: f.Case}
	var errs []error
	for _, r := range f.Rules {
		opts := base
		opts.Partial = r.Partial

		m, err := metasyntax.NewWithOptions(r.Pattern, opts)
		if err != nil {
			logger.Error("Failed to compile rule",
				zap.String("rule", r.Name),
				zap.String("pattern", r.Pattern),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("rule %q: %w", r.Name, err))
			continue
		}

		set.index.Insert(m.Prefix(), len(set.rules))
		set.rules = append(set.rules, compiled{rule: r, m: m})
		logger.Debug("Compiled rule",
			zap.String("rule", r.Name),
			zap.String("regexp", m.String()),
			zap.Strings("prefix", m.Prefix()))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return set, nil
}

// Match returns the first rule, in file order, that matches input.
func (s *Set) Match(input string) (Match, bool) {
	for _, i := range s.candidates(input) {
		c := s.rules[i]
		if values, ok := c.exec(input); ok {
			return Match{Rule: c.rule.Name, Values: values}, true
		}
	}
	return Match{}, false
}

// MatchAll returns every rule that matches input, in file order.
func (s *Set) MatchAll(input string) []Match {
	var out []Match
	for _, i := range s.candidates(input) {
		c := s.rules[i]
		if values, ok := c.exec(input); ok {
			out = append(out, Match{Rule: c.rule.Name, Values: values})
		}
	}
	return out
}

// Rules returns the compiled rules in file order.
func (s *Set) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, c := range s.rules {
		out[i] = c.rule
	}
	return out
}

// Len returns the number of rules in s.
func (s *Set) Len() int { return len(s.rules) }

// candidates returns the indexes of rules whose literal prefix starts input.
func (s *Set) candidates(input string) []int {
	if s.fold {
		input = strings.ToLower(input)
	}
	return s.index.Prefixes(strings.Fields(input))
}
