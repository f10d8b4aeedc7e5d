// Package rules loads named patterns from YAML files and matches input
// against them in file order.
package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/metasyntax"
)

// Version is the rule file format this package reads.
const Version = 1

// DefaultPath is where the CLI looks for a rule file.
const DefaultPath = ".msx.yaml"

// Rule names a pattern to match lines against.
type Rule struct {
	Name        string `yaml:"name" json:"name"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Partial     bool   `yaml:"partial,omitempty" json:"partial,omitempty"`
}

// File is the content of a rule file. Anchor, Case, Strict, Aliases and Types
// apply to every rule.
type File struct {
	Version int               `yaml:"version"`
	Anchor  string            `yaml:"anchor,omitempty"`
	Case    bool              `yaml:"case,omitempty"`
	Strict  bool              `yaml:"strict,omitempty"`
	Aliases map[string]string `yaml:"aliases,omitempty"`
	// Types maps a user type name to its regular expression.
	Types map[string]string `yaml:"types,omitempty"`
	Rules []Rule            `yaml:"rules"`
}

// Errors reported by Parse and Load for invalid rule files.
var (
	ErrVersion   = errors.New("unsupported rule file version")
	ErrDuplicate = errors.New("duplicate rule name")
	ErrNoName    = errors.New("rule has no name")
)

// Load reads and validates the rule file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a rule file. A missing version is read as the
// current one.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Version == 0 {
		f.Version = Version
	}
	if f.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, f.Version)
	}

	seen := make(map[string]bool, len(f.Rules))
	for i, r := range f.Rules {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("rules[%d]: %w", i, ErrNoName)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicate, r.Name)
		}
		seen[r.Name] = true
	}
	return &f, nil
}

// Marshal encodes f as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// Starter returns the rule file written by `msx init`.
func Starter() *File {
	return &File{
		Version: Version,
		Anchor:  "!",
		Aliases: map[string]string{"num": "number|integer"},
		Types:   map[string]string{"hex": "#[0-9a-fA-F]{6}"},
		Rules: []Rule{
			{Name: "set", Pattern: "$ set [key] <string|num>", Description: "store a value under an optional key"},
			{Name: "color", Pattern: "$ color <hex>"},
			{Name: "wait", Pattern: "$ wait <duration>"},
			{Name: "tags", Pattern: "$ tag <string()>"},
		},
	}
}

// Options returns the compile options shared by every rule in f.
func (f *File) Options() (metasyntax.Options, error) {
	opts := metasyntax.Options{
		Anchor:  f.Anchor,
		Aliases: f.Aliases,
		Strict:  f.Strict,
		Case:    f.Case,
	}
	if len(f.Types) == 0 {
		return opts, nil
	}

	opts.Types = make(map[string]metasyntax.Type, len(f.Types))
	var errs []error
	for name, expr := range f.Types {
		re, err := regexp.Compile(expr)
		if err != nil {
			errs = append(errs, fmt.Errorf("type %q: %w", name, err))
			continue
		}
		opts.Types[name] = metasyntax.Type{Pattern: re}
	}
	return opts, errors.Join(errs...)
}
