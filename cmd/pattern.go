package cmd

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/metasyntax"
	"github.com/gnolang/metasyntax/formatter"
	"github.com/gnolang/metasyntax/rules"
)

// patternFlags are the compile options shared by check, test and exec.
type patternFlags struct {
	anchor   string
	aliases  []string
	types    []string
	strict   bool
	partial  bool
	caseFold bool
}

func (f *patternFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.anchor, "anchor", "", "Text that $ stands for in patterns")
	flags.StringArrayVar(&f.aliases, "alias", nil, "Alias as name=union (repeatable)")
	flags.StringArrayVar(&f.types, "type", nil, "User type as name=regex (repeatable)")
	flags.BoolVar(&f.strict, "strict", false, "Do not trim input before matching")
	flags.BoolVar(&f.partial, "partial", false, "Match anywhere in the input")
	flags.BoolVar(&f.caseFold, "case", false, "Ignore case")
}

// options builds compile options. When --config was given the rule file's
// anchor, aliases and types are used as defaults.
func (f *patternFlags) options(cmd *cobra.Command, root *rootOptions) (metasyntax.Options, error) {
	var opts metasyntax.Options
	if cmd.Flags().Changed("config") {
		file, err := rules.Load(root.cfgFile)
		if err != nil {
			return opts, fmt.Errorf("error loading rule file: %w", err)
		}
		if opts, err = file.Options(); err != nil {
			return opts, err
		}
		root.logger.Debug("Loaded rule file", zap.String("path", root.cfgFile))
	}
	opts.Aliases = maps.Clone(opts.Aliases)
	opts.Types = maps.Clone(opts.Types)

	var extra []metasyntax.Option
	if f.anchor != "" {
		extra = append(extra, metasyntax.WithAnchor(f.anchor))
	}
	for _, a := range f.aliases {
		name, union, err := splitAssignment("alias", a)
		if err != nil {
			return opts, err
		}
		extra = append(extra, metasyntax.WithAlias(name, union))
	}
	for _, t := range f.types {
		name, expr, err := splitAssignment("type", t)
		if err != nil {
			return opts, err
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return opts, fmt.Errorf("type %q: %w", name, err)
		}
		extra = append(extra, metasyntax.WithType(name, re))
	}
	if f.strict {
		extra = append(extra, metasyntax.WithStrict())
	}
	if f.partial {
		extra = append(extra, metasyntax.WithPartial())
	}
	if f.caseFold {
		extra = append(extra, metasyntax.WithCase())
	}

	for _, opt := range extra {
		opt(&opts)
	}
	return opts, nil
}

func splitAssignment(flag, value string) (string, string, error) {
	name, rest, ok := strings.Cut(value, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid --%s %q: expected name=value", flag, value)
	}
	return name, rest, nil
}

// compile builds pattern, printing a formatted error on failure.
func (f *patternFlags) compile(cmd *cobra.Command, root *rootOptions, pattern string) (*metasyntax.Metasyntax, error) {
	opts, err := f.options(cmd, root)
	if err != nil {
		return nil, err
	}
	m, err := metasyntax.NewWithOptions(pattern, opts)
	if err != nil {
		root.logger.Debug("Compile failed", zap.String("pattern", pattern), zap.Error(err))
		fmt.Fprint(cmd.ErrOrStderr(), formatter.FormatError(pattern, err))
		return nil, errReported
	}
	return m, nil
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	var flags patternFlags
	cmd := &cobra.Command{
		Use:   "check <pattern>",
		Short: "Compile a pattern and show its regular expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.compile(cmd, root, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProgram(m))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newTestCmd(root *rootOptions) *cobra.Command {
	var flags patternFlags
	cmd := &cobra.Command{
		Use:   "test <pattern> <input>...",
		Short: "Report whether each input matches a pattern",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.compile(cmd, root, args[0])
			if err != nil {
				return err
			}
			for _, input := range args[1:] {
				fmt.Fprintln(cmd.OutOrStdout(), m.Test(input))
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

type execResult struct {
	Input  string `json:"input" yaml:"input"`
	Match  bool   `json:"match" yaml:"match"`
	Values []any  `json:"values,omitempty" yaml:"values,omitempty"`
}

func newExecCmd(root *rootOptions) *cobra.Command {
	var (
		flags      patternFlags
		yamlOutput bool
	)
	cmd := &cobra.Command{
		Use:   "exec <pattern> <input>...",
		Short: "Extract the values of each input matching a pattern",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.compile(cmd, root, args[0])
			if err != nil {
				return err
			}

			results := make([]execResult, 0, len(args)-1)
			for _, input := range args[1:] {
				values, ok := m.Exec(input)
				results = append(results, execResult{Input: input, Match: ok, Values: values})
			}

			out := cmd.OutOrStdout()
			if yamlOutput {
				enc := yaml.NewEncoder(out)
				if err := enc.Encode(results); err != nil {
					return fmt.Errorf("error marshalling results: %w", err)
				}
				return enc.Close()
			}
			for _, r := range results {
				if !r.Match {
					fmt.Fprintln(out, "no match")
					continue
				}
				d, err := json.Marshal(r.Values)
				if err != nil {
					return fmt.Errorf("error marshalling values: %w", err)
				}
				fmt.Fprintln(out, string(d))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&yamlOutput, "yaml", false, "Output results as YAML")
	return cmd
}
