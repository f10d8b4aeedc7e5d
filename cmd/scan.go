package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/metasyntax/formatter"
	"github.com/gnolang/metasyntax/rules"
	"github.com/gnolang/metasyntax/scan"
)

type scanOptions struct {
	jsonOutput bool
	watch      bool
	all        bool
	noProgress bool
	extensions []string
	cacheDir   string
	cacheAge   time.Duration
}

func newScanCmd(root *rootOptions) *cobra.Command {
	var opts scanOptions
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Match every line of the given files against the rule file",
		Long: `Reads the rule file given by --config and reports, for every line of every
file, the first rule that matches (or every rule with --all).
Use "-" as a path to read standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadRules(root)
			if err != nil {
				return err
			}
			return runScan(cmd, root, set, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output hits in JSON format")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "Keep running and rescan files as they change")
	flags.BoolVarP(&opts.all, "all", "a", false, "Report every matching rule of a line")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Hide the progress bar")
	flags.StringSliceVar(&opts.extensions, "ext", nil, `File extensions to scan in directories ("*" for all)`)
	flags.StringVar(&opts.cacheDir, "cache", "", "Directory caching the hits of unchanged files")
	flags.DurationVar(&opts.cacheAge, "cache-max-age", 0, "Maximum age of a cache entry (0 for no limit)")
	return cmd
}

func loadRules(root *rootOptions) (*rules.Set, error) {
	file, err := rules.Load(root.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading rule file: %w", err)
	}
	set, err := rules.Compile(file, root.logger)
	if err != nil {
		return nil, err
	}
	root.logger.Debug("Loaded rules", zap.String("path", root.cfgFile), zap.Int("rules", set.Len()))
	return set, nil
}

func runScan(cmd *cobra.Command, root *rootOptions, set *rules.Set, paths []string, opts scanOptions) error {
	processor, mode := scan.Processor(scan.ProcessFile), "first"
	if opts.all {
		processor, mode = scan.ProcessFileAll, "all"
	}
	if opts.cacheDir != "" {
		cache, err := scan.NewCache(opts.cacheDir, opts.cacheAge, root.cfgFile)
		if err != nil {
			return err
		}
		defer func() {
			if err := cache.Save(); err != nil {
				root.logger.Error("Error saving cache", zap.Error(err))
			}
		}()
		processor = scan.Cached(cache, mode, processor)
	}
	cfg := scan.Config{Extensions: opts.extensions}
	if !opts.noProgress && !opts.jsonOutput {
		cfg.Progress = cmd.ErrOrStderr()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), root.timeout)
	defer cancel()

	var hits []scan.Hit
	files := make([]string, 0, len(paths))
	for _, path := range paths {
		if path != "-" {
			files = append(files, path)
			continue
		}
		stdin, err := scan.ProcessReader(set, "<stdin>", cmd.InOrStdin(), opts.all)
		if err != nil {
			return err
		}
		hits = append(hits, stdin...)
	}
	if len(files) > 0 {
		found, err := scan.ProcessFiles(ctx, root.logger, set, files, cfg, processor)
		hits = append(hits, found...)
		if err != nil {
			if ctx.Err() != nil && len(hits) > 0 {
				if perr := printHits(cmd.OutOrStdout(), hits, opts.jsonOutput); perr != nil {
					return perr
				}
			}
			return err
		}
	}
	if err := printHits(cmd.OutOrStdout(), hits, opts.jsonOutput); err != nil {
		return err
	}

	if !opts.watch || len(files) == 0 {
		return nil
	}

	watchCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root.logger.Info("Watching for changes", zap.Strings("paths", files))
	return scan.Watch(watchCtx, root.logger, files, scan.Config{Extensions: opts.extensions}, func(path string) {
		found, err := processor(set, path)
		if err != nil {
			root.logger.Error("Error processing file", zap.String("file", path), zap.Error(err))
			return
		}
		if err := printHits(cmd.OutOrStdout(), found, opts.jsonOutput); err != nil {
			root.logger.Error("Error printing hits", zap.Error(err))
		}
	})
}

func printHits(w io.Writer, hits []scan.Hit, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprint(w, formatter.FormatHits(hits))
		return err
	}
	if hits == nil {
		hits = []scan.Hit{}
	}
	d, err := json.Marshal(hits)
	if err != nil {
		return fmt.Errorf("error marshalling hits to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(d))
	return err
}
