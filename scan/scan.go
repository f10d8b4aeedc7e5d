// Package scan matches the lines of text files against a rule set.
package scan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/gnolang/metasyntax/rules"
	"github.com/gnolang/metasyntax/scanner"
)

// maxLineSize bounds the length of a single scanned line.
const maxLineSize = 1 << 20

// Matcher is implemented by *rules.Set.
type Matcher interface {
	Match(input string) (rules.Match, bool)
	MatchAll(input string) []rules.Match
}

// Hit is one matching line.
type Hit struct {
	Rule     string `json:"rule" yaml:"rule"`
	Filename string `json:"filename" yaml:"filename"`
	Line     int    `json:"line" yaml:"line"`
	Text     string `json:"text" yaml:"text"`
	Values   []any  `json:"values" yaml:"values"`
}

// Processor produces the hits of one file.
type Processor func(m Matcher, path string) ([]Hit, error)

// Config controls directory traversal.
type Config struct {
	// Extensions selects files inside directories. Empty means
	// scanner.DefaultExtensions.
	Extensions []string
	// Progress receives the progress bar for directories. Nil disables it.
	Progress io.Writer
}

// ProcessFile reports the first matching rule of every line in path.
func ProcessFile(m Matcher, path string) ([]Hit, error) {
	return processFile(m, path, false)
}

// ProcessFileAll reports every matching rule of every line in path.
func ProcessFileAll(m Matcher, path string) ([]Hit, error) {
	return processFile(m, path, true)
}

func processFile(m Matcher, path string, all bool) ([]Hit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ProcessReader(m, path, f, all)
}

// ProcessReader matches every line read from r. name is used as the hit
// filename.
func ProcessReader(m Matcher, name string, r io.Reader, all bool) ([]Hit, error) {
	var hits []Hit

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if all {
			for _, match := range m.MatchAll(text) {
				hits = append(hits, Hit{Rule: match.Rule, Filename: name, Line: line, Text: text, Values: match.Values})
			}
			continue
		}
		if match, ok := m.Match(text); ok {
			hits = append(hits, Hit{Rule: match.Rule, Filename: name, Line: line, Text: text, Values: match.Values})
		}
	}
	if err := sc.Err(); err != nil {
		return hits, fmt.Errorf("%s:%d: %w", name, line+1, err)
	}
	return hits, nil
}

// ProcessFiles processes every path and returns the hits sorted by file and
// line. When ctx is cancelled the hits collected so far are returned with
// ctx.Err().
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	m Matcher,
	paths []string,
	cfg Config,
	processor Processor,
) ([]Hit, error) {
	var all []Hit
	for _, path := range paths {
		hits, err := ProcessPath(ctx, logger, m, path, cfg, processor)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				all = append(all, hits...)
				Sort(all)
				return all, err
			}
			return nil, err
		}
		all = append(all, hits...)
	}

	Sort(all)
	return all, nil
}

// ProcessPath processes a file, or every selected file below a directory
// using a worker per CPU. Files that fail are logged and skipped. When ctx is
// cancelled the hits collected so far are returned with ctx.Err().
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	m Matcher,
	path string,
	cfg Config,
	processor Processor,
) ([]Hit, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}
	if !info.IsDir() {
		return processor(m, path)
	}

	files, err := scanner.New(path, cfg.Extensions...).Scan()
	if err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", path, err)
	}

	var bar *progressbar.ProgressBar
	if cfg.Progress != nil {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(cfg.Progress),
			progressbar.OptionSetDescription(path),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	type result struct {
		hits []Hit
		err  error
		path string
	}
	results := make(chan result, len(files))
	sem := make(chan struct{}, runtime.NumCPU())

	started := 0
	var cancelled error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
		case sem <- struct{}{}:
		}
		if cancelled != nil {
			break
		}

		started++
		go func(fp string) {
			defer func() { <-sem }()
			hits, err := processor(m, fp)
			results <- result{hits: hits, err: err, path: fp}
		}(file.Path)
	}

	var hits []Hit
	for range started {
		r := <-results
		if bar != nil {
			_ = bar.Add(1)
		}
		if r.err != nil {
			logger.Error("Error processing file", zap.String("file", r.path), zap.Error(r.err))
			continue
		}
		hits = append(hits, r.hits...)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	Sort(hits)
	if cancelled != nil {
		return hits, cancelled
	}
	logger.Debug("Processed directory", zap.String("path", path), zap.Int("files", len(files)), zap.Int("hits", len(hits)))
	return hits, nil
}

// Sort orders hits by filename, then line, keeping the rule order of a line.
func Sort(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Filename != hits[j].Filename {
			return hits[i].Filename < hits[j].Filename
		}
		return hits[i].Line < hits[j].Line
	})
}
