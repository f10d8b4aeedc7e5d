// Package scanner lists the text files a scan should read.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions are used when a Scanner is created without extensions.
var DefaultExtensions = []string{".txt", ".log", ".md"}

type FileInfo struct {
	Path string
	Size int64
}

type Scanner struct {
	root       string
	extensions []string
	hidden     bool
}

// New returns a Scanner for root. A nil extensions list selects
// DefaultExtensions; an explicit "*" selects every file.
func New(root string, extensions ...string) *Scanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Scanner{
		root:       root,
		extensions: extensions,
	}
}

// IncludeHidden makes Scan descend into directories whose name starts with a
// dot.
func (s *Scanner) IncludeHidden() *Scanner {
	s.hidden = true
	return s
}

// Scan returns the matching files under root sorted by path. A root that is
// a file is returned as-is, whatever its extension.
func (s *Scanner) Scan() ([]FileInfo, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []FileInfo{{Path: s.root, Size: info.Size()}}, nil
	}

	var files []FileInfo
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && !s.hidden && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.Match(path) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, FileInfo{Path: path, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Match reports whether path has one of the scanner's extensions.
func (s *Scanner) Match(path string) bool {
	ext := filepath.Ext(path)
	for _, target := range s.extensions {
		if target == "*" || ext == target {
			return true
		}
	}
	return false
}
