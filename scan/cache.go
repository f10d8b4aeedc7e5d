package scan

import (
	"crypto/md5"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gnolang/metasyntax"
)

const cacheFileName = "scan_cache.gob"

func init() {
	gob.Register([]any{})
	gob.Register(new(big.Int))
	gob.Register(time.Time{})
	gob.Register(metasyntax.Null{})
}

type fileMetadata struct {
	Hash    string
	ModTime int64
}

type cacheEntry struct {
	Metadata  fileMetadata
	Hits      []Hit
	CreatedAt time.Time
}

// cacheFile is the on-disk form of a Cache.
type cacheFile struct {
	Dependencies map[string]string
	Entries      map[string]cacheEntry
}

// Cache remembers the hits of files that have not changed since they were
// last scanned. Every entry is dropped when one of the dependency files (the
// rule file) changes. It is safe for concurrent use.
type Cache struct {
	dir              string
	entries          map[string]cacheEntry
	mutex            sync.Mutex
	maxAge           time.Duration
	dependencyHashes map[string]string
	dirty            bool
}

// NewCache opens or creates the cache stored in dir. A maxAge of zero keeps
// entries until their file changes.
func NewCache(dir string, maxAge time.Duration, dependencies ...string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		dir:              dir,
		entries:          make(map[string]cacheEntry),
		maxAge:           maxAge,
		dependencyHashes: make(map[string]string, len(dependencies)),
	}
	for _, file := range dependencies {
		hash, err := getFileHash(file)
		if err != nil {
			return nil, fmt.Errorf("failed to get hash for %s: %w", file, err)
		}
		c.dependencyHashes[file] = hash
	}

	if err := c.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}
	return c, nil
}

func (c *Cache) load() error {
	file, err := os.Open(filepath.Join(c.dir, cacheFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	var stored cacheFile
	if err := gob.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}
	if !sameHashes(stored.Dependencies, c.dependencyHashes) {
		c.dirty = true
		return nil
	}
	if stored.Entries != nil {
		c.entries = stored.Entries
	}
	return nil
}

// Save writes the cache to disk if it changed since it was loaded.
func (c *Cache) Save() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.dirty {
		return nil
	}

	// replace by rename so a failed encode leaves the previous cache intact
	f, err := os.CreateTemp(c.dir, cacheFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(f.Name())

	err = gob.NewEncoder(f).Encode(cacheFile{Dependencies: c.dependencyHashes, Entries: c.entries})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}
	if err := os.Rename(f.Name(), filepath.Join(c.dir, cacheFileName)); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	c.dirty = false
	return nil
}

// Set records the hits of filename under key.
func (c *Cache) Set(key, filename string, hits []Hit) error {
	metadata, err := getFileMetadata(filename)
	if err != nil {
		return fmt.Errorf("failed to get file metadata: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[key] = cacheEntry{
		Metadata:  metadata,
		Hits:      hits,
		CreatedAt: time.Now(),
	}
	c.dirty = true
	return nil
}

// Get returns the hits stored under key if filename is unchanged.
func (c *Cache) Get(key, filename string) ([]Hit, bool) {
	c.mutex.Lock()
	entry, exists := c.entries[key]
	c.mutex.Unlock()
	if !exists {
		return nil, false
	}

	if c.isEntryInvalid(filename, entry) {
		c.mutex.Lock()
		delete(c.entries, key)
		c.dirty = true
		c.mutex.Unlock()
		return nil, false
	}
	return entry.Hits, true
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]cacheEntry)
	c.dirty = true
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

func (c *Cache) isEntryInvalid(filename string, entry cacheEntry) bool {
	if c.maxAge > 0 && time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}
	current, err := getFileMetadata(filename)
	return err != nil || current != entry.Metadata
}

// Cached wraps processor so unchanged files are answered from c. mode
// separates the entries of processors that produce different hits for the
// same file. Files whose hits cannot be cached are processed every time.
func Cached(c *Cache, mode string, processor Processor) Processor {
	return func(m Matcher, path string) ([]Hit, error) {
		key := mode + ":" + path
		if hits, ok := c.Get(key, path); ok {
			return hits, nil
		}
		hits, err := processor(m, path)
		if err != nil {
			return nil, err
		}
		if cacheable(hits) {
			_ = c.Set(key, path, hits)
		}
		return hits, nil
	}
}

// cacheable reports whether every value of hits survives a gob round trip.
func cacheable(hits []Hit) bool {
	for _, h := range hits {
		if err := gob.NewEncoder(io.Discard).Encode(h); err != nil {
			return false
		}
	}
	return true
}

func sameHashes(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func getFileMetadata(filename string) (fileMetadata, error) {
	file, err := os.Open(filename)
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fileMetadata{}, fmt.Errorf("failed to calculate hash: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to get file info: %w", err)
	}

	return fileMetadata{
		Hash:    fmt.Sprintf("%x", hash.Sum(nil)),
		ModTime: info.ModTime().UnixNano(),
	}, nil
}

func getFileHash(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
