package scan

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnolang/metasyntax/rules"
)

type mockMatcher struct {
	mock.Mock
}

func (m *mockMatcher) Match(input string) (rules.Match, bool) {
	args := m.Called(input)
	return args.Get(0).(rules.Match), args.Bool(1)
}

func (m *mockMatcher) MatchAll(input string) []rules.Match {
	args := m.Called(input)
	return args.Get(0).([]rules.Match)
}

func testSet(t *testing.T) *rules.Set {
	t.Helper()
	set, err := rules.Compile(&rules.File{
		Version: rules.Version,
		Rules: []rules.Rule{
			{Name: "set", Pattern: "set <string> <number>"},
			{Name: "wait", Pattern: "wait <duration>"},
			{Name: "number", Pattern: "<number>", Partial: true},
		},
	}, zap.NewNop())
	require.NoError(t, err)
	return set
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func TestProcessReader(t *testing.T) {
	t.Parallel()
	m := new(mockMatcher)
	m.On("Match", "first").Return(rules.Match{Rule: "r", Values: []any{1.0}}, true)
	m.On("Match", "second").Return(rules.Match{}, false)

	hits, err := ProcessReader(m, "stdin", strings.NewReader("first\nsecond\n"), false)
	require.NoError(t, err)
	assert.Equal(t, []Hit{{Rule: "r", Filename: "stdin", Line: 1, Text: "first", Values: []any{1.0}}}, hits)
	m.AssertExpectations(t)
}

func TestProcessReaderAll(t *testing.T) {
	t.Parallel()
	hits, err := ProcessReader(testSet(t), "in", strings.NewReader("set x 5\nnothing\nwait 1s"), true)
	require.NoError(t, err)

	var got []string
	for _, h := range hits {
		got = append(got, h.Rule)
	}
	assert.Equal(t, []string{"set", "number", "wait", "number"}, got)
	assert.Equal(t, 3, hits[2].Line)
	assert.Equal(t, []any{1000.0}, hits[2].Values)
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{
		"b.txt":     "set volume 11\nwait 2 days\n",
		"a.log":     "noise\nvalue 3.5\n",
		"skip.bin":  "set x 1\n",
		"sub/c.txt": "set mode 2",
	})
	single := filepath.Join(dir, "skip.bin")

	var progress bytes.Buffer
	hits, err := ProcessFiles(context.Background(), zap.NewNop(), testSet(t),
		[]string{dir, single}, Config{Extensions: []string{".txt", ".log"}, Progress: &progress}, ProcessFile)
	require.NoError(t, err)

	type loc struct {
		file string
		line int
		rule string
	}
	var got []loc
	for _, h := range hits {
		got = append(got, loc{filepath.Base(h.Filename), h.Line, h.Rule})
	}
	assert.Equal(t, []loc{
		{"a.log", 2, "number"},
		{"b.txt", 1, "set"},
		{"b.txt", 2, "wait"},
		{"skip.bin", 1, "set"},
		{"c.txt", 1, "set"},
	}, got)
	assert.NotEmpty(t, progress.String())
}

func TestProcessPathMissing(t *testing.T) {
	t.Parallel()
	_, err := ProcessPath(context.Background(), nil, testSet(t), filepath.Join(t.TempDir(), "nope"), Config{}, ProcessFile)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestProcessPathCancelled(t *testing.T) {
	t.Parallel()
	files := make(map[string]string)
	for i := 0; i < 20; i++ {
		files[filepath.Join("d", strings.Repeat("f", i+1)+".txt")] = "set a 1\n"
	}
	dir := writeFiles(t, files)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hits, err := ProcessPath(ctx, nil, testSet(t), dir, Config{}, ProcessFile)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, hits)
}

func TestProcessFilesCancelledKeepsHits(t *testing.T) {
	t.Parallel()
	single := filepath.Join(writeFiles(t, map[string]string{"one.txt": "wait 1s\nset a 1\n"}), "one.txt")
	dir := writeFiles(t, map[string]string{"d/x.txt": "set b 2\n", "d/y.txt": "set c 3\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hits, err := ProcessFiles(ctx, zap.NewNop(), testSet(t), []string{single, dir}, Config{}, ProcessFile)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, hits, 2)
	assert.Equal(t, "wait", hits[0].Rule)
	assert.Equal(t, "set", hits[1].Rule)
	assert.Equal(t, single, hits[1].Filename)
}

func TestProcessPathSkipsFailingFiles(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{"a.txt": "set a 1", "b.txt": "set b 2"})

	failing := func(m Matcher, path string) ([]Hit, error) {
		if filepath.Base(path) == "a.txt" {
			return nil, os.ErrPermission
		}
		return ProcessFile(m, path)
	}
	hits, err := ProcessPath(context.Background(), nil, testSet(t), dir, Config{}, failing)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b.txt", filepath.Base(hits[0].Filename))
}

func TestSort(t *testing.T) {
	t.Parallel()
	hits := []Hit{
		{Filename: "b", Line: 1, Rule: "x"},
		{Filename: "a", Line: 2, Rule: "y"},
		{Filename: "a", Line: 1, Rule: "z"},
		{Filename: "a", Line: 2, Rule: "w"},
	}
	Sort(hits)
	assert.Equal(t, []Hit{
		{Filename: "a", Line: 1, Rule: "z"},
		{Filename: "a", Line: 2, Rule: "y"},
		{Filename: "a", Line: 2, Rule: "w"},
		{Filename: "b", Line: 1, Rule: "x"},
	}, hits)
}

func TestWatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, zap.NewNop(), []string{dir}, Config{Extensions: []string{".txt"}}, func(path string) {
			select {
			case changed <- path:
			default:
			}
		})
	}()

	target := filepath.Join(dir, "live.txt")
	// retry until the watcher has registered the directory
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "ignored.bin"), []byte("x"), 0o644)
		_ = os.WriteFile(target, []byte("set a 1\n"), 0o644)
		select {
		case path := <-changed:
			return path == target
		default:
			return false
		}
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
