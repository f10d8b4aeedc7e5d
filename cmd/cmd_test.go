package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/metasyntax/rules"
	"github.com/gnolang/metasyntax/scan"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	rootCmd := newRootCmd()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func starterFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), rules.DefaultPath)
	r := run(t, "", "--config", path, "init")
	require.NoError(t, r.err)
	return path
}

func TestCheck(t *testing.T) {
	t.Parallel()

	r := run(t, "", "check", "set <number>")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "pattern: set <number>\n")
	assert.Contains(t, r.stdout, "key:     number\n")
	assert.Contains(t, r.stdout, "prefix:  set\n")

	r = run(t, "", "check", "<number")
	assert.ErrorIs(t, r.err, errReported)
	assert.Empty(t, r.stdout)
	assert.Contains(t, r.stderr, "error: SyntaxError")
	assert.Contains(t, r.stderr, "Expected closing '>'.")
}

func TestCheckWithConfig(t *testing.T) {
	t.Parallel()
	path := starterFile(t)

	r := run(t, "", "--config", path, "check", "$ go <num>")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "prefix:  ! go\n")

	r = run(t, "", "check", "$ go <num>")
	assert.ErrorIs(t, r.err, errReported)
	assert.Contains(t, r.stderr, "Special symbol '$' requires a value to be used.")
}

func TestTest(t *testing.T) {
	t.Parallel()
	r := run(t, "", "test", "go <number>", "go 5", "go x", "GO 5")
	require.NoError(t, r.err)
	assert.Equal(t, "true\nfalse\nfalse\n", r.stdout)

	r = run(t, "", "test", "--case", "go <number>", "GO 5")
	require.NoError(t, r.err)
	assert.Equal(t, "true\n", r.stdout)
}

func TestExec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "optional and union",
			args:     []string{"exec", "set [key] <string|number>", "set name John", "set 42", "nope"},
			expected: "[\"name\",\"John\"]\n[null,42]\nno match\n",
		},
		{
			name: "alias and user type",
			args: []string{
				"exec", "--alias", "num=number|integer", "--type", "hex=#[0-9a-f]{6}",
				"paint <hex> <num>", "paint #ff00aa 3",
			},
			expected: "[\"#ff00aa\",3]\n",
		},
		{
			name:     "anchor",
			args:     []string{"exec", "--anchor", "!", "$ ban <string> [duration]", "! ban spammer 1d"},
			expected: "[\"!\",\"spammer\",86400000]\n",
		},
		{
			name:     "partial",
			args:     []string{"exec", "--partial", "<integer()>", "1, 2, 3"},
			expected: "[[1,2,3]]\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := run(t, "", tt.args...)
			require.NoError(t, r.err)
			assert.Equal(t, tt.expected, r.stdout)
		})
	}
}

func TestExecYAML(t *testing.T) {
	t.Parallel()
	r := run(t, "", "exec", "--yaml", "go <number>", "go 5", "stop")
	require.NoError(t, r.err)

	var got []execResult
	require.NoError(t, yaml.Unmarshal([]byte(r.stdout), &got))
	assert.Equal(t, []execResult{
		{Input: "go 5", Match: true, Values: []any{5}},
		{Input: "stop"},
	}, got)
}

func TestInvalidFlags(t *testing.T) {
	t.Parallel()

	r := run(t, "", "exec", "--alias", "broken", "go <number>", "go 1")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "expected name=value")

	r = run(t, "", "exec", "--type", "bad=(", "<bad>", "x")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), `type "bad"`)

	r = run(t, "", "test", "go <number>")
	require.Error(t, r.err)
}

func TestInit(t *testing.T) {
	t.Parallel()
	path := starterFile(t)

	f, err := rules.Load(path)
	require.NoError(t, err)
	assert.Equal(t, rules.Starter(), f)

	r := run(t, "", "--config", path, "init")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "already exists")

	r = run(t, "", "--config", path, "init", "--force")
	require.NoError(t, r.err)
	assert.Equal(t, "Rule file created: "+path+"\n", r.stdout)
}

func TestScan(t *testing.T) {
	t.Parallel()
	path := starterFile(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "chat.log")
	content := "! set volume 5\n! wait 2s\nother\n! color #00ff00\n"
	require.NoError(t, os.WriteFile(input, []byte(content), 0o644))

	r := run(t, "", "--config", path, "scan", "--json", dir)
	require.NoError(t, r.err)

	var hits []scan.Hit
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &hits))
	assert.Equal(t, []scan.Hit{
		{Rule: "set", Filename: input, Line: 1, Text: "! set volume 5", Values: []any{"!", "volume", 5.0}},
		{Rule: "wait", Filename: input, Line: 2, Text: "! wait 2s", Values: []any{"!", 2000.0}},
		{Rule: "color", Filename: input, Line: 4, Text: "! color #00ff00", Values: []any{"!", "#00ff00"}},
	}, hits)
}

func TestScanStdin(t *testing.T) {
	t.Parallel()
	path := starterFile(t)

	r := run(t, "! wait 1s\nhello\n", "--config", path, "scan", "-")
	require.NoError(t, r.err)
	assert.Equal(t, "--> <stdin>\n1 | ! wait 1s\n  = wait [\"!\", 1000]\n\n", r.stdout)

	r = run(t, "", "--config", path, "scan", "--json", "-")
	require.NoError(t, r.err)
	assert.Equal(t, "[]\n", r.stdout)
}

func TestScanMissingConfig(t *testing.T) {
	t.Parallel()
	r := run(t, "", "--config", filepath.Join(t.TempDir(), "none.yaml"), "scan", ".")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "error loading rule file")
}

func TestScanCache(t *testing.T) {
	t.Parallel()
	path := starterFile(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(input, []byte("! tag a, b\n"), 0o644))
	cacheDir := filepath.Join(t.TempDir(), "cache")

	var outputs []string
	for range 2 {
		r := run(t, "", "--config", path, "scan", "--json", "--cache", cacheDir, input)
		require.NoError(t, r.err)
		outputs = append(outputs, r.stdout)
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Contains(t, outputs[0], `"values":["!",["a","b"]]`)
	assert.FileExists(t, filepath.Join(cacheDir, "scan_cache.gob"))
}
