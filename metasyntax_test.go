package metasyntax

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSetScenario(t *testing.T) {
	t.Parallel()
	m, err := New("set [key] <string|number>")
	require.NoError(t, err)

	got, ok := m.Exec("set name John")
	require.True(t, ok)
	assert.Equal(t, []any{"name", "John"}, got)

	got, ok = m.Exec("set 42")
	require.True(t, ok)
	assert.Equal(t, []any{nil, 42.0}, got)

	assert.Equal(t, "set [key] <string|number>", m.Source())
}

func TestPositionalTypes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		pattern string
		input   string
		want    []any
	}{
		{"<number> <boolean>", "3.5 false", []any{3.5, false}},
		{"<integer> <null>", "-9 null", []any{int64(-9), Null{}}},
		{"<boolean> <number> <integer>", "true 0.25 12", []any{true, 0.25, int64(12)}},
		{"<string> <duration>", `"x y" 1.5h`, []any{"x y", 5400000.0}},
		{"<char> <boolean>", "z true", []any{"z", true}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			t.Parallel()
			got, ok := MustCompile(tt.pattern).Exec(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionalPlaceholder(t *testing.T) {
	t.Parallel()
	m := MustCompile("<string> [number]")

	got, ok := m.Exec("hello")
	require.True(t, ok)
	assert.Equal(t, []any{"hello", nil}, got)

	got, ok = m.Exec("hello 5")
	require.True(t, ok)
	assert.Equal(t, []any{"hello", 5.0}, got)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	num := MustCompile("<number>")
	for _, f := range []float64{0, 7, -2.5, 1e-3, 123456.789} {
		got, ok := num.Exec(strconv.FormatFloat(f, 'f', -1, 64))
		require.True(t, ok)
		assert.Equal(t, []any{f}, got)
	}

	integer := MustCompile("<integer>")
	for _, n := range []int64{0, -1, 1 << 50} {
		got, ok := integer.Exec(strconv.FormatInt(n, 10))
		require.True(t, ok)
		assert.Equal(t, []any{n}, got)
	}

	boolean := MustCompile("<boolean>")
	for _, b := range []bool{true, false} {
		got, ok := boolean.Exec(strconv.FormatBool(b))
		require.True(t, ok)
		assert.Equal(t, []any{b}, got)
	}

	bigint := MustCompile("<bigint>")
	want, _ := new(big.Int).SetString("-340282366920938463463374607431768211456", 10)
	got, ok := bigint.Exec(want.String())
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Zero(t, want.Cmp(got[0].(*big.Int)))
}

func TestArrays(t *testing.T) {
	t.Parallel()
	got, ok := MustCompile("<number()>").Exec("1, 2, 3")
	require.True(t, ok)
	assert.Equal(t, []any{[]any{1.0, 2.0, 3.0}}, got)

	got, ok = MustCompile("[number()]").Exec("")
	require.True(t, ok)
	assert.Equal(t, []any{nil}, got)

	got, ok = MustCompile("tag <string()>").Exec(`tag a, 'b c', d\,e`)
	require.True(t, ok)
	assert.Equal(t, []any{[]any{"a", "b c", "d,e"}}, got)
}

func TestAliases(t *testing.T) {
	t.Parallel()
	m, err := New("<num>", WithAlias("num", "number|integer"))
	require.NoError(t, err)
	assert.True(t, m.Test("1.25"))
	assert.True(t, m.Test("42"))
	assert.False(t, m.Test("true"))

	_, err = New("<val>", WithAlias("num", "number|integer"), WithAlias("val", "num|boolean"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReference))
}

func TestCaseAndStrict(t *testing.T) {
	t.Parallel()
	m, err := New(`<"HELLO">`, WithCase())
	require.NoError(t, err)
	assert.True(t, m.Test("hello"))
	assert.True(t, m.Test("HeLLo"))

	plain := MustCompile("go <number>")
	assert.True(t, plain.Test("  go 1  "))

	strict := MustCompile("go <number>", WithStrict())
	assert.False(t, strict.Test("  go 1  "))
	assert.True(t, strict.Test("go 1"))
}

func TestPartial(t *testing.T) {
	t.Parallel()
	m := MustCompile("id <integer>", WithPartial())
	got, ok := m.Exec("user id 7 logged in")
	require.True(t, ok)
	assert.Equal(t, []any{int64(7)}, got)
	assert.False(t, MustCompile("id <integer>").Test("user id 7 logged in"))
}

func TestDuration(t *testing.T) {
	t.Parallel()
	m := MustCompile("<duration>")
	got, ok := m.Exec("2 days")
	require.True(t, ok)
	assert.Equal(t, []any{172800000.0}, got)

	_, ok = m.Exec("2 bloops")
	assert.False(t, ok)
}

func TestAnchor(t *testing.T) {
	t.Parallel()
	m, err := New("$ ban <string> [duration]", WithAnchor("!"))
	require.NoError(t, err)

	got, ok := m.Exec("! ban spammer 1d")
	require.True(t, ok)
	assert.Equal(t, []any{"!", "spammer", 86400000.0}, got)

	_, err = New("$ ban")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrType))
}

func TestUserTypes(t *testing.T) {
	t.Parallel()
	hex := regexp.MustCompile(`#[0-9a-fA-F]{6}`)
	m, err := New("paint <color> [level]",
		WithConverter("color", hex, func(s string) any { return strings.ToLower(s) }),
		WithType("level", regexp.MustCompile(`low|high`)),
	)
	require.NoError(t, err)

	got, ok := m.Exec("paint #FF00AA high")
	require.True(t, ok)
	assert.Equal(t, []any{"#ff00aa", "high"}, got)

	got, ok = m.Exec("paint #FF00AA")
	require.True(t, ok)
	assert.Equal(t, []any{"#ff00aa", nil}, got)

	_, err = NewWithOptions("<x>", Options{Types: map[string]Type{"x": {}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrType))
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		pattern string
		kind    error
	}{
		{"", ErrType},
		{"<number", ErrSyntax},
		{"number]", ErrSyntax},
		{`<"open>`, ErrSyntax},
		{"<number()> <string>", ErrSyntax},
		{"<number()()>", ErrSyntax},
		{"<number|nope>", ErrType},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.pattern)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)

			var e *Error
			require.True(t, errors.As(err, &e))
			assert.False(t, e.Bug)
		})
	}
}

func TestMustCompilePanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { MustCompile("<number") })
}

func TestIntrospection(t *testing.T) {
	t.Parallel()
	m := MustCompile("add <number> [string()]")
	assert.Equal(t, []string{"number", "string()"}, m.Key())
	assert.Equal(t, []string{"add"}, m.Prefix())
	assert.True(t, strings.HasPrefix(m.String(), `^add\s+`))
	assert.Equal(t, 2, m.NumValues())

	literal := MustCompile("ping")
	assert.Zero(t, literal.NumValues())
	assert.True(t, literal.Test("ping"))
	_, ok := literal.Exec("ping")
	assert.False(t, ok)
}

func TestNullMarshalling(t *testing.T) {
	t.Parallel()
	got, ok := MustCompile("<null> [number]").Exec("null")
	require.True(t, ok)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `[null, null]`, string(data))

	out, err := yaml.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, "- null\n- null\n", string(out))
}

func ExampleMetasyntax_Exec() {
	m := MustCompile("set [key] <string|number>")

	fmt.Println(m.Exec("set name John"))
	fmt.Println(m.Exec("set 42"))
	fmt.Println(m.Exec("get 42"))
	// Output:
	// [name John] true
	// [<nil> 42] true
	// [] false
}
