package report

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFormat(t *testing.T, v Value, force bool) string {
	t.Helper()
	s, err := Format(v, force)
	require.NoError(t, err)
	return s
}

func TestFormatScalars(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		force bool
		want  string
	}{
		{"nil", nil, false, "$null"},
		{"null", Null{}, true, "$null"},
		{"true", Bool(true), false, "$true"},
		{"false", Bool(false), true, "$false"},
		{"int", Int(-42), true, "-42"},
		{"float", Float(2.5), false, "2.5"},
		{"empty string", String(""), false, `""`},
		{"empty string forced", String(""), true, `""`},
		{"bare", String("U30"), false, "U30"},
		{"bare with apostrophe", String("it's"), false, "it's"},
		{"forced", String("U30"), true, `"U30"`},
		{"space", String("Smart Array"), false, `"Smart Array"`},
		{"double quote only", String(`say "hi"`), false, `'say "hi"'`},
		{"both quotes", String(`it's "x"`), false, "\"it's `\"x`\"\""},
		{"dollar", String("$HOME"), false, "\"`$HOME\""},
		{"backtick", String("a`b"), false, "\"a``b\""},
		{"named escapes", String("a\tb\nc\r\x00\a\b\f\v"), true, "\"a`tb`nc`r`0`a`b`f`v\""},
		{"hex escape", String("esc\x1b"), true, "\"esc$([char]0x1B)\""},
		{"unicode", String("Größe"), true, `"Größe"`},
		{"enum", Enum{Type: "DriveType", Repr: "SSD"}, false, `"SSD"`},
		{"type ref", TypeRef{Name: "System.String"}, false, "[System.String]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mustFormat(t, tc.value, tc.force))
		})
	}
}

func TestFormatBarePassThrough(t *testing.T) {
	for _, s := range []string{"a", "1.2.3", "P89", "it's", "x=y", "{}", "@", "tab\there", "ü"} {
		assert.Equal(t, s, mustFormat(t, String(s), false), s)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	inputs := []string{
		"", "plain", "two words", `"quoted"`, `'single'`, `mixed 'a' "b"`,
		"$var and `tick`", "line1\nline2\r\n", "\x00\x01\x02\x1f\x7f", "tab\tvt\vff\f",
		"$([char]0x41)", "ends with backtick`", "日本語 テキスト", `""`,
		"serial\xff\xfe", "\xc3 truncated", `"q"` + "\x80", "\ufffd kept",
	}
	for _, s := range inputs {
		lit := mustFormat(t, String(s), true)
		got, err := Unquote(lit)
		require.NoError(t, err, lit)
		assert.Equal(t, s, got, lit)
	}
}

func TestFormatInvalidUTF8(t *testing.T) {
	assert.Equal(t, `"serial$([char]0xFF)$([char]0xFE)"`, mustFormat(t, String("serial\xff\xfe"), true))
}

func TestFormatList(t *testing.T) {
	got := mustFormat(t, List{String("a"), Int(1), Null{}, Bool(true), List{String("b c")}}, false)
	assert.Equal(t, `@("a", 1, $null, $true, @("b c"))`, got)
	assert.Equal(t, "@()", mustFormat(t, List{}, false))
}

func TestFormatMapSortsKeys(t *testing.T) {
	a := Map{}
	a["zeta"] = String("z")
	a["alpha"] = Int(1)
	a["mid key"] = Bool(false)

	b := Map{}
	b["mid key"] = Bool(false)
	b["alpha"] = Int(1)
	b["zeta"] = String("z")

	want := `@{alpha = 1; "mid key" = $false; zeta = "z"}`
	assert.Equal(t, want, mustFormat(t, a, false))
	assert.Equal(t, mustFormat(t, a, false), mustFormat(t, b, false))
}

func TestFormatStruct(t *testing.T) {
	disk := Struct{
		Type: "Disk",
		Fields: []Field{
			{Name: "b", Value: Int(2)},
			{Name: "a", Value: Int(1)},
			{Name: "model", Value: String("MB1000")},
		},
		Text: "disk0",
	}

	t.Run("single field is unwrapped", func(t *testing.T) {
		d := disk
		d.Display = []string{"model"}
		assert.Equal(t, "MB1000", mustFormat(t, d, false))
	})

	t.Run("two fields use a cast constructor", func(t *testing.T) {
		d := disk
		d.Display = []string{"b", "a"}
		assert.Equal(t, "[Disk]@{a = 1; b = 2}", mustFormat(t, d, false))
	})

	t.Run("registered descriptor", func(t *testing.T) {
		f := NewFormatter(WithDescriptor("Disk", "model", "a"))
		s, err := f.Format(disk, false)
		require.NoError(t, err)
		assert.Equal(t, `[Disk]@{a = 1; model = "MB1000"}`, s)
	})

	t.Run("explicit list beats descriptor", func(t *testing.T) {
		f := NewFormatter(WithDescriptor("Disk", "model", "a"))
		d := disk
		d.Display = []string{"a"}
		s, err := f.Format(d, false)
		require.NoError(t, err)
		assert.Equal(t, "1", s)
	})

	t.Run("no field list keeps the text quoted", func(t *testing.T) {
		assert.Equal(t, `"disk0"`, mustFormat(t, disk, false))
	})

	t.Run("missing field is null", func(t *testing.T) {
		d := disk
		d.Display = []string{"a", "bay"}
		assert.Equal(t, "[Disk]@{a = 1; bay = $null}", mustFormat(t, d, false))
	})
}

func TestFormatErrors(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		l := List{nil}
		l[0] = l
		_, err := Format(l, false)
		assert.True(t, errors.Is(err, ErrTooDeep))
	})

	t.Run("depth limit", func(t *testing.T) {
		f := NewFormatter(WithMaxDepth(2))
		_, err := f.Format(List{List{List{Int(1)}}}, false)
		assert.True(t, errors.Is(err, ErrTooDeep))

		_, err = f.Format(List{List{Int(1)}}, false)
		assert.NoError(t, err)
	})

	t.Run("nan", func(t *testing.T) {
		_, err := Format(Map{"x": Float(math.NaN())}, false)
		assert.True(t, errors.Is(err, ErrUnformattable))
	})
}

func TestUnquoteRejects(t *testing.T) {
	for _, lit := range []string{"two words", "\"a`q\"", "\"a`\"", `"a"b"`, "\"$([char]0xZZ)\""} {
		_, err := Unquote(lit)
		assert.True(t, errors.Is(err, ErrInvalidLiteral), lit)
	}
}

type drive struct{}

func (drive) String() string { return "HDD" }

func TestOf(t *testing.T) {
	serial := "CZ123"
	var missing *string
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"value", Int(1), Int(1)},
		{"bool", true, Bool(true)},
		{"uint64", uint64(512110190592), Int(512110190592)},
		{"float", 1.5, Float(1.5)},
		{"empty string", "", String("")},
		{"string pointer", &serial, String("CZ123")},
		{"nil string pointer", missing, Null{}},
		{"strings", []string{"a", "b"}, List{String("a"), String("b")}},
		{"string map", map[string]string{"k": "v"}, Map{"k": String("v")}},
		{"zero time", time.Time{}, Null{}},
		{"time", time.Date(2023, 3, 14, 9, 30, 0, 0, time.UTC), String("2023-03-14T09:30:00Z")},
		{"stringer", drive{}, String("HDD")},
		{"other", struct{ A int }{1}, String("{1}")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Of(tt.in))
		})
	}
}
