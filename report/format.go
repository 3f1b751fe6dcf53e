package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	nullToken  = "$null"
	trueToken  = "$true"
	falseToken = "$false"
	emptyToken = `""`

	defaultMaxDepth = 64
)

var (
	// ErrTooDeep is returned when nesting exceeds the formatter's depth limit,
	// which is how cyclic inputs surface.
	ErrTooDeep = errors.New("value nested too deep")
	// ErrUnformattable is returned for values without a literal form.
	ErrUnformattable = errors.New("value has no literal representation")
)

// bareUnsafe are the characters that force a string into quotes.
const bareUnsafe = " `\"$"

// escapes maps characters to their two-character escape inside double quotes.
var escapes = map[rune]string{
	'`':  "``",
	'$':  "`$",
	'"':  "`\"",
	0x00: "`0",
	0x07: "`a",
	0x08: "`b",
	0x0c: "`f",
	'\n': "`n",
	'\r': "`r",
	'\t': "`t",
	0x0b: "`v",
}

// Formatter turns values into literals. The zero value is not usable, use
// NewFormatter.
type Formatter struct {
	descriptors map[string][]string
	maxDepth    int
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithDescriptor registers the default display fields for a struct type.
func WithDescriptor(typeName string, fields ...string) FormatterOption {
	return func(f *Formatter) {
		f.descriptors[typeName] = fields
	}
}

// WithMaxDepth bounds recursion into lists, maps and structs.
func WithMaxDepth(n int) FormatterOption {
	return func(f *Formatter) {
		f.maxDepth = n
	}
}

func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		descriptors: map[string][]string{},
		maxDepth:    defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var defaultFormatter = NewFormatter()

// Format formats v with a formatter that has no registered descriptors.
func Format(v Value, forceQuote bool) (string, error) {
	return defaultFormatter.Format(v, forceQuote)
}

// Format returns a literal that reads back as v. Strings are left bare when
// nothing in them needs quoting, unless forceQuote is set.
func (f *Formatter) Format(v Value, forceQuote bool) (string, error) {
	return f.format(v, forceQuote, 0)
}

func (f *Formatter) format(v Value, forceQuote bool, depth int) (string, error) {
	if depth > f.maxDepth {
		return "", errors.Wrapf(ErrTooDeep, "depth limit %d", f.maxDepth)
	}

	switch t := v.(type) {
	case nil, Null:
		return nullToken, nil
	case Bool:
		if t {
			return trueToken, nil
		}
		return falseToken, nil
	case Int:
		return strconv.FormatInt(int64(t), 10), nil
	case Float:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return "", errors.Wrapf(ErrUnformattable, "float %v", float64(t))
		}
		return strconv.FormatFloat(float64(t), 'g', -1, 64), nil
	case String:
		return quote(string(t), forceQuote), nil
	case List:
		items := make([]string, 0, len(t))
		for i, item := range t {
			s, err := f.format(item, true, depth+1)
			if err != nil {
				return "", errors.Wrapf(err, "item %d", i)
			}
			items = append(items, s)
		}
		return "@(" + strings.Join(items, ", ") + ")", nil
	case Map:
		return f.formatMap(t, depth)
	case Enum:
		return quote(t.Repr, true), nil
	case TypeRef:
		return "[" + t.Name + "]", nil
	case Struct:
		return f.formatStruct(t, forceQuote, depth)
	default:
		return "", errors.Wrapf(ErrUnformattable, "type %T", v)
	}
}

func (f *Formatter) formatMap(m Map, depth int) (string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		s, err := f.format(m[k], true, depth+1)
		if err != nil {
			return "", errors.Wrapf(err, "key %q", k)
		}
		pairs = append(pairs, fmt.Sprintf("%s = %s", quote(k, false), s))
	}
	return "@{" + strings.Join(pairs, "; ") + "}", nil
}

// fields returns the display fields of s: its own Display, else the
// descriptor registered for its type.
func (f *Formatter) fields(s Struct) []string {
	if s.Display != nil {
		return s.Display
	}
	return f.descriptors[s.Type]
}

func (f *Formatter) formatStruct(s Struct, forceQuote bool, depth int) (string, error) {
	fields := f.fields(s)
	switch len(fields) {
	case 0:
		// the type would be lost without quotes
		return quote(s.String(), true), nil
	case 1:
		return f.format(s.Get(fields[0]), forceQuote, depth+1)
	}

	m := make(Map, len(fields))
	for _, name := range fields {
		m[name] = s.Get(name)
	}
	body, err := f.formatMap(m, depth)
	if err != nil {
		return "", errors.Wrapf(err, "struct %s", s.Type)
	}
	return "[" + s.Type + "]" + body, nil
}

func quote(s string, force bool) string {
	if s == "" {
		return emptyToken
	}
	if !force && !strings.ContainsAny(s, bareUnsafe) {
		return s
	}
	if strings.ContainsRune(s, '"') && !strings.ContainsRune(s, '\'') {
		return "'" + s + "'"
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch e, ok := escapes[r]; {
		case ok:
			b.WriteString(e)
		case r < ' ' || (r == utf8.RuneError && size == 1):
			// invalid UTF-8 keeps its raw byte
			fmt.Fprintf(&b, "$([char]0x%02X)", s[i])
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	b.WriteByte('"')
	return b.String()
}
