package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Mode selects the serialization of an Emitter.
type Mode int

const (
	Text Mode = iota
	XML
)

func (m Mode) String() string {
	if m == XML {
		return "xml"
	}
	return "text"
}

const defaultIndentStep = 2

// Emitter writes a document one line at a time. It holds the indentation
// depth of a single report run and must not be shared between runs.
type Emitter struct {
	w         io.Writer
	mode      Mode
	formatter *Formatter
	step      int
	indent    int
	err       error
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithFormatter replaces the default literal formatter used in Text mode.
func WithFormatter(f *Formatter) EmitterOption {
	return func(e *Emitter) {
		e.formatter = f
	}
}

// WithIndentStep sets the number of columns a block indents its body.
func WithIndentStep(n int) EmitterOption {
	return func(e *Emitter) {
		e.step = n
	}
}

func NewEmitter(w io.Writer, mode Mode, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		w:         w,
		mode:      mode,
		formatter: defaultFormatter,
		step:      defaultIndentStep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Emitter) Mode() Mode {
	return e.mode
}

// Depth returns the current indentation in columns.
func (e *Emitter) Depth() int {
	return e.indent
}

// Block is returned by Open and closed by Close.
type Block struct {
	name  string
	depth int
}

func (b Block) Name() string {
	return b.name
}

type leafOptions struct {
	attrs     map[string]string
	indent    int
	override  bool
	nameWidth int
}

// LeafOption adjusts a single Leaf call.
type LeafOption func(*leafOptions)

// Attrs attaches attributes to the leaf.
func Attrs(attrs map[string]string) LeafOption {
	return func(o *leafOptions) {
		o.attrs = attrs
	}
}

// Indent writes the leaf at n columns instead of the current depth.
func Indent(n int) LeafOption {
	return func(o *leafOptions) {
		o.indent = n
		o.override = true
	}
}

// NameWidth pads the name to n columns. Text mode only.
func NameWidth(n int) LeafOption {
	return func(o *leafOptions) {
		o.nameWidth = n
	}
}

// Leaf writes one name/value line. Absent values write nothing.
func (e *Emitter) Leaf(name string, v Value, opts ...LeafOption) error {
	if IsAbsent(v) {
		return e.err
	}

	o := leafOptions{indent: e.indent}
	for _, opt := range opts {
		opt(&o)
	}

	var line string
	if e.mode == XML {
		// types are not kept in XML, but the value must still be formattable
		if _, err := e.formatter.Format(v, false); err != nil {
			return errors.Wrapf(err, "value of %s", name)
		}
		tag := EscapeXMLName(name)
		line = "<" + tag + xmlAttrs(o.attrs) + ">" + EscapeXMLValue(e.formatter.Plain(v)) + "</" + tag + ">"
	} else {
		n, err := e.formatter.Format(String(name), false)
		if err != nil {
			return err
		}
		if o.nameWidth > 0 {
			n = fmt.Sprintf("%-*s", o.nameWidth, n)
		}
		attrs, err := e.textAttrs(o.attrs)
		if err != nil {
			return errors.Wrapf(err, "attributes of %s", name)
		}
		val, err := e.formatter.Format(v, false)
		if err != nil {
			return errors.Wrapf(err, "value of %s", name)
		}
		line = n + attrs + " " + val
	}
	return e.writeLine(o.indent, line)
}

// Open writes the opening line of a block and indents what follows.
func (e *Emitter) Open(name string, attrs map[string]string) (Block, error) {
	b := Block{name: name, depth: e.indent}

	var line string
	if e.mode == XML {
		b.name = EscapeXMLName(name)
		line = "<" + b.name + xmlAttrs(attrs) + ">"
	} else {
		n, err := e.formatter.Format(String(name), false)
		if err != nil {
			return b, err
		}
		a, err := e.textAttrs(attrs)
		if err != nil {
			return b, errors.Wrapf(err, "attributes of %s", name)
		}
		b.name = n
		line = n + a + " {"
	}

	if err := e.writeLine(e.indent, line); err != nil {
		return b, err
	}
	e.indent += e.step
	return b, nil
}

// Close restores the depth the block was opened at, then writes its closing
// line there.
func (e *Emitter) Close(b Block) error {
	e.indent = b.depth
	if e.mode == XML {
		return e.writeLine(e.indent, "</"+b.name+">")
	}
	return e.writeLine(e.indent, "}")
}

// WithBlock runs body inside a block. The block is closed even when body
// fails or panics; body's error wins over the close error.
func (e *Emitter) WithBlock(name string, attrs map[string]string, body func() error) (err error) {
	b, err := e.Open(name, attrs)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(b); err == nil {
			err = cerr
		}
	}()
	return body()
}

// Comment writes a diagnostic line that readers of either format ignore.
func (e *Emitter) Comment(text string) error {
	if e.mode == XML {
		return e.writeLine(e.indent, "<!-- "+strings.ReplaceAll(text, "--", "- -")+" -->")
	}
	return e.writeLine(e.indent, "# "+text)
}

// Err returns the first write error, if any.
func (e *Emitter) Err() error {
	return e.err
}

func (e *Emitter) writeLine(indent int, line string) error {
	if e.err != nil {
		return e.err
	}
	if indent < 0 {
		indent = 0
	}
	if _, err := io.WriteString(e.w, strings.Repeat(" ", indent)+line+"\n"); err != nil {
		e.err = errors.Wrap(err, "failed to write report")
	}
	return e.err
}

func (e *Emitter) textAttrs(attrs map[string]string) (string, error) {
	var b strings.Builder
	for _, k := range sortedKeys(attrs) {
		key, err := e.formatter.Format(String(k), false)
		if err != nil {
			return "", err
		}
		val, err := e.formatter.Format(String(attrs[k]), false)
		if err != nil {
			return "", err
		}
		b.WriteString(" " + key + "=" + val)
	}
	return b.String(), nil
}

func xmlAttrs(attrs map[string]string) string {
	var b strings.Builder
	for _, k := range sortedKeys(attrs) {
		b.WriteString(" " + EscapeXMLName(k) + `="` + EscapeXMLValue(attrs[k]) + `"`)
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Plain renders v as unquoted text with a formatter that has no registered
// descriptors.
func Plain(v Value) string {
	return defaultFormatter.Plain(v)
}

// Plain renders v as unquoted text, the way XML output carries values.
// Structs show the same fields Format would.
func (f *Formatter) Plain(v Value) string {
	switch t := v.(type) {
	case nil, Null:
		return ""
	case Bool:
		if t {
			return "True"
		}
		return "False"
	case Int:
		return strconv.FormatInt(int64(t), 10)
	case Float:
		return strconv.FormatFloat(float64(t), 'g', -1, 64)
	case String:
		return string(t)
	case List:
		items := make([]string, len(t))
		for i := range t {
			items[i] = f.Plain(t[i])
		}
		return strings.Join(items, ", ")
	case Map:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = k + " = " + f.Plain(t[k])
		}
		return strings.Join(pairs, "; ")
	case Enum:
		return t.Repr
	case TypeRef:
		return t.Name
	case Struct:
		fields := f.fields(t)
		switch len(fields) {
		case 0:
			return t.String()
		case 1:
			return f.Plain(t.Get(fields[0]))
		}
		m := make(Map, len(fields))
		for _, name := range fields {
			m[name] = t.Get(name)
		}
		return f.Plain(m)
	}
	return fmt.Sprint(v)
}
