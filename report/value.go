// Package report formats inventory facts as a nested name/value document.
//
// Two serializations share the same call sites: a compact brace-nested text
// format whose scalars are re-parseable literals, and an XML equivalent.
package report

import (
	"fmt"
	"time"
)

// Value is one of Null, Bool, Int, Float, String, List, Map, Enum, TypeRef or
// Struct. A nil Value is the same as Null.
type Value interface {
	isValue()
}

// Null is the absent value.
type Null struct{}

type Bool bool

type Int int64

type Float float64

type String string

// List is an ordered sequence of values.
type List []Value

// Map has unique keys; formatting sorts them.
type Map map[string]Value

// Enum is an enumerated value, e.g. a drive type reported by the platform.
type Enum struct {
	Type string
	Repr string
}

// TypeRef refers to a type by name and formats as a cast token.
type TypeRef struct {
	Name string
}

// Field is one named property of a Struct.
type Field struct {
	Name  string
	Value Value
}

// Struct is a structured value. Display, when set, lists the fields that are
// rendered; otherwise the Formatter's descriptor for Type is used. Text is the
// string form used when no field list is known.
type Struct struct {
	Type    string
	Fields  []Field
	Display []string
	Text    string
}

func (Null) isValue()    {}
func (Bool) isValue()    {}
func (Int) isValue()     {}
func (Float) isValue()   {}
func (String) isValue()  {}
func (List) isValue()    {}
func (Map) isValue()     {}
func (Enum) isValue()    {}
func (TypeRef) isValue() {}
func (Struct) isValue()  {}

// Get returns the named field, or Null.
func (s Struct) Get(name string) Value {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return Null{}
}

func (s Struct) String() string {
	if s.Text != "" {
		return s.Text
	}
	return s.Type
}

// IsAbsent reports whether v carries no value.
func IsAbsent(v Value) bool {
	switch v.(type) {
	case nil, Null:
		return true
	}
	return false
}

// Of converts common Go values. Empty strings stay present; use nil for absent.
func Of(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null{}
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Int(t)
	case int32:
		return Int(t)
	case int64:
		return Int(t)
	case uint:
		return Int(t)
	case uint32:
		return Int(t)
	case uint64:
		return Int(t)
	case float32:
		return Float(t)
	case float64:
		return Float(t)
	case string:
		return String(t)
	case *string:
		if t == nil {
			return Null{}
		}
		return String(*t)
	case []string:
		l := make(List, len(t))
		for i := range t {
			l[i] = String(t[i])
		}
		return l
	case map[string]string:
		m := make(Map, len(t))
		for k, s := range t {
			m[k] = String(s)
		}
		return m
	case time.Time:
		if t.IsZero() {
			return Null{}
		}
		return String(t.Format(time.RFC3339))
	case fmt.Stringer:
		return String(t.String())
	default:
		return String(fmt.Sprint(t))
	}
}
