// Package kicadsexp provides a lightweight streaming S-expression reader and
// writer for KiCad files. Quoted strings are kept distinct from bare symbols
// so that a parsed document can be edited and written back.
package kicadsexp

import (
	"io"
	"strings"
)

// Sexp represents an S-expression node.
// It can be either a leaf (atom) or a list.
type Sexp interface {
	// IsLeaf returns true if this is an atom (not a list)
	IsLeaf() bool

	// LeafCount returns the number of elements in a list (1 for atoms)
	LeafCount() int

	// Head returns the first element of a list (the atom itself for atoms)
	Head() Sexp

	// Tail returns the rest of the list after the first element (nil for atoms)
	Tail() Sexp

	// String returns the KiCad text representation
	String() string
}

// Symbol is a bare atom: keyword, number or unquoted identifier.
type Symbol string

func (s Symbol) IsLeaf() bool   { return true }
func (s Symbol) LeafCount() int { return 1 }
func (s Symbol) Head() Sexp     { return s }
func (s Symbol) Tail() Sexp     { return nil }
func (s Symbol) String() string { return string(s) }

// Quoted is an atom that was written between double quotes.
type Quoted string

func (q Quoted) IsLeaf() bool   { return true }
func (q Quoted) LeafCount() int { return 1 }
func (q Quoted) Head() Sexp     { return q }
func (q Quoted) Tail() Sexp     { return nil }
func (q Quoted) String() string { return quote(string(q)) }

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Atom returns the text of a Symbol or Quoted leaf.
func Atom(s Sexp) (string, bool) {
	switch v := s.(type) {
	case Symbol:
		return string(v), true
	case Quoted:
		return string(v), true
	}
	return "", false
}

// List represents a list of S-expressions
type List struct {
	elements []Sexp
}

// NewList builds a list from the given items.
func NewList(items ...Sexp) *List {
	return &List{elements: items}
}

// Node builds a (tag items...) list.
func Node(tag string, items ...Sexp) *List {
	return &List{elements: append([]Sexp{Symbol(tag)}, items...)}
}

func (l *List) IsLeaf() bool { return false }

func (l *List) LeafCount() int {
	return len(l.elements)
}

func (l *List) Head() Sexp {
	if len(l.elements) == 0 {
		return nil
	}
	return l.elements[0]
}

func (l *List) Tail() Sexp {
	if len(l.elements) <= 1 {
		return nil
	}
	return &List{elements: l.elements[1:]}
}

func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, elem := range l.elements {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(elem.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Tag returns the leading symbol of the list, or "" when there is none.
func (l *List) Tag() string {
	if len(l.elements) == 0 {
		return ""
	}
	if sym, ok := l.elements[0].(Symbol); ok {
		return string(sym)
	}
	return ""
}

// Get returns the element at the given index
func (l *List) Get(index int) Sexp {
	if index < 0 || index >= len(l.elements) {
		return nil
	}
	return l.elements[index]
}

// Len returns the number of elements in the list
func (l *List) Len() int {
	return len(l.elements)
}

// Items returns the backing elements. Callers must not retain the slice
// across mutations.
func (l *List) Items() []Sexp {
	return l.elements
}

// Append adds items to the end of the list.
func (l *List) Append(items ...Sexp) {
	l.elements = append(l.elements, items...)
}

// Set replaces the element at index. Out of range indexes are ignored.
func (l *List) Set(index int, s Sexp) {
	if index < 0 || index >= len(l.elements) {
		return
	}
	l.elements[index] = s
}

// Insert places s before the element at index. An index at or past the end
// appends.
func (l *List) Insert(index int, s Sexp) {
	if index < 0 {
		index = 0
	}
	if index >= len(l.elements) {
		l.elements = append(l.elements, s)
		return
	}
	l.elements = append(l.elements[:index+1], l.elements[index:]...)
	l.elements[index] = s
}

// RemoveAt deletes the element at index.
func (l *List) RemoveAt(index int) {
	if index < 0 || index >= len(l.elements) {
		return
	}
	l.elements = append(l.elements[:index], l.elements[index+1:]...)
}

// Clone returns a deep copy of s.
func Clone(s Sexp) Sexp {
	l, ok := s.(*List)
	if !ok {
		return s
	}
	out := &List{elements: make([]Sexp, len(l.elements))}
	for i, e := range l.elements {
		out.elements[i] = Clone(e)
	}
	return out
}

// Parse parses all S-expressions from an io.Reader.
func Parse(r io.Reader) ([]Sexp, error) {
	parser := NewParser(r)
	return parser.ParseAll()
}

// ParseString parses S-expressions from a string (convenience function)
func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}
