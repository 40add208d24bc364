package kicadsexp

import (
	"bufio"
	"io"
	"strings"
)

// maxInline is the longest list rendered on a single line when it has
// nested lists of its own.
const maxInline = 100

// Format writes s in the layout KiCad itself uses: lists containing other
// lists put each child list on its own tab-indented line, short lists of
// atoms stay inline.
func Format(w io.Writer, s Sexp) error {
	bw := bufio.NewWriter(w)
	writeNode(bw, s, 0)
	bw.WriteByte('\n')
	return bw.Flush()
}

// FormatString is Format into a string.
func FormatString(s Sexp) string {
	var b strings.Builder
	_ = Format(&b, s)
	return b.String()
}

func writeNode(w *bufio.Writer, s Sexp, depth int) {
	l, ok := s.(*List)
	if !ok {
		w.WriteString(s.String())
		return
	}
	if inline(l, depth) {
		w.WriteString(l.String())
		return
	}

	w.WriteByte('(')
	broke := false
	for i, elem := range l.elements {
		_, isList := elem.(*List)
		if isList || broke {
			broke = true
			w.WriteByte('\n')
			writeIndent(w, depth+1)
		} else if i > 0 {
			w.WriteByte(' ')
		}
		writeNode(w, elem, depth+1)
	}
	if broke {
		w.WriteByte('\n')
		writeIndent(w, depth)
	}
	w.WriteByte(')')
}

func inline(l *List, depth int) bool {
	nested := false
	for _, elem := range l.elements {
		child, ok := elem.(*List)
		if !ok {
			continue
		}
		nested = true
		for _, grand := range child.elements {
			if _, deep := grand.(*List); deep {
				return false
			}
		}
	}
	if !nested {
		return true
	}
	return depth > 0 && len(l.String()) <= maxInline
}

func writeIndent(w *bufio.Writer, depth int) {
	for i := 0; i < depth; i++ {
		w.WriteByte('\t')
	}
}
