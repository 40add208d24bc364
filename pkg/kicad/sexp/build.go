package sexp

import (
	"strconv"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
)

// Node construction and in-place editing helpers

// Length renders nanometers as a millimeter atom.
func Length(nm int64) kicadsexp.Symbol {
	return kicadsexp.Symbol(units.FormatMM(nm))
}

// Int renders an integer atom.
func Int(v int) kicadsexp.Symbol {
	return kicadsexp.Symbol(strconv.Itoa(v))
}

// XY builds a (tag X Y) node from a nanometer point.
func XY(tag string, p units.Point) *kicadsexp.List {
	return kicadsexp.Node(tag, Length(p.X), Length(p.Y))
}

// At builds an (at X Y [angle]) node. A zero angle is omitted, as KiCad does.
func At(p units.Point, angle float64) *kicadsexp.List {
	n := XY("at", p)
	if angle != 0 {
		n.Append(kicadsexp.Symbol(units.FormatDegrees(angle)))
	}
	return n
}

// SetChild replaces the first direct child with the same tag as child, or
// appends child when there is none.
func SetChild(parent *kicadsexp.List, child *kicadsexp.List) {
	tag := child.Tag()
	for i, item := range parent.Items() {
		if l, ok := item.(*kicadsexp.List); ok && l.Tag() == tag {
			parent.Set(i, child)
			return
		}
	}
	parent.Append(child)
}

// RemoveChildren deletes every direct child tagged key and reports how many
// were removed.
func RemoveChildren(parent *kicadsexp.List, key string) int {
	n := 0
	for i := parent.Len() - 1; i >= 0; i-- {
		if l, ok := parent.Get(i).(*kicadsexp.List); ok && l.Tag() == key {
			parent.RemoveAt(i)
			n++
		}
	}
	return n
}
