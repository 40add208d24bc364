package component

import (
	"strings"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
)

// flip moves a footprint node built at the origin to the bottom side:
// geometry is mirrored about the X axis and F./B. layers are swapped.
func flip(node *kicadsexp.List) {
	for _, item := range node.Items() {
		child, ok := item.(*kicadsexp.List)
		if !ok {
			continue
		}
		switch child.Tag() {
		case "layer", "layers":
			for i := 1; i < child.Len(); i++ {
				child.Set(i, swapSide(child.Get(i)))
			}
			continue
		case "at", "start", "end", "center", "mid", "xy":
			mirrorY(child)
		}
		flip(child)
	}
}

func mirrorY(node *kicadsexp.List) {
	y, err := sexp.GetLength(node, 2)
	if err != nil {
		return
	}
	node.Set(2, sexp.Length(-y))
	if node.Tag() != "at" {
		return
	}
	if angle, err := sexp.GetFloat(node, 3); err == nil && angle != 0 {
		node.Set(3, kicadsexp.Symbol(units.FormatDegrees(units.NormalizeDegrees(-angle))))
	}
}

func swapSide(atom kicadsexp.Sexp) kicadsexp.Sexp {
	name, ok := kicadsexp.Atom(atom)
	if !ok {
		return atom
	}
	var swapped string
	switch {
	case strings.HasPrefix(name, "F."):
		swapped = "B." + name[2:]
	case strings.HasPrefix(name, "B."):
		swapped = "F." + name[2:]
	default:
		return atom
	}
	if _, quoted := atom.(kicadsexp.Quoted); quoted {
		return kicadsexp.Quoted(swapped)
	}
	return kicadsexp.Symbol(swapped)
}
