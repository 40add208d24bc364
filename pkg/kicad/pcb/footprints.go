package pcb

import (
	"fmt"
	"math"
	"strings"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
)

// parsePad extracts a pad definition from a footprint
// Expected format: (pad "number" type shape (at x y [angle]) (size w h) (layers ...) (net n "name") ...)
func parsePad(node *kicadsexp.List, netMap *NetMap) (*Pad, error) {
	pad := &Pad{Node: node}

	number, err := sexp.GetString(node, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad number: %w", err)
	}
	pad.Number = number

	padType, err := sexp.GetString(node, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad type: %w", err)
	}
	pad.Type = padType

	shape, err := sexp.GetString(node, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad shape: %w", err)
	}
	pad.Shape = shape

	atNode, found := sexp.FindNode(node, "at")
	if !found {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	pad.Offset, pad.Angle, err = sexp.GetAt(atNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad position: %w", err)
	}

	sizeNode, found := sexp.FindNode(node, "size")
	if !found {
		return nil, fmt.Errorf("missing required 'size' field")
	}
	size, err := sexp.GetXY(sizeNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad size: %w", err)
	}
	pad.Size = Size{Width: size.X, Height: size.Y}

	// Drill can be (drill d), (drill oval w h) or carry an (offset ...)
	if drillNode, found := sexp.FindNode(node, "drill"); found {
		idx := 1
		if s, _ := sexp.GetString(drillNode, 1); s == "oval" {
			idx = 2
		}
		if drill, err := sexp.GetLength(drillNode, idx); err == nil {
			pad.Drill = drill
		}
	}

	layersNode, found := sexp.FindNode(node, "layers")
	if !found {
		return nil, fmt.Errorf("missing required 'layers' field")
	}
	pad.Layers = sexp.GetLayers(layersNode)

	if netNode, found := sexp.FindNode(node, "net"); found {
		pad.Net = parseNetRef(netNode, netMap)
	}

	pad.UUID, _ = sexp.GetUUID(node)

	return pad, nil
}

// parseNetRef reads (net <code> ["name"]). Boards that only carry the name
// are resolved through the net table.
func parseNetRef(node kicadsexp.Sexp, netMap *NetMap) int {
	if code, err := sexp.GetInt(node, 1); err == nil {
		return code
	}
	if name, err := sexp.GetString(node, 1); err == nil && netMap != nil {
		if net, ok := netMap.GetByName(name); ok {
			return net.Number
		}
	}
	return NoNet
}

// ParseFootprint extracts a footprint from a board (footprint ...) node or
// from the root of a .kicad_mod file. Library files have no placement, so a
// missing (at) means the origin.
func ParseFootprint(node *kicadsexp.List, netMap *NetMap) (*Footprint, error) {
	footprint := &Footprint{Node: node}

	fpName, err := sexp.GetString(node, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse footprint name: %w", err)
	}
	footprint.Library, footprint.Name = SplitLibID(fpName)

	layer, ok := sexp.GetChildString(node, "layer")
	if !ok {
		return nil, fmt.Errorf("missing required 'layer' field")
	}
	footprint.Layer = layer

	if atNode, found := sexp.FindNode(node, "at"); found {
		footprint.Position, footprint.Angle, err = sexp.GetAt(atNode)
		if err != nil {
			return nil, fmt.Errorf("failed to parse position: %w", err)
		}
		footprint.Angle = units.NormalizeDegrees(footprint.Angle)
	}

	// Reference and Value are properties since KiCad 8, fp_text before
	for _, propNode := range sexp.FindAllNodes(node, "property") {
		prop, err := sexp.GetProperty(propNode)
		if err != nil {
			continue
		}
		switch prop.Key {
		case "Reference":
			footprint.Reference = prop.Value
		case "Value":
			footprint.Value = prop.Value
		}
	}
	for _, textNode := range sexp.FindAllNodes(node, "fp_text") {
		kind, _ := sexp.GetString(textNode, 1)
		text, _ := sexp.GetString(textNode, 2)
		switch {
		case kind == "reference" && footprint.Reference == "":
			footprint.Reference = text
		case kind == "value" && footprint.Value == "":
			footprint.Value = text
		}
	}

	footprint.UUID, _ = sexp.GetUUID(node)

	for i, padNode := range sexp.FindAllNodes(node, "pad") {
		pad, err := parsePad(padNode, netMap)
		if err != nil {
			return nil, fmt.Errorf("%s pad %d: %w", footprint.describe(), i, err)
		}
		footprint.Pads = append(footprint.Pads, pad)
	}

	return footprint, nil
}

func (fp *Footprint) describe() string {
	if fp.Reference != "" {
		return fp.Reference
	}
	return fp.LibID()
}

// SplitLibID splits "library:name". An id without a colon has no library.
func SplitLibID(id string) (library, name string) {
	if i := strings.IndexByte(id, ':'); i > 0 {
		return id[:i], id[i+1:]
	}
	return "", id
}

// TransformPosition maps a footprint-local offset to board coordinates
func (fp *Footprint) TransformPosition(offset units.Point) units.Point {
	x, y := float64(offset.X), float64(offset.Y)

	// Negate to match KiCad's y-down rotation direction
	if fp.Angle != 0 {
		angleRad := -fp.Angle * math.Pi / 180.0
		cos := math.Cos(angleRad)
		sin := math.Sin(angleRad)
		x, y = x*cos-y*sin, x*sin+y*cos
	}

	return units.Point{
		X: fp.Position.X + int64(math.Round(x)),
		Y: fp.Position.Y + int64(math.Round(y)),
	}
}

// PadPosition returns the absolute board position of a pad.
func (fp *Footprint) PadPosition(p *Pad) units.Point {
	return fp.TransformPosition(p.Offset)
}

// SetPlacement moves the footprint and rotates it to angle degrees. Pad and
// text angles are stored absolute in the file, so they turn with it.
func (fp *Footprint) SetPlacement(pos units.Point, angle float64) {
	angle = units.NormalizeDegrees(angle)
	delta := angle - fp.Angle

	fp.Position = pos
	fp.Angle = angle
	if fp.Node == nil {
		return
	}
	sexp.SetChild(fp.Node, sexp.At(pos, angle))

	if delta == 0 {
		return
	}
	for _, pad := range fp.Pads {
		pad.Angle = units.NormalizeDegrees(pad.Angle + delta)
		if pad.Node != nil {
			sexp.SetChild(pad.Node, sexp.At(pad.Offset, pad.Angle))
		}
	}
	for _, key := range []string{"property", "fp_text"} {
		for _, text := range sexp.FindAllNodes(fp.Node, key) {
			rotateAt(text, delta)
		}
	}
}

// rotateAt adds delta degrees to the angle of a node's (at ...) child.
func rotateAt(node *kicadsexp.List, delta float64) {
	atNode, ok := sexp.FindNode(node, "at")
	if !ok {
		return
	}
	pt, angle, err := sexp.GetAt(atNode)
	if err != nil {
		return
	}
	at := sexp.At(pt, units.NormalizeDegrees(angle+delta))
	// keep trailing flags such as "unlocked"
	start := 3
	if _, err := sexp.GetFloat(atNode, 3); err == nil {
		start = 4
	}
	for _, extra := range atNode.Items()[min(atNode.Len(), start):] {
		at.Append(extra)
	}
	sexp.SetChild(node, at)
}
