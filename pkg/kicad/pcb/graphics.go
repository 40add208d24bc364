package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
)

// EdgeCuts is the board outline layer.
const EdgeCuts = "Edge.Cuts"

// GrLine represents a line graphic element
type GrLine struct {
	Start units.Point
	End   units.Point
	Width int64
	Layer string
}

// GrCircle is defined by its center and a point on the circumference
type GrCircle struct {
	Center units.Point
	End    units.Point
	Width  int64
	Layer  string
}

// GrArc is defined by three points: start, mid (on arc), and end
type GrArc struct {
	Start units.Point
	Mid   units.Point
	End   units.Point
	Width int64
	Layer string
}

// GrRect represents a rectangle graphic element
type GrRect struct {
	Start units.Point
	End   units.Point
	Width int64
	Layer string
}

// GrPoly represents a polygon graphic element
type GrPoly struct {
	Points []units.Point
	Width  int64
	Layer  string
}

// Graphics contains the board-level drawings
type Graphics struct {
	Lines   []GrLine
	Circles []GrCircle
	Arcs    []GrArc
	Rects   []GrRect
	Polys   []GrPoly
}

// graphicCommon reads the stroke width and layer shared by every gr_* node.
// Expected format: ... (stroke (width w) (type solid)) (layer "Edge.Cuts")
// Older files use a bare (width w).
func graphicCommon(node kicadsexp.Sexp) (width int64, layer string, err error) {
	if strokeNode, found := sexp.FindNode(node, "stroke"); found {
		if w, found := sexp.FindNode(strokeNode, "width"); found {
			width, _ = sexp.GetLength(w, 1)
		}
	} else if w, found := sexp.FindNode(node, "width"); found {
		width, _ = sexp.GetLength(w, 1)
	}

	layer, ok := sexp.GetChildString(node, "layer")
	if !ok {
		return 0, "", fmt.Errorf("missing required 'layer' field")
	}
	return width, layer, nil
}

// requireXY reads a mandatory (key x y) child.
func requireXY(node kicadsexp.Sexp, key string) (units.Point, error) {
	child, found := sexp.FindNode(node, key)
	if !found {
		return units.Point{}, fmt.Errorf("missing required '%s' position", key)
	}
	pt, err := sexp.GetXY(child)
	if err != nil {
		return units.Point{}, fmt.Errorf("failed to parse %s position: %w", key, err)
	}
	return pt, nil
}

// parseGrLine extracts (gr_line (start x1 y1) (end x2 y2) (stroke ...) (layer "F.Cu"))
func parseGrLine(node kicadsexp.Sexp) (*GrLine, error) {
	line := &GrLine{}
	var err error
	if line.Start, err = requireXY(node, "start"); err != nil {
		return nil, err
	}
	if line.End, err = requireXY(node, "end"); err != nil {
		return nil, err
	}
	if line.Width, line.Layer, err = graphicCommon(node); err != nil {
		return nil, err
	}
	return line, nil
}

// parseGrCircle extracts (gr_circle (center x y) (end x y) (stroke ...) (fill ...) (layer "F.Cu"))
func parseGrCircle(node kicadsexp.Sexp) (*GrCircle, error) {
	circle := &GrCircle{}
	var err error
	if circle.Center, err = requireXY(node, "center"); err != nil {
		return nil, err
	}
	if circle.End, err = requireXY(node, "end"); err != nil {
		return nil, err
	}
	if circle.Width, circle.Layer, err = graphicCommon(node); err != nil {
		return nil, err
	}
	return circle, nil
}

// parseGrArc extracts (gr_arc (start x y) (mid x y) (end x y) (stroke ...) (layer "F.Cu"))
func parseGrArc(node kicadsexp.Sexp) (*GrArc, error) {
	arc := &GrArc{}
	var err error
	if arc.Start, err = requireXY(node, "start"); err != nil {
		return nil, err
	}
	if arc.Mid, err = requireXY(node, "mid"); err != nil {
		return nil, err
	}
	if arc.End, err = requireXY(node, "end"); err != nil {
		return nil, err
	}
	if arc.Width, arc.Layer, err = graphicCommon(node); err != nil {
		return nil, err
	}
	return arc, nil
}

// parseGrRect extracts (gr_rect (start x y) (end x y) (stroke ...) (fill ...) (layer "F.Cu"))
func parseGrRect(node kicadsexp.Sexp) (*GrRect, error) {
	rect := &GrRect{}
	var err error
	if rect.Start, err = requireXY(node, "start"); err != nil {
		return nil, err
	}
	if rect.End, err = requireXY(node, "end"); err != nil {
		return nil, err
	}
	if rect.Width, rect.Layer, err = graphicCommon(node); err != nil {
		return nil, err
	}
	return rect, nil
}

// parseGrPoly extracts (gr_poly (pts (xy x y) ...) (stroke ...) (fill ...) (layer "F.Cu"))
func parseGrPoly(node kicadsexp.Sexp) (*GrPoly, error) {
	ptsNode, found := sexp.FindNode(node, "pts")
	if !found {
		return nil, fmt.Errorf("missing required 'pts' field")
	}
	points, err := parsePoints(ptsNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse points: %w", err)
	}
	poly := &GrPoly{Points: points}
	if poly.Width, poly.Layer, err = graphicCommon(node); err != nil {
		return nil, err
	}
	return poly, nil
}

// parseGraphics extracts all board-level graphic elements
func parseGraphics(root kicadsexp.Sexp) (*Graphics, error) {
	graphics := &Graphics{}

	for _, node := range sexp.FindAllNodes(root, "gr_line") {
		line, err := parseGrLine(node)
		if err != nil {
			return nil, fmt.Errorf("failed to parse gr_line: %w", err)
		}
		graphics.Lines = append(graphics.Lines, *line)
	}

	for _, node := range sexp.FindAllNodes(root, "gr_circle") {
		circle, err := parseGrCircle(node)
		if err != nil {
			return nil, fmt.Errorf("failed to parse gr_circle: %w", err)
		}
		graphics.Circles = append(graphics.Circles, *circle)
	}

	for _, node := range sexp.FindAllNodes(root, "gr_arc") {
		arc, err := parseGrArc(node)
		if err != nil {
			return nil, fmt.Errorf("failed to parse gr_arc: %w", err)
		}
		graphics.Arcs = append(graphics.Arcs, *arc)
	}

	for _, node := range sexp.FindAllNodes(root, "gr_rect") {
		rect, err := parseGrRect(node)
		if err != nil {
			return nil, fmt.Errorf("failed to parse gr_rect: %w", err)
		}
		graphics.Rects = append(graphics.Rects, *rect)
	}

	for _, node := range sexp.FindAllNodes(root, "gr_poly") {
		poly, err := parseGrPoly(node)
		if err != nil {
			return nil, fmt.Errorf("failed to parse gr_poly: %w", err)
		}
		graphics.Polys = append(graphics.Polys, *poly)
	}

	return graphics, nil
}
