package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
)

// DefaultTrackWidth applies when a segment omits (width).
const DefaultTrackWidth = 150_000

// parseSegment extracts a track segment or arc
// Expected format: (segment (start x y) (end x y) (width w) (layer "layer") (net n) ...)
// Arcs add (mid x y).
func parseSegment(node *kicadsexp.List) (*Track, error) {
	track := &Track{
		Width: DefaultTrackWidth,
		Arc:   node.Tag() == "arc",
		Node:  node,
	}

	startNode, found := sexp.FindNode(node, "start")
	if !found {
		return nil, fmt.Errorf("missing required 'start' position")
	}
	start, err := sexp.GetXY(startNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start position: %w", err)
	}
	track.Start = start

	endNode, found := sexp.FindNode(node, "end")
	if !found {
		return nil, fmt.Errorf("missing required 'end' position")
	}
	end, err := sexp.GetXY(endNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse end position: %w", err)
	}
	track.End = end

	if track.Arc {
		midNode, found := sexp.FindNode(node, "mid")
		if !found {
			return nil, fmt.Errorf("missing required 'mid' position")
		}
		if track.Mid, err = sexp.GetXY(midNode); err != nil {
			return nil, fmt.Errorf("failed to parse mid position: %w", err)
		}
	}

	if widthNode, found := sexp.FindNode(node, "width"); found {
		width, err := sexp.GetLength(widthNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse width: %w", err)
		}
		track.Width = width
	}

	layer, ok := sexp.GetChildString(node, "layer")
	if !ok {
		return nil, fmt.Errorf("missing required 'layer' field")
	}
	track.Layer = layer

	if netNode, found := sexp.FindNode(node, "net"); found {
		track.Net, _ = sexp.GetInt(netNode, 1)
	}

	// (locked) before KiCad 7, a bare locked flag or (locked yes) after
	track.Locked = sexp.HasSymbol(node, "locked")
	if v, ok := sexp.GetChildString(node, "locked"); ok {
		track.Locked = v == "yes"
	}

	track.UUID, _ = sexp.GetUUID(node)

	return track, nil
}

// parseVia extracts a via definition
// Expected format: (via (at x y) (size diameter) (drill diameter) (layers "L1" "L2") (net n) ...)
func parseVia(node *kicadsexp.List) (*Via, error) {
	via := &Via{Node: node}

	atNode, found := sexp.FindNode(node, "at")
	if !found {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	pos, err := sexp.GetXY(atNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse position: %w", err)
	}
	via.Position = pos

	sizeNode, found := sexp.FindNode(node, "size")
	if !found {
		return nil, fmt.Errorf("missing required 'size' field")
	}
	if via.Size, err = sexp.GetLength(sizeNode, 1); err != nil {
		return nil, fmt.Errorf("failed to parse size: %w", err)
	}

	drillNode, found := sexp.FindNode(node, "drill")
	if !found {
		return nil, fmt.Errorf("missing required 'drill' field")
	}
	if via.Drill, err = sexp.GetLength(drillNode, 1); err != nil {
		return nil, fmt.Errorf("failed to parse drill: %w", err)
	}

	layersNode, found := sexp.FindNode(node, "layers")
	if !found {
		return nil, fmt.Errorf("missing required 'layers' field")
	}
	via.Layers = sexp.GetLayers(layersNode)

	if netNode, found := sexp.FindNode(node, "net"); found {
		via.Net, _ = sexp.GetInt(netNode, 1)
	}

	via.Locked = sexp.HasSymbol(node, "locked")
	if v, ok := sexp.GetChildString(node, "locked"); ok {
		via.Locked = v == "yes"
	}

	via.UUID, _ = sexp.GetUUID(node)

	return via, nil
}
