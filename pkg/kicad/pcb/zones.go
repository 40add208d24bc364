package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
)

// parseZone extracts a zone definition. The returned zone is never nil:
// on error it carries whatever was read before the failure.
func parseZone(node *kicadsexp.List, netMap *NetMap) (*Zone, error) {
	zone := &Zone{Node: node, ConnectPads: "thermal"}

	if netNode, found := sexp.FindNode(node, "net"); found {
		zone.Net = parseNetRef(netNode, netMap)
	}
	if name, ok := sexp.GetChildString(node, "net_name"); ok {
		zone.NetName = name
	} else if netMap != nil {
		zone.NetName = netMap.NameOf(zone.Net)
	}
	zone.UUID, _ = sexp.GetUUID(node)

	// Single (layer) or multi-layer (layers ...)
	if layer, ok := sexp.GetChildString(node, "layer"); ok {
		zone.Layers = []string{layer}
	}
	if layersNode, found := sexp.FindNode(node, "layers"); found {
		zone.Layers = sexp.GetLayers(layersNode)
	}
	if len(zone.Layers) == 0 {
		return zone, fmt.Errorf("zone has no layer")
	}

	if p, ok := sexp.FindNode(node, "priority"); ok {
		zone.Priority, _ = sexp.GetInt(p, 1)
	}

	if n, ok := sexp.FindNode(node, "min_thickness"); ok {
		v, err := sexp.GetLength(n, 1)
		if err != nil {
			return zone, fmt.Errorf("failed to parse min_thickness: %w", err)
		}
		zone.MinThickness = v
	}

	// (connect_pads [yes|no|thru_hole_only] (clearance c))
	if cp, ok := sexp.FindNode(node, "connect_pads"); ok {
		if mode, err := sexp.GetString(cp, 1); err == nil {
			zone.ConnectPads = mode
		}
	}

	// (fill yes (thermal_gap g) (thermal_bridge_width w) ...)
	if fill, ok := sexp.FindNode(node, "fill"); ok {
		if n, ok := sexp.FindNode(fill, "thermal_gap"); ok {
			v, err := sexp.GetLength(n, 1)
			if err != nil {
				return zone, fmt.Errorf("failed to parse thermal_gap: %w", err)
			}
			zone.ThermalGap = v
		}
		if n, ok := sexp.FindNode(fill, "thermal_bridge_width"); ok {
			v, err := sexp.GetLength(n, 1)
			if err != nil {
				return zone, fmt.Errorf("failed to parse thermal_bridge_width: %w", err)
			}
			zone.ThermalBridgeWidth = v
		}
	}

	polyNode, found := sexp.FindNode(node, "polygon")
	if !found {
		return zone, fmt.Errorf("zone has no outline polygon")
	}
	ptsNode, found := sexp.FindNode(polyNode, "pts")
	if !found {
		return zone, fmt.Errorf("zone outline has no points")
	}
	outline, err := parsePoints(ptsNode)
	if err != nil {
		return zone, fmt.Errorf("failed to parse outline: %w", err)
	}
	zone.Outline = outline

	for _, fpNode := range sexp.FindAllNodes(node, "filled_polygon") {
		if pts, found := sexp.FindNode(fpNode, "pts"); found {
			points, err := parsePoints(pts)
			if err == nil {
				zone.Fills = append(zone.Fills, points)
			}
		}
	}

	return zone, nil
}

// parsePoints extracts xy coordinate pairs from a pts node. Arc points
// inside outlines are skipped.
func parsePoints(ptsNode kicadsexp.Sexp) ([]units.Point, error) {
	var points []units.Point

	for _, item := range sexp.GetListItems(ptsNode) {
		if sexp.Tag(item) != "xy" {
			continue
		}
		pt, err := sexp.GetXY(item)
		if err != nil {
			return nil, err
		}
		points = append(points, pt)
	}

	return points, nil
}
