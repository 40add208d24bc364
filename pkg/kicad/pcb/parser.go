package pcb

import (
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
)

// Minimum supported KiCad version (6.0 = 20211014)
const MinSupportedVersion = 20211014

// PropertyFootprintVersion is the first format version that stores
// Reference and Value as footprint properties instead of fp_text.
const PropertyFootprintVersion = 20230620

// ParseFile reads and parses a KiCad board file
func ParseFile(filename string) (*Board, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	board, err := Parse(file)
	if err != nil {
		return nil, err
	}
	board.Path = filename
	return board, nil
}

// Parse reads and parses a KiCad board from an io.Reader
func Parse(r io.Reader) (*Board, error) {
	sexps, err := kicadsexp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}

	if len(sexps) == 0 {
		return nil, fmt.Errorf("empty file or no valid s-expressions found")
	}

	root, ok := sexps[0].(*kicadsexp.List)
	if !ok || root.Tag() != "kicad_pcb" {
		name, _ := sexp.GetNodeName(sexps[0])
		return nil, fmt.Errorf("not a KiCad PCB file: expected 'kicad_pcb', got '%s'", name)
	}

	version, generator, err := parseHeader(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	board := &Board{
		Version:   version,
		Generator: generator,
		Root:      root,
	}

	if generalNode, found := sexp.FindNode(root, "general"); found {
		general, err := parseGeneral(generalNode)
		if err != nil {
			return nil, fmt.Errorf("failed to parse general section: %w", err)
		}
		board.General = *general
	}
	if tb, found := sexp.FindNode(root, "title_block"); found {
		parseTitleBlock(tb, &board.General)
	}

	if layersNode, found := sexp.FindNode(root, "layers"); found {
		layers, err := parseLayers(layersNode)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layers section: %w", err)
		}
		board.Layers = layers
	}
	board.layerMap = NewLayerMap(board.Layers)

	if setupNode, found := sexp.FindNode(root, "setup"); found {
		board.Setup = parseSetup(setupNode)
	}

	nets, err := parseNets(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse nets: %w", err)
	}
	board.Nets = nets
	board.netMap = NewNetMap(board.Nets)

	graphics, err := parseGraphics(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graphics: %w", err)
	}
	board.Graphics = *graphics

	if err := board.parseItems(); err != nil {
		return nil, err
	}

	board.checkNetRefs()
	return board, nil
}

// parseItems walks the top level once so that footprints, tracks, vias and
// zones keep their document order.
func (b *Board) parseItems() error {
	zoneIndex := 0
	for _, item := range b.Root.Items() {
		node, ok := item.(*kicadsexp.List)
		if !ok {
			continue
		}
		switch node.Tag() {
		case "footprint", "module":
			fp, err := ParseFootprint(node, b.netMap)
			if err != nil {
				return fmt.Errorf("failed to parse footprint: %w", err)
			}
			b.Footprints = append(b.Footprints, fp)

		case "segment", "arc":
			track, err := parseSegment(node)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", node.Tag(), err)
			}
			b.Tracks = append(b.Tracks, track)
			b.items = append(b.items, track)

		case "via":
			via, err := parseVia(node)
			if err != nil {
				return fmt.Errorf("failed to parse via: %w", err)
			}
			b.Vias = append(b.Vias, via)
			b.items = append(b.items, via)

		case "zone":
			zone, err := parseZone(node, b.netMap)
			if err != nil {
				zone.Err = err
				b.Warnings = append(b.Warnings, fmt.Sprintf("zone %d: %v", zoneIndex, err))
			}
			b.Zones = append(b.Zones, zone)
			zoneIndex++
		}
	}
	return nil
}

// checkNetRefs records items whose net code is missing from the net table.
func (b *Board) checkNetRefs() {
	if len(b.Nets) == 0 {
		return
	}
	check := func(what string, code int) {
		if code == NoNet {
			return
		}
		if _, ok := b.netMap.GetByNumber(code); !ok {
			b.Warnings = append(b.Warnings, fmt.Sprintf("%s references unknown net %d", what, code))
		}
	}
	for _, fp := range b.Footprints {
		for _, pad := range fp.Pads {
			check(fmt.Sprintf("pad %s.%s", fp.Reference, pad.Number), pad.Net)
		}
	}
	for _, item := range b.items {
		check(fmt.Sprintf("%T", item), item.NetCode())
	}
}

// parseHeader extracts version and generator information from the root node
// Expected format: (kicad_pcb (version 20221018) (generator pcbnew) ...)
func parseHeader(root kicadsexp.Sexp) (version int, generator string, err error) {
	versionNode, found := sexp.FindNode(root, "version")
	if !found {
		return 0, "", fmt.Errorf("missing required 'version' field")
	}

	ver, err := sexp.GetInt(versionNode, 1)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	if ver < MinSupportedVersion {
		return 0, "", fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", ver, MinSupportedVersion)
	}

	gen := "unknown"
	if hostNode, found := sexp.FindNode(root, "host"); found {
		// Format: (host tool build)
		if toolName, err := sexp.GetString(hostNode, 1); err == nil {
			gen = toolName
		}
	} else if genNode, found := sexp.FindNode(root, "generator"); found {
		if generatorName, err := sexp.GetString(genNode, 1); err == nil {
			gen = generatorName
		}
	}

	return ver, gen, nil
}

// parseGeneral extracts general board properties
// Expected format: (general (thickness 1.6) ...)
func parseGeneral(node kicadsexp.Sexp) (*General, error) {
	general := &General{}

	if thicknessNode, found := sexp.FindNode(node, "thickness"); found {
		thickness, err := sexp.GetLength(thicknessNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse thickness: %w", err)
		}
		general.Thickness = thickness
	}

	return general, nil
}

// parseTitleBlock fills the descriptive fields from (title_block ...).
func parseTitleBlock(node kicadsexp.Sexp, general *General) {
	if v, ok := sexp.GetChildString(node, "title"); ok {
		general.Title = v
	}
	if v, ok := sexp.GetChildString(node, "date"); ok {
		general.Date = v
	}
	if v, ok := sexp.GetChildString(node, "rev"); ok {
		general.Revision = v
	}
	if v, ok := sexp.GetChildString(node, "company"); ok {
		general.Company = v
	}
}

// parseLayers extracts layer definitions
// Expected format: (layers (0 "F.Cu" signal) (31 "B.Cu" signal) ...)
func parseLayers(node kicadsexp.Sexp) ([]Layer, error) {
	layerNodes := sexp.GetListItems(node)
	if len(layerNodes) == 0 {
		return nil, fmt.Errorf("no layers defined")
	}

	var layers []Layer

	for _, layerNode := range layerNodes {
		if layerNode.IsLeaf() {
			continue
		}

		// Parse individual layer: (number "name" type ["user name"])
		number, err := sexp.GetInt(layerNode, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layer number: %w", err)
		}

		name, err := sexp.GetString(layerNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layer name: %w", err)
		}

		layerType, err := sexp.GetString(layerNode, 2)
		if err != nil {
			layerType = "user"
		}

		userName, _ := sexp.GetString(layerNode, 3)

		layers = append(layers, Layer{
			Number:   number,
			Name:     name,
			Type:     layerType,
			UserName: userName,
		})
	}

	return layers, nil
}

// parseSetup extracts the board setup values kept in the board file
func parseSetup(node kicadsexp.Sexp) Setup {
	var setup Setup
	if n, ok := sexp.FindNode(node, "pad_to_mask_clearance"); ok {
		setup.PadToMaskClearance, _ = sexp.GetLength(n, 1)
	}
	if n, ok := sexp.FindNode(node, "aux_axis_origin"); ok {
		setup.AuxAxisOrigin, _ = sexp.GetXY(n)
	}
	if n, ok := sexp.FindNode(node, "grid_origin"); ok {
		setup.GridOrigin, _ = sexp.GetXY(n)
	}
	return setup
}

// parseNets extracts net definitions from the root node
// Expected format: (net 0 "") (net 1 "GND") (net 2 "+5V") ...
// Each net is a top-level node in the board file
func parseNets(root kicadsexp.Sexp) ([]Net, error) {
	netNodes := sexp.FindAllNodes(root, "net")
	nets := make([]Net, 0, len(netNodes))
	seen := make(map[string]int)

	for _, netNode := range netNodes {
		number, err := sexp.GetInt(netNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse net number: %w", err)
		}

		// Name is optional (net 0 often has empty name)
		name, _ := sexp.GetString(netNode, 2)
		if name != "" {
			if prev, dup := seen[name]; dup {
				return nil, fmt.Errorf("net name %q used by both net %d and net %d", name, prev, number)
			}
			seen[name] = number
		}

		nets = append(nets, Net{Number: number, Name: name})
	}

	return nets, nil
}
