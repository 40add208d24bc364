package msi

import "github.com/modelcontextprotocol/go-sdk/mcp"

// PromptText maps prompt names to the text the server returns for them.
var PromptText = map[string]string{
	GeneratePCBRoutes.Name: generatePCBRoutes,
	AnalyzeDatasheet.Name:  analyzeDatasheet,
	WriteFootprint.Name:    writeFootprint,
	WriteSymbol.Name:       writeSymbol,
	SaveLibraryParts.Name:  saveLibraryParts,
}

var GeneratePCBRoutes = &mcp.Prompt{
	Name:        "generate_pcb_routes",
	Description: "Guidelines for planning copper routes before calling track_routes.",
}

var AnalyzeDatasheet = &mcp.Prompt{
	Name:        "analyze_datasheet_package",
	Description: "Extract the package geometry of a part from its datasheet.",
}

var WriteFootprint = &mcp.Prompt{
	Name:        "write_footprint",
	Description: "Write a .kicad_mod footprint that passes validate_footprint_structure.",
}

var WriteSymbol = &mcp.Prompt{
	Name:        "write_symbol",
	Description: "Write a .kicad_sym symbol that passes validate_symbol_structure.",
}

var SaveLibraryParts = &mcp.Prompt{
	Name:        "save_library_parts",
	Description: "Validate, save and register a new footprint and symbol.",
}

const generatePCBRoutes = `You are routing copper on a KiCad board with the track_routes tool.

1. Call get_nets and pcb_design_rules first. Only route pads that share a net,
   and use the net name exactly as get_nets reports it.
2. Use the default track width from the design rules unless the net carries
   power; power and ground nets get wider tracks or a zone.
3. Each route is one straight segment. Break a connection into several
   segments with 45 degree bends instead of a single diagonal across other parts.
4. Keep clear of other pads, vias and the board outline (pcb_basic_info
   reports the Edge.Cuts bounding box).
5. Keep high speed and sensitive nets short and away from clocks and switching
   supplies. Route differential pairs together.
6. Check the per-route results. A failed route does not undo the others.`

const analyzeDatasheet = `Read the datasheet and report the package so a footprint can be drawn:

- package family and variant (for example QFN-32, SOIC-8, 0603)
- mounting: surface mount or through hole
- pin count, pin numbering order and the location of pin 1
- pitch, pad or lead width and length, ball diameter for arrays
- body length, width and height
- exposed or thermal pad size and position
- drill diameters for through hole parts
- recommended land pattern, if the datasheet gives one

Give every dimension in millimeters and say which values are nominal.`

const writeFootprint = `Write a KiCad footprint in the .kicad_mod S-expression format.

- The root form is (footprint "<name>" ...) and carries (layer "F.Cu").
- Every pad is (pad "<number>" <smd|thru_hole|np_thru_hole|connect> <shape>
  (at x y [angle]) (size w h) (layers ...)), with (drill d) for thru_hole pads.
- Coordinates are millimeters relative to the footprint origin, y grows downward.
- Add F.SilkS outline, F.CrtYd courtyard and F.Fab body graphics.
- Add the Reference and Value properties.

Run validate_footprint_structure on the result and fix every missing block it
reports before saving.`

const writeSymbol = `Write a KiCad symbol library in the .kicad_sym S-expression format.

- The file is (kicad_symbol_lib (version ...) (generator ...) (generator_version ...) (symbol ...)).
- Every symbol has the properties Reference, Value and Footprint. The
  Footprint property names the footprint as "<library>:<name>".
- Every pin is (pin <electrical type> <graphic style> (at x y angle) (length l)
  (name "...") (number "...")).
- Group pins by function: power at the top and bottom, inputs on the left,
  outputs on the right.

Run validate_symbol_structure on the result and fix every reported problem
before saving.`

const saveLibraryParts = `Save a finished footprint and symbol:

1. Validate both with validate_footprint_structure and validate_symbol_structure.
2. Save the footprint with save_footprint_mod and the symbol with save_symbol,
   using the same library name for both.
3. Register the libraries with add_footprint_to_lib and add_symbol_to_lib.
   A library that is already registered is reported as already_exists and
   needs no further action.`
