// Package msi defines the MCP tools of the bridge: their names,
// descriptions and argument schemas.
package msi

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var LoadPCBBoard = &mcp.Tool{
	Name:        "load_pcb_board",
	Description: `Load the KiCad board of a project and report its file path, footprint count, copper layer count and board name.`,
}

var PlaceComponent = &mcp.Tool{
	Name: "place_component",
	Description: `Place a footprint from a library on the board and save it.
The reference defaults to the next free U<n>. Rotation is in degrees, layer is F.Cu or B.Cu.`,
}

var MoveComponent = &mcp.Tool{
	Name:        "move_component",
	Description: `Move an existing footprint, identified by its reference designator, and save the board. Rotation is kept when omitted.`,
}

var GetNets = &mcp.Tool{
	Name:        "get_nets",
	Description: `List the nets of the board (name to net code) together with every pad, its position and its net.`,
}

var TrackRoutes = &mcp.Tool{
	Name: "track_routes",
	Description: `Add straight copper tracks and save the board. Each route connects two endpoints, given either as a pad ("R1.1")
or as a position. A failing route is reported and does not stop the others.`,
}

var PCBBasicInfo = &mcp.Tool{
	Name:        "pcb_basic_info",
	Description: `Report the board file path, the Edge.Cuts bounding box, net count, footprint count, copper layer count and thickness.`,
}

var PCBDesignRules = &mcp.Tool{
	Name:        "pcb_design_rules",
	Description: `Report the design rules: track widths, clearance and via dimensions.`,
}

var PCBLayers = &mcp.Tool{
	Name:        "pcb_layers",
	Description: `List the layers of the board.`,
}

var PCBPads = &mcp.Tool{
	Name:        "pcb_pads",
	Description: `List every footprint with its pads, pad geometry and the tracks connected to each pad.`,
}

var PCBTracksVias = &mcp.Tool{
	Name:        "pcb_tracks_vias",
	Description: `List the tracks and vias of the board.`,
}

var PCBZones = &mcp.Tool{
	Name:        "pcb_zones",
	Description: `List the copper zones of the board with their net, layer, fill settings and outline.`,
}

type ProjectParams struct {
	ProjectPath string `json:"project_path" jsonschema:"Path to the .kicad_pro project file or directly to the .kicad_pcb file."`
}

// Position is a point on the board.
type Position struct {
	X    float64 `json:"x" jsonschema:"X coordinate."`
	Y    float64 `json:"y" jsonschema:"Y coordinate. KiCad's Y axis points down."`
	Unit string  `json:"unit,omitempty" jsonschema:"Unit of x and y: mm (default) or inch."`
}

// Raw encodes p the way the worker protocol expects it.
func (p Position) Raw() json.RawMessage {
	data, _ := json.Marshal(p)
	return data
}

type PlaceComponentParams struct {
	ProjectPath string   `json:"project_path" jsonschema:"Path to the .kicad_pro project file."`
	ComponentID string   `json:"component_id" jsonschema:"Footprint name inside the library, e.g. R_0603_1608Metric."`
	Library     string   `json:"library" jsonschema:"Footprint library nickname, e.g. Resistor_SMD."`
	Position    Position `json:"position" jsonschema:"Where to put the footprint origin."`
	Reference   string   `json:"reference,omitempty" jsonschema:"Reference designator. Defaults to the next free U<n>."`
	Value       string   `json:"value,omitempty" jsonschema:"Value field. Defaults to the component id."`
	Rotation    float64  `json:"rotation,omitempty" jsonschema:"Rotation in degrees."`
	Layer       string   `json:"layer,omitempty" jsonschema:"F.Cu (default) or B.Cu."`
	OutputPath  string   `json:"output_path,omitempty" jsonschema:"Save to this file instead of overwriting the board."`
}

type MoveComponentParams struct {
	ProjectPath string   `json:"project_path" jsonschema:"Path to the .kicad_pro project file."`
	Reference   string   `json:"reference" jsonschema:"Reference designator of the footprint to move."`
	Position    Position `json:"position" jsonschema:"New position of the footprint origin."`
	Rotation    *float64 `json:"rotation,omitempty" jsonschema:"New rotation in degrees. Omit to keep the current rotation."`
	OutputPath  string   `json:"output_path,omitempty" jsonschema:"Save to this file instead of overwriting the board."`
}

// Endpoint is one end of a route: a pad or a position.
type Endpoint struct {
	Pad  string   `json:"pad,omitempty" jsonschema:"Pad as <reference>.<pad number>, e.g. R1.1. Takes precedence over x and y."`
	X    *float64 `json:"x,omitempty" jsonschema:"X coordinate when no pad is given."`
	Y    *float64 `json:"y,omitempty" jsonschema:"Y coordinate when no pad is given."`
	Unit string   `json:"unit,omitempty" jsonschema:"Unit of x and y: mm (default) or inch."`
}

// Raw encodes e as a pad reference or a position object.
func (e Endpoint) Raw() json.RawMessage {
	var v any = e
	if e.Pad != "" {
		v = map[string]string{"pad": e.Pad}
	}
	data, _ := json.Marshal(v)
	return data
}

type Route struct {
	Start Endpoint `json:"start" jsonschema:"Where the track starts."`
	End   Endpoint `json:"end" jsonschema:"Where the track ends."`
	Layer string   `json:"layer" jsonschema:"Copper layer, e.g. F.Cu."`
	Width float64  `json:"width" jsonschema:"Track width in millimeters."`
	Net   string   `json:"net" jsonschema:"Net name, e.g. GND."`
}

type TrackRoutesParams struct {
	ProjectPath string  `json:"project_path" jsonschema:"Path to the .kicad_pro project file."`
	Routes      []Route `json:"routes" jsonschema:"Tracks to add, applied in order."`
	OutputPath  string  `json:"output_path,omitempty" jsonschema:"Save to this file instead of overwriting the board."`
}
