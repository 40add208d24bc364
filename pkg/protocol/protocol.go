// Package protocol defines the messages exchanged between the bridge and
// the worker process: method names, parameter objects and the result
// envelope printed by the worker on stdout.
package protocol

import (
	"encoding/json"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/board"
)

// Version is the worker protocol revision. The bridge passes it as
// --protocol and the worker refuses any other value.
const Version = 1

// Method names.
const (
	MethodLoadBoard          = "load_board"
	MethodPlaceComponent     = "place_component_full"
	MethodMoveComponent      = "move_component"
	MethodGetNets            = "get_net_pcb"
	MethodTrackRoutes        = "track_pcb_routes"
	MethodExtractBasicInfo   = "extract_basic_info"
	MethodExtractDesignRules = "extract_designRules"
	MethodExtractLayers      = "extract_layers"
	MethodExtractPads        = "extract_pads"
	MethodExtractTracksVias  = "extract_track_vias"
	MethodExtractZones       = "extract_zones"
	MethodSaveBoard          = "save_board"
)

// Methods lists every method the worker dispatches, in table order.
var Methods = []string{
	MethodLoadBoard,
	MethodPlaceComponent,
	MethodMoveComponent,
	MethodGetNets,
	MethodTrackRoutes,
	MethodExtractBasicInfo,
	MethodExtractDesignRules,
	MethodExtractLayers,
	MethodExtractPads,
	MethodExtractTracksVias,
	MethodExtractZones,
	MethodSaveBoard,
}

// ProjectParams is the parameter object of load_board, get_net_pcb and
// the extractors.
type ProjectParams struct {
	ProjectPath string `json:"project_path"`
}

// SaveParams is the parameter object of save_board. An empty OutputPath
// overwrites the loaded board.
type SaveParams struct {
	ProjectPath string `json:"project_path"`
	OutputPath  string `json:"output_path,omitempty"`
}

// PlaceParams is the parameter object of place_component_full. Position is
// kept raw so the worker can report malformed positions precisely.
type PlaceParams struct {
	ProjectPath string          `json:"project_path"`
	ComponentID string          `json:"component_id"`
	Library     string          `json:"library"`
	Position    json.RawMessage `json:"position"`
	Reference   string          `json:"reference,omitempty"`
	Value       string          `json:"value,omitempty"`
	Rotation    float64         `json:"rotation,omitempty"`
	Layer       string          `json:"layer,omitempty"`
	OutputPath  string          `json:"output_path,omitempty"`
}

// MoveParams is the parameter object of move_component. A nil Rotation
// keeps the footprint's rotation.
type MoveParams struct {
	ProjectPath string          `json:"project_path"`
	Reference   string          `json:"reference"`
	Position    json.RawMessage `json:"position"`
	Rotation    *float64        `json:"rotation,omitempty"`
	OutputPath  string          `json:"output_path,omitempty"`
}

// RoutesParams is the parameter object of track_pcb_routes.
type RoutesParams struct {
	ProjectPath string               `json:"project_path"`
	Routes      []board.RouteRequest `json:"route"`
	OutputPath  string               `json:"output_path,omitempty"`
}
