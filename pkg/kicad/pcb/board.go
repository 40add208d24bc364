package pcb

import (
	"sort"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
)

// Board represents a complete KiCad PCB together with the parsed document
// it was read from. Edits go through Board methods so that the model and
// the tree stay in step.
type Board struct {
	Path       string      // File the board was loaded from
	Version    int         // File format version
	Generator  string      // Generator info (e.g., "pcbnew")
	General    General     // General board properties
	Layers     []Layer     // Layer definitions
	Setup      Setup       // Board setup
	Nets       []Net       // Electrical nets
	Footprints []*Footprint
	Graphics   Graphics // Board-level graphics
	Tracks     []*Track
	Vias       []*Via
	Zones      []*Zone
	Warnings   []string // Non-fatal problems found while parsing

	Root *kicadsexp.List

	items    []Item // tracks and vias in document order
	netMap   *NetMap
	layerMap *LayerMap
}

// General contains general board properties
type General struct {
	Thickness int64  // Board thickness in nm
	Title     string // Title block title
	Date      string
	Revision  string
	Company   string
}

// Setup contains the board setup values stored in the board file itself.
// Clearances and via sizes live in the project file since KiCad 6.
type Setup struct {
	PadToMaskClearance int64
	AuxAxisOrigin      units.Point
	GridOrigin         units.Point
}

// NetMap returns the net lookup table.
func (b *Board) NetMap() *NetMap {
	return b.netMap
}

// LayerMap returns the layer lookup table.
func (b *Board) LayerMap() *LayerMap {
	return b.layerMap
}

// TrackItems returns tracks and vias in document order.
func (b *Board) TrackItems() []Item {
	return b.items
}

// CopperLayerCount returns the number of copper layers.
func (b *Board) CopperLayerCount() int {
	n := 0
	for _, l := range b.Layers {
		if l.IsCopper() {
			n++
		}
	}
	return n
}

// GetNet returns a net by name, or nil if not found
func (b *Board) GetNet(name string) *Net {
	net, _ := b.FindNetByName(name)
	return net
}

// GetNetPads returns all pads connected to a specific net
func (b *Board) GetNetPads(netName string) []*Pad {
	net := b.GetNet(netName)
	if net == nil {
		return nil
	}
	var pads []*Pad
	for _, fp := range b.Footprints {
		for _, pad := range fp.Pads {
			if pad.Net == net.Number {
				pads = append(pads, pad)
			}
		}
	}
	return pads
}

// GetNetTracks returns all tracks connected to a specific net
func (b *Board) GetNetTracks(netName string) []*Track {
	net := b.GetNet(netName)
	if net == nil {
		return nil
	}
	var tracks []*Track
	for _, track := range b.Tracks {
		if track.Net == net.Number {
			tracks = append(tracks, track)
		}
	}
	return tracks
}

// GetNetVias returns all vias connected to a specific net
func (b *Board) GetNetVias(netName string) []*Via {
	net := b.GetNet(netName)
	if net == nil {
		return nil
	}
	var vias []*Via
	for _, via := range b.Vias {
		if via.Net == net.Number {
			vias = append(vias, via)
		}
	}
	return vias
}

// NetInfo contains information about a net and its connections
type NetInfo struct {
	Net    *Net
	Pads   []*Pad
	Tracks []*Track
	Vias   []*Via
}

// GetNetInfo returns complete information about a net
func (b *Board) GetNetInfo(netName string) *NetInfo {
	net := b.GetNet(netName)
	if net == nil {
		return nil
	}

	return &NetInfo{
		Net:    net,
		Pads:   b.GetNetPads(netName),
		Tracks: b.GetNetTracks(netName),
		Vias:   b.GetNetVias(netName),
	}
}

// GetAllNetNames returns the sorted names of all named nets
func (b *Board) GetAllNetNames() []string {
	var names []string
	for _, net := range b.Nets {
		if net.Name != "" {
			names = append(names, net.Name)
		}
	}
	sort.Strings(names)
	return names
}
