package board

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/project"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

// Lengths in extractor payloads are millimeters.

// Box is an axis-aligned rectangle given by its origin and extent.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BasicInfo is the payload of extract_basic_info.
type BasicInfo struct {
	FilePath       string     `json:"file_path"`
	BoundingBox    Box        `json:"bounding_box"`
	NetCount       int        `json:"net_count"`
	FootprintCount int        `json:"footprint_count"`
	CopperLayers   int        `json:"copper_layers"`
	Thickness      float64    `json:"thickness"`
	Title          string     `json:"title,omitempty"`
	Revision       string     `json:"revision,omitempty"`
	Unit           units.Unit `json:"unit"`
}

// BasicInfo reports the file path, outline extent and net count.
func (s *Session) BasicInfo() (*BasicInfo, error) {
	b, err := s.Board()
	if err != nil {
		return nil, err
	}

	var box Box
	if bb := b.EdgeBoundingBox(); !bb.IsEmpty() {
		box = Box{
			X:      units.ToMM(bb.Min.X),
			Y:      units.ToMM(bb.Min.Y),
			Width:  units.ToMM(bb.Width()),
			Height: units.ToMM(bb.Height()),
		}
	}

	return &BasicInfo{
		FilePath:       s.path,
		BoundingBox:    box,
		NetCount:       len(b.Nets),
		FootprintCount: len(b.Footprints),
		CopperLayers:   b.CopperLayerCount(),
		Thickness:      units.ToMM(b.General.Thickness),
		Title:          b.General.Title,
		Revision:       b.General.Revision,
		Unit:           units.MM,
	}, nil
}

// Fallback rules, matching a fresh KiCad project.
const (
	DefaultClearance   = 0.2
	DefaultViaDiameter = 0.6
	DefaultViaDrill    = 0.3
)

// DesignRules is the payload of extract_designRules.
type DesignRules struct {
	MinClearance       float64    `json:"min_clearance"`
	ViaDiameter        float64    `json:"via_diameter"`
	ViaDrill           float64    `json:"via_drill"`
	MinTrackWidth      float64    `json:"min_track_width"`
	PadToMaskClearance float64    `json:"pad_to_mask_clearance"`
	Source             string     `json:"source"`
	Unit               units.Unit `json:"unit"`
}

// DesignRules reads clearance and via sizes from the project file next to
// the board. A board without a project gets the defaults.
func (s *Session) DesignRules() (*DesignRules, error) {
	b, err := s.Board()
	if err != nil {
		return nil, err
	}

	rules := &DesignRules{
		MinClearance:       DefaultClearance,
		ViaDiameter:        DefaultViaDiameter,
		ViaDrill:           DefaultViaDrill,
		PadToMaskClearance: units.ToMM(b.Setup.PadToMaskClearance),
		Source:             "defaults",
		Unit:               units.MM,
	}

	proPath := project.ProjectPath(s.path)
	pro, err := project.Load(proPath)
	if err != nil {
		if errors.Is(err, kicaderr.NotFound) {
			return rules, nil
		}
		s.log.WithError(err).Warn("Ignoring unreadable project file")
		return rules, nil
	}

	rules.Source = "project"
	if v, ok := pro.SmallestClearance(); ok {
		rules.MinClearance = v
	}
	if via, ok := pro.CustomVia(); ok {
		rules.ViaDiameter = via.Diameter
		rules.ViaDrill = via.Drill
	}
	rules.MinTrackWidth = pro.Board.DesignSettings.Rules.MinTrackWidth
	return rules, nil
}

// LayerInfo describes one enabled layer.
type LayerInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	UserName string `json:"user_name,omitempty"`
	Copper   bool   `json:"copper"`
}

// Layers lists every layer defined in the board.
func (s *Session) Layers() ([]LayerInfo, error) {
	b, err := s.Board()
	if err != nil {
		return nil, err
	}
	layers := make([]LayerInfo, 0, len(b.Layers))
	for _, l := range b.Layers {
		layers = append(layers, LayerInfo{
			ID:       l.Number,
			Name:     l.Name,
			Type:     l.Type,
			UserName: l.UserName,
			Copper:   l.IsCopper(),
		})
	}
	return layers, nil
}

// PadInfo is one pad in the flat pad list of get_net_pcb.
type PadInfo struct {
	Reference         string         `json:"reference"`
	Value             string         `json:"value"`
	FootprintPosition units.Position `json:"footprint_position"`
	Pad               string         `json:"pad"`
	NetName           string         `json:"net_name"`
	NetCode           int            `json:"net_code"`
	Position          units.Position `json:"position"`
	Size              Size           `json:"size"`
	Shape             string         `json:"shape"`
	Drill             *float64       `json:"drill"`
	Type              string         `json:"type"`
}

// NetList is the payload of get_net_pcb.
type NetList struct {
	Nets map[string]int `json:"net_info"`
	Pads []PadInfo      `json:"pad_info"`
}

// NetList returns the net name to code table and every pad on the board.
func (s *Session) NetList() (*NetList, error) {
	b, err := s.Board()
	if err != nil {
		return nil, err
	}
	nl := &NetList{Nets: make(map[string]int, len(b.Nets))}
	for _, n := range b.Nets {
		nl.Nets[n.Name] = n.Number
	}
	nm := b.NetMap()
	for _, fp := range b.Footprints {
		for _, pad := range fp.Pads {
			nl.Pads = append(nl.Pads, PadInfo{
				Reference:         fp.Reference,
				Value:             fp.Value,
				FootprintPosition: units.FromInternal(fp.Position, units.MM),
				Pad:               pad.Number,
				NetName:           nm.NameOf(pad.Net),
				NetCode:           pad.Net,
				Position:          units.FromInternal(fp.PadPosition(pad), units.MM),
				Size:              padSize(pad),
				Shape:             pad.Shape,
				Drill:             padDrill(pad),
				Type:              pad.Type,
			})
		}
	}
	return nl, nil
}

func padSize(p *pcb.Pad) Size {
	return Size{Width: units.ToMM(p.Size.Width), Height: units.ToMM(p.Size.Height)}
}

func padDrill(p *pcb.Pad) *float64 {
	if !p.HasDrill() {
		return nil
	}
	d := units.ToMM(p.Drill)
	return &d
}

// ConnectedPad names another pad on the same net.
type ConnectedPad struct {
	Reference string `json:"reference"`
	Pad       string `json:"pad"`
}

// PadDetail is a pad inside FootprintInfo.
type PadDetail struct {
	Number         string         `json:"number"`
	NetName        string         `json:"net_name"`
	NetCode        int            `json:"net_code"`
	Position       units.Position `json:"position"`
	Size           Size           `json:"size"`
	Shape          string         `json:"shape"`
	Drill          *float64       `json:"drill"`
	Type           string         `json:"type"`
	Layers         []string       `json:"layers"`
	ConnectedItems []ConnectedPad `json:"connected_items"`
}

// FootprintInfo is one footprint of extract_pads.
type FootprintInfo struct {
	Reference string         `json:"reference"`
	Value     string         `json:"value"`
	Footprint string         `json:"footprint"`
	Position  units.Position `json:"position"`
	Rotation  float64        `json:"rotation"`
	Layer     string         `json:"layer"`
	Pads      []PadDetail    `json:"pads"`
}

// FootprintsAndPads lists footprints with their pads; each pad names the
// other pads that share its net.
func (s *Session) FootprintsAndPads() ([]FootprintInfo, error) {
	b, err := s.Board()
	if err != nil {
		return nil, err
	}
	index := b.PadsByNet()
	nm := b.NetMap()

	out := make([]FootprintInfo, 0, len(b.Footprints))
	for _, fp := range b.Footprints {
		info := FootprintInfo{
			Reference: fp.Reference,
			Value:     fp.Value,
			Footprint: fp.LibID(),
			Position:  units.FromInternal(fp.Position, units.MM),
			Rotation:  fp.Angle,
			Layer:     fp.Layer,
			Pads:      make([]PadDetail, 0, len(fp.Pads)),
		}
		for _, pad := range fp.Pads {
			connected := []ConnectedPad{}
			if pad.Net != pcb.NoNet {
				for _, other := range index[pad.Net] {
					if other.Pad == pad {
						continue
					}
					connected = append(connected, ConnectedPad{
						Reference: other.Footprint.Reference,
						Pad:       other.Pad.Number,
					})
				}
			}
			info.Pads = append(info.Pads, PadDetail{
				Number:         pad.Number,
				NetName:        nm.NameOf(pad.Net),
				NetCode:        pad.Net,
				Position:       units.FromInternal(fp.PadPosition(pad), units.MM),
				Size:           padSize(pad),
				Shape:          pad.Shape,
				Drill:          padDrill(pad),
				Type:           pad.Type,
				Layers:         pad.Layers,
				ConnectedItems: connected,
			})
		}
		out = append(out, info)
	}
	return out, nil
}

// TrackInfo is one straight or arc track.
type TrackInfo struct {
	UUID    string         `json:"uuid,omitempty"`
	Start   units.Position `json:"start"`
	End     units.Position `json:"end"`
	Width   float64        `json:"width"`
	Length  float64        `json:"length"`
	Layer   string         `json:"layer"`
	NetName string         `json:"net_name"`
	NetCode int            `json:"net_code"`
	Arc     bool           `json:"arc,omitempty"`
}

// ViaInfo is one via.
type ViaInfo struct {
	UUID     string         `json:"uuid,omitempty"`
	Position units.Position `json:"position"`
	Size     float64        `json:"size"`
	Drill    float64        `json:"drill"`
	Layers   []string       `json:"layers"`
	NetName  string         `json:"net_name"`
	NetCode  int            `json:"net_code"`
}

// TracksAndVias is the payload of extract_track_vias.
type TracksAndVias struct {
	Tracks []TrackInfo `json:"tracks"`
	Vias   []ViaInfo   `json:"vias"`
}

// TracksAndVias splits the routed items into tracks and vias.
func (s *Session) TracksAndVias() (*TracksAndVias, error) {
	b, err := s.Board()
	if err != nil {
		return nil, err
	}
	nm := b.NetMap()
	out := &TracksAndVias{Tracks: []TrackInfo{}, Vias: []ViaInfo{}}
	for _, item := range b.TrackItems() {
		switch it := item.(type) {
		case *pcb.Via:
			out.Vias = append(out.Vias, ViaInfo{
				UUID:     string(it.UUID),
				Position: units.FromInternal(it.Position, units.MM),
				Size:     units.ToMM(it.Size),
				Drill:    units.ToMM(it.Drill),
				Layers:   it.Layers,
				NetName:  nm.NameOf(it.Net),
				NetCode:  it.Net,
			})
		case *pcb.Track:
			out.Tracks = append(out.Tracks, trackInfo(it, nm))
		}
	}
	return out, nil
}

func trackInfo(t *pcb.Track, nm *pcb.NetMap) TrackInfo {
	return TrackInfo{
		UUID:    string(t.UUID),
		Start:   units.FromInternal(t.Start, units.MM),
		End:     units.FromInternal(t.End, units.MM),
		Width:   units.ToMM(t.Width),
		Length:  t.Length() / units.NanometersPerMM,
		Layer:   t.Layer,
		NetName: nm.NameOf(t.Net),
		NetCode: t.Net,
		Arc:     t.Arc,
	}
}

// ZoneInfo is one zone of extract_zones. A zone that could not be read
// carries only Index and Error.
type ZoneInfo struct {
	Index              int      `json:"index"`
	UUID               string   `json:"uuid,omitempty"`
	NetName            string   `json:"net_name,omitempty"`
	NetCode            int      `json:"net_code"`
	Layers             []string `json:"layers,omitempty"`
	Area               float64  `json:"area"`
	MinThickness       float64  `json:"min_thickness"`
	ThermalGap         float64  `json:"thermal_gap"`
	ThermalBridgeWidth float64  `json:"thermal_bridge_width"`
	ConnectPads        string   `json:"connect_pads,omitempty"`
	Priority           int      `json:"priority"`
	Filled             bool     `json:"filled"`
	Error              string   `json:"error,omitempty"`
}

// Zones is the payload of extract_zones. Area is in square millimeters.
type Zones struct {
	Zones  []ZoneInfo `json:"zones"`
	Errors int        `json:"errors"`
}

// Zones reports every zone. A zone that failed to parse becomes an error
// entry and the others are still reported.
func (s *Session) Zones() (*Zones, error) {
	b, err := s.Board()
	if err != nil {
		return nil, err
	}
	out := &Zones{Zones: make([]ZoneInfo, 0, len(b.Zones))}
	for i, z := range b.Zones {
		if z.Err != nil {
			out.Zones = append(out.Zones, ZoneInfo{
				Index:   i,
				UUID:    string(z.UUID),
				NetCode: z.Net,
				Error:   fmt.Sprintf("failed to read zone: %v", z.Err),
			})
			out.Errors++
			continue
		}
		out.Zones = append(out.Zones, ZoneInfo{
			Index:              i,
			UUID:               string(z.UUID),
			NetName:            z.NetName,
			NetCode:            z.Net,
			Layers:             z.Layers,
			Area:               z.Area() / (units.NanometersPerMM * units.NanometersPerMM),
			MinThickness:       units.ToMM(z.MinThickness),
			ThermalGap:         units.ToMM(z.ThermalGap),
			ThermalBridgeWidth: units.ToMM(z.ThermalBridgeWidth),
			ConnectPads:        z.ConnectPads,
			Priority:           z.Priority,
			Filled:             len(z.Fills) > 0,
		})
	}
	return out, nil
}
