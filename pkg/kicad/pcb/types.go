package pcb

import (
	"math"
	"strings"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
)

// Shared types (aliases to sexp package)
type BoundingBox = sexp.BoundingBox
type UUID = sexp.UUID

var NewBoundingBox = sexp.NewBoundingBox

// NoNet is the net code of unconnected items.
const NoNet = 0

// Layer represents a PCB layer
type Layer struct {
	Number   int    // Layer ordinal
	Name     string // Canonical name (e.g., "F.Cu", "Edge.Cuts")
	Type     string // signal, power, mixed, jumper or user
	UserName string // Optional user-visible name
}

// IsCopper reports whether the layer carries copper.
func (l Layer) IsCopper() bool {
	switch l.Type {
	case "signal", "power", "mixed", "jumper":
		return true
	}
	return strings.HasSuffix(l.Name, ".Cu")
}

// Net represents an electrical net
type Net struct {
	Number int    // Net code
	Name   string // Net name
}

// Size represents pad dimensions in nanometers
type Size struct {
	Width  int64
	Height int64
}

// LayerMap provides efficient lookup of layers by number or name
type LayerMap struct {
	byNumber map[int]*Layer
	byName   map[string]*Layer
}

// NewLayerMap creates a LayerMap from a slice of layers
func NewLayerMap(layers []Layer) *LayerMap {
	lm := &LayerMap{
		byNumber: make(map[int]*Layer),
		byName:   make(map[string]*Layer),
	}

	for i := range layers {
		layer := &layers[i]
		lm.byNumber[layer.Number] = layer
		lm.byName[layer.Name] = layer
		if layer.UserName != "" {
			if _, taken := lm.byName[layer.UserName]; !taken {
				lm.byName[layer.UserName] = layer
			}
		}
	}

	return lm
}

// GetByName retrieves a layer by its canonical or user name (e.g., "F.Cu")
func (lm *LayerMap) GetByName(name string) (*Layer, bool) {
	layer, ok := lm.byName[name]
	return layer, ok
}

// GetByNumber retrieves a layer by its number
func (lm *LayerMap) GetByNumber(num int) (*Layer, bool) {
	layer, ok := lm.byNumber[num]
	return layer, ok
}

// IsCopperLayer checks if a layer is a copper layer
func (lm *LayerMap) IsCopperLayer(name string) bool {
	layer, ok := lm.byName[name]
	return ok && layer.IsCopper()
}

// NetMap provides efficient lookup of nets by number or name
type NetMap struct {
	byNumber map[int]*Net
	byName   map[string]*Net
}

// NewNetMap creates a NetMap from a slice of nets
func NewNetMap(nets []Net) *NetMap {
	nm := &NetMap{
		byNumber: make(map[int]*Net),
		byName:   make(map[string]*Net),
	}

	for i := range nets {
		nm.add(&nets[i])
	}

	return nm
}

func (nm *NetMap) add(net *Net) {
	nm.byNumber[net.Number] = net
	// Only index non-empty names
	if net.Name != "" {
		nm.byName[net.Name] = net
	}
}

// GetByName retrieves a net by its name (e.g., "GND", "+5V")
func (nm *NetMap) GetByName(name string) (*Net, bool) {
	net, ok := nm.byName[name]
	return net, ok
}

// GetByNumber retrieves a net by its number
func (nm *NetMap) GetByNumber(num int) (*Net, bool) {
	net, ok := nm.byNumber[num]
	return net, ok
}

// NameOf returns the name of net code num, "" when unknown.
func (nm *NetMap) NameOf(num int) string {
	if net, ok := nm.byNumber[num]; ok {
		return net.Name
	}
	return ""
}

// IsUnconnected checks if a net number represents an unconnected net
// In KiCad, net 0 is reserved for unconnected pins
func (nm *NetMap) IsUnconnected(num int) bool {
	return num == NoNet
}

// Footprint represents a placed component
type Footprint struct {
	Library   string      // Library nickname
	Name      string      // Footprint name within the library
	Reference string      // Reference designator (e.g., "R1")
	Value     string      // Component value
	Layer     string      // F.Cu or B.Cu
	Position  units.Point // Anchor position
	Angle     float64     // Rotation in degrees, [0,360)
	Pads      []*Pad
	UUID      UUID

	Node *kicadsexp.List
}

// LibID returns the "library:name" identifier.
func (fp *Footprint) LibID() string {
	if fp.Library == "" {
		return fp.Name
	}
	return fp.Library + ":" + fp.Name
}

// FindPad returns the pad with the given number.
func (fp *Footprint) FindPad(number string) (*Pad, bool) {
	for _, p := range fp.Pads {
		if p.Number == number {
			return p, true
		}
	}
	return nil, false
}

// Pad represents a footprint pad
type Pad struct {
	Number string      // Pad number/name
	Type   string      // thru_hole, smd, connect, np_thru_hole
	Shape  string      // circle, rect, oval, roundrect, trapezoid, custom
	Offset units.Point // Position relative to the footprint anchor
	Angle  float64     // Absolute pad rotation in degrees
	Size   Size
	Drill  int64    // Drill diameter, 0 when the pad has none
	Layers []string // Layers the pad appears on
	Net    int      // Net code
	UUID   UUID

	Node *kicadsexp.List
}

// HasDrill reports whether the pad is drilled.
func (p *Pad) HasDrill() bool {
	return p.Drill > 0
}

// Item is a routed copper item: a *Track or a *Via.
type Item interface {
	NetCode() int
	ItemLayers() []string
}

// Track represents a copper track segment or arc
type Track struct {
	Start  units.Point
	End    units.Point
	Mid    units.Point // Only set for arcs
	Arc    bool
	Width  int64
	Layer  string
	Net    int
	Locked bool
	UUID   UUID

	Node *kicadsexp.List
}

func (t *Track) NetCode() int         { return t.Net }
func (t *Track) ItemLayers() []string { return []string{t.Layer} }

// Length returns the track length in nanometers. Arcs are measured along
// the chord through the mid point.
func (t *Track) Length() float64 {
	if t.Arc {
		return units.Distance(t.Start, t.Mid) + units.Distance(t.Mid, t.End)
	}
	return units.Distance(t.Start, t.End)
}

// Via represents a via
type Via struct {
	Position units.Point
	Size     int64    // Via diameter
	Drill    int64    // Drill diameter
	Layers   []string // Layer pair
	Net      int
	Locked   bool
	UUID     UUID

	Node *kicadsexp.List
}

func (v *Via) NetCode() int         { return v.Net }
func (v *Via) ItemLayers() []string { return v.Layers }

// Zone represents a copper zone. A zone whose definition could not be
// parsed is kept with Err set so callers can report it individually.
type Zone struct {
	Net                int
	NetName            string
	Layers             []string
	Outline            []units.Point
	Fills              [][]units.Point
	MinThickness       int64
	ThermalGap         int64
	ThermalBridgeWidth int64
	ConnectPads        string // yes, no, thru_hole_only or thermal (default)
	Priority           int
	UUID               UUID
	Err                error

	Node *kicadsexp.List
}

// Area returns the outline area in square nanometers (shoelace formula).
func (z *Zone) Area() float64 {
	n := len(z.Outline)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a, b := z.Outline[i], z.Outline[(i+1)%n]
		sum += float64(a.X)*float64(b.Y) - float64(b.X)*float64(a.Y)
	}
	return math.Abs(sum) / 2
}
