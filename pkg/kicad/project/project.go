// Package project reads the KiCad project description (.kicad_pro) that sits
// next to a board and schematic.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

// File extensions of a KiCad project.
const (
	Ext          = ".kicad_pro"
	PCBExt       = ".kicad_pcb"
	SchematicExt = ".kicad_sch"
)

// PCBPath maps a project path to its board file. Any other path is
// returned unchanged.
func PCBPath(path string) string {
	if base, ok := strings.CutSuffix(path, Ext); ok {
		return base + PCBExt
	}
	return path
}

// ProjectPath maps a board or schematic path to its project file.
func ProjectPath(path string) string {
	for _, ext := range []string{PCBExt, SchematicExt} {
		if base, ok := strings.CutSuffix(path, ext); ok {
			return base + Ext
		}
	}
	return path
}

// File is the part of a .kicad_pro document the bridge reads. Lengths are
// millimeters, as stored.
type File struct {
	Board struct {
		DesignSettings DesignSettings `json:"design_settings"`
	} `json:"board"`
	NetSettings NetSettings `json:"net_settings"`
	Meta        struct {
		Filename string `json:"filename"`
		Version  int    `json:"version"`
	} `json:"meta"`
}

// DesignSettings holds the board design rules of the project.
type DesignSettings struct {
	Rules         Rules          `json:"rules"`
	TrackWidths   []float64      `json:"track_widths"`
	ViaDimensions []ViaDimension `json:"via_dimensions"`
}

// Rules are the board-wide constraints.
type Rules struct {
	MinClearance           float64 `json:"min_clearance"`
	MinTrackWidth          float64 `json:"min_track_width"`
	MinViaDiameter         float64 `json:"min_via_diameter"`
	MinThroughHoleDiameter float64 `json:"min_through_hole_diameter"`
}

// ViaDimension is one entry of the user-defined via size list.
type ViaDimension struct {
	Diameter float64 `json:"diameter"`
	Drill    float64 `json:"drill"`
}

// NetSettings holds the net classes.
type NetSettings struct {
	Classes []NetClass `json:"classes"`
}

// NetClass carries the per-class routing defaults.
type NetClass struct {
	Name        string  `json:"name"`
	Clearance   float64 `json:"clearance"`
	TrackWidth  float64 `json:"track_width"`
	ViaDiameter float64 `json:"via_diameter"`
	ViaDrill    float64 `json:"via_drill"`
}

// Load reads and decodes a project file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, kicaderr.Errorf(kicaderr.KindNotFound, "project file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, kicaderr.Errorf(kicaderr.KindInvalidInput, "invalid project file %s: %v", path, err)
	}
	return &f, nil
}

// DefaultNetClass returns the class named "Default", or the first class.
func (f *File) DefaultNetClass() (NetClass, bool) {
	for _, c := range f.NetSettings.Classes {
		if c.Name == "Default" {
			return c, true
		}
	}
	if len(f.NetSettings.Classes) > 0 {
		return f.NetSettings.Classes[0], true
	}
	return NetClass{}, false
}

// SmallestClearance is the minimum over the board rule and all net class
// clearances. Unset (zero) values are ignored.
func (f *File) SmallestClearance() (float64, bool) {
	smallest, found := f.Board.DesignSettings.Rules.MinClearance, false
	if smallest > 0 {
		found = true
	}
	for _, c := range f.NetSettings.Classes {
		if c.Clearance > 0 && (!found || c.Clearance < smallest) {
			smallest, found = c.Clearance, true
		}
	}
	return smallest, found
}

// CustomVia returns the first user-defined via size. KiCad keeps a zero
// placeholder at index 0 that means "use the net class".
func (f *File) CustomVia() (ViaDimension, bool) {
	for _, v := range f.Board.DesignSettings.ViaDimensions {
		if v.Diameter > 0 && v.Drill > 0 {
			return v, true
		}
	}
	if c, ok := f.DefaultNetClass(); ok && c.ViaDiameter > 0 && c.ViaDrill > 0 {
		return ViaDimension{Diameter: c.ViaDiameter, Drill: c.ViaDrill}, true
	}
	return ViaDimension{}, false
}
