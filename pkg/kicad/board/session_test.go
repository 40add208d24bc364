package board

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// copyFixture copies the demo project into a temp dir and returns the
// project path.
func copyFixture(t *testing.T, withProject bool) string {
	t.Helper()
	dir := t.TempDir()
	files := []string{"demo.kicad_pcb"}
	if withProject {
		files = append(files, "demo.kicad_pro")
	}
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join("testdata", name))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return filepath.Join(dir, "demo.kicad_pro")
}

func loadedSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(quietLogger())
	if _, err := s.Load(copyFixture(t, true)); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return s
}

func TestLoad(t *testing.T) {
	proPath := copyFixture(t, true)
	s := NewSession(quietLogger())

	info, err := s.Load(proPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	want := filepath.Join(filepath.Dir(proPath), "demo.kicad_pcb")
	if info.PCBPath != want {
		t.Errorf("PCBPath = %q, want %q", info.PCBPath, want)
	}
	if info.FootprintCount != 2 || info.LayerCount != 2 || info.BoardName != "demo.kicad_pcb" {
		t.Errorf("LoadInfo = %+v", info)
	}
	if !s.Loaded() {
		t.Errorf("session should be loaded")
	}

	// loading the board file directly works too
	if _, err := s.Load(want); err != nil {
		t.Errorf("Load(pcb) failed: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(quietLogger())

	_, err := s.Load(filepath.Join(dir, "missing.kicad_pro"))
	if !errors.Is(err, kicaderr.NotFound) {
		t.Errorf("missing board: got %v, want NotFound", err)
	}

	corrupt := filepath.Join(dir, "corrupt.kicad_pcb")
	if err := os.WriteFile(corrupt, []byte("(kicad_pcb (version 20240108)"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = s.Load(corrupt)
	if kicaderr.KindOf(err) != kicaderr.KindLoadError {
		t.Errorf("corrupt board: got %v (%s), want load_error", err, kicaderr.KindOf(err))
	}
	if s.Loaded() {
		t.Errorf("failed load must not leave a board behind")
	}
}

func TestNotLoaded(t *testing.T) {
	s := NewSession(quietLogger())

	calls := map[string]func() error{
		"Save":              func() error { _, err := s.Save(""); return err },
		"BasicInfo":         func() error { _, err := s.BasicInfo(); return err },
		"DesignRules":       func() error { _, err := s.DesignRules(); return err },
		"Layers":            func() error { _, err := s.Layers(); return err },
		"NetList":           func() error { _, err := s.NetList(); return err },
		"FootprintsAndPads": func() error { _, err := s.FootprintsAndPads(); return err },
		"TracksAndVias":     func() error { _, err := s.TracksAndVias(); return err },
		"Zones":             func() error { _, err := s.Zones(); return err },
		"TraceRoutes":       func() error { _, err := s.TraceRoutes(nil); return err },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, kicaderr.NotLoaded) {
			t.Errorf("%s() = %v, want NotLoaded", name, err)
		}
	}
}

func TestSave(t *testing.T) {
	s := loadedSession(t)

	out := filepath.Join(t.TempDir(), "copy.kicad_pcb")
	info, err := s.Save(out)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !info.Success || info.Path != out {
		t.Errorf("SaveInfo = %+v", info)
	}
	if _, err := pcb.ParseFile(out); err != nil {
		t.Errorf("saved board does not parse: %v", err)
	}

	info, err = s.Save("")
	if err != nil || info.Path != s.Path() {
		t.Errorf("Save(\"\") = %+v, %v", info, err)
	}

	_, err = s.Save(filepath.Join(t.TempDir(), "no", "such", "dir", "x.kicad_pcb"))
	if kicaderr.KindOf(err) != kicaderr.KindSaveError {
		t.Errorf("unwritable target: got %v, want save_error", err)
	}
}

func TestBasicInfo(t *testing.T) {
	s := loadedSession(t)

	first, err := s.BasicInfo()
	if err != nil {
		t.Fatalf("BasicInfo() failed: %v", err)
	}
	if first.BoundingBox != (Box{X: 0, Y: 0, Width: 50, Height: 40}) {
		t.Errorf("BoundingBox = %+v", first.BoundingBox)
	}
	if first.NetCount != 4 || first.Title != "Bridge Test" || first.Thickness != 1.6 {
		t.Errorf("BasicInfo = %+v", first)
	}

	second, _ := s.BasicInfo()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("BasicInfo() is not idempotent: %+v vs %+v", first, second)
	}
}

func TestDesignRules(t *testing.T) {
	s := loadedSession(t)
	rules, err := s.DesignRules()
	if err != nil {
		t.Fatalf("DesignRules() failed: %v", err)
	}
	if rules.Source != "project" || rules.MinClearance != 0.15 || rules.ViaDiameter != 0.8 || rules.ViaDrill != 0.4 {
		t.Errorf("rules = %+v", rules)
	}
	if rules.PadToMaskClearance != 0.05 || rules.MinTrackWidth != 0.127 {
		t.Errorf("rules = %+v", rules)
	}

	bare := NewSession(quietLogger())
	if _, err := bare.Load(copyFixture(t, false)); err != nil {
		t.Fatal(err)
	}
	rules, _ = bare.DesignRules()
	if rules.Source != "defaults" || rules.MinClearance != DefaultClearance || rules.ViaDrill != DefaultViaDrill {
		t.Errorf("default rules = %+v", rules)
	}
}

func TestLayers(t *testing.T) {
	s := loadedSession(t)
	layers, err := s.Layers()
	if err != nil {
		t.Fatal(err)
	}
	if len(layers) != 5 {
		t.Fatalf("len(layers) = %d", len(layers))
	}
	if layers[1] != (LayerInfo{ID: 31, Name: "B.Cu", Type: "signal", Copper: true}) {
		t.Errorf("layers[1] = %+v", layers[1])
	}
	if layers[2].UserName != "B.Silkscreen" || layers[2].Copper {
		t.Errorf("layers[2] = %+v", layers[2])
	}
}

func TestNetList(t *testing.T) {
	s := loadedSession(t)
	nl, err := s.NetList()
	if err != nil {
		t.Fatal(err)
	}
	if nl.Nets["SIG"] != 3 || nl.Nets["GND"] != 1 || len(nl.Nets) != 4 {
		t.Errorf("net_info = %v", nl.Nets)
	}
	if len(nl.Pads) != 4 {
		t.Fatalf("len(pad_info) = %d", len(nl.Pads))
	}

	r1 := nl.Pads[0]
	if r1.Reference != "R1" || r1.Pad != "1" || r1.NetName != "GND" || r1.Drill != nil {
		t.Errorf("pad_info[0] = %+v", r1)
	}
	if r1.Position.X != 9.2 || r1.Position.Y != 10 {
		t.Errorf("R1.1 position = %+v", r1.Position)
	}
	j1 := nl.Pads[3]
	if j1.Drill == nil || *j1.Drill != 1 || j1.Type != "thru_hole" {
		t.Errorf("pad_info[3] = %+v", j1)
	}

	// drill is null, not omitted, for SMD pads
	data, _ := json.Marshal(r1)
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	if v, ok := raw["drill"]; !ok || v != nil {
		t.Errorf("drill should marshal as null, got %v (present=%v)", v, ok)
	}
}

func TestFootprintsAndPads(t *testing.T) {
	s := loadedSession(t)
	fps, err := s.FootprintsAndPads()
	if err != nil {
		t.Fatal(err)
	}
	if len(fps) != 2 {
		t.Fatalf("len = %d", len(fps))
	}
	j1 := fps[1]
	if j1.Footprint != "Connector:Conn_01x02" || j1.Rotation != 90 {
		t.Errorf("J1 = %+v", j1)
	}

	r1sig := fps[0].Pads[1]
	want := []ConnectedPad{{Reference: "J1", Pad: "2"}}
	if !reflect.DeepEqual(r1sig.ConnectedItems, want) {
		t.Errorf("R1.2 connected_items = %+v, want %+v", r1sig.ConnectedItems, want)
	}
	for _, fp := range fps {
		for _, pad := range fp.Pads {
			for _, c := range pad.ConnectedItems {
				if c.Reference == fp.Reference && c.Pad == pad.Number {
					t.Errorf("%s.%s lists itself", fp.Reference, pad.Number)
				}
			}
		}
	}
}

func TestTracksAndVias(t *testing.T) {
	s := loadedSession(t)
	tv, err := s.TracksAndVias()
	if err != nil {
		t.Fatal(err)
	}
	if len(tv.Tracks) != 2 || len(tv.Vias) != 1 {
		t.Fatalf("tracks=%d vias=%d", len(tv.Tracks), len(tv.Vias))
	}
	if tv.Tracks[0].NetName != "SIG" || tv.Tracks[0].Width != 0.25 {
		t.Errorf("track = %+v", tv.Tracks[0])
	}
	if tv.Vias[0].Drill != 0.3 || tv.Vias[0].Size != 0.6 {
		t.Errorf("via = %+v", tv.Vias[0])
	}
}

func TestZones(t *testing.T) {
	s := loadedSession(t)
	zones, err := s.Zones()
	if err != nil {
		t.Fatalf("Zones() must not fail on one bad zone: %v", err)
	}
	if len(zones.Zones) != 2 || zones.Errors != 1 {
		t.Fatalf("zones = %+v", zones)
	}
	gnd := zones.Zones[0]
	if gnd.NetName != "GND" || gnd.Area != 2000 || gnd.MinThickness != 0.25 || gnd.ThermalGap != 0.5 {
		t.Errorf("zone 0 = %+v", gnd)
	}
	if zones.Zones[1].Error == "" {
		t.Errorf("zone 1 should carry an error")
	}
}
