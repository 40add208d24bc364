package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

const sampleProject = `{
  "board": {
    "design_settings": {
      "rules": {"min_clearance": 0.15, "min_track_width": 0.1},
      "via_dimensions": [{"diameter": 0, "drill": 0}, {"diameter": 0.8, "drill": 0.4}]
    }
  },
  "net_settings": {
    "classes": [
      {"name": "Power", "clearance": 0.3, "via_diameter": 1.0, "via_drill": 0.5},
      {"name": "Default", "clearance": 0.2, "track_width": 0.25, "via_diameter": 0.6, "via_drill": 0.3}
    ]
  },
  "meta": {"filename": "demo.kicad_pro", "version": 1}
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPaths(t *testing.T) {
	tests := []struct {
		in      string
		pcb     string
		project string
	}{
		{"/a/demo.kicad_pro", "/a/demo.kicad_pcb", "/a/demo.kicad_pro"},
		{"/a/demo.kicad_pcb", "/a/demo.kicad_pcb", "/a/demo.kicad_pro"},
		{"/a/demo.kicad_sch", "/a/demo.kicad_sch", "/a/demo.kicad_pro"},
		{"/a/demo.kicad_pro.bak", "/a/demo.kicad_pro.bak", "/a/demo.kicad_pro.bak"},
	}
	for _, tt := range tests {
		if got := PCBPath(tt.in); got != tt.pcb {
			t.Errorf("PCBPath(%q) = %q, want %q", tt.in, got, tt.pcb)
		}
		if got := ProjectPath(tt.in); got != tt.project {
			t.Errorf("ProjectPath(%q) = %q, want %q", tt.in, got, tt.project)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.kicad_pro")
	writeFile(t, path, sampleProject)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got, ok := f.SmallestClearance(); !ok || got != 0.15 {
		t.Errorf("SmallestClearance() = %v, %v", got, ok)
	}
	if via, ok := f.CustomVia(); !ok || via.Diameter != 0.8 || via.Drill != 0.4 {
		t.Errorf("CustomVia() = %+v, %v", via, ok)
	}
	if c, ok := f.DefaultNetClass(); !ok || c.TrackWidth != 0.25 {
		t.Errorf("DefaultNetClass() = %+v, %v", c, ok)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.kicad_pro"))
	if !errors.Is(err, kicaderr.NotFound) {
		t.Errorf("missing file: got %v, want NotFound", err)
	}

	bad := filepath.Join(dir, "bad.kicad_pro")
	writeFile(t, bad, "{not json")
	_, err = Load(bad)
	if !errors.Is(err, kicaderr.InvalidInput) {
		t.Errorf("bad json: got %v, want InvalidInput", err)
	}
}

func TestCustomViaFallsBackToNetClass(t *testing.T) {
	f := &File{}
	f.NetSettings.Classes = []NetClass{{Name: "Default", ViaDiameter: 0.7, ViaDrill: 0.35}}
	if via, ok := f.CustomVia(); !ok || via.Diameter != 0.7 {
		t.Errorf("CustomVia() = %+v, %v", via, ok)
	}
	if _, ok := (&File{}).SmallestClearance(); ok {
		t.Errorf("empty project should have no clearance")
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.kicad_pro")

	v := Validate(path)
	if v.Valid || v.Error == "" {
		t.Errorf("missing project should be invalid with an error, got %+v", v)
	}

	writeFile(t, path, sampleProject)
	v = Validate(path)
	if v.Valid || len(v.Issues) != 2 {
		t.Errorf("project without board and schematic: %+v", v)
	}

	writeFile(t, filepath.Join(dir, "demo.kicad_pcb"), "(kicad_pcb)")
	writeFile(t, filepath.Join(dir, "demo.kicad_sch"), "(kicad_sch)")
	v = Validate(path)
	if !v.Valid {
		t.Errorf("complete project should be valid: %+v", v)
	}
	if len(v.FilesFound) != 3 || v.FilesFound[0] != "project" {
		t.Errorf("FilesFound = %v", v.FilesFound)
	}

	writeFile(t, path, "{")
	v = Validate(path)
	if v.Valid || len(v.Issues) != 1 {
		t.Errorf("broken json should be reported: %+v", v)
	}
}
