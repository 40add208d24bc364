package footprintlib

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/libtable"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

const mod = `(footprint "R_0603" (layer "F.Cu") (pad "1" smd rect (at -0.8 0) (size 0.8 0.95) (layers "F.Cu")))`

func writeMod(t *testing.T, dir, lib, name, content string) string {
	t.Helper()
	libDir := filepath.Join(dir, lib+".pretty")
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(libDir, name+".kicad_mod")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindSearchPaths(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	want := writeMod(t, second, "Resistor_SMD", "R_0603", mod)

	r := New(WithSearchPaths(first, "", second))
	got, err := r.Find("Resistor_SMD", "R_0603")
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if got != want {
		t.Errorf("Find() = %q, want %q", got, want)
	}

	if _, err := r.Find("Resistor_SMD", "R_0805"); kicaderr.KindOf(err) != kicaderr.KindNotFound {
		t.Errorf("missing footprint: got %v", err)
	}
	if _, err := r.Find("", "R_0603"); kicaderr.KindOf(err) != kicaderr.KindInvalidInput {
		t.Errorf("missing library: got %v", err)
	}
}

func TestFindTable(t *testing.T) {
	proj, fallback := t.TempDir(), t.TempDir()
	writeMod(t, fallback, "Local", "R_0603", mod)
	want := writeMod(t, proj, "parts", "R_0603", mod)

	p, err := libtable.NewParser()
	if err != nil {
		t.Fatal(err)
	}
	table, err := p.Parse(strings.NewReader(`(fp_lib_table (lib (name "Local")(type "KiCad")(uri "${KIPRJMOD}/parts.pretty")(options "")(descr "")))`))
	if err != nil {
		t.Fatal(err)
	}

	r := New(WithTable(table, map[string]string{"KIPRJMOD": proj}), WithSearchPaths(fallback))
	got, err := r.Find("Local", "R_0603")
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if got != want {
		t.Errorf("table entry should win: got %q, want %q", got, want)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeMod(t, dir, "Lib", "Good", mod)
	writeMod(t, dir, "Lib", "Legacy", `(module R_0603 (layer F.Cu) (tedit 5B307E4C))`)
	writeMod(t, dir, "Lib", "Broken", `(footprint "x" (layer "F.Cu")`)
	writeMod(t, dir, "Lib", "Wrong", `(kicad_symbol_lib (version 1))`)

	r := New(WithSearchPaths(dir))

	for _, name := range []string{"Good", "Legacy"} {
		node, err := r.Load("Lib", name)
		if err != nil {
			t.Errorf("Load(%s) failed: %v", name, err)
			continue
		}
		if node.Tag() != "footprint" && node.Tag() != "module" {
			t.Errorf("Load(%s) root = %q", name, node.Tag())
		}
	}

	if _, err := r.Load("Lib", "Broken"); kicaderr.KindOf(err) != kicaderr.KindParseError {
		t.Errorf("Broken: got %v", err)
	}
	if _, err := r.Load("Lib", "Wrong"); kicaderr.KindOf(err) != kicaderr.KindInvalidInput {
		t.Errorf("Wrong: got %v", err)
	}
}
