package libtable

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

const fpTable = `(fp_lib_table
  (version 7)
  (lib (name "Device")(type "KiCad")(uri "${KICAD8_FOOTPRINT_DIR}/Device.pretty")(options "")(descr "Basic devices"))
  (lib (name Legacy)(type KiCad)(uri /opt/legacy.pretty)(options "")(descr "")(disabled))
)
`

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fp-lib-table")
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse(t *testing.T) {
	p, err := NewParser()
	assert.NilError(t, err)

	table, err := p.Parse(strings.NewReader(fpTable))
	assert.NilError(t, err)
	assert.Equal(t, table.Kind, "fp_lib_table")
	assert.Equal(t, table.Version, 7)
	assert.Assert(t, is.Len(table.Libraries, 2))

	device, ok := table.Find("Device")
	assert.Assert(t, ok)
	assert.Equal(t, device.URI, "${KICAD8_FOOTPRINT_DIR}/Device.pretty")
	assert.Equal(t, device.Descr, "Basic devices")
	assert.Assert(t, !device.Disabled)

	legacy, ok := table.Find("Legacy")
	assert.Assert(t, ok)
	assert.Equal(t, legacy.URI, "/opt/legacy.pretty")
	assert.Assert(t, legacy.Disabled)

	_, ok = table.Find("Missing")
	assert.Assert(t, !ok)
}

func TestParseLibraries(t *testing.T) {
	p, err := NewParser()
	assert.NilError(t, err)

	table, err := p.Parse(strings.NewReader(fpTable))
	assert.NilError(t, err)

	expect := []Library{
		{Name: "Device", Type: "KiCad", URI: "${KICAD8_FOOTPRINT_DIR}/Device.pretty", Descr: "Basic devices"},
		{Name: "Legacy", Type: "KiCad", URI: "/opt/legacy.pretty", Disabled: true},
	}
	opts := []cmp.Option{cmpopts.EquateEmpty()}
	assert.DeepEqual(t, table.Libraries, expect, opts...)
}

func TestParseRejects(t *testing.T) {
	p, err := NewParser()
	assert.NilError(t, err)

	for name, input := range map[string]string{
		"wrong root": `(kicad_pcb (version 7))`,
		"unbalanced": `(fp_lib_table (version 7) (lib (name "X")`,
		"empty":      ``,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := p.Parse(strings.NewReader(input))
			assert.Assert(t, err != nil)
		})
	}
}

func TestExpandURI(t *testing.T) {
	t.Setenv("KICAD8_FOOTPRINT_DIR", "/usr/share/kicad/footprints")
	assert.Equal(t, ExpandURI("${KICAD8_FOOTPRINT_DIR}/Device.pretty", nil), "/usr/share/kicad/footprints/Device.pretty")
	assert.Equal(t, ExpandURI("${KIPRJMOD}/lib.pretty", map[string]string{"KIPRJMOD": "/proj"}), "/proj/lib.pretty")
}

func TestEntry(t *testing.T) {
	got := Entry(Library{Name: "MyLib", URI: "/libs/MyLib.pretty", Descr: "custom parts"})
	assert.Equal(t, got, `(lib (name "MyLib")(type "KiCad")(uri "/libs/MyLib.pretty")(options "")(descr "custom parts"))`)
}

func TestAdd(t *testing.T) {
	path := writeTable(t, fpTable)

	err := Add(path, Footprint, Library{Name: "MyLib", URI: "/libs/MyLib.pretty", Descr: "custom"})
	assert.NilError(t, err)

	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	content := string(data)
	assert.Assert(t, strings.HasSuffix(content, `(descr "custom"))`+"\n)\n"), content)
	assert.Assert(t, is.Contains(content, "(version 7)"))

	p, err := NewParser()
	assert.NilError(t, err)
	table, err := p.ParseFile(path)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(table.Libraries, 3))
	lib, ok := table.Find("MyLib")
	assert.Assert(t, ok)
	assert.Equal(t, lib.URI, "/libs/MyLib.pretty")
}

func TestAddDuplicate(t *testing.T) {
	path := writeTable(t, fpTable)

	for _, name := range []string{"Device", "Legacy"} {
		err := Add(path, Footprint, Library{Name: name, URI: "/x"})
		assert.Equal(t, kicaderr.KindOf(err), kicaderr.KindAlreadyExists, name)
	}

	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, string(data), fpTable)
}

func TestAddCreatesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kicad", "9.0", "sym-lib-table")

	err := Add(path, Symbol, Library{Name: "Parts", URI: "/libs/Parts.kicad_sym"})
	assert.NilError(t, err)

	p, err := NewParser()
	assert.NilError(t, err)
	table, err := p.ParseFile(path)
	assert.NilError(t, err)
	assert.Equal(t, table.Kind, "sym_lib_table")
	assert.Assert(t, is.Len(table.Libraries, 1))
}

func TestAddEmptyName(t *testing.T) {
	err := Add(writeTable(t, fpTable), Footprint, Library{Name: " "})
	assert.Equal(t, kicaderr.KindOf(err), kicaderr.KindInvalidInput)
}
