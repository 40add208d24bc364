package libtable

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

const resistorMod = `(footprint "R_0603"
  (layer "F.Cu")
  (pad "1" smd rect (at -0.8 0) (size 0.8 0.95) (layers "F.Cu" "F.Paste" "F.Mask"))
)
`

const symbolLib = `(kicad_symbol_lib (version 20211014) (generator "kicadbridge")
  (symbol "OpAmp" (property "Reference" "U" (at 0 0 0)))
)`

func newStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Store{
		FootprintDir:   filepath.Join(dir, "footprints"),
		SymbolDir:      filepath.Join(dir, "symbols"),
		FootprintTable: filepath.Join(dir, "config", "fp-lib-table"),
		SymbolTable:    filepath.Join(dir, "config", "sym-lib-table"),
		Log:            log,
	}
}

func symbolNames(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	forms, err := kicadsexp.ParseString(string(data))
	assert.NilError(t, err)
	assert.Assert(t, is.Len(forms, 1))
	var names []string
	for _, sym := range sexp.FindAllNodes(forms[0], "symbol") {
		name, err := sexp.GetString(sym, 1)
		assert.NilError(t, err)
		names = append(names, name)
	}
	return names
}

func TestSaveFootprint(t *testing.T) {
	s := newStore(t)

	path, err := s.SaveFootprint(resistorMod, "R_0603", "MyLib")
	assert.NilError(t, err)
	assert.Equal(t, path, filepath.Join(s.FootprintDir, "MyLib.pretty", "R_0603.kicad_mod"))

	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, string(data), resistorMod)

	// overwriting and a .pretty suffix on the library name are both fine
	again, err := s.SaveFootprint(resistorMod, "R_0603", "MyLib.pretty")
	assert.NilError(t, err)
	assert.Equal(t, again, path)
}

func TestSaveFootprintRejectsEmpty(t *testing.T) {
	s := newStore(t)
	for _, args := range [][3]string{{"", "R", "L"}, {resistorMod, " ", "L"}, {resistorMod, "R", ""}} {
		_, err := s.SaveFootprint(args[0], args[1], args[2])
		assert.Equal(t, kicaderr.KindOf(err), kicaderr.KindInvalidInput)
	}

	s.FootprintDir = ""
	_, err := s.SaveFootprint(resistorMod, "R", "L")
	assert.Equal(t, kicaderr.KindOf(err), kicaderr.KindInvalidInput)
}

func TestSaveSymbol(t *testing.T) {
	s := newStore(t)

	path, err := s.SaveSymbol(symbolLib, "OpAmp", "Parts")
	assert.NilError(t, err)
	assert.Equal(t, path, filepath.Join(s.SymbolDir, "Parts.kicad_sym"))
	assert.DeepEqual(t, symbolNames(t, path), []string{"OpAmp"})

	_, err = s.SaveSymbol(`(symbol "Diode" (property "Reference" "D" (at 0 0 0)))`, "Diode", "Parts")
	assert.NilError(t, err)
	assert.DeepEqual(t, symbolNames(t, path), []string{"OpAmp", "Diode"})

	// a whole library only contributes its symbols
	_, err = s.SaveSymbol(`(kicad_symbol_lib (version 1) (symbol "LED" (property "Reference" "D")))`, "LED", "Parts")
	assert.NilError(t, err)
	assert.DeepEqual(t, symbolNames(t, path), []string{"OpAmp", "Diode", "LED"})

	// duplicates are inserted with a warning
	_, err = s.SaveSymbol(`(symbol "LED" (property "Reference" "D"))`, "LED", "Parts")
	assert.NilError(t, err)
	assert.Assert(t, is.Len(symbolNames(t, path), 4))
}

func TestSaveSymbolInvalidLibrary(t *testing.T) {
	s := newStore(t)
	path := s.SymbolLibPath("Broken")
	assert.NilError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NilError(t, os.WriteFile(path, []byte("(kicad_symbol_lib (version 1)"), 0o644))

	_, err := s.SaveSymbol(`(symbol "X")`, "X", "Broken")
	assert.Equal(t, kicaderr.KindOf(err), kicaderr.KindInvalidInput)
}

func TestClosingParen(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{`(a (b))`, 6},
		{`(a "x)" (b))`, 11},
		{`(a "q\")" b)`, 11},
		{`(a (b)`, -1},
		{`none`, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, closingParen(tt.in), tt.want, tt.in)
	}
}

func TestRegister(t *testing.T) {
	s := newStore(t)

	uri, err := s.Register(Footprint, "MyLib", "", "custom footprints")
	assert.NilError(t, err)
	assert.Equal(t, uri, s.FootprintLibPath("MyLib"))

	p, err := NewParser()
	assert.NilError(t, err)
	table, err := p.ParseFile(s.FootprintTable)
	assert.NilError(t, err)
	lib, ok := table.Find("MyLib")
	assert.Assert(t, ok)
	assert.Equal(t, lib.URI, filepath.ToSlash(uri))
	assert.Equal(t, lib.Descr, "custom footprints")

	_, err = s.Register(Footprint, "MyLib.pretty", "", "")
	assert.Equal(t, kicaderr.KindOf(err), kicaderr.KindAlreadyExists)

	uri, err = s.Register(Symbol, "Parts", "/elsewhere/Parts.kicad_sym", "")
	assert.NilError(t, err)
	assert.Equal(t, uri, "/elsewhere/Parts.kicad_sym")

	s.SymbolTable = ""
	_, err = s.Register(Symbol, "Other", "", "")
	assert.Equal(t, kicaderr.KindOf(err), kicaderr.KindNotFound)
}
