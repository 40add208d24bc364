package libcheck

import (
	"reflect"
	"strings"
	"testing"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

const header = `(kicad_symbol_lib (version 20231120) (generator "kicad_symbol_editor") (generator_version "8.0")`

const opAmp = `
  (symbol "OpAmp"
    (property "Reference" "U" (at 0 5 0))
    (property "Value" "OpAmp" (at 0 -5 0))
    (property "Footprint" "" (at 0 0 0))
    (symbol "OpAmp_1_1"
      (pin input line (at -7.62 2.54 0) (length 2.54) (name "+" (effects (font (size 1.27 1.27)))) (number "3" (effects (font (size 1.27 1.27)))))
      (pin output line (at 7.62 0 180) (length 2.54) (name "~" (effects (font (size 1.27 1.27)))) (number "1" (effects (font (size 1.27 1.27)))))
    )
  )`

const noFootprint = `
  (symbol "Diode"
    (property "Reference" "D" (at 0 5 0))
    (property "Value" "Diode" (at 0 -5 0))
    (pin passive line (at -3.81 0 0) (length 2.54) (name "K") (number "1"))
  )`

func TestValidateSymbolTwoBlocks(t *testing.T) {
	report := ValidateSymbol(header + opAmp + noFootprint + "\n)")

	if len(report.Results) != 2 {
		t.Fatalf("len(results) = %d, want 2 (%+v)", len(report.Results), report)
	}
	if report.Success {
		t.Errorf("report should fail when one symbol fails")
	}

	ok := report.Results[0]
	if ok.Symbol != "OpAmp" || !ok.Success || ok.Error != "" || ok.Pins != 2 {
		t.Errorf("results[0] = %+v", ok)
	}

	bad := report.Results[1]
	if bad.Symbol != "Diode" || bad.Success {
		t.Errorf("results[1] = %+v", bad)
	}
	if !reflect.DeepEqual(bad.Missing, []string{"Footprint"}) || bad.Error != "Missing properties: Footprint" {
		t.Errorf("results[1] missing = %v, error = %q", bad.Missing, bad.Error)
	}
}

func TestValidateSymbolValid(t *testing.T) {
	report := ValidateSymbol(header + opAmp + "\n)")
	if !report.Success || report.Error != "" || len(report.Results) != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestValidateSymbolNoPins(t *testing.T) {
	text := header + `
  (symbol "Blank"
    (property "Reference" "U") (property "Value" "X") (property "Footprint" "")
    (pin input line (at 0 0 0) (length 2.54))
  )
)`
	report := ValidateSymbol(text)
	if len(report.Results) != 1 || report.Results[0].Error != NoValidPins || report.Results[0].Pins != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestValidateSymbolFailures(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    kicaderr.Kind
		errPart string
	}{
		{
			name:    "unbalanced",
			input:   header + opAmp,
			kind:    kicaderr.KindParseError,
			errPart: "Error parsing file",
		},
		{
			name:    "missing keys",
			input:   `(kicad_symbol_lib (version 20231120)` + opAmp + `)`,
			kind:    kicaderr.KindStructuralMismatch,
			errPart: "Missing top-level keys: generator, generator_version",
		},
		{
			name:    "no symbols",
			input:   header + `)`,
			kind:    kicaderr.KindStructuralMismatch,
			errPart: "No symbol blocks found.",
		},
		{
			name:    "bare fragment",
			input:   `version 1`,
			kind:    kicaderr.KindStructuralMismatch,
			errPart: "Missing top-level keys",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := ValidateSymbol(tt.input)
			if report.Success {
				t.Fatalf("expected failure, got %+v", report)
			}
			if report.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", report.Kind, tt.kind)
			}
			if !strings.Contains(report.Error, tt.errPart) {
				t.Errorf("error = %q, want it to contain %q", report.Error, tt.errPart)
			}
			if report.Results != nil {
				t.Errorf("failed report must not carry results: %+v", report.Results)
			}
		})
	}
}

func TestValidateSymbolSplitForms(t *testing.T) {
	// several top-level forms are inspected directly
	text := `(version 1) (generator "x") (generator_version "8.0")` + opAmp
	report := ValidateSymbol(text)
	if !report.Success || len(report.Results) != 1 {
		t.Errorf("report = %+v", report)
	}
}

const resistorMod = `(footprint "R_0603"
	(layer "F.Cu")
	(pad "1" smd roundrect (at -0.8 0) (size 0.8 0.95) (layers "F.Cu" "F.Paste" "F.Mask"))
	(pad "2" smd roundrect (at 0.8 0) (size 0.8 0.95) (layers "F.Cu" "F.Paste" "F.Mask"))
)`

func TestValidateFootprint(t *testing.T) {
	report := ValidateFootprint(resistorMod)
	if !report.Success || report.Footprint != "R_0603" || len(report.Pads) != 2 {
		t.Errorf("report = %+v", report)
	}

	legacy := ValidateFootprint(`(module R_0805 (layer F.Cu) (tedit 5B307E4C) (pad 1 smd rect (at -1 0) (size 1 1.3) (layers F.Cu F.Paste F.Mask)))`)
	if !legacy.Success {
		t.Errorf("legacy module = %+v", legacy)
	}
}

func TestValidateFootprintFailures(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    kicaderr.Kind
		missing []string
		errPart string
	}{
		{
			name:    "unbalanced",
			input:   `(footprint "X" (layer "F.Cu")`,
			kind:    kicaderr.KindParseError,
			errPart: "Error parsing file",
		},
		{
			name:    "wrong root",
			input:   `(kicad_symbol_lib (version 1))`,
			kind:    kicaderr.KindStructuralMismatch,
			errPart: "Not a footprint",
		},
		{
			name:    "no layer no pads",
			input:   `(footprint "X" (descr "nothing"))`,
			kind:    kicaderr.KindStructuralMismatch,
			missing: []string{"layer", "pad"},
			errPart: "Missing required blocks: layer, pad",
		},
		{
			name:    "incomplete pad",
			input:   `(footprint "X" (layer "F.Cu") (pad "1" smd rect (at 0 0) (layers "F.Cu")))`,
			kind:    kicaderr.KindStructuralMismatch,
			errPart: "Invalid pads: 1 (missing size)",
		},
		{
			name:    "two forms",
			input:   resistorMod + resistorMod,
			kind:    kicaderr.KindStructuralMismatch,
			errPart: "Expected one footprint form",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := ValidateFootprint(tt.input)
			if report.Success {
				t.Fatalf("expected failure, got %+v", report)
			}
			if report.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", report.Kind, tt.kind)
			}
			if !strings.Contains(report.Error, tt.errPart) {
				t.Errorf("error = %q, want it to contain %q", report.Error, tt.errPart)
			}
			if tt.missing != nil && !reflect.DeepEqual(report.Missing, tt.missing) {
				t.Errorf("missing = %v, want %v", report.Missing, tt.missing)
			}
		})
	}
}
