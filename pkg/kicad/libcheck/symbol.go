// Package libcheck checks hand-written symbol (.kicad_sym) and footprint
// (.kicad_mod) text for the structure KiCad needs to load it.
package libcheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

var (
	requiredTopLevel  = []string{"version", "generator", "generator_version"}
	requiredSymbolKey = []string{"Reference", "Value", "Footprint"}
)

// NoValidPins is reported for a symbol without a complete pin.
const NoValidPins = "No valid pins found"

// SymbolResult is the verdict for one symbol block.
type SymbolResult struct {
	Symbol  string   `json:"symbol"`
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Missing []string `json:"missing,omitempty"`
	Pins    int      `json:"pins"`
}

// SymbolReport is the outcome of ValidateSymbol. A report with Results
// got past parsing and the library-level checks; Success is then true only
// when every symbol is valid.
type SymbolReport struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Kind    kicaderr.Kind  `json:"kind,omitempty"`
	Results []SymbolResult `json:"results,omitempty"`
}

func failed(kind kicaderr.Kind, format string, args ...any) *SymbolReport {
	return &SymbolReport{Kind: kind, Error: fmt.Sprintf(format, args...)}
}

// parse normalizes text and returns the forms to inspect. Text that does
// not start with "(" is wrapped. A single enclosing form is opened up so its
// children are inspected, which is how a library file is read.
func parse(text string) ([]kicadsexp.Sexp, []kicadsexp.Sexp, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "(") {
		trimmed = "(" + trimmed + ")"
	}
	forms, err := kicadsexp.ParseString(trimmed)
	if err != nil {
		return nil, nil, err
	}
	if len(forms) == 1 {
		return forms, sexp.Items(forms[0]), nil
	}
	return forms, forms, nil
}

// ValidateSymbol checks a symbol library or fragment.
func ValidateSymbol(text string) *SymbolReport {
	_, top, err := parse(text)
	if err != nil {
		return failed(kicaderr.KindParseError, "Error parsing file: %v", err)
	}

	found := map[string]bool{}
	var symbols []*kicadsexp.List
	for _, item := range top {
		l, ok := item.(*kicadsexp.List)
		if !ok || l.Tag() == "" {
			continue
		}
		found[l.Tag()] = true
		if l.Tag() == "symbol" {
			symbols = append(symbols, l)
		}
	}
	if missing := missingFrom(requiredTopLevel, found); len(missing) > 0 {
		return failed(kicaderr.KindStructuralMismatch, "Missing top-level keys: %s", strings.Join(missing, ", "))
	}
	if len(symbols) == 0 {
		return failed(kicaderr.KindStructuralMismatch, "No symbol blocks found.")
	}

	report := &SymbolReport{Success: true}
	for _, sym := range symbols {
		res := checkSymbol(sym)
		report.Success = report.Success && res.Success
		report.Results = append(report.Results, res)
	}
	return report
}

func checkSymbol(sym *kicadsexp.List) SymbolResult {
	name, _ := sexp.GetString(sym, 1)
	res := SymbolResult{Symbol: name}

	props := map[string]bool{}
	for _, p := range sexp.FindAllRecursive(sym, "property") {
		if key, err := sexp.GetString(p, 1); err == nil {
			props[key] = true
		}
	}
	for _, pin := range sexp.FindAllRecursive(sym, "pin") {
		if validPin(pin) {
			res.Pins++
		}
	}

	res.Missing = missingFrom(requiredSymbolKey, props)
	switch {
	case len(res.Missing) > 0:
		res.Error = "Missing properties: " + strings.Join(res.Missing, ", ")
	case res.Pins == 0:
		res.Error = NoValidPins
	default:
		res.Success = true
	}
	return res
}

// validPin requires an electrical type and at, name and number blocks.
func validPin(pin *kicadsexp.List) bool {
	if _, err := sexp.GetString(pin, 1); err != nil {
		return false
	}
	for _, key := range []string{"at", "name", "number"} {
		if _, ok := sexp.FindNode(pin, key); !ok {
			return false
		}
	}
	return true
}

// missingFrom returns the required keys absent from found, sorted.
func missingFrom(required []string, found map[string]bool) []string {
	var missing []string
	for _, key := range required {
		if !found[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}
