package libcheck

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

var requiredPadBlocks = []string{"at", "size", "layers"}

// PadResult is the verdict for one pad.
type PadResult struct {
	Number  string   `json:"number"`
	Success bool     `json:"success"`
	Missing []string `json:"missing,omitempty"`
}

// FootprintReport is the outcome of ValidateFootprint.
type FootprintReport struct {
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Kind      kicaderr.Kind `json:"kind,omitempty"`
	Footprint string        `json:"footprint,omitempty"`
	Missing   []string      `json:"missing,omitempty"`
	Pads      []PadResult   `json:"pads,omitempty"`
}

// ValidateFootprint checks a single (footprint ...) or legacy (module ...)
// form: a name, a layer and at least one complete pad.
func ValidateFootprint(text string) *FootprintReport {
	forms, _, err := parse(text)
	if err != nil {
		return &FootprintReport{Kind: kicaderr.KindParseError, Error: fmt.Sprintf("Error parsing file: %v", err)}
	}
	if len(forms) != 1 {
		return &FootprintReport{Kind: kicaderr.KindStructuralMismatch, Error: fmt.Sprintf("Expected one footprint form, found %d", len(forms))}
	}
	root, ok := forms[0].(*kicadsexp.List)
	if !ok || (root.Tag() != "footprint" && root.Tag() != "module") {
		return &FootprintReport{Kind: kicaderr.KindStructuralMismatch, Error: fmt.Sprintf("Not a footprint: root is %q", sexp.Tag(forms[0]))}
	}

	report := &FootprintReport{}
	if name, err := sexp.GetString(root, 1); err == nil && name != "" {
		report.Footprint = name
	} else {
		report.Missing = append(report.Missing, "name")
	}
	if _, ok := sexp.GetChildString(root, "layer"); !ok {
		report.Missing = append(report.Missing, "layer")
	}

	pads := sexp.FindAllNodes(root, "pad")
	if len(pads) == 0 {
		report.Missing = append(report.Missing, "pad")
	}
	var bad []string
	for i, pad := range pads {
		res := checkPad(pad)
		if res.Number == "" {
			res.Number = fmt.Sprintf("#%d", i+1)
		}
		if !res.Success {
			bad = append(bad, fmt.Sprintf("%s (missing %s)", res.Number, strings.Join(res.Missing, ", ")))
		}
		report.Pads = append(report.Pads, res)
	}

	var problems []string
	if len(report.Missing) > 0 {
		problems = append(problems, "Missing required blocks: "+strings.Join(report.Missing, ", "))
	}
	if len(bad) > 0 {
		problems = append(problems, "Invalid pads: "+strings.Join(bad, "; "))
	}
	if len(problems) > 0 {
		report.Kind = kicaderr.KindStructuralMismatch
		report.Error = strings.Join(problems, ". ")
		return report
	}
	report.Success = true
	return report
}

func checkPad(pad *kicadsexp.List) PadResult {
	var res PadResult
	for i, field := range []string{"number", "type", "shape"} {
		v, err := sexp.GetString(pad, i+1)
		if err != nil {
			res.Missing = append(res.Missing, field)
			continue
		}
		if field == "number" {
			res.Number = v
		}
	}
	for _, key := range requiredPadBlocks {
		if _, ok := sexp.FindNode(pad, key); !ok {
			res.Missing = append(res.Missing, key)
		}
	}
	res.Success = len(res.Missing) == 0
	return res
}
