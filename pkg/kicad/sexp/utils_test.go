package sexp

import (
	"testing"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
)

// Helper to parse s-expression from string
func parseSexp(t *testing.T, input string) *kicadsexp.List {
	t.Helper()
	sexps, err := kicadsexp.ParseString(input)
	if err != nil {
		t.Fatalf("Failed to parse s-expression %q: %v", input, err)
	}
	if len(sexps) == 0 {
		t.Fatalf("No s-expressions parsed from %q", input)
	}
	l, ok := sexps[0].(*kicadsexp.List)
	if !ok {
		t.Fatalf("expected list, got %T", sexps[0])
	}
	return l
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		index   int
		want    string
		wantErr bool
	}{
		{name: "get first element", input: "(layer F.Cu)", index: 0, want: "layer"},
		{name: "get second element", input: "(layer F.Cu)", index: 1, want: "F.Cu"},
		{name: "quoted with spaces", input: `(title "Example Board")`, index: 1, want: "Example Board"},
		{name: "get third element", input: "(at 100 50 90)", index: 3, want: "90"},
		{name: "index out of bounds", input: "(layer F.Cu)", index: 5, wantErr: true},
		{name: "list at index", input: "(a (b))", index: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parseSexp(t, tt.input)
			got, err := GetString(s, tt.index)

			if tt.wantErr {
				if err == nil {
					t.Errorf("GetString() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("GetString() unexpected error: %v", err)
				return
			}
			if got != tt.want {
				t.Errorf("GetString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetAt(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantPt    units.Point
		wantAngle float64
		wantErr   bool
	}{
		{name: "with angle", input: "(at 10.5 -3 90)", wantPt: units.Point{X: 10_500_000, Y: -3_000_000}, wantAngle: 90},
		{name: "without angle", input: "(at 0.1 0.2)", wantPt: units.Point{X: 100_000, Y: 200_000}},
		{name: "missing y", input: "(at 1)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt, angle, err := GetAt(parseSexp(t, tt.input))
			if tt.wantErr {
				if err == nil {
					t.Errorf("GetAt() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetAt() unexpected error: %v", err)
			}
			if pt != tt.wantPt || angle != tt.wantAngle {
				t.Errorf("GetAt() = %+v, %v, want %+v, %v", pt, angle, tt.wantPt, tt.wantAngle)
			}
		})
	}
}

func TestFindAllRecursive(t *testing.T) {
	s := parseSexp(t, `(symbol "R" (property "Reference" "R") (symbol "R_0_1" (pin passive line (at 0 0 0)) (property "Value" "R")))`)

	props := FindAllRecursive(s, "property")
	if len(props) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(props))
	}
	if got, _ := GetString(props[1], 1); got != "Value" {
		t.Errorf("second property = %q, want Value", got)
	}
	if got := len(FindAllNodes(s, "property")); got != 1 {
		t.Errorf("FindAllNodes() found %d direct properties, want 1", got)
	}
}

func TestSetChild(t *testing.T) {
	s := parseSexp(t, `(footprint "R" (layer "F.Cu") (at 1 2))`)

	SetChild(s, At(units.Point{X: 3_000_000, Y: 4_500_000}, 90))
	SetChild(s, kicadsexp.Node("uuid", kicadsexp.Quoted("abc")))

	want := `(footprint "R" (layer "F.Cu") (at 3 4.5 90) (uuid "abc"))`
	if got := s.String(); got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	if n := RemoveChildren(s, "uuid"); n != 1 {
		t.Errorf("RemoveChildren() = %d, want 1", n)
	}
	if _, ok := GetUUID(s); ok {
		t.Errorf("uuid still present after removal")
	}
}

func TestBoundingBox(t *testing.T) {
	bb := NewBoundingBox()
	if !bb.IsEmpty() || bb.Width() != 0 {
		t.Fatalf("new bounding box should be empty")
	}
	bb.Expand(units.Point{X: -5, Y: 10})
	bb.Expand(units.Point{X: 15, Y: -10})
	if bb.Width() != 20 || bb.Height() != 20 {
		t.Errorf("size = %dx%d, want 20x20", bb.Width(), bb.Height())
	}
}
