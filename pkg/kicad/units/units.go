// Package units converts between user-facing lengths (millimeters, inches)
// and the board engine's internal integer nanometers.
package units

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

// Unit is a user-facing length unit.
type Unit string

const (
	MM   Unit = "mm"
	Inch Unit = "inch"
)

// Internal units per user unit.
const (
	NanometersPerMM   = 1_000_000
	NanometersPerInch = 25_400_000
)

// ParseUnit accepts the unit spellings callers commonly send. The empty
// string means millimeters.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mm", "millimeter", "millimeters", "millimetre", "millimetres":
		return MM, nil
	case "in", "inch", "inches", "\"":
		return Inch, nil
	}
	return "", kicaderr.Errorf(kicaderr.KindInvalidInput, "unknown unit %q", s)
}

// Scale returns the number of nanometers in one u. Unknown units scale as mm.
func (u Unit) Scale() float64 {
	if u == Inch {
		return NanometersPerInch
	}
	return NanometersPerMM
}

// Point is a board coordinate in nanometers.
type Point struct {
	X int64
	Y int64
}

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Distance returns the euclidean distance between a and b in nanometers.
func Distance(a, b Point) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}

// Position is a coordinate pair tagged with its unit, as exchanged with callers.
type Position struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Unit Unit    `json:"unit"`
}

// ToInternal scales p to nanometers, truncating toward zero.
func ToInternal(p Position) (Point, error) {
	u, err := ParseUnit(string(p.Unit))
	if err != nil {
		return Point{}, err
	}
	if !finite(p.X) || !finite(p.Y) {
		return Point{}, kicaderr.Errorf(kicaderr.KindInvalidInput, "position must have finite x and y, got (%v, %v)", p.X, p.Y)
	}
	scale := u.Scale()
	x, y := p.X*scale, p.Y*scale
	if math.Abs(x) > math.MaxInt64 || math.Abs(y) > math.MaxInt64 {
		return Point{}, kicaderr.Errorf(kicaderr.KindInvalidInput, "position (%v, %v) %s is out of range", p.X, p.Y, u)
	}
	return Point{X: int64(x), Y: int64(y)}, nil
}

// FromInternal converts a nanometer point into unit u.
func FromInternal(pt Point, u Unit) Position {
	if u == "" {
		u = MM
	}
	scale := u.Scale()
	return Position{X: float64(pt.X) / scale, Y: float64(pt.Y) / scale, Unit: u}
}

// DecodePosition decodes a {"x":..,"y":..[,"unit":..]} object. Missing or
// non-numeric coordinates are InvalidInput.
func DecodePosition(raw json.RawMessage) (Position, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Position{}, kicaderr.Errorf(kicaderr.KindInvalidInput, "position must be an object with numeric x and y")
	}

	var p Position
	for _, axis := range []struct {
		key string
		dst *float64
	}{{"x", &p.X}, {"y", &p.Y}} {
		v, ok := fields[axis.key]
		if !ok {
			return Position{}, kicaderr.Errorf(kicaderr.KindInvalidInput, "position is missing %q", axis.key)
		}
		if err := json.Unmarshal(v, axis.dst); err != nil {
			return Position{}, kicaderr.Errorf(kicaderr.KindInvalidInput, "position %q must be a number, got %s", axis.key, v)
		}
	}

	if v, ok := fields["unit"]; ok && string(v) != "null" {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return Position{}, kicaderr.Errorf(kicaderr.KindInvalidInput, "position unit must be a string, got %s", v)
		}
		u, err := ParseUnit(s)
		if err != nil {
			return Position{}, err
		}
		p.Unit = u
	} else {
		p.Unit = MM
	}
	return p, nil
}

// ToMM converts nanometers to millimeters.
func ToMM(nm int64) float64 {
	return float64(nm) / NanometersPerMM
}

// FromMM converts millimeters read from a file to nanometers, rounding to
// the nearest nanometer.
func FromMM(mm float64) int64 {
	return int64(math.Round(mm * NanometersPerMM))
}

// ParseMM parses a decimal millimeter string as written in board files.
func ParseMM(s string) (int64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return FromMM(v), nil
}

// FormatMM renders nanometers as a millimeter decimal with no trailing
// zeros, the way KiCad writes coordinates.
func FormatMM(nm int64) string {
	neg := nm < 0
	if neg {
		nm = -nm
	}
	whole := nm / NanometersPerMM
	frac := nm % NanometersPerMM

	s := strconv.FormatInt(whole, 10)
	if frac != 0 {
		f := strconv.FormatInt(frac+NanometersPerMM, 10)[1:]
		s += "." + strings.TrimRight(f, "0")
	}
	if neg {
		s = "-" + s
	}
	return s
}

// NormalizeDegrees maps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// FormatDegrees renders an angle with at most four decimals.
func FormatDegrees(deg float64) string {
	return strconv.FormatFloat(math.Round(deg*1e4)/1e4, 'f', -1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
