package sexp

import (
	"fmt"
	"strconv"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
)

// S-expression navigation helpers

// Items returns the elements of a list node, or nil for atoms.
func Items(s kicadsexp.Sexp) []kicadsexp.Sexp {
	if l, ok := s.(*kicadsexp.List); ok {
		return l.Items()
	}
	return nil
}

// Tag returns the leading symbol of a list node.
func Tag(s kicadsexp.Sexp) string {
	if l, ok := s.(*kicadsexp.List); ok {
		return l.Tag()
	}
	return ""
}

// FindNode searches for a child node with the given key (first symbol)
// Example: FindNode(sexp, "at") finds (at 100 50) in a list
func FindNode(s kicadsexp.Sexp, key string) (*kicadsexp.List, bool) {
	for _, item := range Items(s) {
		if l, ok := item.(*kicadsexp.List); ok && l.Tag() == key {
			return l, true
		}
	}
	return nil, false
}

// FindAllNodes finds all direct child nodes with the given key
func FindAllNodes(s kicadsexp.Sexp, key string) []*kicadsexp.List {
	var results []*kicadsexp.List
	for _, item := range Items(s) {
		if l, ok := item.(*kicadsexp.List); ok && l.Tag() == key {
			results = append(results, l)
		}
	}
	return results
}

// FindAllRecursive collects every node with the given key at any depth
// below s, in document order. s itself is not included.
func FindAllRecursive(s kicadsexp.Sexp, key string) []*kicadsexp.List {
	var results []*kicadsexp.List
	var walk func(kicadsexp.Sexp)
	walk = func(n kicadsexp.Sexp) {
		for _, item := range Items(n) {
			l, ok := item.(*kicadsexp.List)
			if !ok {
				continue
			}
			if l.Tag() == key {
				results = append(results, l)
			}
			walk(l)
		}
	}
	walk(s)
	return results
}

// GetListItems returns all items in a list (excluding the first symbol/key)
// Example: GetListItems((layers "F.Cu" "B.Cu")) returns ["F.Cu", "B.Cu"]
func GetListItems(s kicadsexp.Sexp) []kicadsexp.Sexp {
	items := Items(s)
	if len(items) <= 1 {
		return nil
	}
	return items[1:]
}

// Typed value extraction helpers

// GetString extracts an atom at the given index in a list, quoted or not.
// Index 0 is the key, 1 is first value, etc.
func GetString(s kicadsexp.Sexp, index int) (string, error) {
	if s == nil || s.IsLeaf() {
		return "", fmt.Errorf("expected list, got leaf")
	}

	items := Items(s)
	if index < 0 || index >= len(items) {
		return "", fmt.Errorf("index %d out of bounds (length %d)", index, len(items))
	}

	if v, ok := kicadsexp.Atom(items[index]); ok {
		return v, nil
	}
	return "", fmt.Errorf("expected atom at index %d, got %T", index, items[index])
}

// GetFloat extracts a float64 value at the given index
func GetFloat(s kicadsexp.Sexp, index int) (float64, error) {
	str, err := GetString(s, index)
	if err != nil {
		return 0, err
	}

	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse float %q: %w", str, err)
	}
	return val, nil
}

// GetInt extracts an int value at the given index
func GetInt(s kicadsexp.Sexp, index int) (int, error) {
	str, err := GetString(s, index)
	if err != nil {
		return 0, err
	}

	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("failed to parse int %q: %w", str, err)
	}
	return val, nil
}

// GetLength extracts a millimeter value at index as nanometers.
func GetLength(s kicadsexp.Sexp, index int) (int64, error) {
	v, err := GetFloat(s, index)
	if err != nil {
		return 0, err
	}
	return units.FromMM(v), nil
}

// GetXY extracts a (keyword X Y) node as nanometers.
// Used for (start X Y), (end X Y), (center X Y), (xy X Y), etc.
func GetXY(s kicadsexp.Sexp) (units.Point, error) {
	x, err := GetLength(s, 1)
	if err != nil {
		return units.Point{}, fmt.Errorf("failed to parse X: %w", err)
	}
	y, err := GetLength(s, 2)
	if err != nil {
		return units.Point{}, fmt.Errorf("failed to parse Y: %w", err)
	}
	return units.Point{X: x, Y: y}, nil
}

// GetAt extracts an (at X Y [angle]) node. The angle is in degrees and
// defaults to zero.
func GetAt(s kicadsexp.Sexp) (units.Point, float64, error) {
	pt, err := GetXY(s)
	if err != nil {
		return units.Point{}, 0, err
	}
	angle := 0.0
	if a, err := GetFloat(s, 3); err == nil {
		angle = a
	}
	return pt, angle, nil
}

// GetQuotedString extracts the string at index. Kept for callers that want
// to say they expect a quoted value; the reader already unquotes.
func GetQuotedString(s kicadsexp.Sexp, index int) (string, error) {
	return GetString(s, index)
}

// GetChildString returns the first value of the child node tagged key,
// e.g. "F.Cu" for (layer "F.Cu").
func GetChildString(s kicadsexp.Sexp, key string) (string, bool) {
	node, ok := FindNode(s, key)
	if !ok {
		return "", false
	}
	v, err := GetString(node, 1)
	if err != nil {
		return "", false
	}
	return v, true
}

// HasSymbol checks if a list contains a specific bare symbol
func HasSymbol(s kicadsexp.Sexp, symbol string) bool {
	for _, item := range Items(s) {
		if sym, ok := item.(kicadsexp.Symbol); ok && string(sym) == symbol {
			return true
		}
	}
	return false
}

// GetNodeName returns the first symbol of a list (the node type/name)
func GetNodeName(s kicadsexp.Sexp) (string, error) {
	if s == nil {
		return "", fmt.Errorf("nil node")
	}
	if s.IsLeaf() {
		if v, ok := kicadsexp.Atom(s); ok {
			return v, nil
		}
		return "", fmt.Errorf("expected symbol leaf")
	}
	if tag := Tag(s); tag != "" {
		return tag, nil
	}
	return "", fmt.Errorf("expected symbol at head of list")
}

// GetUUID extracts the UUID of a node from its (uuid "...") or legacy
// (tstamp ...) child.
func GetUUID(s kicadsexp.Sexp) (UUID, bool) {
	for _, key := range []string{"uuid", "tstamp"} {
		if v, ok := GetChildString(s, key); ok {
			return UUID(v), true
		}
	}
	return "", false
}

// GetProperty extracts a (property "key" "value" ...) node.
func GetProperty(s kicadsexp.Sexp) (Property, error) {
	key, err := GetString(s, 1)
	if err != nil {
		return Property{}, fmt.Errorf("failed to parse property key: %w", err)
	}
	value, _ := GetString(s, 2)
	return Property{Key: key, Value: value}, nil
}

// GetLayers returns the atoms of a (layers ...) node.
func GetLayers(s kicadsexp.Sexp) []string {
	var layers []string
	for _, item := range GetListItems(s) {
		if v, ok := kicadsexp.Atom(item); ok && v != "" {
			layers = append(layers, v)
		}
	}
	return layers
}
