// Package sexp provides navigation and editing helpers over kicadsexp trees
// shared by the board, footprint and symbol code.
package sexp

import (
	"math"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
)

// UUID represents a unique identifier (used in KiCad v6+ files)
type UUID string

// Property represents a key-value property (used in symbols, footprints, etc.)
type Property struct {
	Key   string
	Value string
}

// BoundingBox represents a rectangular boundary in nanometers
type BoundingBox struct {
	Min units.Point
	Max units.Point
}

// NewBoundingBox creates an empty bounding box
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: units.Point{X: math.MaxInt64, Y: math.MaxInt64},
		Max: units.Point{X: math.MinInt64, Y: math.MinInt64},
	}
}

// IsEmpty checks if the bounding box is empty
func (bb BoundingBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Expand expands the bounding box to include a position
func (bb *BoundingBox) Expand(pos units.Point) {
	bb.Min.X = min(bb.Min.X, pos.X)
	bb.Min.Y = min(bb.Min.Y, pos.Y)
	bb.Max.X = max(bb.Max.X, pos.X)
	bb.Max.Y = max(bb.Max.Y, pos.Y)
}

// ExpandBox expands to include another bounding box
func (bb *BoundingBox) ExpandBox(other BoundingBox) {
	if !other.IsEmpty() {
		bb.Expand(other.Min)
		bb.Expand(other.Max)
	}
}

// Width returns the width of the bounding box
func (bb BoundingBox) Width() int64 {
	if bb.IsEmpty() {
		return 0
	}
	return bb.Max.X - bb.Min.X
}

// Height returns the height of the bounding box
func (bb BoundingBox) Height() int64 {
	if bb.IsEmpty() {
		return 0
	}
	return bb.Max.Y - bb.Min.Y
}
