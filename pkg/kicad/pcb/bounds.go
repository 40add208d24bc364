package pcb

import (
	"math"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
)

// GetBoundingBox calculates the bounding box of the entire board
// Includes tracks, pads, graphics, vias and zone outlines
func (b *Board) GetBoundingBox() BoundingBox {
	bbox := NewBoundingBox()

	for _, track := range b.Tracks {
		half := track.Width / 2
		for _, p := range []units.Point{track.Start, track.End} {
			bbox.Expand(units.Point{X: p.X - half, Y: p.Y - half})
			bbox.Expand(units.Point{X: p.X + half, Y: p.Y + half})
		}
		if track.Arc {
			bbox.Expand(track.Mid)
		}
	}

	for _, via := range b.Vias {
		radius := via.Size / 2
		bbox.Expand(units.Point{X: via.Position.X - radius, Y: via.Position.Y - radius})
		bbox.Expand(units.Point{X: via.Position.X + radius, Y: via.Position.Y + radius})
	}

	for _, fp := range b.Footprints {
		bbox.ExpandBox(fp.GetBoundingBox())
	}

	for _, zone := range b.Zones {
		for _, p := range zone.Outline {
			bbox.Expand(p)
		}
	}

	b.Graphics.expand(&bbox, func(string) bool { return true })

	return bbox
}

// EdgeBoundingBox returns the extent of the board outline (Edge.Cuts). A
// board without an outline falls back to the extent of all items.
func (b *Board) EdgeBoundingBox() BoundingBox {
	bbox := NewBoundingBox()
	b.Graphics.expand(&bbox, func(layer string) bool { return layer == EdgeCuts })
	if bbox.IsEmpty() {
		return b.GetBoundingBox()
	}
	return bbox
}

func (g *Graphics) expand(bbox *BoundingBox, keep func(layer string) bool) {
	for _, line := range g.Lines {
		if keep(line.Layer) {
			bbox.Expand(line.Start)
			bbox.Expand(line.End)
		}
	}

	for _, circle := range g.Circles {
		if !keep(circle.Layer) {
			continue
		}
		radius := int64(math.Round(units.Distance(circle.Center, circle.End)))
		bbox.Expand(units.Point{X: circle.Center.X - radius, Y: circle.Center.Y - radius})
		bbox.Expand(units.Point{X: circle.Center.X + radius, Y: circle.Center.Y + radius})
	}

	// Approximate: start, mid and end only
	for _, arc := range g.Arcs {
		if keep(arc.Layer) {
			bbox.Expand(arc.Start)
			bbox.Expand(arc.Mid)
			bbox.Expand(arc.End)
		}
	}

	for _, rect := range g.Rects {
		if keep(rect.Layer) {
			bbox.Expand(rect.Start)
			bbox.Expand(rect.End)
		}
	}

	for _, poly := range g.Polys {
		if !keep(poly.Layer) {
			continue
		}
		for _, point := range poly.Points {
			bbox.Expand(point)
		}
	}
}

// GetBoundingBox calculates the bounding box of a footprint's pads
func (fp *Footprint) GetBoundingBox() BoundingBox {
	bbox := NewBoundingBox()

	for _, pad := range fp.Pads {
		absPos := fp.PadPosition(pad)

		// Approximate the pad as an axis-aligned rectangle large enough for any rotation
		half := max(pad.Size.Width, pad.Size.Height) / 2
		bbox.Expand(units.Point{X: absPos.X - half, Y: absPos.Y - half})
		bbox.Expand(units.Point{X: absPos.X + half, Y: absPos.Y + half})
	}

	if len(fp.Pads) == 0 {
		bbox.Expand(fp.Position)
	}

	return bbox
}
