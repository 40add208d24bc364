package pcb

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
)

// NewUUID returns a fresh item identifier.
func NewUUID() UUID {
	return UUID(uuid.NewString())
}

// AddTrack appends a straight segment to the board. Start, End, Width,
// Layer and Net are taken from t; a UUID is assigned when t has none.
func (b *Board) AddTrack(t Track) *Track {
	if t.UUID == "" {
		t.UUID = NewUUID()
	}
	t.Arc = false
	t.Node = kicadsexp.Node("segment",
		sexp.XY("start", t.Start),
		sexp.XY("end", t.End),
		kicadsexp.Node("width", sexp.Length(t.Width)),
		kicadsexp.Node("layer", kicadsexp.Quoted(t.Layer)),
		kicadsexp.Node("net", sexp.Int(t.Net)),
		kicadsexp.Node("uuid", kicadsexp.Quoted(string(t.UUID))),
	)

	track := &t
	b.insertNode(track.Node, "segment", "arc", "via")
	b.Tracks = append(b.Tracks, track)
	b.items = append(b.items, track)
	return track
}

// AddFootprint parses node as a footprint and inserts it into the board.
func (b *Board) AddFootprint(node *kicadsexp.List) (*Footprint, error) {
	fp, err := ParseFootprint(node, b.netMap)
	if err != nil {
		return nil, err
	}
	b.insertNode(node, "footprint", "module")
	b.Footprints = append(b.Footprints, fp)
	return fp, nil
}

// insertNode places node after the last top-level node with one of the
// given tags, or before the first routed item or zone, or at the end.
func (b *Board) insertNode(node *kicadsexp.List, after ...string) {
	last, firstItem := -1, -1
	for i, item := range b.Root.Items() {
		tag := sexp.Tag(item)
		for _, t := range after {
			if tag == t {
				last = i
			}
		}
		if firstItem < 0 {
			switch tag {
			case "segment", "arc", "via", "zone", "group":
				firstItem = i
			}
		}
	}
	switch {
	case last >= 0:
		b.Root.Insert(last+1, node)
	case firstItem >= 0:
		b.Root.Insert(firstItem, node)
	default:
		b.Root.Append(node)
	}
}

// Write serializes the board document.
func (b *Board) Write(w io.Writer) error {
	return kicadsexp.Format(w, b.Root)
}

// WriteFile writes the board to path through a temporary file in the same
// directory, so a failed write never truncates the existing file.
func (b *Board) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := b.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write board: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write board: %w", err)
	}
	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmp.Name(), info.Mode().Perm())
	} else {
		_ = os.Chmod(tmp.Name(), 0o644)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// UsesFootprintProperties reports whether new footprints should carry
// Reference and Value as properties rather than fp_text.
func (b *Board) UsesFootprintProperties() bool {
	return b.Version >= PropertyFootprintVersion
}

// DefaultCopperLayer is used when a requested layer does not exist.
const DefaultCopperLayer = "F.Cu"

// ResolveCopperLayer returns the canonical name of a copper layer given its
// canonical or user name.
func (b *Board) ResolveCopperLayer(name string) (string, bool) {
	if b.layerMap == nil {
		return "", false
	}
	layer, ok := b.layerMap.GetByName(name)
	if !ok || !layer.IsCopper() {
		return "", false
	}
	return layer.Name, true
}
