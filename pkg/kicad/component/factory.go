// Package component creates, places and moves footprints on a loaded board.
package component

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/board"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/footprintlib"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

// DefaultPrefix is used by NextReference when no prefix is given.
const DefaultPrefix = "U"

// Factory builds footprints for the board held by a session.
type Factory struct {
	session  *board.Session
	library  *footprintlib.Resolver
	log      logrus.FieldLogger
	reserved map[string]bool
}

// Option configures a Factory.
type Option func(*Factory)

// WithLibrary copies pads and graphics from footprint libraries when the
// requested footprint can be found.
func WithLibrary(r *footprintlib.Resolver) Option {
	return func(f *Factory) {
		f.library = r
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(f *Factory) {
		f.log = log
	}
}

// NewFactory returns a factory bound to session.
func NewFactory(session *board.Session, opts ...Option) *Factory {
	f := &Factory{
		session:  session,
		log:      logrus.StandardLogger(),
		reserved: map[string]bool{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Spec describes a footprint to create.
type Spec struct {
	ComponentID string
	Library     string
	Position    units.Position
	Reference   string // empty picks the next free U<n>
	Value       string // empty uses ComponentID
	Rotation    float64
	Layer       string // empty means F.Cu
}

// ComponentInfo reports a placed or moved footprint.
type ComponentInfo struct {
	Reference string         `json:"reference"`
	Value     string         `json:"value"`
	Footprint string         `json:"footprint"`
	Library   string         `json:"library"`
	Position  units.Position `json:"position"`
	Rotation  float64        `json:"rotation"`
	Layer     string         `json:"layer"`
	UUID      string         `json:"uuid"`
	PadCount  int            `json:"pad_count"`
}

func info(fp *pcb.Footprint, unit units.Unit) *ComponentInfo {
	return &ComponentInfo{
		Reference: fp.Reference,
		Value:     fp.Value,
		Footprint: fp.Name,
		Library:   fp.Library,
		Position:  units.FromInternal(fp.Position, unit),
		Rotation:  fp.Angle,
		Layer:     fp.Layer,
		UUID:      string(fp.UUID),
		PadCount:  len(fp.Pads),
	}
}

// NextReference returns the first <prefix><n>, n counting from 1, that is
// neither on the board nor handed out earlier by this factory.
func (f *Factory) NextReference(prefix string) (string, error) {
	b, err := f.session.Board()
	if err != nil {
		return "", err
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	used := b.References()
	for n := 1; ; n++ {
		ref := fmt.Sprintf("%s%d", prefix, n)
		if !used[ref] && !f.reserved[ref] {
			f.reserved[ref] = true
			return ref, nil
		}
	}
}

// footprintLayer maps the requested side to F.Cu or B.Cu.
func (f *Factory) footprintLayer(b *pcb.Board, requested string) string {
	if requested == "" {
		return pcb.DefaultCopperLayer
	}
	if name, ok := b.ResolveCopperLayer(requested); ok && (name == "F.Cu" || name == "B.Cu") {
		return name
	}
	f.log.WithField("layer", requested).Warnf("Unknown footprint layer, using %s", pcb.DefaultCopperLayer)
	return pcb.DefaultCopperLayer
}

// CreateFootprint builds a footprint from spec without adding it to the
// board. Use PlaceFootprint to commit it.
func (f *Factory) CreateFootprint(spec Spec) (*pcb.Footprint, error) {
	b, err := f.session.Board()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(spec.ComponentID) == "" || strings.TrimSpace(spec.Library) == "" {
		return nil, kicaderr.Errorf(kicaderr.KindInvalidInput, "component_id and library are required")
	}
	pos, err := units.ToInternal(spec.Position)
	if err != nil {
		return nil, kicaderr.New(kicaderr.KindInvalidPosition, err)
	}

	ref := spec.Reference
	if ref == "" {
		if ref, err = f.NextReference(DefaultPrefix); err != nil {
			return nil, err
		}
	}
	value := spec.Value
	if value == "" {
		value = spec.ComponentID
	}
	layer := f.footprintLayer(b, spec.Layer)

	node := f.footprintNode(b, spec.Library, spec.ComponentID, ref, value)
	if layer == "B.Cu" {
		flip(node)
	}
	fp, err := pcb.ParseFootprint(node, b.NetMap())
	if err != nil {
		return nil, fmt.Errorf("failed to build footprint: %w", err)
	}
	fp.SetPlacement(pos, spec.Rotation)
	return fp, nil
}

// PlaceFootprint adds fp to the board.
func (f *Factory) PlaceFootprint(fp *pcb.Footprint) (*ComponentInfo, error) {
	b, err := f.session.Board()
	if err != nil {
		return nil, err
	}
	if _, dup := b.FindFootprint(fp.Reference); dup {
		return nil, kicaderr.Errorf(kicaderr.KindInvalidInput, "reference %s is already used on this board", fp.Reference)
	}
	placed, err := b.AddFootprint(fp.Node)
	if err != nil {
		return nil, fmt.Errorf("failed to add footprint: %w", err)
	}
	f.log.WithFields(logrus.Fields{
		"reference": placed.Reference,
		"footprint": placed.LibID(),
		"pads":      len(placed.Pads),
	}).Debug("Footprint placed")
	return info(placed, units.MM), nil
}

// MoveComponent moves the footprint with the given reference. A nil
// rotation keeps the current one. The reported position uses pos.Unit.
func (f *Factory) MoveComponent(reference string, pos units.Position, rotation *float64) (*ComponentInfo, error) {
	b, err := f.session.Board()
	if err != nil {
		return nil, err
	}
	fp, ok := b.FindFootprint(reference)
	if !ok {
		return nil, kicaderr.Errorf(kicaderr.KindComponentNotFound, "Component not found: %s", reference)
	}
	unit, err := units.ParseUnit(string(pos.Unit))
	if err != nil {
		return nil, kicaderr.New(kicaderr.KindInvalidPosition, err)
	}
	pt, err := units.ToInternal(pos)
	if err != nil {
		return nil, kicaderr.New(kicaderr.KindInvalidPosition, err)
	}

	angle := fp.Angle
	if rotation != nil {
		angle = *rotation
	}
	fp.SetPlacement(pt, angle)
	f.log.WithFields(logrus.Fields{
		"reference": reference,
		"x":         pos.X,
		"y":         pos.Y,
		"rotation":  fp.Angle,
	}).Debug("Footprint moved")
	return info(fp, unit), nil
}

// footprintNode returns the board node for a new footprint at the origin.
// Library content is copied in when the library resolver finds it.
func (f *Factory) footprintNode(b *pcb.Board, library, name, ref, value string) *kicadsexp.List {
	node := kicadsexp.Node("footprint", kicadsexp.Quoted(library+":"+name),
		kicadsexp.Node("layer", kicadsexp.Quoted(pcb.DefaultCopperLayer)),
		kicadsexp.Node("uuid", kicadsexp.Quoted(string(pcb.NewUUID()))),
		sexp.At(units.Point{}, 0),
	)
	node.Append(textNode(b, "Reference", ref, -1_500_000, "F.SilkS"))
	node.Append(textNode(b, "Value", value, 1_500_000, "F.Fab"))

	if f.library == nil {
		return node
	}
	src, err := f.library.Load(library, name)
	if err != nil {
		f.log.WithError(err).WithField("footprint", library+":"+name).Debug("Library footprint unavailable, creating an empty footprint")
		return node
	}
	for _, item := range src.Items()[min(src.Len(), 2):] {
		child, ok := item.(*kicadsexp.List)
		if !ok || skipLibraryChild(child) {
			continue
		}
		copied := kicadsexp.Clone(child).(*kicadsexp.List)
		refreshUUIDs(copied)
		node.Append(copied)
	}
	return node
}

func textNode(b *pcb.Board, key, text string, y int64, layer string) *kicadsexp.List {
	effects := kicadsexp.Node("effects", kicadsexp.Node("font",
		kicadsexp.Node("size", kicadsexp.Symbol("1"), kicadsexp.Symbol("1")),
		kicadsexp.Node("thickness", kicadsexp.Symbol("0.15")),
	))
	at := sexp.At(units.Point{Y: y}, 0)
	if b.UsesFootprintProperties() {
		at.Append(kicadsexp.Symbol("0"))
		return kicadsexp.Node("property", kicadsexp.Quoted(key), kicadsexp.Quoted(text),
			at,
			kicadsexp.Node("layer", kicadsexp.Quoted(layer)),
			kicadsexp.Node("uuid", kicadsexp.Quoted(string(pcb.NewUUID()))),
			effects,
		)
	}
	return kicadsexp.Node("fp_text", kicadsexp.Symbol(strings.ToLower(key)), kicadsexp.Quoted(text),
		at,
		kicadsexp.Node("layer", kicadsexp.Quoted(layer)),
		effects,
	)
}

// skipLibraryChild reports library-file fields the board node already has
// or that only make sense in a library.
func skipLibraryChild(child *kicadsexp.List) bool {
	switch child.Tag() {
	case "layer", "at", "uuid", "tstamp", "tedit", "version", "generator", "generator_version", "path":
		return true
	case "property":
		key, _ := sexp.GetString(child, 1)
		return key == "Reference" || key == "Value"
	case "fp_text":
		kind, _ := sexp.GetString(child, 1)
		return kind == "reference" || kind == "value"
	}
	return false
}

func refreshUUIDs(node *kicadsexp.List) {
	for _, item := range node.Items() {
		child, ok := item.(*kicadsexp.List)
		if !ok {
			continue
		}
		if child.Tag() == "uuid" || child.Tag() == "tstamp" {
			child.Set(1, kicadsexp.Quoted(string(pcb.NewUUID())))
			continue
		}
		refreshUUIDs(child)
	}
}
