package pcb

import "strings"

// FindNetByName looks a net up by exact name.
func (b *Board) FindNetByName(name string) (*Net, bool) {
	for i := range b.Nets {
		if b.Nets[i].Name == name {
			return &b.Nets[i], true
		}
	}
	return nil, false
}

// FindFootprint returns the footprint with the given reference designator.
func (b *Board) FindFootprint(reference string) (*Footprint, bool) {
	for _, fp := range b.Footprints {
		if fp.Reference == reference {
			return fp, true
		}
	}
	return nil, false
}

// FindPadByReference resolves "<reference>.<pad>" such as "R1.2" or
// "U3.A1". The reference is split at the last dot, so references that
// contain dots still resolve. A missing separator or an unknown component
// or pad is simply not found.
func (b *Board) FindPadByReference(ref string) (*Footprint, *Pad, bool) {
	i := strings.LastIndexByte(ref, '.')
	if i <= 0 || i == len(ref)-1 {
		return nil, nil, false
	}
	fp, ok := b.FindFootprint(ref[:i])
	if !ok {
		return nil, nil, false
	}
	pad, ok := fp.FindPad(ref[i+1:])
	if !ok {
		return nil, nil, false
	}
	return fp, pad, true
}

// References returns the set of reference designators in use.
func (b *Board) References() map[string]bool {
	refs := make(map[string]bool, len(b.Footprints))
	for _, fp := range b.Footprints {
		refs[fp.Reference] = true
	}
	return refs
}

// PadsByNet indexes every connected pad by net code. Pads on the no-net
// sentinel are left out.
func (b *Board) PadsByNet() map[int][]PadRef {
	index := make(map[int][]PadRef)
	for _, fp := range b.Footprints {
		for _, pad := range fp.Pads {
			if pad.Net == NoNet {
				continue
			}
			index[pad.Net] = append(index[pad.Net], PadRef{Footprint: fp, Pad: pad})
		}
	}
	return index
}

// PadRef names a pad together with its owning footprint.
type PadRef struct {
	Footprint *Footprint
	Pad       *Pad
}

// String returns the "<reference>.<pad>" form.
func (r PadRef) String() string {
	return r.Footprint.Reference + "." + r.Pad.Number
}
