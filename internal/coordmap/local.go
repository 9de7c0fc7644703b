package coordmap

import "github.com/nextstrain-go/nextclade-go/internal/coord"

// LocalMap is a Map restricted to a single CDS's own (spliced) coordinate
// system, used by the translator to reason about frame shifts and gap
// positions within one CDS independent of genome-wide offsets.
type LocalMap struct {
	inner *Map
}

// BuildLocal constructs a LocalMap from an aligned reference CDS sequence
// (spec §4.8 step 2).
func BuildLocal(refCdsAligned []byte) *LocalMap {
	return &LocalMap{inner: Build(refCdsAligned)}
}

// AlnToRef translates a local alignment position to a local reference
// position within the CDS.
func (m *LocalMap) AlnToRef(i coord.LocalAlnNucPos) coord.LocalRefNucPos {
	idx := i.Int()
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.inner.alnToRef) {
		idx = len(m.inner.alnToRef) - 1
	}
	return coord.New[coord.RefSpace, coord.Local, coord.NucKind](m.inner.alnToRef[idx])
}

// RefToAln translates a local reference position to a local alignment
// position within the CDS.
func (m *LocalMap) RefToAln(j coord.LocalRefNucPos) coord.LocalAlnNucPos {
	idx := j.Int()
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.inner.refToAln) {
		idx = len(m.inner.refToAln) - 1
	}
	return coord.New[coord.AlnSpace, coord.Local, coord.NucKind](m.inner.refToAln[idx])
}
