// Package coordmap builds O(1) translators between reference and alignment
// nucleotide coordinates, and extracts aligned CDS nucleotide sequences
// honoring multi-segment and origin-wrapping CDSes (spec §4.7).
package coordmap

import (
	"github.com/nextstrain-go/nextclade-go/internal/alphabet"
	"github.com/nextstrain-go/nextclade-go/internal/coord"
)

// Map translates between reference (gap-free) and alignment (gapped)
// nucleotide coordinates over one aligned reference sequence.
type Map struct {
	alnToRef []int // alnToRef[i] = reference index of the non-gap letter at or before alignment index i
	refToAln []int // refToAln[j] = alignment index of the j-th non-gap reference letter
}

// Build constructs a Map from an aligned reference sequence (gaps included).
func Build(refAligned []byte) *Map {
	alnToRef := make([]int, len(refAligned))
	refToAln := make([]int, 0, len(refAligned))

	refPos := -1
	for i, c := range refAligned {
		if c != alphabet.Gap {
			refPos++
			refToAln = append(refToAln, i)
		}
		if refPos < 0 {
			alnToRef[i] = 0
		} else {
			alnToRef[i] = refPos
		}
	}
	return &Map{alnToRef: alnToRef, refToAln: refToAln}
}

// AlnToRef returns the reference position of the non-gap letter at or
// before alignment position i.
func (m *Map) AlnToRef(i coord.AlnNucPos) coord.RefNucPos {
	idx := i.Int()
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.alnToRef) {
		idx = len(m.alnToRef) - 1
	}
	return coord.New[coord.RefSpace, coord.Global, coord.NucKind](m.alnToRef[idx])
}

// RefToAln returns the alignment position of the j-th non-gap reference
// letter.
func (m *Map) RefToAln(j coord.RefNucPos) coord.AlnNucPos {
	idx := j.Int()
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.refToAln) {
		idx = len(m.refToAln) - 1
	}
	return coord.New[coord.AlnSpace, coord.Global, coord.NucKind](m.refToAln[idx])
}

// RefRangeToAln converts a reference range to an alignment range, using
// refToAln[end-1]+1 as the new end to preserve half-open semantics (spec
// §4.7).
func (m *Map) RefRangeToAln(r coord.RefNucRange) coord.AlnNucRange {
	if r.Empty() {
		begin := m.RefToAln(r.Begin)
		return coord.AlnNucRange{Begin: begin, End: begin}
	}
	begin := m.RefToAln(r.Begin)
	lastRef := coord.New[coord.RefSpace, coord.Global, coord.NucKind](r.End.Int() - 1)
	end := m.RefToAln(lastRef).Add(1)
	return coord.AlnNucRange{Begin: begin, End: end}
}
