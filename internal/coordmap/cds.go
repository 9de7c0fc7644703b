package coordmap

import (
	"github.com/nextstrain-go/nextclade-go/internal/alphabet"
	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/genemap"
)

// ExtractCds slices the aligned-query and aligned-reference sequences for
// every segment of cds, honoring each segment's WrappingPart and strand,
// and concatenates the segments in CDS order (spec §4.7).
func ExtractCds(refAligned, qryAligned []byte, m *Map, cds *genemap.Cds) (refCds, qryCds []byte) {
	for _, seg := range cds.Segments {
		r, q := extractSegment(refAligned, qryAligned, m, seg)
		if seg.Strand == genemap.Reverse {
			r = alphabet.ReverseComplement(r)
			q = alphabet.ReverseComplement(q)
		}
		refCds = append(refCds, r...)
		qryCds = append(qryCds, q...)
	}
	return refCds, qryCds
}

func extractSegment(refAligned, qryAligned []byte, m *Map, seg genemap.CdsSegment) (refSlice, qrySlice []byte) {
	alnLen := len(refAligned)

	switch seg.Wrapping.Kind {
	case genemap.WrappingStart:
		begin := m.RefToAln(seg.RangeGlobal.Begin).Int()
		return refAligned[begin:alnLen], qryAligned[begin:alnLen]

	case genemap.WrappingCentral:
		return refAligned, qryAligned

	case genemap.WrappingEnd:
		lastRef := seg.RangeGlobal.End.Int() - 1
		end := m.refToAln[clampIdx(lastRef, len(m.refToAln))] + 1
		return refAligned[0:end], qryAligned[0:end]

	default: // NonWrapping
		alnRange := m.RefRangeToAln(seg.RangeGlobal)
		begin, end := alnRange.Begin.Int(), alnRange.End.Int()
		if begin < 0 {
			begin = 0
		}
		if end > alnLen {
			end = alnLen
		}
		return refAligned[begin:end], qryAligned[begin:end]
	}
}

// LocalToGlobalRef maps a CDS-local reference position back to a global
// reference position, by finding the segment whose LocalRange contains it
// and offsetting from that segment's RangeGlobal (forward strand) or
// counting inward from its high end (reverse strand, since flattenCds
// reorders reverse-strand segments to read high-to-low).
func LocalToGlobalRef(cds *genemap.Cds, local coord.LocalRefNucPos) coord.RefNucPos {
	for _, seg := range cds.Segments {
		if !seg.LocalRange.Contains(local) {
			continue
		}
		offset := local.Sub(seg.LocalRange.Begin)
		if seg.Strand == genemap.Reverse {
			return seg.RangeGlobal.End.Add(-1 - offset)
		}
		return seg.RangeGlobal.Begin.Add(offset)
	}
	if len(cds.Segments) == 0 {
		return coord.New[coord.RefSpace, coord.Global, coord.NucKind](0)
	}
	last := cds.Segments[len(cds.Segments)-1]
	return last.RangeGlobal.End
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
