// Package translate implements the per-CDS translator (spec §4.8): masking
// frame-shifted regions, stripping gaps, codon translation, and peptide
// realignment against the reference.
package translate

import (
	"fmt"

	"github.com/nextstrain-go/nextclade-go/internal/align"
	"github.com/nextstrain-go/nextclade-go/internal/alphabet"
	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/coordmap"
	"github.com/nextstrain-go/nextclade-go/internal/genemap"
)

// Result is the outcome of translating and realigning one CDS.
type Result struct {
	CdsName           string
	RefPeptide        []byte
	QryPeptide        []byte // realigned, gap-containing
	FrameShifts       []FrameShift
	AlignmentRange    coord.RefAaRange
	UnsequencedRanges []coord.RefAaRange
	InsertionsCount   int
}

// Warning describes a single CDS that failed to translate; per spec §4.8
// this is non-fatal and the CDS is reported as missing rather than
// aborting the whole analysis.
type Warning struct {
	CdsName string
	Err     error
}

func (w Warning) Error() string {
	return fmt.Sprintf("CDS %q: %v", w.CdsName, w.Err)
}

// RefPeptides precomputes the ungapped reference peptide for every CDS in
// m, once per reference bundle load rather than once per query.
func RefPeptides(refSeq []byte, m *genemap.GeneMap) map[string][]byte {
	out := make(map[string][]byte)
	coordMap := coordmap.Build(refSeq)
	for _, g := range m.Genes {
		for _, cds := range g.Cdses {
			refCds, _ := coordmap.ExtractCds(refSeq, refSeq, coordMap, cds)
			refCds = StripGaps(refCds)
			out[cds.Name] = TranslateSequence(refCds)
		}
	}
	return out
}

// Translate runs the full per-CDS translation pipeline for one aligned
// query against one CDS. refSeq/qrySeq are the full aligned genome pair
// (same length, gaps included); refPeptide is the precomputed ungapped
// reference peptide for this CDS.
func Translate(refSeqAligned, qrySeqAligned []byte, cds *genemap.Cds, refPeptide []byte) (Result, error) {
	m := coordmap.Build(refSeqAligned)
	refCdsAligned, qryCdsAligned := coordmap.ExtractCds(refSeqAligned, qrySeqAligned, m, cds)
	if len(refCdsAligned) == 0 {
		return Result{}, fmt.Errorf("CDS has zero length after extraction")
	}

	localMap := coordmap.BuildLocal(refCdsAligned)

	shifts := DetectFrameShifts(refCdsAligned, qryCdsAligned, localMap, cds)
	masked := MaskFrameShifted(qryCdsAligned, shifts)
	protected := ProtectFirstCodon(refCdsAligned, masked)
	stripped := StripGaps(protected)

	if len(stripped)%3 != 0 {
		// Trim a trailing partial codon rather than fail outright: it can
		// only arise from a gap-stripping edge effect at the CDS end.
		stripped = stripped[:len(stripped)-len(stripped)%3]
	}
	qryPeptideRaw := TranslateSequence(stripped)

	bandWidth, meanShift := estimateAaBand(refCdsAligned, qryCdsAligned)
	out := align.AlignAa(refPeptide, qryPeptideRaw, bandWidth, meanShift)

	qryPeptide, insertions := stripInsertionsAndMask(out.RefAligned, out.QryAligned, shifts, localMap, m, cds)

	alnRange, unseqRanges := alignmentRanges(qryPeptide)

	return Result{
		RefPeptide:        refPeptide,
		QryPeptide:        qryPeptide,
		FrameShifts:       shifts,
		AlignmentRange:    alnRange,
		UnsequencedRanges: unseqRanges,
		InsertionsCount:   insertions,
	}, nil
}

// estimateAaBand derives the fixed AA band's width and center shift from
// the nucleotide CDS alignment's gap counts (spec §4.8 step 8).
func estimateAaBand(refCdsAligned, qryCdsAligned []byte) (bandWidth, meanShift int) {
	qryLead, qryInternal := gapProfile(qryCdsAligned)
	refLead, refInternal := gapProfile(refCdsAligned)

	bandWidth = (qryInternal+refInternal)/3 + 5
	meanShift = (qryLead-refLead)/3 + (qryInternal-refInternal)/6
	return bandWidth, meanShift
}

// gapProfile returns the count of leading gaps and the count of gaps
// elsewhere (internal or trailing) in seq.
func gapProfile(seq []byte) (leading, internal int) {
	i := 0
	for i < len(seq) && seq[i] == alphabet.Gap {
		leading++
		i++
	}
	for ; i < len(seq); i++ {
		if seq[i] == alphabet.Gap {
			internal++
		}
	}
	return leading, internal
}

// stripInsertionsAndMask removes realigned-peptide columns that are
// insertions relative to the reference (gap in refAligned), and masks gap
// and frame-shifted positions in the remainder with X (spec §4.8 step 9).
func stripInsertionsAndMask(refAligned, qryAligned []byte, shifts []FrameShift, localMap *coordmap.LocalMap, m *coordmap.Map, cds *genemap.Cds) ([]byte, int) {
	out := make([]byte, 0, len(refAligned))
	insertions := 0
	for i := range refAligned {
		if refAligned[i] == alphabet.Gap {
			insertions++
			continue
		}
		c := qryAligned[i]
		if c == alphabet.Gap {
			c = alphabet.AaUnknown
		}
		out = append(out, c)
	}

	for _, fs := range shifts {
		refAaBegin := fs.LocalRef.Begin.Int() / 3
		refAaEnd := (fs.LocalRef.End.Int() + 2) / 3
		for i := refAaBegin; i < refAaEnd && i < len(out); i++ {
			if i >= 0 {
				out[i] = alphabet.AaUnknown
			}
		}
	}
	return out, insertions
}

// alignmentRanges finds the first/last non-X, non-gap residue to report the
// CDS's alignment range and its complementary unsequenced prefix/suffix
// ranges, in AA reference coordinates (spec §4.8 step 10).
func alignmentRanges(peptide []byte) (alnRange coord.RefAaRange, unseq []coord.RefAaRange) {
	begin, end := -1, -1
	for i, c := range peptide {
		if c != alphabet.AaUnknown && c != alphabet.Gap {
			if begin < 0 {
				begin = i
			}
			end = i + 1
		}
	}
	if begin < 0 {
		return coord.RefAaRange{}, []coord.RefAaRange{
			coord.NewRange[coord.RefSpace, coord.Global, coord.AaKind](0, len(peptide)),
		}
	}
	alnRange = coord.NewRange[coord.RefSpace, coord.Global, coord.AaKind](begin, end)
	if begin > 0 {
		unseq = append(unseq, coord.NewRange[coord.RefSpace, coord.Global, coord.AaKind](0, begin))
	}
	if end < len(peptide) {
		unseq = append(unseq, coord.NewRange[coord.RefSpace, coord.Global, coord.AaKind](end, len(peptide)))
	}
	return alnRange, unseq
}
