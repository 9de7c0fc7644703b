// Package variant extracts nucleotide and amino-acid mutation records from
// aligned sequence pairs (spec §4.9).
package variant

import (
	"github.com/nextstrain-go/nextclade-go/internal/alphabet"
	"github.com/nextstrain-go/nextclade-go/internal/coord"
)

// NucSub is a nucleotide substitution: neither side is a gap.
type NucSub struct {
	Pos    coord.RefNucPos
	RefNuc byte
	QryNuc byte
}

// NucDelRange is a maximal run of gap-in-query over non-gap-in-ref.
type NucDelRange struct {
	Range coord.RefNucRange
}

// Insertion is a maximal run of gap-in-ref over non-gap-in-qry, carrying
// the inserted letters and the reference position before which they
// insert.
type Insertion struct {
	Before coord.RefNucPos
	Seq    []byte
}

// MissingRange is a maximal run of N in the stripped query.
type MissingRange struct {
	Range coord.RefNucRange
}

// NonACGTNRange is a maximal run where the query letter is not one of
// A/C/G/T/N and not a gap.
type NonACGTNRange struct {
	Range coord.RefNucRange
}

// NucVariants holds every nucleotide-level variant category extracted from
// one aligned (ref, qry) pair.
type NucVariants struct {
	Subs       []NucSub
	Deletions  []NucDelRange
	Insertions []Insertion
	Missing    []MissingRange
	NonACGTN   []NonACGTNRange
	AlignedLen int
	RefLen     int
}

// ExtractNuc walks an aligned reference/query pair (equal length, gaps
// included) and extracts every nucleotide variant category (spec §4.9).
// refLen is the ungapped reference length, used for the coverage formula.
//
// Alignment columns outside the query's aligned extent (leading/trailing
// runs where the query has no letters) are unaligned ends, not variants:
// they produce no deletion or missing records, and they do not count
// toward AlignedLen.
func ExtractNuc(refAligned, qryAligned []byte, refLen int) NucVariants {
	v := NucVariants{RefLen: refLen}

	firstCol, lastCol := -1, -1
	for i := range refAligned {
		if refAligned[i] != alphabet.Gap && qryAligned[i] != alphabet.Gap {
			if firstCol < 0 {
				firstCol = i
			}
			lastCol = i
		}
	}

	refPos := 0
	alignedLen := 0
	var delStart = -1
	var insStart coord.RefNucPos
	var insSeq []byte
	var missStart = -1
	var nonACGTNStart = -1

	flushDel := func(end int) {
		if delStart >= 0 {
			v.Deletions = append(v.Deletions, NucDelRange{
				Range: coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](delStart, end),
			})
			delStart = -1
		}
	}
	flushIns := func() {
		if len(insSeq) > 0 {
			seq := make([]byte, len(insSeq))
			copy(seq, insSeq)
			v.Insertions = append(v.Insertions, Insertion{Before: insStart, Seq: seq})
			insSeq = nil
		}
	}
	flushMiss := func(end int) {
		if missStart >= 0 {
			v.Missing = append(v.Missing, MissingRange{
				Range: coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](missStart, end),
			})
			missStart = -1
		}
	}
	flushNonACGTN := func(end int) {
		if nonACGTNStart >= 0 {
			v.NonACGTN = append(v.NonACGTN, NonACGTNRange{
				Range: coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](nonACGTNStart, end),
			})
			nonACGTNStart = -1
		}
	}

	for i := 0; i < len(refAligned); i++ {
		r, q := refAligned[i], qryAligned[i]
		refIsGap := r == alphabet.Gap
		qryIsGap := q == alphabet.Gap

		if firstCol < 0 || i < firstCol || i > lastCol {
			if !refIsGap {
				refPos++
			}
			continue
		}

		switch {
		case !refIsGap && !qryIsGap:
			flushIns()
			flushDel(refPos)
			if r != q {
				v.Subs = append(v.Subs, NucSub{
					Pos:    coord.New[coord.RefSpace, coord.Global, coord.NucKind](refPos),
					RefNuc: r,
					QryNuc: q,
				})
			}
		case !refIsGap && qryIsGap:
			flushIns()
			if delStart < 0 {
				delStart = refPos
			}
		case refIsGap && !qryIsGap:
			flushDel(refPos)
			if len(insSeq) == 0 {
				insStart = coord.New[coord.RefSpace, coord.Global, coord.NucKind](refPos)
			}
			insSeq = append(insSeq, q)
		default: // both gaps: shouldn't arise from a real aligner, but flush defensively
			flushIns()
			flushDel(refPos)
		}

		// Missing/non-ACGTN ranges are tracked over the stripped query, i.e.
		// skipping alignment columns where the reference is a gap (those
		// columns are insertions, not part of the reference-coordinate
		// sequence).
		if !refIsGap {
			if q == 'N' {
				if missStart < 0 {
					missStart = refPos
				}
			} else {
				flushMiss(refPos)
			}

			if !qryIsGap && !alphabet.IsACGTN(q) {
				if nonACGTNStart < 0 {
					nonACGTNStart = refPos
				}
			} else {
				flushNonACGTN(refPos)
			}
		}

		if !refIsGap {
			refPos++
			alignedLen++
		}
	}
	flushDel(refPos)
	flushIns()
	flushMiss(refPos)
	flushNonACGTN(refPos)

	v.AlignedLen = alignedLen
	return v
}

// Coverage computes (aligned_len - missing - non_acgtn) / ref_len (spec
// §4.9).
func (v NucVariants) Coverage() float64 {
	if v.RefLen == 0 {
		return 0
	}
	missing := 0
	for _, m := range v.Missing {
		missing += m.Range.Len()
	}
	nonACGTN := 0
	for _, n := range v.NonACGTN {
		nonACGTN += n.Range.Len()
	}
	return float64(v.AlignedLen-missing-nonACGTN) / float64(v.RefLen)
}
