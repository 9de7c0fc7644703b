package variant

import (
	"github.com/nextstrain-go/nextclade-go/internal/alphabet"
	"github.com/nextstrain-go/nextclade-go/internal/coord"
)

// AaSub is an amino-acid substitution within one CDS's peptide.
type AaSub struct {
	CdsName string
	Pos     coord.RefAaPos
	RefAa   byte
	QryAa   byte
}

// AaDelRange is a maximal run of gap-in-query over non-gap-in-ref in a
// peptide alignment.
type AaDelRange struct {
	CdsName string
	Range   coord.RefAaRange
}

// AaInsertion is a maximal run of gap-in-ref over non-gap-in-qry in a
// peptide alignment, carrying the inserted residues.
type AaInsertion struct {
	CdsName string
	Before  coord.RefAaPos
	Seq     []byte
}

// UnknownAaRange is a maximal run of X in one CDS's realigned peptide.
type UnknownAaRange struct {
	CdsName string
	Range   coord.RefAaRange
}

// AaVariants holds every amino-acid-level variant category for one CDS.
type AaVariants struct {
	CdsName    string
	Subs       []AaSub
	Deletions  []AaDelRange
	Insertions []AaInsertion
	Unknown    []UnknownAaRange
}

// ExtractAa walks one CDS's realigned (ref peptide, qry peptide) pair —
// equal length, gaps included — and extracts every amino-acid variant
// category (spec §4.9). Unlike ExtractNuc, peptide insertions have already
// been stripped out of qryAligned by the translator (spec §4.8 step 9), so
// refAligned and qryAligned here never contain a gap-in-ref column; this
// function still handles it defensively so it composes with a raw
// (pre-strip) alignment pair too.
func ExtractAa(cdsName string, refAligned, qryAligned []byte) AaVariants {
	v := AaVariants{CdsName: cdsName}

	refPos := 0
	delStart := -1
	var insStart coord.RefAaPos
	var insSeq []byte
	unkStart := -1

	flushDel := func(end int) {
		if delStart >= 0 {
			v.Deletions = append(v.Deletions, AaDelRange{
				CdsName: cdsName,
				Range:   coord.NewRange[coord.RefSpace, coord.Global, coord.AaKind](delStart, end),
			})
			delStart = -1
		}
	}
	flushIns := func() {
		if len(insSeq) > 0 {
			seq := make([]byte, len(insSeq))
			copy(seq, insSeq)
			v.Insertions = append(v.Insertions, AaInsertion{CdsName: cdsName, Before: insStart, Seq: seq})
			insSeq = nil
		}
	}
	flushUnk := func(end int) {
		if unkStart >= 0 {
			v.Unknown = append(v.Unknown, UnknownAaRange{
				CdsName: cdsName,
				Range:   coord.NewRange[coord.RefSpace, coord.Global, coord.AaKind](unkStart, end),
			})
			unkStart = -1
		}
	}

	for i := 0; i < len(refAligned); i++ {
		r, q := refAligned[i], qryAligned[i]
		refIsGap := r == alphabet.Gap
		qryIsGap := q == alphabet.Gap

		switch {
		case !refIsGap && !qryIsGap:
			flushIns()
			flushDel(refPos)
			if r != q {
				v.Subs = append(v.Subs, AaSub{
					CdsName: cdsName,
					Pos:     coord.New[coord.RefSpace, coord.Global, coord.AaKind](refPos),
					RefAa:   r,
					QryAa:   q,
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
				insStart = coord.New[coord.RefSpace, coord.Global, coord.AaKind](refPos)
			}
			insSeq = append(insSeq, q)
		default:
			flushIns()
			flushDel(refPos)
		}

		if !refIsGap {
			if q == alphabet.AaUnknown {
				if unkStart < 0 {
					unkStart = refPos
				}
			} else {
				flushUnk(refPos)
			}
			refPos++
		}
	}
	flushDel(refPos)
	flushIns()
	flushUnk(refPos)

	return v
}
