package translate

import (
	"github.com/nextstrain-go/nextclade-go/internal/alphabet"
	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/coordmap"
	"github.com/nextstrain-go/nextclade-go/internal/genemap"
)

// FrameShift is one detected frame-shifted range, in local alignment
// coordinates, local reference coordinates, and global reference
// coordinates (spec §4.8 step 3).
type FrameShift struct {
	LocalAln  coord.LocalAlnNucRange
	LocalRef  coord.LocalRefNucRange
	GlobalRef coord.RefNucRange
}

// DetectFrameShifts scans the unstripped, aligned reference/query CDS pair
// for transitions in the rolling (#ref_gaps - #qry_gaps) mod 3 signal. A
// run where the signal is non-zero is a frame-shifted region.
func DetectFrameShifts(refCdsAligned, qryCdsAligned []byte, localMap *coordmap.LocalMap, cds *genemap.Cds) []FrameShift {
	n := len(refCdsAligned)
	refGaps, qryGaps := 0, 0
	var shifts []FrameShift
	inShift := false
	start := 0

	signal := func() int {
		d := (refGaps - qryGaps) % 3
		if d < 0 {
			d += 3
		}
		return d
	}

	for i := 0; i < n; i++ {
		if refCdsAligned[i] == alphabet.Gap {
			refGaps++
		}
		if qryCdsAligned[i] == alphabet.Gap {
			qryGaps++
		}
		s := signal()
		if s != 0 && !inShift {
			inShift = true
			start = i
		} else if s == 0 && inShift {
			inShift = false
			shifts = append(shifts, buildFrameShift(start, i+1, localMap, cds))
		}
	}
	if inShift {
		shifts = append(shifts, buildFrameShift(start, n, localMap, cds))
	}
	return shifts
}

func buildFrameShift(alnBegin, alnEnd int, localMap *coordmap.LocalMap, cds *genemap.Cds) FrameShift {
	localAln := coord.NewRange[coord.AlnSpace, coord.Local, coord.NucKind](alnBegin, alnEnd)
	refBegin := localMap.AlnToRef(localAln.Begin)
	lastAln := coord.New[coord.AlnSpace, coord.Local, coord.NucKind](alnEnd - 1)
	refEnd := localMap.AlnToRef(lastAln).Add(1)
	localRef := coord.LocalRefNucRange{Begin: refBegin, End: refEnd}

	globalBegin := coordmap.LocalToGlobalRef(cds, refBegin)
	globalLastRef := coord.New[coord.RefSpace, coord.Local, coord.NucKind](refEnd.Int() - 1)
	globalEnd := coordmap.LocalToGlobalRef(cds, globalLastRef).Add(1)

	return FrameShift{
		LocalAln:  localAln,
		LocalRef:  localRef,
		GlobalRef: coord.RefNucRange{Begin: globalBegin, End: globalEnd},
	}
}

// MaskFrameShifted replaces query bases within each shift's local alignment
// range with N, mutating a copy of qryCdsAligned (spec §4.8 step 4).
func MaskFrameShifted(qryCdsAligned []byte, shifts []FrameShift) []byte {
	out := make([]byte, len(qryCdsAligned))
	copy(out, qryCdsAligned)
	for _, fs := range shifts {
		begin, end := fs.LocalAln.Begin.Int(), fs.LocalAln.End.Int()
		for i := begin; i < end && i < len(out); i++ {
			if out[i] != alphabet.Gap {
				out[i] = 'N'
			}
		}
	}
	return out
}

// ProtectFirstCodon prevents the first reference codon's query gaps from
// being lost entirely during gap stripping: any alignment column where the
// reference has a real base within the CDS's first codon but the query has
// a gap is replaced with N so the stripped sequence keeps its register
// (spec §4.8 step 5).
func ProtectFirstCodon(refCdsAligned, qryCdsAligned []byte) []byte {
	out := make([]byte, len(qryCdsAligned))
	copy(out, qryCdsAligned)

	refBasesSeen := 0
	for i := 0; i < len(refCdsAligned) && refBasesSeen < 3; i++ {
		if refCdsAligned[i] == alphabet.Gap {
			continue
		}
		refBasesSeen++
		if i < len(out) && out[i] == alphabet.Gap {
			out[i] = 'N'
		}
	}
	return out
}

// StripGaps removes every gap character from seq.
func StripGaps(seq []byte) []byte {
	out := make([]byte, 0, len(seq))
	for _, c := range seq {
		if c != alphabet.Gap {
			out = append(out, c)
		}
	}
	return out
}
