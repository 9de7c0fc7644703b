package align

import "github.com/nextstrain-go/nextclade-go/internal/band"

// AaStripes builds fixed-width parallel stripes for the amino-acid
// realignment stage (spec §4.8): a slanted rail of bandWidth columns
// centered on meanShift, rather than the chain-derived trapezoid the
// nucleotide stage uses. AA realignment operates on a single CDS at a
// time, so a fixed diagonal band is sufficient and far cheaper to build.
func AaStripes(refLen, qryLen, bandWidth, meanShift int) []band.Stripe {
	stripes := make([]band.Stripe, refLen+1)
	for r := 0; r <= refLen; r++ {
		center := r + meanShift
		begin := center - bandWidth
		end := center + bandWidth + 1
		if begin < 0 {
			begin = 0
		}
		if end > qryLen+1 {
			end = qryLen + 1
		}
		if end < begin {
			end = begin
		}
		stripes[r] = band.Stripe{Begin: begin, End: end}
	}
	return band.Regularize(stripes, qryLen)
}

// AlignAa runs the fixed-band amino-acid aligner used by the per-CDS
// translator to realign a frame-shifted translation against its reference
// CDS (spec §4.8). Terminal gaps are penalized like internal ones.
func AlignAa(refAa, qryAa []byte, bandWidth, meanShift int) Output {
	stripes := AaStripes(len(refAa), len(qryAa), bandWidth, meanShift)
	return Align(refAa, qryAa, stripes, DefaultAaParams(), false)
}
