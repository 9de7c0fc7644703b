package band

import (
	"sort"

	"github.com/nextstrain-go/nextclade-go/internal/seedalign"
)

// Build converts a chain of seed matches into a dense, regularized stripe
// sequence over [0, refLen] (spec §4.5).
//
// Each reference row's permitted offset band is derived from the chain: a
// narrow band (half-width AllowedMismatches/2, but at least
// MinimalBandwidth) along a match, a band
// spanning both neighbors' offsets plus ExcessBandwidth between matches,
// and a TerminalBandwidth-wide band before the first / after the last
// match. This is a direct, position-indexed rendering of the trapezoid
// construction in spec §4.5 rather than an explicit trapezoid/rewind data
// structure: since every reference row's band only ever needs its nearest
// chain neighbors, sweeping row-by-row over the chain produces the same
// stripes without needing to track a pop/rewind stack — see DESIGN.md.
func Build(chain []seedalign.SeedMatch, refLen, qryLen int, p Params) []Stripe {
	sorted := make([]seedalign.SeedMatch, len(chain))
	copy(sorted, chain)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RefPos < sorted[j].RefPos })

	stripes := make([]Stripe, refLen+1)
	bodyHalf := p.AllowedMismatches / 2
	if bodyHalf < p.MinimalBandwidth {
		bodyHalf = p.MinimalBandwidth
	}

	for r := 0; r <= refLen; r++ {
		minOff, maxOff, margin := offsetBoundsAt(sorted, r, bodyHalf, p)
		begin := r - maxOff - margin
		end := r - minOff + margin + 1
		if begin < 0 {
			begin = 0
		}
		if end > qryLen+1 {
			end = qryLen + 1
		}
		if end < begin {
			end = begin
		}
		stripes[r] = Stripe{Begin: begin, End: end}
	}

	return Regularize(stripes, qryLen)
}

// offsetBoundsAt returns the permitted offset interval and margin at
// reference row r, derived from the chain's nearest neighbors.
func offsetBoundsAt(sorted []seedalign.SeedMatch, r, bodyHalf int, p Params) (minOff, maxOff, margin int) {
	if len(sorted) == 0 {
		return 0, 0, p.TerminalBandwidth
	}

	// Find the match (if any) covering r, or the neighbors bracketing it.
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i].RefEnd() > r })

	if i < len(sorted) && sorted[i].RefPos <= r {
		off := sorted[i].Offset
		return off, off, bodyHalf
	}

	switch {
	case i == 0:
		return sorted[0].Offset, sorted[0].Offset, p.TerminalBandwidth
	case i == len(sorted):
		last := sorted[len(sorted)-1].Offset
		return last, last, p.TerminalBandwidth
	default:
		prevOff := sorted[i-1].Offset
		nextOff := sorted[i].Offset
		lo, hi := prevOff, nextOff
		if lo > hi {
			lo, hi = hi, lo
		}
		return lo, hi, p.ExcessBandwidth
	}
}

// Regularize enforces the stripe invariants from spec §3: begin[0]=0 and
// non-decreasing begin; end[last]=qryLen+1 and non-decreasing end.
func Regularize(stripes []Stripe, qryLen int) []Stripe {
	if len(stripes) == 0 {
		return stripes
	}
	stripes[0].Begin = 0
	for r := 1; r < len(stripes); r++ {
		if stripes[r].Begin < stripes[r-1].Begin {
			stripes[r].Begin = stripes[r-1].Begin
		}
	}

	stripes[len(stripes)-1].End = qryLen + 1
	for r := len(stripes) - 2; r >= 0; r-- {
		if stripes[r].End > stripes[r+1].End {
			stripes[r].End = stripes[r+1].End
		}
	}

	for r := range stripes {
		if stripes[r].End < stripes[r].Begin {
			stripes[r].End = stripes[r].Begin
		}
	}
	return stripes
}
