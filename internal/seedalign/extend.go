package seedalign

import (
	"sort"

	"github.com/nextstrain-go/nextclade-go/internal/alphabet"
	"github.com/nextstrain-go/nextclade-go/internal/kmerindex"
)

// Extend grows each raw k-mer hit bidirectionally into a maximal near-exact
// match, deduplicates overlapping extensions per offset bucket, and drops
// matches shorter than MinMatchLength (spec §4.4 steps 1-3).
func Extend(hits []kmerindex.Hit, ref, qry []byte, p Params) []SeedMatch {
	// Bucket by diagonal (ref_pos - qry_pos), the "offset" of spec §3's
	// SeedMatch contract: dedup must only suppress hits on the same
	// diagonal, not hits that happen to come from the same codon-spaced
	// index.
	byOffset := make(map[int][]kmerindex.Hit)
	for _, h := range hits {
		byOffset[h.RefPos-h.QryPos] = append(byOffset[h.RefPos-h.QryPos], h)
	}

	var out []SeedMatch
	for _, hs := range byOffset {
		covered := newIntervalSet()
		sort.Slice(hs, func(i, j int) bool { return hs[i].QryPos < hs[j].QryPos })
		for _, h := range hs {
			if covered.contains(h.QryPos) {
				continue
			}
			m := extendOne(ref, qry, h.RefPos, h.QryPos, p)
			if m.Length < p.MinMatchLength {
				continue
			}
			if covered.overlapsRange(m.QryPos, m.QryEnd()) {
				continue
			}
			covered.add(m.QryPos, m.QryEnd())
			out = append(out, m)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].QryPos < out[j].QryPos })
	return out
}

// extendOne grows a single hit bidirectionally while the mismatch count
// within a sliding WindowSize window does not exceed AllowedMismatches,
// ending each direction at the last matching base it reached.
func extendOne(ref, qry []byte, refPos, qryPos int, p Params) SeedMatch {
	anchorLen := 3 // codon-spaced hits anchor on at least one codon
	begin := extendDirection(ref, qry, refPos, qryPos, -1, p)
	end := extendDirection(ref, qry, refPos+anchorLen-1, qryPos+anchorLen-1, +1, p)

	start := begin
	stop := end + 1
	if stop <= start {
		stop = start + anchorLen
	}
	return SeedMatch{
		RefPos: refPos + (start - qryPos),
		QryPos: start,
		Length: stop - start,
		Offset: refPos - qryPos,
	}
}

// extendDirection walks from (refPos, qryPos) in direction dir (-1 or +1),
// returning the query coordinate of the last matching base reached before
// the sliding mismatch window would exceed AllowedMismatches. Mismatches
// before that base stay inside the extended match.
func extendDirection(ref, qry []byte, refPos, qryPos, dir int, p Params) int {
	r, q := refPos, qryPos
	mismatches := 0
	window := make([]bool, 0, p.WindowSize)
	bestRunEndQ := qryPos

	for r >= 0 && r < len(ref) && q >= 0 && q < len(qry) {
		match := alphabet.NucMatches(ref[r], qry[q])
		window = append(window, !match)
		if !match {
			mismatches++
		}
		if len(window) > p.WindowSize {
			if window[0] {
				mismatches--
			}
			window = window[1:]
		}
		if mismatches > p.AllowedMismatches {
			break
		}
		if match {
			bestRunEndQ = q
		}
		r += dir
		q += dir
	}
	return bestRunEndQ
}
