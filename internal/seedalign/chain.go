package seedalign

import (
	"fmt"
	"sort"

	"github.com/nextstrain-go/nextclade-go/internal/ncerr"
)

// Chain selects a collinear subset of matches maximizing total covered
// length by dynamic programming (spec §4.4 step 4, Gusfield §13.3-style 2-D
// chaining): matches are sorted along the query axis and each match may
// extend a chain ending strictly before it in both axes.
//
// This implements the same DP the event-sorted Gusfield algorithm solves,
// but sweeps candidates directly (O(n^2) in the number of extended
// matches) rather than maintaining a Pareto-frontier of chain endpoints —
// seed counts at this stage are small enough (a few hundred at most per
// query) that the asymptotic difference does not matter in practice; see
// DESIGN.md.
func Chain(matches []SeedMatch, qryLen int, p Params) ([]SeedMatch, error) {
	if len(matches) == 0 {
		return nil, ncerr.New(ncerr.KindInsufficientSeedCoverage, "no seed matches found")
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].QryPos != matches[j].QryPos {
			return matches[i].QryPos < matches[j].QryPos
		}
		return matches[i].RefPos < matches[j].RefPos
	})

	n := len(matches)
	score := make([]int, n)
	back := make([]int, n)
	for i := range back {
		back[i] = -1
	}

	best := 0
	for i := 0; i < n; i++ {
		score[i] = matches[i].Length
		for j := 0; j < i; j++ {
			if matches[j].QryEnd() <= matches[i].QryPos && matches[j].RefEnd() <= matches[i].RefPos {
				if cand := score[j] + matches[i].Length; cand > score[i] {
					score[i] = cand
					back[i] = j
				}
			}
		}
		if score[i] > score[best] {
			best = i
		}
	}

	var chain []SeedMatch
	for i := best; i != -1; i = back[i] {
		chain = append(chain, matches[i])
	}
	// Reverse into query order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	total := 0
	for _, m := range chain {
		total += m.Length
	}
	if float64(total) < p.MinSeedCover*float64(qryLen) {
		return nil, ncerr.New(ncerr.KindInsufficientSeedCoverage,
			fmt.Sprintf("chained seed coverage %d < required %.0f (min_seed_cover=%.2f, qry_len=%d)",
				total, p.MinSeedCover*float64(qryLen), p.MinSeedCover, qryLen))
	}
	return chain, nil
}
