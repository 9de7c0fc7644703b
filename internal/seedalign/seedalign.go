package seedalign

import "github.com/nextstrain-go/nextclade-go/internal/kmerindex"

// Seeds runs the full seed-search pipeline: k-mer lookup, bidirectional
// extension/dedup/filter, then 2-D chaining with a coverage guard.
func Seeds(idx *kmerindex.Set, ref, qry []byte, p Params) ([]SeedMatch, error) {
	hits := idx.FindHits(qry)
	extended := Extend(hits, ref, qry, p)
	return Chain(extended, len(qry), p)
}
