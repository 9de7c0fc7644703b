// Package seedalign extends raw k-mer hits into maximal near-exact seed
// matches and chains a collinear subset of them by a 2-D chaining DP (spec
// §4.4).
package seedalign

// SeedMatch is a contiguous near-exact match between reference and query,
// satisfying the exact relation RefPos - QryPos == Offset.
type SeedMatch struct {
	RefPos int
	QryPos int
	Length int
	Offset int
}

// RefEnd returns the exclusive end of the match in reference coordinates.
func (s SeedMatch) RefEnd() int { return s.RefPos + s.Length }

// QryEnd returns the exclusive end of the match in query coordinates.
func (s SeedMatch) QryEnd() int { return s.QryPos + s.Length }

// Params bounds seed extension and the coverage guard.
type Params struct {
	WindowSize        int
	AllowedMismatches int
	MinMatchLength    int
	MinSeedCover      float64
}

// DefaultParams mirrors the defaults Nextclade ships for typical viral
// genomes.
func DefaultParams() Params {
	return Params{
		WindowSize:        30,
		AllowedMismatches: 6,
		MinMatchLength:    15,
		MinSeedCover:      0.33,
	}
}
