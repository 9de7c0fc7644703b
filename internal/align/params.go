// Package align implements the banded, affine-gap Smith-Waterman-like
// aligner (spec §4.6) and the fixed-band amino-acid aligner (spec §4.8).
package align

// GapCostFn returns the gap-open cost at a given reference position,
// allowing callers to make gap opens cheaper at codon boundaries (spec
// §4.6: "opening a gap at a position divisible by 3 within a CDS is
// cheaper than mid-codon opens"). The nucleotide aligner is otherwise
// CDS-agnostic, so this indirection keeps align decoupled from genemap.
type GapCostFn func(refPos int) int

// Params configures the DP scoring.
type Params struct {
	MatchScore    int
	MismatchScore int
	GapOpen       int
	GapExtend     int
	// GapOpenFn overrides GapOpen per reference position when non-nil.
	GapOpenFn GapCostFn
	// TerminalGapsFree disables gap penalties for leading/trailing gaps
	// (nucleotide stage); when false, terminal gaps are penalized exactly
	// like internal ones (amino-acid stage).
	TerminalGapsFree bool
}

// DefaultNucParams mirrors Nextclade's nucleotide alignment defaults:
// terminal gaps free, affine gaps, modest mismatch penalty.
func DefaultNucParams() Params {
	return Params{
		MatchScore:       3,
		MismatchScore:    -1,
		GapOpen:          -6,
		GapExtend:        -1,
		TerminalGapsFree: true,
	}
}

// DefaultAaParams mirrors Nextclade's amino-acid realignment defaults:
// terminal gaps penalized.
func DefaultAaParams() Params {
	return Params{
		MatchScore:       4,
		MismatchScore:    -2,
		GapOpen:          -8,
		GapExtend:        -1,
		TerminalGapsFree: false,
	}
}

func (p Params) gapOpenAt(refPos int) int {
	if p.GapOpenFn != nil {
		return p.GapOpenFn(refPos)
	}
	return p.GapOpen
}

// CodonAwareGapOpen builds a GapCostFn that charges baseOpen normally but
// discountedOpen when refPos is a multiple of 3 (spec §4.6).
func CodonAwareGapOpen(baseOpen, discountedOpen int) GapCostFn {
	return func(refPos int) int {
		if refPos%3 == 0 {
			return discountedOpen
		}
		return baseOpen
	}
}

// Output is the result of one banded alignment pass.
type Output struct {
	RefAligned          []byte
	QryAligned          []byte
	Score               int
	HitBoundary         bool
	IsReverseComplement bool
}
