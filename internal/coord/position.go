package coord

import "math"

// Position is a signed integer position tagged with a coordinate space
// (reference|alignment), a locality (global|local) and a sequence kind
// (nucleotide|amino-acid). Only positions sharing all three parameters can
// be compared, subtracted, or stored in the same Range.
type Position[C CoordSpaceTag, S LocalityTag, K KindTag] struct {
	v int64
}

// New constructs a Position from a plain integer.
func New[C CoordSpaceTag, S LocalityTag, K KindTag](v int) Position[C, S, K] {
	return Position[C, S, K]{v: int64(v)}
}

// Int returns the position as a plain int.
func (p Position[C, S, K]) Int() int {
	return int(p.v)
}

// Add returns p shifted by n, saturating at math.MinInt64/MaxInt64 rather
// than wrapping (spec §4.1: "Arithmetic on Position<C,S,K> with a scalar is
// saturating").
func (p Position[C, S, K]) Add(n int) Position[C, S, K] {
	sum := p.v + int64(n)
	// Overflow check: if the operands have the same sign as each other but
	// the result's sign differs, we overflowed.
	if n > 0 && sum < p.v {
		return Position[C, S, K]{v: math.MaxInt64}
	}
	if n < 0 && sum > p.v {
		return Position[C, S, K]{v: math.MinInt64}
	}
	return Position[C, S, K]{v: sum}
}

// Sub returns the signed distance p - q, valid only within
// the same parameterization (enforced by the compiler: q must share C, S, K
// with p since both are the same instantiated generic type).
func (p Position[C, S, K]) Sub(q Position[C, S, K]) int {
	return int(p.v - q.v)
}

// Less reports whether p precedes q.
func (p Position[C, S, K]) Less(q Position[C, S, K]) bool { return p.v < q.v }

// LessEq reports whether p precedes or equals q.
func (p Position[C, S, K]) LessEq(q Position[C, S, K]) bool { return p.v <= q.v }

// Equal reports whether p equals q.
func (p Position[C, S, K]) Equal(q Position[C, S, K]) bool { return p.v == q.v }

// Common parameterizations used throughout the pipeline.
type (
	// RefNucPos is a global nucleotide position in reference coordinates.
	RefNucPos = Position[RefSpace, Global, NucKind]
	// AlnNucPos is a global nucleotide position in alignment coordinates.
	AlnNucPos = Position[AlnSpace, Global, NucKind]
	// RefAaPos is a global amino-acid position in reference (peptide)
	// coordinates.
	RefAaPos = Position[RefSpace, Global, AaKind]
	// AlnAaPos is a global amino-acid position in alignment (peptide)
	// coordinates.
	AlnAaPos = Position[AlnSpace, Global, AaKind]
	// LocalRefNucPos is a CDS-local nucleotide position in reference
	// coordinates.
	LocalRefNucPos = Position[RefSpace, Local, NucKind]
	// LocalAlnNucPos is a CDS-local nucleotide position in alignment
	// coordinates.
	LocalAlnNucPos = Position[AlnSpace, Local, NucKind]
)
