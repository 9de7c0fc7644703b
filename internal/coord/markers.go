// Package coord implements the Position<Coord, Space, Kind> / Range family
// from spec §3/§4.1/§9: a signed integer position parameterized by three
// orthogonal phantom markers so that positions from incompatible coordinate
// systems cannot be mixed.
//
// Go has no const generics or true phantom types, but ordinary type
// parameters instantiated with distinct zero-size marker structs give the
// same guarantee for free: Position[RefSpace, Global, NucKind] and
// Position[AlnSpace, Global, NucKind] are different instantiations of the
// generic type, so the compiler rejects arithmetic or comparisons between
// them at build time — there is no dynamic ErrorKind::CoordinateMix check
// to write here, the type system *is* the check (see DESIGN.md).
package coord

// CoordSpaceTag marks whether a position is expressed in reference
// coordinates (gaps excluded) or alignment coordinates (gaps included).
type CoordSpaceTag interface {
	coordSpaceTag()
}

// RefSpace marks a position/range expressed in reference (ungapped)
// coordinates.
type RefSpace struct{}

func (RefSpace) coordSpaceTag() {}

// AlnSpace marks a position/range expressed in alignment (gapped)
// coordinates.
type AlnSpace struct{}

func (AlnSpace) coordSpaceTag() {}

// LocalityTag marks whether a position is global (landmark-wide) or local
// (relative to the start of some feature, e.g. a CDS).
type LocalityTag interface {
	localityTag()
}

// Global marks a position relative to the whole landmark/alignment.
type Global struct{}

func (Global) localityTag() {}

// Local marks a position relative to the start of a feature (e.g. a CDS).
type Local struct{}

func (Local) localityTag() {}

// KindTag marks whether a position addresses nucleotide or amino-acid
// sequence.
type KindTag interface {
	kindTag()
}

// NucKind marks a nucleotide-sequence position.
type NucKind struct{}

func (NucKind) kindTag() {}

// AaKind marks an amino-acid-sequence position.
type AaKind struct{}

func (AaKind) kindTag() {}
