// Package genemap builds and validates the hierarchical Gene -> Cds ->
// CdsSegment description of a reference genome's coding regions (spec
// §3, §4.2), parsed from a GFF3-like feature file.
package genemap

import "github.com/nextstrain-go/nextclade-go/internal/coord"

// Strand is the reading direction of a feature relative to the landmark.
type Strand int8

const (
	// Forward is the plus/sense strand.
	Forward Strand = 1
	// Reverse is the minus/antisense strand.
	Reverse Strand = -1
)

// WrappingKind classifies how a CDS segment relates to the origin of a
// circular landmark (spec §3).
type WrappingKind int

const (
	// NonWrapping segments do not cross the landmark origin.
	NonWrapping WrappingKind = iota
	// WrappingStart is the segment piece running up to the landmark end.
	WrappingStart
	// WrappingCentral is a segment piece that is a full extra lap between
	// a WrappingStart and a WrappingEnd piece (rare; multi-lap features).
	WrappingCentral
	// WrappingEnd is the segment piece running from the landmark start.
	WrappingEnd
)

// WrappingPart carries the classification plus, for Central/End, the index
// of this piece within its CDS's ordered wrap group.
type WrappingPart struct {
	Kind  WrappingKind
	Index int
}

// CdsSegment is one ordered piece of a CDS: a contiguous run of reference
// nucleotides, its strand/phase/frame, and (if the landmark is circular)
// its position within an origin-wrapping group.
type CdsSegment struct {
	// RangeGlobal is the segment's range in global reference nucleotide
	// coordinates, always expressed forward-strand regardless of Strand.
	RangeGlobal coord.RefNucRange
	Strand      Strand
	// Phase is this segment's position (0,1,2) within the CDS reading
	// frame, i.e. the CDS-local offset of the segment's first base,
	// modulo 3.
	Phase int
	// Frame is this segment's reading frame (0,1,2) relative to the
	// landmark's own coordinate origin.
	Frame int
	// Wrapping classifies origin-crossing for circular landmarks.
	Wrapping WrappingPart
	// LocalRange is this segment's range within the owning CDS's own
	// (spliced) coordinate system.
	LocalRange coord.LocalRefNucRange
}

// Len returns the segment's length in nucleotides.
func (s CdsSegment) Len() int { return s.RangeGlobal.Len() }

// Cds is a maximal collinear set of segments translated as one peptide.
type Cds struct {
	Name     string
	GeneName string
	Segments []CdsSegment
}

// Length returns the CDS's total nucleotide length across all segments.
func (c *Cds) Length() int {
	n := 0
	for _, s := range c.Segments {
		n += s.Len()
	}
	return n
}

// Strand returns the CDS's strand, taken from its first segment (a CDS's
// segments always share one strand).
func (c *Cds) Strand() Strand {
	if len(c.Segments) == 0 {
		return Forward
	}
	return c.Segments[0].Strand
}

// Gene owns zero or more CDSes.
type Gene struct {
	Name string
	Cdses []*Cds
}

// GeneMap is the validated, flattened gene/CDS/segment hierarchy for a
// reference landmark.
type GeneMap struct {
	Genes          []*Gene
	LandmarkLength int
	Circular       bool
}

// FindCds returns the CDS with the given name, or nil if not present.
func (m *GeneMap) FindCds(name string) *Cds {
	for _, g := range m.Genes {
		for _, c := range g.Cdses {
			if c.Name == name {
				return c
			}
		}
	}
	return nil
}

// CdsNames returns the names of every CDS in the map, in declaration order.
func (m *GeneMap) CdsNames() []string {
	var names []string
	for _, g := range m.Genes {
		for _, c := range g.Cdses {
			names = append(names, c.Name)
		}
	}
	return names
}
