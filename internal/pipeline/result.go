package pipeline

import (
	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/gtree"
	"github.com/nextstrain-go/nextclade-go/internal/qc"
	"github.com/nextstrain-go/nextclade-go/internal/translate"
	"github.com/nextstrain-go/nextclade-go/internal/variant"
)

// RevCompSuffix is appended to a sample's display name when the analysis
// fell back to the reverse complement, so downstream consumers can see the
// flip (spec §6).
const RevCompSuffix = " |(reverse complement)"

// CdsTranslation is one CDS's translated, realigned peptide plus its
// bookkeeping (spec §3 "Translation").
type CdsTranslation struct {
	GeneName string
	CdsName  string
	// Peptide is the realigned query peptide in reference-peptide
	// coordinates: insertions stripped, gaps and frame-shifted spans
	// masked with X.
	Peptide           []byte
	RefPeptide        []byte
	FrameShifts       []translate.FrameShift
	AlignmentRange    coord.RefAaRange
	UnsequencedRanges []coord.RefAaRange
	InsertionsCount   int
}

// MotifMatch is one occurrence of a configured amino-acid motif in a
// translated peptide.
type MotifMatch struct {
	Name     string
	CdsName  string
	Position int // 0-based residue index in the reference peptide
	Seq      string
}

// Result is the full per-query analysis output (spec §6 "Per-record
// result"). Serialization to any concrete format is a writer concern.
type Result struct {
	Name string

	RefAligned []byte
	QryAligned []byte

	AlignmentScore      int
	AlignmentRange      coord.RefNucRange
	IsReverseComplement bool

	Nuc           variant.NucVariants
	Coverage      float64
	PrimerChanges []variant.PrimerChange

	// Translations is ordered by gene-map declaration order; a CDS that
	// failed to translate is absent here and reported in Warnings.
	Translations   []CdsTranslation
	Aa             []variant.AaVariants
	AaChangeGroups []variant.AaChangeGroup
	FrameShifts    map[string][]translate.FrameShift

	Clade      string
	CladeAttrs map[string]string
	Phenotypes map[string]float64
	Motifs     []MotifMatch

	NearestNodeID   gtree.NodeID
	NearestNodeName string
	// NearestTied names nodes equally near the query as the chosen one,
	// in stable node order (spec §4.10).
	NearestTied []string
	Private     gtree.PrivateMutations
	// Relative maps each configured reference-node name to the query's
	// mutations relative to that node.
	Relative map[string]gtree.PrivateMutations

	Qc qc.Result

	Warnings []string
}

// DisplayName is the sample id to emit: the input name, with the
// reverse-complement suffix when the analysis flipped the sequence.
func (r *Result) DisplayName() string {
	if r.IsReverseComplement {
		return r.Name + RevCompSuffix
	}
	return r.Name
}

// TotalSubstitutions is a convenience count used by summaries and QC
// detail lines.
func (r *Result) TotalSubstitutions() int { return len(r.Nuc.Subs) }
