// Package pipeline orchestrates the full per-query analysis: seed search,
// banded alignment, per-CDS translation, variant extraction, tree
// placement, and QC (spec §4), against an immutable reference bundle
// shared across workers.
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nextstrain-go/nextclade-go/internal/align"
	"github.com/nextstrain-go/nextclade-go/internal/alphabet"
	"github.com/nextstrain-go/nextclade-go/internal/band"
	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/genemap"
	"github.com/nextstrain-go/nextclade-go/internal/gtree"
	"github.com/nextstrain-go/nextclade-go/internal/kmerindex"
	"github.com/nextstrain-go/nextclade-go/internal/ncerr"
	"github.com/nextstrain-go/nextclade-go/internal/pathogen"
	"github.com/nextstrain-go/nextclade-go/internal/refbundle"
	"github.com/nextstrain-go/nextclade-go/internal/seedalign"
	"github.com/nextstrain-go/nextclade-go/internal/translate"
	"github.com/nextstrain-go/nextclade-go/internal/variant"
)

// Options bundles every tunable of the per-query pipeline. New fills a zero
// KmerLength or MaxAlignmentAttempts from DefaultOptions; other fields are
// used as given.
type Options struct {
	KmerLength           int
	Seed                 seedalign.Params
	Band                 band.Params
	Align                align.Params
	MaxAlignmentAttempts int
	// MinLength rejects queries shorter than this before seed search.
	MinLength int
	// AllowReverseComplement retries seed search on the reverse complement
	// when the forward pass fails coverage (spec §4.4).
	AllowReverseComplement bool
	// ReplaceUnknown replaces unrecognized sequence letters with N instead
	// of failing the record (spec §7).
	ReplaceUnknown bool
}

// DefaultOptions mirrors the defaults Nextclade ships for typical viral
// genomes.
func DefaultOptions() Options {
	return Options{
		KmerLength:             12,
		Seed:                   seedalign.DefaultParams(),
		Band:                   band.DefaultParams(),
		Align:                  align.DefaultNucParams(),
		MaxAlignmentAttempts:   3,
		MinLength:              100,
		AllowReverseComplement: false,
		ReplaceUnknown:         true,
	}
}

// OptionsFromConfig starts from DefaultOptions and overrides every knob the
// pathogen config sets explicitly (non-zero).
func OptionsFromConfig(cfg *pathogen.Config) Options {
	o := DefaultOptions()
	a := cfg.Alignment
	if a.MinSeedCover > 0 {
		o.Seed.MinSeedCover = a.MinSeedCover
	}
	if a.MinLength > 0 {
		o.MinLength = a.MinLength
	}
	if a.MaxBandArea > 0 {
		o.Band.MaxBandArea = a.MaxBandArea
	}
	if a.GapOpen != 0 {
		o.Align.GapOpen = a.GapOpen
	}
	if a.GapExtend != 0 {
		o.Align.GapExtend = a.GapExtend
	}
	if a.Mismatch != 0 {
		o.Align.MismatchScore = a.Mismatch
	}
	if a.Match != 0 {
		o.Align.MatchScore = a.Match
	}
	o.AllowReverseComplement = a.AllowReverseComp
	return o
}

// Pipeline analyzes queries against one immutable reference bundle. It is
// safe for concurrent use: all fields are written once in New and only read
// afterwards (spec §5).
type Pipeline struct {
	bundle *refbundle.Bundle
	opts   Options
	logger *zap.Logger

	kmers       *kmerindex.Set
	refPeptides map[string][]byte
	primers     []variant.PrimerSite
	labels      gtree.LabelMap
	refNodeIDs  map[string]gtree.NodeID
	root        gtree.NodeID
	rules       ruleSet
}

// New precomputes everything derivable from the bundle alone: the
// codon-spaced k-mer index, per-CDS reference peptides, the codon-aware
// gap-open table, the mutation-label map, and reference-node lookups.
func New(bundle *refbundle.Bundle, opts Options, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.KmerLength <= 0 {
		opts.KmerLength = def.KmerLength
	}
	if opts.MaxAlignmentAttempts <= 0 {
		opts.MaxAlignmentAttempts = def.MaxAlignmentAttempts
	}
	if opts.Align.GapOpenFn == nil {
		opts.Align.GapOpenFn = codonAwareGapTable(bundle.RefSeq, bundle.GeneMap, opts.Align.GapOpen)
	}

	roots := bundle.Tree.Roots()
	if len(roots) != 1 {
		return nil, ncerr.New(ncerr.KindInputFormat,
			fmt.Sprintf("reference tree must have exactly one root, found %d", len(roots)))
	}

	p := &Pipeline{
		bundle:      bundle,
		opts:        opts,
		logger:      logger,
		kmers:       kmerindex.Build(bundle.RefSeq, opts.KmerLength),
		refPeptides: translate.RefPeptides(bundle.RefSeq, bundle.GeneMap),
		primers:     primerSites(bundle.Config),
		labels:      labelMap(bundle.Config),
		refNodeIDs:  make(map[string]gtree.NodeID),
		root:        roots[0],
		rules:       decodeRules(bundle.Config),
	}

	for _, name := range bundle.Config.RefNodes {
		id, ok := findNodeByName(bundle.Tree, name)
		if !ok {
			return nil, ncerr.New(ncerr.KindInputFormat,
				fmt.Sprintf("configured reference node %q not present in reference tree", name))
		}
		p.refNodeIDs[name] = id
	}

	logger.Info("pipeline ready",
		zap.String("bundle", bundle.ID),
		zap.Int("ref_len", len(bundle.RefSeq)),
		zap.Int("cds_count", len(p.refPeptides)),
		zap.Int("tree_nodes", len(bundle.Tree.Nodes)))
	return p, nil
}

func findNodeByName(t *gtree.Tree, name string) (gtree.NodeID, bool) {
	for i := range t.Nodes {
		if t.Nodes[i].Name == name {
			return gtree.NodeID(i), true
		}
	}
	return -1, false
}

// codonAwareGapTable builds the per-position gap-open cost table: opening a
// gap mid-codon inside a CDS is more expensive than at a codon boundary or
// outside coding regions (spec §4.6).
func codonAwareGapTable(refSeq []byte, m *genemap.GeneMap, baseOpen int) align.GapCostFn {
	cost := make([]int, len(refSeq)+1)
	for i := range cost {
		cost[i] = baseOpen
	}
	for _, g := range m.Genes {
		for _, cds := range g.Cdses {
			for _, seg := range cds.Segments {
				local := seg.LocalRange.Begin.Int()
				for pos := seg.RangeGlobal.Begin.Int(); pos < seg.RangeGlobal.End.Int(); pos++ {
					if pos < 0 || pos >= len(cost) {
						local++
						continue
					}
					if local%3 != 0 {
						cost[pos] = baseOpen - 2
					}
					local++
				}
			}
		}
	}
	return func(refPos int) int {
		if refPos < 0 || refPos >= len(cost) {
			return baseOpen
		}
		return cost[refPos]
	}
}

// Analyze runs the whole per-query pipeline on one sequence. Per-CDS
// failures become warnings on the result; only the fatal error classes of
// spec §7 return an error.
func (p *Pipeline) Analyze(name string, seq []byte) (*Result, error) {
	qry, err := sanitize(seq, p.opts.ReplaceUnknown)
	if err != nil {
		return nil, err
	}
	if len(qry) < p.opts.MinLength {
		return nil, ncerr.New(ncerr.KindSequenceTooShort,
			fmt.Sprintf("sequence length %d below minimum %d", len(qry), p.opts.MinLength))
	}

	ref := p.bundle.RefSeq
	res := &Result{
		Name:        name,
		CladeAttrs:  make(map[string]string),
		Phenotypes:  make(map[string]float64),
		FrameShifts: make(map[string][]translate.FrameShift),
		Relative:    make(map[string]gtree.PrivateMutations),
	}

	chain, qry, err := p.seeds(qry, res)
	if err != nil {
		return nil, err
	}

	out, err := align.AlignWithRetry(ref, qry, chain, p.opts.Band, p.opts.Align, p.opts.MaxAlignmentAttempts)
	if err != nil {
		return nil, err
	}
	res.RefAligned = out.RefAligned
	res.QryAligned = out.QryAligned
	res.AlignmentScore = out.Score

	res.Nuc = variant.ExtractNuc(out.RefAligned, out.QryAligned, len(ref))
	res.Coverage = res.Nuc.Coverage()
	res.AlignmentRange = alignmentRange(out.RefAligned, out.QryAligned)
	res.PrimerChanges = variant.ExtractPrimerChanges(res.Nuc.Subs, p.primers)

	p.translateAll(out.RefAligned, out.QryAligned, res)
	p.place(res)
	p.runQc(res)

	return res, nil
}

// seeds runs forward seed search, falling back to the reverse complement on
// insufficient coverage when enabled (spec §4.4). It returns the chain plus
// the (possibly flipped) query the chain refers to.
func (p *Pipeline) seeds(qry []byte, res *Result) ([]seedalign.SeedMatch, []byte, error) {
	chain, err := seedalign.Seeds(p.kmers, p.bundle.RefSeq, qry, p.opts.Seed)
	if err == nil {
		return chain, qry, nil
	}
	if !p.opts.AllowReverseComplement || !ncerr.Is(err, ncerr.KindInsufficientSeedCoverage) {
		return nil, nil, err
	}

	rc := alphabet.ReverseComplement(qry)
	chain, rcErr := seedalign.Seeds(p.kmers, p.bundle.RefSeq, rc, p.opts.Seed)
	if rcErr != nil {
		return nil, nil, err // report the forward failure, not the fallback's
	}
	res.IsReverseComplement = true
	res.Warnings = append(res.Warnings, "sequence matched the reference only as a reverse complement; analysis ran on the flipped sequence")
	return chain, rc, nil
}

// sanitize uppercases and validates the raw query letters: gap characters
// from pre-aligned inputs are dropped, and letters outside the IUPAC
// nucleotide set either become N or fail the record (spec §6, §7).
func sanitize(seq []byte, replaceUnknown bool) ([]byte, error) {
	out := make([]byte, 0, len(seq))
	for _, c := range seq {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c == alphabet.Gap || c == '.' || c == ' ' || c == '\r' {
			continue
		}
		if !alphabet.IsNuc(c) {
			if !replaceUnknown {
				return nil, ncerr.New(ncerr.KindInvalidNucleotide,
					fmt.Sprintf("unrecognized nucleotide character %q", string(c)))
			}
			c = alphabet.NucUnknown
		}
		out = append(out, c)
	}
	return out, nil
}

// alignmentRange is the reference range covered by non-gap query letters.
func alignmentRange(refAligned, qryAligned []byte) coord.RefNucRange {
	begin, end := -1, -1
	refPos := 0
	for i := range refAligned {
		if refAligned[i] == alphabet.Gap {
			continue
		}
		if qryAligned[i] != alphabet.Gap {
			if begin < 0 {
				begin = refPos
			}
			end = refPos + 1
		}
		refPos++
	}
	if begin < 0 {
		return coord.RefNucRange{}
	}
	return coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](begin, end)
}

// translateAll runs the per-CDS translator over every CDS in the gene map,
// collecting translations, AA variants, groups, frame shifts, phenotype
// values and motif hits. A single CDS failing is a warning, not an error
// (spec §4.8).
func (p *Pipeline) translateAll(refAligned, qryAligned []byte, res *Result) {
	cfg := p.bundle.Config
	for _, gene := range p.bundle.GeneMap.Genes {
		for _, cds := range gene.Cdses {
			tr, err := translate.Translate(refAligned, qryAligned, cds, p.refPeptides[cds.Name])
			if err != nil {
				w := translate.Warning{CdsName: cds.Name, Err: err}
				res.Warnings = append(res.Warnings, w.Error())
				p.logger.Debug("CDS translation failed",
					zap.String("seq", res.Name), zap.String("cds", cds.Name), zap.Error(err))
				continue
			}

			res.Translations = append(res.Translations, CdsTranslation{
				GeneName:          gene.Name,
				CdsName:           cds.Name,
				Peptide:           tr.QryPeptide,
				RefPeptide:        tr.RefPeptide,
				FrameShifts:       tr.FrameShifts,
				AlignmentRange:    tr.AlignmentRange,
				UnsequencedRanges: tr.UnsequencedRanges,
				InsertionsCount:   tr.InsertionsCount,
			})
			if len(tr.FrameShifts) > 0 {
				res.FrameShifts[cds.Name] = tr.FrameShifts
			}

			aa := variant.ExtractAa(cds.Name, tr.RefPeptide, tr.QryPeptide)
			res.Aa = append(res.Aa, aa)
			if cfg.AaChange.GroupAdjacent {
				groups := variant.GroupAdjacentAaChanges(cds.Name, aa.Subs, aa.Deletions)
				for _, g := range groups {
					if g.End-g.Begin >= cfg.AaChange.MinGroupLength {
						res.AaChangeGroups = append(res.AaChangeGroups, g)
					}
				}
			}

			p.scorePhenotypes(cds.Name, aa.Subs, res)
			res.Motifs = append(res.Motifs, findMotifs(cfg.AaMotifs, cds.Name, tr.QryPeptide)...)
		}
	}
}

// place assigns the nearest tree node, clade, clade-like attributes, and
// private/relative mutation breakdowns (spec §4.10).
func (p *Pipeline) place(res *Result) {
	tree := p.bundle.Tree
	ref := p.bundle.RefSeq

	subs := gtree.FilterUnknown(res.Nuc.Subs)
	indexed := gtree.IndexSubs(subs)

	nearest, tied := gtree.NearestNode(tree, p.root, indexed)
	res.NearestNodeID = nearest
	res.NearestNodeName = tree.Nodes[nearest].Name
	for _, id := range tied {
		res.NearestTied = append(res.NearestTied, tree.Nodes[id].Name)
	}

	nonACGTN := make([]coord.RefNucRange, 0, len(res.Nuc.NonACGTN))
	for _, r := range res.Nuc.NonACGTN {
		nonACGTN = append(nonACGTN, r.Range)
	}

	res.Private = gtree.FindPrivateMutationsWithRef(
		&tree.Nodes[nearest], ref, subs, res.Nuc.Deletions, nonACGTN, p.labels)

	for name, id := range p.refNodeIDs {
		res.Relative[name] = gtree.RelativeMutations(
			&tree.Nodes[id], ref, subs, res.Nuc.Deletions, nonACGTN)
	}

	payload := &tree.Nodes[nearest]
	res.Clade = payload.CladeLikeAttrs["clade_membership"]
	for _, attr := range p.bundle.Config.CladeAttrs {
		if v, ok := payload.CladeLikeAttrs[attr.Name]; ok && v != "" {
			res.CladeAttrs[attr.Name] = v
		} else {
			res.CladeAttrs[attr.Name] = attr.Default
		}
	}
}
