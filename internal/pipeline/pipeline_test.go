package pipeline

import (
	"strings"
	"testing"

	"github.com/nextstrain-go/nextclade-go/internal/align"
	"github.com/nextstrain-go/nextclade-go/internal/band"
	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/genemap"
	"github.com/nextstrain-go/nextclade-go/internal/gtree"
	"github.com/nextstrain-go/nextclade-go/internal/ncerr"
	"github.com/nextstrain-go/nextclade-go/internal/pathogen"
	"github.com/nextstrain-go/nextclade-go/internal/refbundle"
	"github.com/nextstrain-go/nextclade-go/internal/seedalign"
	"github.com/nextstrain-go/nextclade-go/internal/variant"
)

// tinyOptions relaxes every knob so the short literal sequences of the
// end-to-end scenarios can pass seed search.
func tinyOptions() Options {
	return Options{
		KmerLength: 3,
		Seed: seedalign.Params{
			WindowSize:        10,
			AllowedMismatches: 1,
			MinMatchLength:    3,
			MinSeedCover:      0.3,
		},
		Band:                 band.DefaultParams(),
		Align:                align.DefaultNucParams(),
		MaxAlignmentAttempts: 3,
		MinLength:            3,
		ReplaceUnknown:       true,
	}
}

func testTree(t *testing.T, ref []byte) *gtree.Tree {
	t.Helper()
	tree := gtree.New[gtree.NodePayload, gtree.EdgeData, gtree.TreeData](gtree.TreeData{RootSeq: ref})
	tree.AddNode(gtree.NodePayload{
		Name:           "root",
		CladeLikeAttrs: map[string]string{"clade_membership": "A"},
	})
	gtree.Preprocess(tree, ref, tree.Roots())
	return tree
}

func testPipeline(t *testing.T, ref []byte, opts Options) *Pipeline {
	t.Helper()
	bundle := &refbundle.Bundle{
		ID:      "test",
		RefSeq:  ref,
		GeneMap: &genemap.GeneMap{LandmarkLength: len(ref)},
		Tree:    testTree(t, ref),
		Config:  &pathogen.Config{SchemaVersion: "3.0.0"},
	}
	p, err := New(bundle, opts, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func totalLen[T any](ranges []T, length func(T) int) int {
	n := 0
	for _, r := range ranges {
		n += length(r)
	}
	return n
}

func delTotal(dels []variant.NucDelRange) int {
	return totalLen(dels, func(d variant.NucDelRange) int { return d.Range.Len() })
}

func insTotal(ins []variant.Insertion) int {
	return totalLen(ins, func(i variant.Insertion) int { return len(i.Seq) })
}

func TestAnalyzeIdentity(t *testing.T) {
	ref := []byte("ACGCTCGCT")
	p := testPipeline(t, ref, tinyOptions())

	res, err := p.Analyze("q", []byte("ACGCTCGCT"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if string(res.RefAligned) != string(ref) || string(res.QryAligned) != string(ref) {
		t.Errorf("identity alignment mismatch: ref=%s qry=%s", res.RefAligned, res.QryAligned)
	}
	if len(res.Nuc.Subs) != 0 || len(res.Nuc.Deletions) != 0 || len(res.Nuc.Insertions) != 0 {
		t.Errorf("expected no variants, got %+v", res.Nuc)
	}
	if res.Coverage != 1.0 {
		t.Errorf("expected coverage 1.0, got %f", res.Coverage)
	}
	if res.Clade != "A" {
		t.Errorf("expected clade A from root, got %q", res.Clade)
	}
}

func TestAnalyzeLeftPad(t *testing.T) {
	p := testPipeline(t, []byte("ACGCTCGCT"), tinyOptions())

	res, err := p.Analyze("q", []byte("CTCGCT"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if string(res.QryAligned) != "---CTCGCT" {
		t.Errorf("expected ---CTCGCT, got %s", res.QryAligned)
	}
	want := coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](3, 9)
	if res.AlignmentRange != want {
		t.Errorf("expected alignment range [3,9), got [%d,%d)",
			res.AlignmentRange.Begin.Int(), res.AlignmentRange.End.Int())
	}
	if len(res.Nuc.Deletions) != 0 {
		t.Errorf("terminal pad must not be a deletion, got %v", res.Nuc.Deletions)
	}
	if res.Coverage != 6.0/9.0 {
		t.Errorf("expected coverage 6/9, got %f", res.Coverage)
	}
}

func TestAnalyzeRightPad(t *testing.T) {
	p := testPipeline(t, []byte("ACGCTCGCT"), tinyOptions())

	res, err := p.Analyze("q", []byte("ACGCTC"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if string(res.QryAligned) != "ACGCTC---" {
		t.Errorf("expected ACGCTC---, got %s", res.QryAligned)
	}
	if res.AlignmentRange.Begin.Int() != 0 || res.AlignmentRange.End.Int() != 6 {
		t.Errorf("expected alignment range [0,6), got [%d,%d)",
			res.AlignmentRange.Begin.Int(), res.AlignmentRange.End.Int())
	}
}

func TestAnalyzeInternalDeletionWithMismatch(t *testing.T) {
	p := testPipeline(t, []byte("GCCACGCTCGCT"), tinyOptions())

	res, err := p.Analyze("q", []byte("GCCACTCCCT"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.RefAligned) != len(res.QryAligned) {
		t.Fatalf("aligned lengths differ: %d vs %d", len(res.RefAligned), len(res.QryAligned))
	}
	if got := delTotal(res.Nuc.Deletions); got != 2 || len(res.Nuc.Deletions) != 1 {
		t.Errorf("expected one 2-nt deletion, got %d ranges totalling %d", len(res.Nuc.Deletions), got)
	}
	if len(res.Nuc.Subs) != 1 {
		t.Fatalf("expected exactly one substitution, got %v", res.Nuc.Subs)
	}
	if s := res.Nuc.Subs[0]; s.RefNuc != 'G' || s.QryNuc != 'C' {
		t.Errorf("expected G->C substitution, got %c->%c", s.RefNuc, s.QryNuc)
	}
	if len(res.Nuc.Insertions) != 0 {
		t.Errorf("expected no insertions, got %v", res.Nuc.Insertions)
	}
}

func TestAnalyzeAmbiguousGapPlacement(t *testing.T) {
	p := testPipeline(t, []byte("ACATAGTCTTC"), tinyOptions())

	res, err := p.Analyze("q", []byte("ACATCTTC"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got := delTotal(res.Nuc.Deletions); got != 3 || len(res.Nuc.Deletions) != 1 {
		t.Errorf("expected one 3-nt deletion, got %d ranges totalling %d", len(res.Nuc.Deletions), got)
	}
	if len(res.Nuc.Subs) != 0 {
		t.Errorf("expected no substitutions, got %v", res.Nuc.Subs)
	}
}

const scenarioRef = "CTTGGAGGTTCCGTGGCTAGATAACAGAACATTCTTGGAATGCTGATCTTTATAAGCTCATGCGACACTTCGCATGGTGAGCCTTTGT"
const scenarioQry = "CTTGGAGGTTCCGTGGCTATAAAGATAACAGAACATTCTTGGAATGCTGATCAAGCTCATGGGACANNNNNCATGGTGGACAGCCTTTGT"

func scenarioOptions() Options {
	o := tinyOptions()
	o.KmerLength = 6
	o.Seed = seedalign.Params{
		WindowSize:        30,
		AllowedMismatches: 3,
		MinMatchLength:    6,
		MinSeedCover:      0.3,
	}
	o.MinLength = 30
	return o
}

func TestAnalyzeGeneralCase(t *testing.T) {
	p := testPipeline(t, []byte(scenarioRef), scenarioOptions())

	res, err := p.Analyze("q", []byte(scenarioQry))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.RefAligned) != len(res.QryAligned) {
		t.Fatalf("aligned lengths differ: %d vs %d", len(res.RefAligned), len(res.QryAligned))
	}
	if got := strings.ReplaceAll(string(res.RefAligned), "-", ""); got != scenarioRef {
		t.Error("non-gap subsequence of aligned reference must equal the reference")
	}
	if got := insTotal(res.Nuc.Insertions); got != 7 {
		t.Errorf("expected 7 inserted bases, got %d (%v)", got, res.Nuc.Insertions)
	}
	if got := delTotal(res.Nuc.Deletions); got != 5 {
		t.Errorf("expected 5 deleted bases, got %d (%v)", got, res.Nuc.Deletions)
	}
	found5 := false
	for _, m := range res.Nuc.Missing {
		if m.Range.Len() == 5 {
			found5 = true
		}
	}
	if !found5 {
		t.Errorf("expected a 5-nt missing range, got %v", res.Nuc.Missing)
	}
	if len(res.Nuc.Subs) == 0 {
		t.Error("expected at least one substitution")
	}
	if res.Coverage >= 1.0 {
		t.Errorf("expected coverage below 1.0, got %f", res.Coverage)
	}
}

func TestAnalyzeReverseComplementFallback(t *testing.T) {
	// A higher coverage requirement keeps chance k-mer hits on the flipped
	// sequence from ever assembling a passing chain; the forward direction
	// is near-identical to the reference and clears it easily.
	opts := scenarioOptions()
	opts.Seed.MinSeedCover = 0.6
	p := testPipeline(t, []byte(scenarioRef), opts)

	fwd, err := p.Analyze("q", []byte(scenarioQry))
	if err != nil {
		t.Fatalf("forward Analyze: %v", err)
	}

	rc := reverseComplement([]byte(scenarioQry))

	// With the fallback disabled, the flipped sequence must fail seed search.
	if _, err := p.Analyze("q", rc); !ncerr.Is(err, ncerr.KindInsufficientSeedCoverage) {
		t.Fatalf("expected seed-coverage failure without fallback, got %v", err)
	}

	opts.AllowReverseComplement = true
	p = testPipeline(t, []byte(scenarioRef), opts)
	res, err := p.Analyze("q", rc)
	if err != nil {
		t.Fatalf("fallback Analyze: %v", err)
	}
	if !res.IsReverseComplement {
		t.Error("expected IsReverseComplement to be set")
	}
	if !strings.HasSuffix(res.DisplayName(), RevCompSuffix) {
		t.Errorf("expected display name suffix, got %q", res.DisplayName())
	}
	if len(res.Nuc.Subs) != len(fwd.Nuc.Subs) {
		t.Fatalf("expected %d substitutions after flip, got %d", len(fwd.Nuc.Subs), len(res.Nuc.Subs))
	}
	for i := range res.Nuc.Subs {
		if res.Nuc.Subs[i] != fwd.Nuc.Subs[i] {
			t.Errorf("substitution %d differs: %v vs %v", i, res.Nuc.Subs[i], fwd.Nuc.Subs[i])
		}
	}
}

func reverseComplement(seq []byte) []byte {
	comp := map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N'}
	out := make([]byte, len(seq))
	for i, c := range seq {
		out[len(seq)-1-i] = comp[c]
	}
	return out
}

func TestAnalyzeTranslatesCds(t *testing.T) {
	ref := []byte(scenarioRef)
	// One forward CDS spanning the first 87 bases (29 codons).
	cds := &genemap.Cds{
		Name:     "ORF1",
		GeneName: "G1",
		Segments: []genemap.CdsSegment{{
			RangeGlobal: coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](0, 87),
			Strand:      genemap.Forward,
			LocalRange:  coord.NewRange[coord.RefSpace, coord.Local, coord.NucKind](0, 87),
		}},
	}
	gm := &genemap.GeneMap{
		Genes:          []*genemap.Gene{{Name: "G1", Cdses: []*genemap.Cds{cds}}},
		LandmarkLength: len(ref),
	}

	bundle := &refbundle.Bundle{
		ID:      "test",
		RefSeq:  ref,
		GeneMap: gm,
		Tree:    testTree(t, ref),
		Config:  &pathogen.Config{SchemaVersion: "3.0.0"},
	}
	p, err := New(bundle, scenarioOptions(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Identity query translates cleanly: one CDS, no AA changes.
	res, err := p.Analyze("q", append([]byte{}, ref...))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Translations) != 1 {
		t.Fatalf("expected one translation, got %d (warnings: %v)", len(res.Translations), res.Warnings)
	}
	tr := res.Translations[0]
	if tr.CdsName != "ORF1" || len(tr.Peptide) != 29 {
		t.Errorf("translation = %s, peptide length %d (want 29)", tr.CdsName, len(tr.Peptide))
	}
	if len(res.Aa) != 1 || len(res.Aa[0].Subs) != 0 {
		t.Errorf("identity query must have no AA substitutions, got %+v", res.Aa)
	}

	// A single mid-codon change becomes one AA substitution: CTT -> CGT
	// at codon 0 is L -> R.
	qry := append([]byte{}, ref...)
	qry[1] = 'G'
	res, err = p.Analyze("q2", qry)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Aa) != 1 || len(res.Aa[0].Subs) != 1 {
		t.Fatalf("expected one AA substitution, got %+v", res.Aa)
	}
	if s := res.Aa[0].Subs[0]; s.Pos.Int() != 0 || s.RefAa != 'L' || s.QryAa != 'R' {
		t.Errorf("expected L1R at codon 0, got %c%d%c", s.RefAa, s.Pos.Int()+1, s.QryAa)
	}
}

func TestAnalyzeTooShort(t *testing.T) {
	p := testPipeline(t, []byte(scenarioRef), scenarioOptions())
	_, err := p.Analyze("q", []byte("ACGT"))
	if !ncerr.Is(err, ncerr.KindSequenceTooShort) {
		t.Errorf("expected SequenceTooShort, got %v", err)
	}
}

func TestAnalyzeInvalidNucleotide(t *testing.T) {
	opts := tinyOptions()
	opts.ReplaceUnknown = false
	p := testPipeline(t, []byte("ACGCTCGCT"), opts)
	_, err := p.Analyze("q", []byte("ACGC*CGCT"))
	if !ncerr.Is(err, ncerr.KindInvalidNucleotide) {
		t.Errorf("expected InvalidNucleotide, got %v", err)
	}
}

func TestPlacementDescendsToMatchingChild(t *testing.T) {
	ref := []byte(scenarioRef)
	tree := gtree.New[gtree.NodePayload, gtree.EdgeData, gtree.TreeData](gtree.TreeData{RootSeq: ref})
	root := tree.AddNode(gtree.NodePayload{
		Name:           "root",
		CladeLikeAttrs: map[string]string{"clade_membership": "A"},
	})
	// Child differs from the reference by C1T (0-based position 0).
	child := tree.AddNode(gtree.NodePayload{
		Name:           "A.1",
		CladeLikeAttrs: map[string]string{"clade_membership": "A.1"},
		BranchMuts: variant.BranchMutations{NucMuts: []variant.NucSub{{
			Pos:    coord.New[coord.RefSpace, coord.Global, coord.NucKind](0),
			RefNuc: 'C',
			QryNuc: 'T',
		}}},
	})
	tree.AddEdge(root, child, gtree.EdgeData{})
	gtree.Preprocess(tree, ref, tree.Roots())

	bundle := &refbundle.Bundle{
		ID:      "test",
		RefSeq:  ref,
		GeneMap: &genemap.GeneMap{LandmarkLength: len(ref)},
		Tree:    tree,
		Config:  &pathogen.Config{SchemaVersion: "3.0.0"},
	}
	p, err := New(bundle, scenarioOptions(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Query carrying the child's branch mutation places on the child.
	qry := append([]byte{}, ref...)
	qry[0] = 'T'
	res, err := p.Analyze("q", qry)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.NearestNodeName != "A.1" {
		t.Errorf("expected placement on A.1, got %q", res.NearestNodeName)
	}
	if res.Clade != "A.1" {
		t.Errorf("expected clade A.1, got %q", res.Clade)
	}
	// The shared mutation is not private.
	if n := len(res.Private.PrivateSubsUnlabeled); n != 0 {
		t.Errorf("expected no private substitutions, got %d", n)
	}

	// The unmutated reference sequence stays on the root and sees the
	// child's mutation as... nothing: placement on root means no reversion
	// either, since the root carries no tmp-mutations.
	res, err = p.Analyze("q2", append([]byte{}, ref...))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.NearestNodeName != "root" {
		t.Errorf("expected placement on root, got %q", res.NearestNodeName)
	}
	if len(res.Private.Reversions) != 0 {
		t.Errorf("expected no reversions at root, got %v", res.Private.Reversions)
	}
}
