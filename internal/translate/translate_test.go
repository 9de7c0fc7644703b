package translate

import (
	"testing"

	"github.com/nextstrain-go/nextclade-go/internal/alphabet"
	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/coordmap"
	"github.com/nextstrain-go/nextclade-go/internal/genemap"
)

func TestCodonTranslation(t *testing.T) {
	cases := map[string]byte{
		"ATG": 'M', "TAA": '*', "TGG": 'W', "GGN": 'G', "NNN": alphabet.AaUnknown,
	}
	for codon, want := range cases {
		if got := Codon([]byte(codon)); got != want {
			t.Errorf("Codon(%s) = %c, want %c", codon, got, want)
		}
	}
}

func TestTranslateSequence(t *testing.T) {
	seq := []byte("ATGGGGTAA")
	pep := TranslateSequence(seq)
	if string(pep) != "MG*" {
		t.Errorf("TranslateSequence = %s, want MG*", pep)
	}
}

func TestDetectFrameShifts(t *testing.T) {
	ref := []byte("ATGGGGTTTCCCAAATAA")
	cds := &genemap.Cds{
		Name: "orf1",
		Segments: []genemap.CdsSegment{
			{
				RangeGlobal: coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](0, len(ref)),
				LocalRange:  coord.NewRange[coord.RefSpace, coord.Local, coord.NucKind](0, len(ref)),
				Strand:      genemap.Forward,
			},
		},
	}
	localMap := coordmap.BuildLocal(ref)
	shifts := DetectFrameShifts(ref, ref, localMap, cds) // identical sequences: no shift
	if len(shifts) != 0 {
		t.Errorf("expected no frame shifts for identical sequences, got %d", len(shifts))
	}
}

func TestStripGaps(t *testing.T) {
	if got := string(StripGaps([]byte("A-C-G"))); got != "ACG" {
		t.Errorf("StripGaps = %s, want ACG", got)
	}
}

func TestProtectFirstCodon(t *testing.T) {
	ref := []byte("ATGCCC")
	qry := []byte("-TGCCC")
	protected := ProtectFirstCodon(ref, qry)
	if protected[0] != 'N' {
		t.Errorf("expected first codon's query gap replaced with N, got %q", protected)
	}
}

func TestRefPeptidesAndTranslate(t *testing.T) {
	ref := []byte("ATGGGGTTTCCCAAATAA")
	m := &genemap.GeneMap{Genes: []*genemap.Gene{{
		Name: "geneA",
		Cdses: []*genemap.Cds{{
			Name: "orf1",
			Segments: []genemap.CdsSegment{{
				RangeGlobal: coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](0, len(ref)),
				LocalRange:  coord.NewRange[coord.RefSpace, coord.Local, coord.NucKind](0, len(ref)),
				Strand:      genemap.Forward,
			}},
		}},
	}}}
	peptides := RefPeptides(ref, m)
	pep, ok := peptides["orf1"]
	if !ok {
		t.Fatal("expected orf1 peptide")
	}
	if string(pep) != "MGFPK*" {
		t.Errorf("ref peptide = %s, want MGFPK*", pep)
	}

	result, err := Translate(ref, ref, m.Genes[0].Cdses[0], pep)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if string(result.QryPeptide) != string(pep) {
		t.Errorf("identical query should translate to the reference peptide: got %s, want %s", result.QryPeptide, pep)
	}
	if len(result.UnsequencedRanges) != 0 {
		t.Errorf("fully sequenced peptide should have no unsequenced ranges, got %v", result.UnsequencedRanges)
	}
}

func TestAlignmentRangesComplement(t *testing.T) {
	aaRange := func(begin, end int) coord.RefAaRange {
		return coord.NewRange[coord.RefSpace, coord.Global, coord.AaKind](begin, end)
	}

	cases := []struct {
		peptide string
		aln     coord.RefAaRange
		unseq   []coord.RefAaRange
	}{
		{"MKLQR", aaRange(0, 5), nil},
		{"XXMKL", aaRange(2, 5), []coord.RefAaRange{aaRange(0, 2)}},
		{"MKLXX", aaRange(0, 3), []coord.RefAaRange{aaRange(3, 5)}},
		{"XMKLX", aaRange(1, 4), []coord.RefAaRange{aaRange(0, 1), aaRange(4, 5)}},
		{"XXXXX", coord.RefAaRange{}, []coord.RefAaRange{aaRange(0, 5)}},
	}
	for _, tc := range cases {
		aln, unseq := alignmentRanges([]byte(tc.peptide))
		if aln != tc.aln {
			t.Errorf("%s: alignment range [%d,%d), want [%d,%d)", tc.peptide,
				aln.Begin.Int(), aln.End.Int(), tc.aln.Begin.Int(), tc.aln.End.Int())
		}
		if len(unseq) != len(tc.unseq) {
			t.Errorf("%s: got %d unsequenced ranges, want %d", tc.peptide, len(unseq), len(tc.unseq))
			continue
		}
		for i := range unseq {
			if unseq[i] != tc.unseq[i] {
				t.Errorf("%s: unsequenced[%d] = [%d,%d), want [%d,%d)", tc.peptide, i,
					unseq[i].Begin.Int(), unseq[i].End.Int(), tc.unseq[i].Begin.Int(), tc.unseq[i].End.Int())
			}
		}
	}
}
