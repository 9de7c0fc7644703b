package genemap

import (
	"strings"
	"testing"
)

const sampleGFF = `##gff-version 3
region1	ref	gene	1	9	.	+	.	ID=gene-ORF1;Name=ORF1
region1	ref	CDS	1	9	.	+	0	ID=cds-ORF1;Parent=gene-ORF1
region1	ref	gene	1	6	.	-	.	ID=gene-ORF2;Name=ORF2
region1	ref	CDS	1	6	.	-	0	ID=cds-ORF2;Parent=gene-ORF2
`

func TestParseBuildsGeneMap(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleGFF), 9, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Genes) != 2 {
		t.Fatalf("expected 2 genes, got %d", len(m.Genes))
	}

	orf1 := m.FindCds("cds-ORF1")
	if orf1 == nil {
		t.Fatal("cds-ORF1 not found")
	}
	if orf1.Length() != 9 {
		t.Errorf("ORF1 length = %d, want 9", orf1.Length())
	}
	if orf1.Strand() != Forward {
		t.Errorf("ORF1 strand = %v, want Forward", orf1.Strand())
	}

	orf2 := m.FindCds("cds-ORF2")
	if orf2 == nil {
		t.Fatal("cds-ORF2 not found")
	}
	if orf2.Strand() != Reverse {
		t.Errorf("ORF2 strand = %v, want Reverse", orf2.Strand())
	}
}

func TestParseRejectsNonMultipleOf3(t *testing.T) {
	bad := `region1	ref	gene	1	8	.	+	.	ID=g1;Name=G1
region1	ref	CDS	1	8	.	+	0	ID=c1;Parent=g1
`
	_, err := Parse(strings.NewReader(bad), 8, false)
	if err == nil {
		t.Fatal("expected error for CDS length not multiple of 3")
	}
}

func TestFilterDropsEmptyGenes(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleGFF), 9, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	filtered := Filter(m, []string{"cds-ORF1"})
	if len(filtered.Genes) != 1 {
		t.Fatalf("expected 1 gene after filter, got %d", len(filtered.Genes))
	}
	if filtered.FindCds("cds-ORF2") != nil {
		t.Error("cds-ORF2 should have been filtered out")
	}
}

func TestValidateCatchesDuplicateGeneNames(t *testing.T) {
	m := &GeneMap{Genes: []*Gene{{Name: "A"}, {Name: "A"}}}
	if err := Validate(m); err == nil {
		t.Fatal("expected duplicate gene name error")
	}
}
