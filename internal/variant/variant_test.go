package variant

import (
	"testing"

	"github.com/nextstrain-go/nextclade-go/internal/coord"
)

func TestExtractNucIdentity(t *testing.T) {
	ref := []byte("ACGCTCGCT")
	v := ExtractNuc(ref, ref, len(ref))
	if len(v.Subs) != 0 || len(v.Deletions) != 0 || len(v.Insertions) != 0 {
		t.Fatalf("identity pair should have no variants, got %+v", v)
	}
	if cov := v.Coverage(); cov != 1.0 {
		t.Errorf("Coverage() = %v, want 1.0", cov)
	}
}

func TestExtractNucDeletionAndSub(t *testing.T) {
	// A 2-nt deletion at ref [4,6) and a G->C substitution at ref 9.
	refAligned := []byte("GCCACGCTCGCT")
	qryAligned := []byte("GCCA--CTCCCT")
	v := ExtractNuc(refAligned, qryAligned, 12)
	if len(v.Deletions) != 1 || v.Deletions[0].Range.Begin.Int() != 4 || v.Deletions[0].Range.End.Int() != 6 {
		t.Fatalf("expected one deletion [4,6), got %+v", v.Deletions)
	}
	if len(v.Subs) != 1 || v.Subs[0].Pos.Int() != 9 {
		t.Fatalf("expected one substitution at 9, got %+v", v.Subs)
	}
}

func TestExtractNucTerminalGapsAreUnalignedEnds(t *testing.T) {
	refAligned := []byte("ACGCTCGCT")
	qryAligned := []byte("---CTCGCT")
	v := ExtractNuc(refAligned, qryAligned, 9)
	if len(v.Deletions) != 0 {
		t.Fatalf("leading terminal gaps must not become deletions, got %+v", v.Deletions)
	}
	if v.AlignedLen != 6 {
		t.Errorf("AlignedLen = %d, want 6", v.AlignedLen)
	}
	if cov := v.Coverage(); cov != 6.0/9.0 {
		t.Errorf("Coverage() = %v, want %v", cov, 6.0/9.0)
	}
}

func TestExtractNucMissingRun(t *testing.T) {
	refAligned := []byte("AAAAANNNNNAAAAA")
	qryAligned := []byte("AAAAANNNNNAAAAA")
	v := ExtractNuc(refAligned, qryAligned, len(refAligned))
	if len(v.Missing) != 1 || v.Missing[0].Range.Len() != 5 {
		t.Fatalf("expected one 5-nt missing range, got %+v", v.Missing)
	}
}

func TestExtractAaSubAndDeletion(t *testing.T) {
	ref := []byte("MTEYKLVVVGAG")
	qry := []byte("MTE-KLVVVGAC")
	v := ExtractAa("orf1", ref, qry)
	if len(v.Deletions) != 1 || v.Deletions[0].Range.Begin.Int() != 3 {
		t.Fatalf("expected deletion at 3, got %+v", v.Deletions)
	}
	if len(v.Subs) != 1 || v.Subs[0].Pos.Int() != 11 {
		t.Fatalf("expected substitution at 11, got %+v", v.Subs)
	}
}

func TestExtractAaUnknownRange(t *testing.T) {
	ref := []byte("MTEYKL")
	qry := []byte("MTXXKL")
	v := ExtractAa("orf1", ref, qry)
	if len(v.Unknown) != 1 || v.Unknown[0].Range.Begin.Int() != 2 || v.Unknown[0].Range.End.Int() != 4 {
		t.Fatalf("expected unknown range [2,4), got %+v", v.Unknown)
	}
}

func TestGroupAdjacentAaChanges(t *testing.T) {
	subs := []AaSub{
		{Pos: coord.New[coord.RefSpace, coord.Global, coord.AaKind](2)},
		{Pos: coord.New[coord.RefSpace, coord.Global, coord.AaKind](3)},
		{Pos: coord.New[coord.RefSpace, coord.Global, coord.AaKind](10)},
	}
	groups := GroupAdjacentAaChanges("orf1", subs, nil)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(groups), groups)
	}
	if groups[0].Begin != 2 || groups[0].End != 4 {
		t.Errorf("first group = %+v, want [2,4)", groups[0])
	}
	if groups[1].Begin != 10 || groups[1].End != 11 {
		t.Errorf("second group = %+v, want [10,11)", groups[1])
	}
}

func TestExtractPrimerChanges(t *testing.T) {
	subs := []NucSub{
		{Pos: coord.New[coord.RefSpace, coord.Global, coord.NucKind](50), RefNuc: 'A', QryNuc: 'G'},
		{Pos: coord.New[coord.RefSpace, coord.Global, coord.NucKind](500), RefNuc: 'C', QryNuc: 'T'},
	}
	primers := []PrimerSite{
		{Name: "N1-F", Range: coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](40, 60)},
	}
	changes := ExtractPrimerChanges(subs, primers)
	if len(changes) != 1 || changes[0].PrimerName != "N1-F" {
		t.Fatalf("expected one primer change in N1-F, got %+v", changes)
	}
}
