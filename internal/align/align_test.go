package align

import (
	"strings"
	"testing"

	"github.com/nextstrain-go/nextclade-go/internal/band"
	"github.com/nextstrain-go/nextclade-go/internal/kmerindex"
	"github.com/nextstrain-go/nextclade-go/internal/seedalign"
)

func TestAlignIdentity(t *testing.T) {
	seq := []byte("ACGTACGTACGTACGTACGTACGTACGT")
	stripes := make([]band.Stripe, len(seq)+1)
	for r := range stripes {
		stripes[r] = band.Stripe{Begin: 0, End: len(seq) + 1}
	}
	out := Align(seq, seq, stripes, DefaultNucParams(), true)
	if string(out.RefAligned) != string(seq) || string(out.QryAligned) != string(seq) {
		t.Fatalf("identity alignment mismatch: ref=%s qry=%s", out.RefAligned, out.QryAligned)
	}
	if out.HitBoundary {
		t.Error("wide band should never hit boundary")
	}
}

func TestAlignInsertsGapForDeletion(t *testing.T) {
	ref := []byte("ACGTACGTACGTACGT")
	qry := []byte("ACGTACGACGTACGT") // one base deleted mid-sequence
	stripes := make([]band.Stripe, len(ref)+1)
	for r := range stripes {
		begin := r - 5
		if begin < 0 {
			begin = 0
		}
		end := r + 6
		if end > len(qry)+1 {
			end = len(qry) + 1
		}
		stripes[r] = band.Stripe{Begin: begin, End: end}
	}
	stripes = band.Regularize(stripes, len(qry))

	out := Align(ref, qry, stripes, DefaultNucParams(), true)
	if strings.Count(string(out.QryAligned), "-") != 1 {
		t.Errorf("expected exactly one gap in aligned query, got %q", out.QryAligned)
	}
	if len(out.RefAligned) != len(out.QryAligned) {
		t.Errorf("aligned lengths differ: %d vs %d", len(out.RefAligned), len(out.QryAligned))
	}
}

func TestAlignWithRetryWidensOnBoundary(t *testing.T) {
	ref := []byte("ACGTACGTACGTACGTACGTACGTACGTACGT")
	qry := append(append([]byte("NNNNNNNNNN"), ref...), []byte("NNNNNNNNNN")...)
	idx := kmerindex.Build(ref, 12)
	chain, err := seedalign.Seeds(idx, ref, ref, seedalign.DefaultParams())
	if err != nil {
		t.Fatalf("Seeds: %v", err)
	}

	bp := band.DefaultParams()
	bp.TerminalBandwidth = 2 // deliberately too narrow so the first pass hits the boundary
	out, err := AlignWithRetry(ref, qry, chain, bp, DefaultNucParams(), 6)
	if err != nil {
		t.Fatalf("AlignWithRetry: %v", err)
	}
	if len(out.RefAligned) == 0 {
		t.Fatal("expected a non-empty alignment")
	}
}
