package qc

import (
	"testing"

	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/gtree"
	"github.com/nextstrain-go/nextclade-go/internal/translate"
	"github.com/nextstrain-go/nextclade-go/internal/variant"
)

func refPos(p int) coord.RefNucPos {
	return coord.New[coord.RefSpace, coord.Global, coord.NucKind](p)
}

func nsub(p int, ref, qry byte) variant.NucSub {
	return variant.NucSub{Pos: refPos(p), RefNuc: ref, QryNuc: qry}
}

func TestMissingDataBelowThresholdIsGood(t *testing.T) {
	missing := []variant.MissingRange{{Range: coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](0, 5)}}
	cfg := MissingDataConfig{Thresholds: Thresholds{MediocreAt: 100, BadAt: 1000}, MissingDataThreshold: 1000}
	r := MissingData(missing, cfg)
	if r.Status != Good || r.Score != 0 {
		t.Errorf("MissingData = %+v, want Good/0", r)
	}
}

func TestMissingDataAboveThresholdScoresExcess(t *testing.T) {
	missing := []variant.MissingRange{{Range: coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](0, 1500)}}
	cfg := MissingDataConfig{Thresholds: Thresholds{MediocreAt: 100, BadAt: 2000}, MissingDataThreshold: 1000}
	r := MissingData(missing, cfg)
	if r.Score != 500 || r.Status != Mediocre {
		t.Errorf("MissingData = %+v, want score 500 / Mediocre", r)
	}
}

func TestMixedSitesCountsAmbiguousOnly(t *testing.T) {
	seq := []byte("ACGTRYN-ACGT")
	cfg := MixedSitesConfig{Thresholds: Thresholds{MediocreAt: 1, BadAt: 5}}
	r := MixedSites(seq, cfg)
	if r.Score != 2 {
		t.Errorf("MixedSites score = %v, want 2 (R,Y)", r.Score)
	}
}

func TestPrivateMutationsRuleWeighsLabelsAndCutoff(t *testing.T) {
	priv := gtree.PrivateMutations{
		PrivateSubsUnlabeled: []variant.NucSub{nsub(1, 'A', 'G')},
		PrivateSubsLabeled: map[string][]variant.NucSub{
			"reversionHotspot": {nsub(2, 'C', 'T'), nsub(3, 'C', 'T')},
		},
		Reversions: []variant.NucSub{nsub(4, 'G', 'A')},
	}
	cfg := PrivateMutationsConfig{
		Thresholds:    Thresholds{MediocreAt: 1, BadAt: 3},
		LabelWeights:  map[string]float64{"reversionHotspot": 0.5},
		TypicalCutoff: 1,
	}
	// weighted = 1 (unlabeled) + 1 (reversion) + 0.5*2 (labeled) = 3; excess = 3-1 = 2
	r := PrivateMutationsRule(priv, cfg)
	if r.Score != 2 {
		t.Errorf("PrivateMutationsRule score = %v, want 2", r.Score)
	}
	if r.Status != Mediocre {
		t.Errorf("PrivateMutationsRule status = %v, want Mediocre", r.Status)
	}
}

func TestSnpClustersFindsDenseWindow(t *testing.T) {
	subs := []variant.NucSub{
		nsub(10, 'A', 'C'), nsub(11, 'A', 'C'), nsub(12, 'A', 'C'),
		nsub(500, 'A', 'C'),
	}
	cfg := SnpClusterConfig{Thresholds: Thresholds{MediocreAt: 1, BadAt: 2}, WindowSize: 10, ClusterSize: 3}
	r := SnpClusters(subs, cfg)
	if r.Score != 1 {
		t.Errorf("SnpClusters score = %v, want 1 cluster", r.Score)
	}
}

func TestSnpClustersNoClusterWhenSparse(t *testing.T) {
	subs := []variant.NucSub{nsub(10, 'A', 'C'), nsub(200, 'A', 'C'), nsub(400, 'A', 'C')}
	cfg := SnpClusterConfig{Thresholds: Thresholds{MediocreAt: 1, BadAt: 2}, WindowSize: 10, ClusterSize: 3}
	r := SnpClusters(subs, cfg)
	if r.Score != 0 || r.Status != Good {
		t.Errorf("SnpClusters = %+v, want 0/Good", r)
	}
}

func TestFrameShiftsRuleIgnoresConfiguredCds(t *testing.T) {
	shifts := map[string][]translate.FrameShift{
		"ORF1ab": {{}, {}},
		"S":      {{}},
	}
	cfg := FrameShiftsConfig{Thresholds: Thresholds{MediocreAt: 1, BadAt: 2}, IgnoredCdsNames: map[string]bool{"ORF1ab": true}}
	r := FrameShiftsRule(shifts, cfg)
	if r.Score != 1 {
		t.Errorf("FrameShiftsRule score = %v, want 1 (S only)", r.Score)
	}
}

func TestStopCodonsRuleIgnoresFinalAndListed(t *testing.T) {
	peptides := map[string][]byte{
		"S": []byte("MAV*RT*"), // premature stop at index 3, final stop at 6
	}
	cfg := StopCodonsConfig{Thresholds: Thresholds{MediocreAt: 1, BadAt: 2}}
	r := StopCodonsRule(peptides, cfg)
	if r.Score != 1 {
		t.Errorf("StopCodonsRule score = %v, want 1 premature stop", r.Score)
	}

	cfg.IgnoredPositions = map[StopCodonKey]bool{{Cds: "S", CodonIndex: 3}: true}
	r = StopCodonsRule(peptides, cfg)
	if r.Score != 0 || r.Status != Good {
		t.Errorf("StopCodonsRule with ignore = %+v, want 0/Good", r)
	}
}

func TestAggregateTakesWorstStatusAndRms(t *testing.T) {
	rules := []RuleResult{
		{Name: "a", Score: 3, Status: Good},
		{Name: "b", Score: 4, Status: Bad},
	}
	res := Aggregate(rules)
	if res.OverallStatus != Bad {
		t.Errorf("OverallStatus = %v, want Bad", res.OverallStatus)
	}
	if res.OverallScore != 3.5355339059327378 {
		t.Errorf("OverallScore = %v, want rms(3,4)", res.OverallScore)
	}
}
