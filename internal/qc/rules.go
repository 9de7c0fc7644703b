package qc

import (
	"fmt"

	"github.com/nextstrain-go/nextclade-go/internal/alphabet"
	"github.com/nextstrain-go/nextclade-go/internal/gtree"
	"github.com/nextstrain-go/nextclade-go/internal/translate"
	"github.com/nextstrain-go/nextclade-go/internal/variant"
)

// MissingDataConfig thresholds the "missing data" rule (spec §4.11).
type MissingDataConfig struct {
	Thresholds
	// MissingDataThreshold is the number of missing (N) bases tolerated
	// before the score starts climbing above zero.
	MissingDataThreshold int
}

// MissingData scores linearly in max(0, total_missing - threshold).
func MissingData(missing []variant.MissingRange, cfg MissingDataConfig) RuleResult {
	total := 0
	for _, m := range missing {
		total += m.Range.Len()
	}
	excess := total - cfg.MissingDataThreshold
	if excess < 0 {
		excess = 0
	}
	score := float64(excess)
	return RuleResult{
		Name:   "missingData",
		Score:  score,
		Status: cfg.classify(score),
		Detail: fmt.Sprintf("%d missing bases (threshold %d)", total, cfg.MissingDataThreshold),
	}
}

// MixedSitesConfig thresholds the "mixed sites" rule.
type MixedSitesConfig struct {
	Thresholds
}

// MixedSites scores linearly in the count of ambiguous non-N nucleotide
// sites in the stripped query (any IUPAC ambiguity letter other than the
// four canonical bases and N).
func MixedSites(qryAlignedStripped []byte, cfg MixedSitesConfig) RuleResult {
	count := 0
	for _, c := range qryAlignedStripped {
		if c == alphabet.Gap || c == 'N' {
			continue
		}
		if alphabet.IsNuc(c) && !alphabet.IsACGTN(c) {
			count++
		}
	}
	score := float64(count)
	return RuleResult{
		Name:   "mixedSites",
		Score:  score,
		Status: cfg.classify(score),
		Detail: fmt.Sprintf("%d ambiguous non-N sites", count),
	}
}

// PrivateMutationsConfig weights and thresholds the private-mutations rule.
type PrivateMutationsConfig struct {
	Thresholds
	// LabelWeights scales the contribution of each labeled category;
	// unlabeled private mutations and reversions always count at weight 1.
	LabelWeights map[string]float64
	// TypicalCutoff is subtracted from the weighted count before scoring
	// (spec: "vs configured excess above a cutoff").
	TypicalCutoff float64
}

// PrivateMutationsRule scores a weighted count of private substitutions
// (including reversions, and labeled categories at their configured
// weight) in excess of TypicalCutoff.
func PrivateMutationsRule(priv gtree.PrivateMutations, cfg PrivateMutationsConfig) RuleResult {
	weighted := float64(len(priv.PrivateSubsUnlabeled)) + float64(len(priv.Reversions))
	labeledTotal := 0
	for label, muts := range priv.PrivateSubsLabeled {
		w := 1.0
		if cfg.LabelWeights != nil {
			if cw, ok := cfg.LabelWeights[label]; ok {
				w = cw
			}
		}
		weighted += w * float64(len(muts))
		labeledTotal += len(muts)
	}

	excess := weighted - cfg.TypicalCutoff
	if excess < 0 {
		excess = 0
	}
	return RuleResult{
		Name:   "privateMutations",
		Score:  excess,
		Status: cfg.classify(excess),
		Detail: fmt.Sprintf("%d unlabeled, %d labeled, %d reversions (weighted total %.1f)",
			len(priv.PrivateSubsUnlabeled), labeledTotal, len(priv.Reversions), weighted),
	}
}

// SnpClusterConfig thresholds the SNP-cluster rule.
type SnpClusterConfig struct {
	Thresholds
	WindowSize  int
	ClusterSize int // a window with at least this many subs counts as a cluster
}

// SnpClusters slides a WindowSize window over the substitution positions
// and reports clusters whose size meets or exceeds ClusterSize, scoring
// linearly in the number of such clusters found.
func SnpClusters(subs []variant.NucSub, cfg SnpClusterConfig) RuleResult {
	if len(subs) == 0 || cfg.WindowSize <= 0 {
		return RuleResult{Name: "snpClusters", Status: cfg.classify(0), Detail: "no substitutions"}
	}
	positions := make([]int, len(subs))
	for i, s := range subs {
		positions[i] = s.Pos.Int()
	}

	clusters := 0
	lo := 0
	for hi := 0; hi < len(positions); hi++ {
		for positions[hi]-positions[lo] > cfg.WindowSize {
			lo++
		}
		if hi-lo+1 >= cfg.ClusterSize {
			clusters++
			lo = hi + 1 // non-overlapping clusters
		}
	}

	score := float64(clusters)
	return RuleResult{
		Name:   "snpClusters",
		Score:  score,
		Status: cfg.classify(score),
		Detail: fmt.Sprintf("%d cluster(s) of >=%d substitutions within %d bases", clusters, cfg.ClusterSize, cfg.WindowSize),
	}
}

// FrameShiftsConfig thresholds the frame-shifts rule.
type FrameShiftsConfig struct {
	Thresholds
	// IgnoredCdsNames lists CDSes whose frame shifts never count (known
	// pseudogenes or alternate ORFs the dataset doesn't care about).
	IgnoredCdsNames map[string]bool
}

// FrameShiftsRule counts frame shifts outside the ignore list.
func FrameShiftsRule(shiftsByCds map[string][]translate.FrameShift, cfg FrameShiftsConfig) RuleResult {
	count := 0
	for cds, shifts := range shiftsByCds {
		if cfg.IgnoredCdsNames[cds] {
			continue
		}
		count += len(shifts)
	}
	score := float64(count)
	return RuleResult{
		Name:   "frameShifts",
		Score:  score,
		Status: cfg.classify(score),
		Detail: fmt.Sprintf("%d frame shift(s)", count),
	}
}

// StopCodonsConfig thresholds the premature-stop-codon rule.
type StopCodonsConfig struct {
	Thresholds
	// IgnoredPositions lists (cds, codon index) pairs known to contain a
	// tolerated premature stop (e.g. ORF1ab's programmed ribosomal
	// frameshift stop in some pathogens).
	IgnoredPositions map[StopCodonKey]bool
}

// StopCodonKey identifies one premature stop codon by CDS and 0-based
// codon index.
type StopCodonKey struct {
	Cds        string
	CodonIndex int
}

// StopCodonsRule counts premature stop codons (a '*' residue anywhere
// before the final codon of a CDS peptide) outside the ignore list.
func StopCodonsRule(peptides map[string][]byte, cfg StopCodonsConfig) RuleResult {
	count := 0
	for cds, pep := range peptides {
		for i, c := range pep {
			if c != alphabet.AaStop {
				continue
			}
			if i == len(pep)-1 {
				continue // the final stop codon is expected, not premature
			}
			if cfg.IgnoredPositions[StopCodonKey{Cds: cds, CodonIndex: i}] {
				continue
			}
			count++
		}
	}
	score := float64(count)
	return RuleResult{
		Name:   "stopCodons",
		Score:  score,
		Status: cfg.classify(score),
		Detail: fmt.Sprintf("%d premature stop codon(s)", count),
	}
}
