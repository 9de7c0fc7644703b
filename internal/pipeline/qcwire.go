package pipeline

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/nextstrain-go/nextclade-go/internal/pathogen"
	"github.com/nextstrain-go/nextclade-go/internal/qc"
)

// ruleSet holds the decoded config for every enabled QC rule. A nil entry
// means the rule is inactive for this dataset.
type ruleSet struct {
	missing *qc.MissingDataConfig
	mixed   *qc.MixedSitesConfig
	private *qc.PrivateMutationsConfig
	snp     *qc.SnpClusterConfig
	frame   *qc.FrameShiftsConfig
	stop    *qc.StopCodonsConfig
}

// defaultRules is used when a pathogen config carries no QC section at all:
// every rule active with permissive thresholds, so a dataset without
// explicit QC tuning still gets a verdict.
func defaultRules() ruleSet {
	t := qc.Thresholds{MediocreAt: 30, BadAt: 100}
	return ruleSet{
		missing: &qc.MissingDataConfig{Thresholds: t, MissingDataThreshold: 300},
		mixed:   &qc.MixedSitesConfig{Thresholds: qc.Thresholds{MediocreAt: 10, BadAt: 50}},
		private: &qc.PrivateMutationsConfig{Thresholds: t, TypicalCutoff: 8},
		snp:     &qc.SnpClusterConfig{Thresholds: qc.Thresholds{MediocreAt: 1, BadAt: 2}, WindowSize: 100, ClusterSize: 6},
		frame:   &qc.FrameShiftsConfig{Thresholds: qc.Thresholds{MediocreAt: 1, BadAt: 2}},
		stop:    &qc.StopCodonsConfig{Thresholds: qc.Thresholds{MediocreAt: 1, BadAt: 2}},
	}
}

// decodeRules turns the pathogen config's raw per-rule payloads into typed
// rule configs. Unknown rule names are ignored (a newer dataset may carry
// rules this engine doesn't implement yet); malformed payloads disable the
// rule rather than failing the bundle, since QC tuning is advisory.
func decodeRules(cfg *pathogen.Config) ruleSet {
	if len(cfg.QcRules) == 0 {
		return defaultRules()
	}

	var rs ruleSet
	for _, rule := range cfg.QcRules {
		if !rule.Enabled {
			continue
		}
		t, err := rule.DecodeThresholds()
		if err != nil {
			continue
		}
		switch rule.Name {
		case "missingData":
			var p struct {
				MissingDataThreshold int `json:"missingDataThreshold"`
			}
			decodeParams(rule.Params, &p)
			rs.missing = &qc.MissingDataConfig{Thresholds: t, MissingDataThreshold: p.MissingDataThreshold}
		case "mixedSites":
			rs.mixed = &qc.MixedSitesConfig{Thresholds: t}
		case "privateMutations":
			var p struct {
				LabelWeights  map[string]float64 `json:"labelWeights"`
				TypicalCutoff float64            `json:"typicalCutoff"`
			}
			decodeParams(rule.Params, &p)
			rs.private = &qc.PrivateMutationsConfig{Thresholds: t, LabelWeights: p.LabelWeights, TypicalCutoff: p.TypicalCutoff}
		case "snpClusters":
			var p struct {
				WindowSize  int `json:"windowSize"`
				ClusterSize int `json:"clusterSize"`
			}
			decodeParams(rule.Params, &p)
			rs.snp = &qc.SnpClusterConfig{Thresholds: t, WindowSize: p.WindowSize, ClusterSize: p.ClusterSize}
		case "frameShifts":
			var p struct {
				IgnoredCdses []string `json:"ignoredCdses"`
			}
			decodeParams(rule.Params, &p)
			ignored := make(map[string]bool, len(p.IgnoredCdses))
			for _, name := range p.IgnoredCdses {
				ignored[name] = true
			}
			rs.frame = &qc.FrameShiftsConfig{Thresholds: t, IgnoredCdsNames: ignored}
		case "stopCodons":
			var p struct {
				IgnoredStopCodons []struct {
					Cds        string `json:"cds"`
					CodonIndex int    `json:"codonIndex"`
				} `json:"ignoredStopCodons"`
			}
			decodeParams(rule.Params, &p)
			ignored := make(map[qc.StopCodonKey]bool, len(p.IgnoredStopCodons))
			for _, k := range p.IgnoredStopCodons {
				ignored[qc.StopCodonKey{Cds: k.Cds, CodonIndex: k.CodonIndex}] = true
			}
			rs.stop = &qc.StopCodonsConfig{Thresholds: t, IgnoredPositions: ignored}
		}
	}
	return rs
}

func decodeParams(raw json.RawMessage, dst any) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, dst)
}

// runQc evaluates every active rule against the assembled result and
// aggregates the verdict (spec §4.11).
func (p *Pipeline) runQc(res *Result) {
	rs := p.rules
	var results []qc.RuleResult

	if rs.missing != nil {
		results = append(results, qc.MissingData(res.Nuc.Missing, *rs.missing))
	}
	if rs.mixed != nil {
		results = append(results, qc.MixedSites(strippedQuery(res.RefAligned, res.QryAligned), *rs.mixed))
	}
	if rs.private != nil {
		results = append(results, qc.PrivateMutationsRule(res.Private, *rs.private))
	}
	if rs.snp != nil {
		results = append(results, qc.SnpClusters(res.Nuc.Subs, *rs.snp))
	}
	if rs.frame != nil {
		results = append(results, qc.FrameShiftsRule(res.FrameShifts, *rs.frame))
	}
	if rs.stop != nil {
		peptides := make(map[string][]byte, len(res.Translations))
		for _, tr := range res.Translations {
			peptides[tr.CdsName] = tr.Peptide
		}
		results = append(results, qc.StopCodonsRule(peptides, *rs.stop))
	}

	res.Qc = qc.Aggregate(results)
	if res.Qc.OverallStatus == qc.Bad {
		p.logger.Debug("QC flagged sequence",
			zap.String("seq", res.Name),
			zap.Float64("score", res.Qc.OverallScore))
	}
}

// strippedQuery is the query in reference coordinates: alignment columns
// where the reference is a gap (insertions) are dropped.
func strippedQuery(refAligned, qryAligned []byte) []byte {
	out := make([]byte, 0, len(refAligned))
	for i := range refAligned {
		if refAligned[i] != '-' {
			out = append(out, qryAligned[i])
		}
	}
	return out
}
