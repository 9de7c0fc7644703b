package main

import (
	"fmt"

	"github.com/nextstrain-go/nextclade-go/internal/gtree"
	"github.com/nextstrain-go/nextclade-go/internal/pipeline"
	"github.com/nextstrain-go/nextclade-go/internal/qc"
	"github.com/nextstrain-go/nextclade-go/internal/variant"
)

// outputRecord is the NDJSON shape of one analyzed sequence. The pipeline's
// Result is the semantic contract; this flattening (mutations as "A123T"
// strings, ranges as 0-based begin/end pairs) is a writer concern.
type outputRecord struct {
	Index   int    `json:"index"`
	SeqName string `json:"seqName"`

	Clade      string            `json:"clade,omitempty"`
	CladeAttrs map[string]string `json:"cladeAttrs,omitempty"`

	AlignmentScore      int       `json:"alignmentScore"`
	AlignmentRange      rangeJSON `json:"alignmentRange"`
	Coverage            float64   `json:"coverage"`
	IsReverseComplement bool      `json:"isReverseComplement,omitempty"`

	Substitutions []string        `json:"substitutions"`
	Deletions     []string        `json:"deletions"`
	Insertions    []string        `json:"insertions"`
	Missing       []rangeJSON     `json:"missing"`
	NonACGTN      []rangeJSON     `json:"nonACGTN"`
	PrimerChanges []primerJSON    `json:"pcrPrimerChanges,omitempty"`
	FrameShifts   []frameShiftJSON `json:"frameShifts,omitempty"`

	AaSubstitutions []string         `json:"aaSubstitutions"`
	AaDeletions     []string         `json:"aaDeletions"`
	AaInsertions    []string         `json:"aaInsertions,omitempty"`
	UnknownAaRanges []cdsRangeJSON   `json:"unknownAaRanges,omitempty"`
	AaChangeGroups  []cdsRangeJSON   `json:"aaChangeGroups,omitempty"`
	Translations    []translationJSON `json:"translations"`

	NearestNodeName string              `json:"nearestNodeName"`
	NearestNodeID   int                 `json:"nearestNodeId"`
	NearestTied     []string            `json:"nearestTied,omitempty"`
	Private         privateJSON         `json:"privateNucMutations"`
	Relative        map[string]privateJSON `json:"relativeNucMutations,omitempty"`

	Phenotypes map[string]float64 `json:"phenotypeValues,omitempty"`
	Motifs     []motifJSON        `json:"aaMotifs,omitempty"`

	Qc       qcJSON   `json:"qc"`
	Warnings []string `json:"warnings,omitempty"`
}

// errorRecord is emitted for a sequence whose analysis failed fatally
// ({index, name, cause}; spec §7).
type errorRecord struct {
	Index   int    `json:"index"`
	SeqName string `json:"seqName"`
	Error   string `json:"error"`
}

type rangeJSON struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

type cdsRangeJSON struct {
	Cds   string `json:"cds"`
	Begin int    `json:"begin"`
	End   int    `json:"end"`
}

type primerJSON struct {
	Primer string `json:"primer"`
	Sub    string `json:"substitution"`
}

type frameShiftJSON struct {
	Cds   string `json:"cds"`
	Begin int    `json:"begin"`
	End   int    `json:"end"`
}

type translationJSON struct {
	Gene              string      `json:"gene"`
	Cds               string      `json:"cds"`
	Peptide           string      `json:"peptide"`
	AlignmentRange    rangeJSON   `json:"alignmentRange"`
	UnsequencedRanges []rangeJSON `json:"unsequencedRanges,omitempty"`
	InsertionsCount   int         `json:"insertionsCount,omitempty"`
	FrameShiftCount   int         `json:"frameShiftCount,omitempty"`
}

type privateJSON struct {
	Unlabeled  []string            `json:"unlabeledSubstitutions"`
	Labeled    map[string][]string `json:"labeledSubstitutions,omitempty"`
	Deletions  []string            `json:"deletions,omitempty"`
	Reversions []string            `json:"reversionSubstitutions,omitempty"`
}

type motifJSON struct {
	Name     string `json:"name"`
	Cds      string `json:"cds"`
	Position int    `json:"position"`
	Seq      string `json:"seq"`
}

type qcJSON struct {
	OverallScore  float64       `json:"overallScore"`
	OverallStatus string        `json:"overallStatus"`
	Rules         []qcRuleJSON  `json:"rules"`
}

type qcRuleJSON struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Status string  `json:"status"`
	Detail string  `json:"detail,omitempty"`
}

func toOutput(index int, res *pipeline.Result) outputRecord {
	rec := outputRecord{
		Index:   index,
		SeqName: res.DisplayName(),

		Clade:      res.Clade,
		CladeAttrs: res.CladeAttrs,

		AlignmentScore:      res.AlignmentScore,
		AlignmentRange:      rangeJSON{res.AlignmentRange.Begin.Int(), res.AlignmentRange.End.Int()},
		Coverage:            res.Coverage,
		IsReverseComplement: res.IsReverseComplement,

		Substitutions: nucSubStrings(res.Nuc.Subs),

		NearestNodeName: res.NearestNodeName,
		NearestNodeID:   int(res.NearestNodeID),
		NearestTied:     res.NearestTied,
		Private:         toPrivateJSON(res.Private),

		Phenotypes: res.Phenotypes,
		Qc:         toQcJSON(res.Qc),
		Warnings:   res.Warnings,
	}

	for _, d := range res.Nuc.Deletions {
		rec.Deletions = append(rec.Deletions, d.String())
	}
	for _, i := range res.Nuc.Insertions {
		rec.Insertions = append(rec.Insertions, i.String())
	}
	for _, m := range res.Nuc.Missing {
		rec.Missing = append(rec.Missing, rangeJSON{m.Range.Begin.Int(), m.Range.End.Int()})
	}
	for _, n := range res.Nuc.NonACGTN {
		rec.NonACGTN = append(rec.NonACGTN, rangeJSON{n.Range.Begin.Int(), n.Range.End.Int()})
	}
	for _, p := range res.PrimerChanges {
		rec.PrimerChanges = append(rec.PrimerChanges, primerJSON{Primer: p.PrimerName, Sub: p.Sub.String()})
	}
	for cds, shifts := range res.FrameShifts {
		for _, fs := range shifts {
			rec.FrameShifts = append(rec.FrameShifts, frameShiftJSON{
				Cds:   cds,
				Begin: fs.GlobalRef.Begin.Int(),
				End:   fs.GlobalRef.End.Int(),
			})
		}
	}

	for _, aa := range res.Aa {
		for _, s := range aa.Subs {
			rec.AaSubstitutions = append(rec.AaSubstitutions, s.String())
		}
		for _, d := range aa.Deletions {
			rec.AaDeletions = append(rec.AaDeletions, d.String())
		}
		for _, i := range aa.Insertions {
			rec.AaInsertions = append(rec.AaInsertions,
				fmt.Sprintf("%s:%d:%s", aa.CdsName, i.Before.Int()+1, i.Seq))
		}
		for _, u := range aa.Unknown {
			rec.UnknownAaRanges = append(rec.UnknownAaRanges,
				cdsRangeJSON{Cds: aa.CdsName, Begin: u.Range.Begin.Int(), End: u.Range.End.Int()})
		}
	}
	for _, g := range res.AaChangeGroups {
		rec.AaChangeGroups = append(rec.AaChangeGroups, cdsRangeJSON{Cds: g.CdsName, Begin: g.Begin, End: g.End})
	}

	for _, tr := range res.Translations {
		tj := translationJSON{
			Gene:            tr.GeneName,
			Cds:             tr.CdsName,
			Peptide:         string(tr.Peptide),
			AlignmentRange:  rangeJSON{tr.AlignmentRange.Begin.Int(), tr.AlignmentRange.End.Int()},
			InsertionsCount: tr.InsertionsCount,
			FrameShiftCount: len(tr.FrameShifts),
		}
		for _, u := range tr.UnsequencedRanges {
			tj.UnsequencedRanges = append(tj.UnsequencedRanges, rangeJSON{u.Begin.Int(), u.End.Int()})
		}
		rec.Translations = append(rec.Translations, tj)
	}

	for _, m := range res.Motifs {
		rec.Motifs = append(rec.Motifs, motifJSON{Name: m.Name, Cds: m.CdsName, Position: m.Position, Seq: m.Seq})
	}

	if len(res.Relative) > 0 {
		rec.Relative = make(map[string]privateJSON, len(res.Relative))
		for name, priv := range res.Relative {
			rec.Relative[name] = toPrivateJSON(priv)
		}
	}

	return rec
}

func toPrivateJSON(p gtree.PrivateMutations) privateJSON {
	out := privateJSON{Unlabeled: nucSubStrings(p.PrivateSubsUnlabeled)}
	if len(p.PrivateSubsLabeled) > 0 {
		out.Labeled = make(map[string][]string, len(p.PrivateSubsLabeled))
		for label, subs := range p.PrivateSubsLabeled {
			out.Labeled[label] = nucSubStrings(subs)
		}
	}
	for _, d := range p.PrivateDels {
		out.Deletions = append(out.Deletions, d.String())
	}
	out.Reversions = nucSubStrings(p.Reversions)
	return out
}

func toQcJSON(r qc.Result) qcJSON {
	out := qcJSON{OverallScore: r.OverallScore, OverallStatus: r.OverallStatus.String()}
	for _, rule := range r.Rules {
		out.Rules = append(out.Rules, qcRuleJSON{
			Name:   rule.Name,
			Score:  rule.Score,
			Status: rule.Status.String(),
			Detail: rule.Detail,
		})
	}
	return out
}

func nucSubStrings(subs []variant.NucSub) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.String())
	}
	return out
}
