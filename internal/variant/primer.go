package variant

import "github.com/nextstrain-go/nextclade-go/internal/coord"

// PrimerSite is one configured PCR primer binding site, expressed as a
// reference-coordinate nucleotide range (spec §6 "Optional PCR primer
// table").
type PrimerSite struct {
	Name  string
	Range coord.RefNucRange
}

// PrimerChange is a substitution that falls inside a configured primer
// site — a change likely to affect PCR assay performance (spec §4.9).
type PrimerChange struct {
	PrimerName string
	Sub        NucSub
}

// ExtractPrimerChanges intersects every configured primer site with the
// nucleotide substitutions already extracted for this query (spec §4.9
// "PCR primer changes").
func ExtractPrimerChanges(subs []NucSub, primers []PrimerSite) []PrimerChange {
	var out []PrimerChange
	for _, p := range primers {
		for _, s := range subs {
			if p.Range.Contains(s.Pos) {
				out = append(out, PrimerChange{PrimerName: p.Name, Sub: s})
			}
		}
	}
	return out
}
