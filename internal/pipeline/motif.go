package pipeline

import (
	"strconv"

	"github.com/nextstrain-go/nextclade-go/internal/alphabet"
	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/gtree"
	"github.com/nextstrain-go/nextclade-go/internal/pathogen"
	"github.com/nextstrain-go/nextclade-go/internal/variant"
)

// primerSites converts the pathogen config's primer entries into the range
// type the variant extractor consumes.
func primerSites(cfg *pathogen.Config) []variant.PrimerSite {
	sites := make([]variant.PrimerSite, 0, len(cfg.Primers))
	for _, p := range cfg.Primers {
		sites = append(sites, variant.PrimerSite{
			Name:  p.Name,
			Range: coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](p.Begin, p.End),
		})
	}
	return sites
}

// labelMap converts the pathogen config's 1-based mutation-label entries
// into the 0-based lookup the private-mutation splitter uses.
func labelMap(cfg *pathogen.Config) gtree.LabelMap {
	if len(cfg.MutLabels) == 0 {
		return nil
	}
	entries := make(map[int]map[byte][]string)
	for _, e := range cfg.MutLabels {
		if e.Pos < 1 || len(e.Letter) != 1 {
			continue
		}
		pos := e.Pos - 1
		if entries[pos] == nil {
			entries[pos] = make(map[byte][]string)
		}
		entries[pos][e.Letter[0]] = e.Labels
	}
	return gtree.NewLabelMap(entries)
}

// scorePhenotypes adds each configured phenotype's weight for every AA
// substitution present in this CDS. Weight keys are "<1-based pos><letter>"
// (e.g. "484K"), matching the notation phenotype tables are published in.
func (p *Pipeline) scorePhenotypes(cdsName string, subs []variant.AaSub, res *Result) {
	for _, ph := range p.bundle.Config.Phenotypes {
		if ph.CdsName != cdsName {
			continue
		}
		total := res.Phenotypes[ph.Name]
		for _, s := range subs {
			key := strconv.Itoa(s.Pos.Int()+1) + string(s.QryAa)
			if w, ok := ph.Weights[key]; ok {
				total += w
			}
		}
		res.Phenotypes[ph.Name] = total
	}
}

// findMotifs scans one CDS's realigned peptide for every configured motif
// whose CdsName matches. Motif patterns are plain residue letters with X as
// a single-residue wildcard; a window containing an unknown (X) query
// residue never matches, since the motif cannot be confirmed there.
func findMotifs(motifs []pathogen.AaMotif, cdsName string, peptide []byte) []MotifMatch {
	var out []MotifMatch
	for _, m := range motifs {
		if m.CdsName != cdsName || len(m.Motif) == 0 || len(m.Motif) > len(peptide) {
			continue
		}
		pat := []byte(m.Motif)
		for i := 0; i+len(pat) <= len(peptide); i++ {
			if matchMotifAt(peptide, i, pat) {
				out = append(out, MotifMatch{
					Name:     m.Name,
					CdsName:  cdsName,
					Position: i,
					Seq:      string(peptide[i : i+len(pat)]),
				})
			}
		}
	}
	return out
}

func matchMotifAt(peptide []byte, at int, pat []byte) bool {
	for j, pc := range pat {
		c := peptide[at+j]
		if c == alphabet.AaUnknown || c == alphabet.Gap {
			return false
		}
		if pc == alphabet.AaUnknown {
			continue
		}
		if c != pc {
			return false
		}
	}
	return true
}
