package genemap

import (
	"fmt"

	"github.com/nextstrain-go/nextclade-go/internal/ncerr"
)

// Validate checks duplicate gene/CDS names, CDSes without segments, and
// CDS length % 3; it does not check parent links. It is exposed
// separately so a GeneMap constructed programmatically
// (e.g. in tests, or after Filter) can be re-validated without re-parsing.
func Validate(m *GeneMap) error {
	geneNames := make(map[string]bool)
	cdsNames := make(map[string]bool)

	for _, g := range m.Genes {
		if geneNames[g.Name] {
			return ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("duplicate gene name %q", g.Name))
		}
		geneNames[g.Name] = true

		for _, c := range g.Cdses {
			if cdsNames[c.Name] {
				return ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("duplicate CDS name %q", c.Name))
			}
			cdsNames[c.Name] = true

			if len(c.Segments) == 0 {
				return ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("CDS %q has no segments", c.Name))
			}
			if c.Length()%3 != 0 {
				return ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("CDS %q total length %d is not a multiple of 3", c.Name, c.Length()))
			}
		}
	}
	return nil
}

// Filter retains only the CDSes named in allow (nil/empty means keep
// everything) and drops genes that become empty as a result (spec §4.2).
func Filter(m *GeneMap, allow []string) *GeneMap {
	if len(allow) == 0 {
		return m
	}
	keep := make(map[string]bool, len(allow))
	for _, n := range allow {
		keep[n] = true
	}

	out := &GeneMap{LandmarkLength: m.LandmarkLength, Circular: m.Circular}
	for _, g := range m.Genes {
		var kept []*Cds
		for _, c := range g.Cdses {
			if keep[c.Name] {
				kept = append(kept, c)
			}
		}
		if len(kept) > 0 {
			out.Genes = append(out.Genes, &Gene{Name: g.Name, Cdses: kept})
		}
	}
	return out
}
