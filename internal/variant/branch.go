package variant

// BranchMutations is the set of nucleotide and per-CDS amino-acid
// mutations attached to one tree branch, sample, or comparison result
// (spec §3). It supports set-like invert/union/difference with positional
// matching semantics: two NucSub/AaSub records at the same position are
// the "same" mutation only if they also carry the same ref/qry letters;
// differing at the same position are treated as distinct entries when
// unioning, so union followed by difference round-trips exactly.
type BranchMutations struct {
	NucMuts []NucSub
	AaMuts  map[string][]AaSub // keyed by CDS name
}

func nucKey(s NucSub) [3]any { return [3]any{s.Pos.Int(), s.RefNuc, s.QryNuc} }
func aaKey(cds string, s AaSub) [4]any {
	return [4]any{cds, s.Pos.Int(), s.RefAa, s.QryAa}
}

// nucIndex returns the set of nucMuts keyed by (position, ref, qry).
func nucIndex(muts []NucSub) map[[3]any]NucSub {
	m := make(map[[3]any]NucSub, len(muts))
	for _, s := range muts {
		m[nucKey(s)] = s
	}
	return m
}

func aaIndex(byCds map[string][]AaSub) map[[4]any]AaSub {
	m := make(map[[4]any]AaSub)
	for cds, muts := range byCds {
		for _, s := range muts {
			m[aaKey(cds, s)] = s
		}
	}
	return m
}

// Split3Way partitions the positional union of left and right into three
// disjoint BranchMutations: entries present (identically) in both,
// entries only in left, and entries only in right (spec §4.10's "shared
// ⊎ only_L ⊎ only_R" three-way split, generalized beyond the
// node-vs-query case to any pair of BranchMutations).
func Split3Way(left, right BranchMutations) (shared, onlyLeft, onlyRight BranchMutations) {
	lNuc, rNuc := nucIndex(left.NucMuts), nucIndex(right.NucMuts)
	for k, s := range lNuc {
		if _, ok := rNuc[k]; ok {
			shared.NucMuts = append(shared.NucMuts, s)
		} else {
			onlyLeft.NucMuts = append(onlyLeft.NucMuts, s)
		}
	}
	for k, s := range rNuc {
		if _, ok := lNuc[k]; !ok {
			onlyRight.NucMuts = append(onlyRight.NucMuts, s)
		}
	}

	lAa, rAa := aaIndex(left.AaMuts), aaIndex(right.AaMuts)
	addAa := func(dst *BranchMutations, cds string, s AaSub) {
		if dst.AaMuts == nil {
			dst.AaMuts = make(map[string][]AaSub)
		}
		dst.AaMuts[cds] = append(dst.AaMuts[cds], s)
	}
	for k, s := range lAa {
		cds := k[0].(string)
		if _, ok := rAa[k]; ok {
			addAa(&shared, cds, s)
		} else {
			addAa(&onlyLeft, cds, s)
		}
	}
	for k, s := range rAa {
		cds := k[0].(string)
		if _, ok := lAa[k]; !ok {
			addAa(&onlyRight, cds, s)
		}
	}
	return shared, onlyLeft, onlyRight
}

// Union returns every mutation present in either a or b, deduplicating
// identical (position, ref, qry) entries.
func Union(a, b BranchMutations) BranchMutations {
	shared, onlyA, onlyB := Split3Way(a, b)
	out := BranchMutations{AaMuts: make(map[string][]AaSub)}
	out.NucMuts = append(append(out.NucMuts, shared.NucMuts...), append(onlyA.NucMuts, onlyB.NucMuts...)...)
	for _, src := range []map[string][]AaSub{shared.AaMuts, onlyA.AaMuts, onlyB.AaMuts} {
		for cds, muts := range src {
			out.AaMuts[cds] = append(out.AaMuts[cds], muts...)
		}
	}
	return out
}

// Difference returns every mutation in a that is not also in b (by
// position, ref, qry).
func Difference(a, b BranchMutations) BranchMutations {
	_, onlyA, _ := Split3Way(a, b)
	return onlyA
}

// Invert swaps ref/qry letters on every mutation, turning "mutations from
// ref to this branch" into "mutations from this branch back to ref".
func Invert(m BranchMutations) BranchMutations {
	out := BranchMutations{AaMuts: make(map[string][]AaSub)}
	for _, s := range m.NucMuts {
		out.NucMuts = append(out.NucMuts, NucSub{Pos: s.Pos, RefNuc: s.QryNuc, QryNuc: s.RefNuc})
	}
	for cds, muts := range m.AaMuts {
		for _, s := range muts {
			out.AaMuts[cds] = append(out.AaMuts[cds], AaSub{CdsName: cds, Pos: s.Pos, RefAa: s.QryAa, QryAa: s.RefAa})
		}
	}
	return out
}
