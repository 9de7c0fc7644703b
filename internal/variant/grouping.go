package variant

import "sort"

// AaChangeGroup is a contiguous run of amino-acid positions in one CDS that
// each carry a substitution or a deletion (spec §4.9 "grouped adjacent AA
// changes").
type AaChangeGroup struct {
	CdsName string
	Begin   int
	End     int // exclusive
}

// GroupAdjacentAaChanges groups a CDS's substitution and deletion positions
// into maximal runs of consecutive amino-acid positions. Positions are
// deduplicated (a position can be both a substitution and, in principle,
// part of an adjacent deletion run) and sorted before grouping.
func GroupAdjacentAaChanges(cdsName string, subs []AaSub, dels []AaDelRange) []AaChangeGroup {
	positions := make(map[int]bool)
	for _, s := range subs {
		positions[s.Pos.Int()] = true
	}
	for _, d := range dels {
		for p := d.Range.Begin.Int(); p < d.Range.End.Int(); p++ {
			positions[p] = true
		}
	}
	if len(positions) == 0 {
		return nil
	}

	sorted := make([]int, 0, len(positions))
	for p := range positions {
		sorted = append(sorted, p)
	}
	sort.Ints(sorted)

	var groups []AaChangeGroup
	begin := sorted[0]
	prev := sorted[0]
	for _, p := range sorted[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		groups = append(groups, AaChangeGroup{CdsName: cdsName, Begin: begin, End: prev + 1})
		begin, prev = p, p
	}
	groups = append(groups, AaChangeGroup{CdsName: cdsName, Begin: begin, End: prev + 1})
	return groups
}
