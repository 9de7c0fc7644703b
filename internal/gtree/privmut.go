package gtree

import (
	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/variant"
)

// Label describes a category a labeled private mutation falls into (e.g.
// a known reversion hotspot, or a recurring homoplasy), looked up from a
// configured (position, letter) -> []string map (spec §4.10).
type LabelMap map[labelKey][]string

type labelKey struct {
	Pos    int
	Letter byte
}

// NewLabelMap builds a LabelMap from flat entries.
func NewLabelMap(entries map[int]map[byte][]string) LabelMap {
	m := make(LabelMap)
	for pos, byLetter := range entries {
		for letter, labels := range byLetter {
			m[labelKey{Pos: pos, Letter: letter}] = labels
		}
	}
	return m
}

func (m LabelMap) lookup(pos int, letter byte) []string {
	if m == nil {
		return nil
	}
	return m[labelKey{Pos: pos, Letter: letter}]
}

// PrivateMutations is the three-way breakdown of a query's mutations
// relative to one reference-tree node (spec §4.10): mutations the query
// has that the node's path doesn't (private subs/dels), and positions
// where the node's path has a mutation but the query's sequenced data
// shows the reference letter instead (reversions).
type PrivateMutations struct {
	PrivateSubsUnlabeled []variant.NucSub
	PrivateSubsLabeled   map[string][]variant.NucSub // labeled by category name
	PrivateDels          []variant.NucDelRange
	Reversions           []variant.NucSub
}

// NonACGTNSuppressesReversion decides, per spec §9's Open Question on
// whether non-ACGTN stretches suppress reversion detection, whether a
// position inside a non-ACGTN range can still produce a reversion. This
// implementation picks the stricter of the two source policies described
// in the spec (requiring both "is_sequenced" and "!is_non_acgtn"); see
// DESIGN.md.
const NonACGTNSuppressesReversion = true

// FindPrivateMutations computes the private-mutation breakdown of a
// query's substitutions and deletions against node (spec §4.10 steps
// 1-3). querySubs must already exclude positions where the query is N.
// nonACGTN marks ranges the query itself could not call cleanly.
func FindPrivateMutations(node *NodePayload, querySubs []variant.NucSub, queryDels []variant.NucDelRange, nonACGTN []coord.RefNucRange, labels LabelMap) PrivateMutations {
	out := PrivateMutations{PrivateSubsLabeled: make(map[string][]variant.NucSub)}

	seenQueryPos := make(map[int]bool, len(querySubs))

	for _, sub := range querySubs {
		pos := sub.Pos.Int()
		seenQueryPos[pos] = true
		nodeLetter, hasNodeMut := node.TmpMutations[pos]

		var priv *variant.NucSub
		switch {
		case !hasNodeMut:
			priv = &variant.NucSub{Pos: sub.Pos, RefNuc: sub.RefNuc, QryNuc: sub.QryNuc}
		case sub.QryNuc != nodeLetter:
			priv = &variant.NucSub{Pos: sub.Pos, RefNuc: nodeLetter, QryNuc: sub.QryNuc}
		}
		if priv == nil {
			continue
		}
		if labelsFor := labels.lookup(pos, priv.QryNuc); len(labelsFor) > 0 {
			for _, l := range labelsFor {
				out.PrivateSubsLabeled[l] = append(out.PrivateSubsLabeled[l], *priv)
			}
		} else {
			out.PrivateSubsUnlabeled = append(out.PrivateSubsUnlabeled, *priv)
		}
	}

	for _, del := range queryDels {
		for p := del.Range.Begin.Int(); p < del.Range.End.Int(); p++ {
			pos := coord.New[coord.RefSpace, coord.Global, coord.NucKind](p)
			if !IsSequenced(node, pos) {
				continue
			}
			seenQueryPos[p] = true
			if _, hasNodeMut := node.TmpMutations[p]; !hasNodeMut {
				out.PrivateDels = append(out.PrivateDels, variant.NucDelRange{
					Range: coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](p, p+1),
				})
			}
		}
	}

	return out
}

// FindPrivateMutationsWithRef is FindPrivateMutations plus reversion
// detection, which additionally needs the reference letter at each
// position (spec §4.10 step 3: "a reversion sub (m->ref)").
func FindPrivateMutationsWithRef(node *NodePayload, refSeq []byte, querySubs []variant.NucSub, queryDels []variant.NucDelRange, nonACGTN []coord.RefNucRange, labels LabelMap) PrivateMutations {
	out := FindPrivateMutations(node, querySubs, queryDels, nonACGTN, labels)

	seenQueryPos := make(map[int]bool, len(querySubs))
	for _, s := range querySubs {
		seenQueryPos[s.Pos.Int()] = true
	}
	for _, d := range queryDels {
		for p := d.Range.Begin.Int(); p < d.Range.End.Int(); p++ {
			seenQueryPos[p] = true
		}
	}

	for pos, nodeLetter := range node.TmpMutations {
		if seenQueryPos[pos] {
			continue
		}
		p := coord.New[coord.RefSpace, coord.Global, coord.NucKind](pos)
		if !IsSequenced(node, p) {
			continue
		}
		if NonACGTNSuppressesReversion && inAnyRange(nonACGTN, p) {
			continue
		}
		if pos < 0 || pos >= len(refSeq) {
			continue
		}
		refLetter := refSeq[pos]
		out.Reversions = append(out.Reversions, variant.NucSub{Pos: p, RefNuc: nodeLetter, QryNuc: refLetter})
	}
	return out
}

func inAnyRange(ranges []coord.RefNucRange, p coord.RefNucPos) bool {
	for _, r := range ranges {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// RelativeMutations computes the same private-mutation breakdown against
// an arbitrary reference node (not necessarily the nearest one), used for
// user-configured "reference nodes" (spec §4.10 "Relative mutations").
func RelativeMutations(refNode *NodePayload, refSeq []byte, querySubs []variant.NucSub, queryDels []variant.NucDelRange, nonACGTN []coord.RefNucRange) PrivateMutations {
	return FindPrivateMutationsWithRef(refNode, refSeq, querySubs, queryDels, nonACGTN, nil)
}

// FilterUnknown drops query substitutions whose query letter is N, which
// must never produce a private-mutation record (spec §4.10 step 1, §8).
func FilterUnknown(subs []variant.NucSub) []variant.NucSub {
	out := make([]variant.NucSub, 0, len(subs))
	for _, s := range subs {
		if s.QryNuc == 'N' {
			continue
		}
		out = append(out, s)
	}
	return out
}
