package gtree

import (
	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/variant"
)

// QuerySubs is the query's nucleotide substitutions indexed by position,
// the shape the nearest-node search and private-mutation logic both
// consume.
type QuerySubs map[int]variant.NucSub

// IndexSubs builds a QuerySubs lookup from a flat substitution list.
func IndexSubs(subs []variant.NucSub) QuerySubs {
	m := make(QuerySubs, len(subs))
	for _, s := range subs {
		m[s.Pos.Int()] = s
	}
	return m
}

// distance counts positions where the query has a substitution, the node
// is sequenced there, and the node's letter (tmp-mutation, or the
// reference letter if the node has none) disagrees with the query letter.
// Positions undetermined in the query (N) never reach here since they are
// excluded from subs before distance is computed (spec §4.10).
func distance(node *NodePayload, subs QuerySubs) int {
	d := 0
	for pos, sub := range subs {
		p := coord.New[coord.RefSpace, coord.Global, coord.NucKind](pos)
		if !IsSequenced(node, p) {
			continue
		}
		nodeLetter, ok := node.TmpMutations[pos]
		if !ok {
			nodeLetter = sub.RefNuc
		}
		if nodeLetter != sub.QryNuc {
			d++
		}
	}
	return d
}

// NearestNode runs the greedy nearest-node search from root (spec §4.10):
// at each step, descend into whichever child minimizes distance to the
// query, stopping when no child improves on the current node. Ties among
// children are broken by larger subtree size, then by stable (ascending)
// NodeID. Returns the single node this greedy walk lands on; equally-near
// siblings (if any tie the winner) are returned as well so callers can
// report the full "equally nearest" set (spec §9 Open Question: tie-break
// is stable node insertion order).
func NearestNode(g *Tree, root NodeID, subs QuerySubs) (best NodeID, tied []NodeID) {
	cur := root
	curDist := distance(&g.Nodes[cur], subs)

	for {
		children := g.Children(cur)
		if len(children) == 0 {
			break
		}

		type candidate struct {
			id       NodeID
			dist     int
			subtree  int
		}
		var cands []candidate
		bestDist := curDist
		for _, c := range children {
			d := distance(&g.Nodes[c], subs)
			cands = append(cands, candidate{id: c, dist: d, subtree: g.SubtreeSize(c)})
			if d < bestDist {
				bestDist = d
			}
		}
		if bestDist >= curDist {
			break
		}

		var winner *candidate
		for i := range cands {
			c := &cands[i]
			if c.dist != bestDist {
				continue
			}
			if winner == nil || c.subtree > winner.subtree || (c.subtree == winner.subtree && c.id < winner.id) {
				winner = c
			}
		}
		cur = winner.id
		curDist = bestDist
	}

	if parent := g.Parent(cur); parent != -1 {
		for _, c := range g.Children(parent) {
			if c != cur && distance(&g.Nodes[c], subs) == curDist {
				tied = append(tied, c)
			}
		}
	}
	return cur, tied
}
