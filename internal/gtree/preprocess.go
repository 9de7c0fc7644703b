package gtree

// Preprocess computes TmpMutations for every node in the tree, walking
// root-to-leaves once (spec §4.10 "Preprocess once"): each node's map
// starts as a copy of its parent's, then each branch mutation is applied —
// setting the letter if it differs from the reference, or deleting the
// entry if the mutation happens to revert exactly back to the reference
// letter (since tmp.mutations only tracks positions that still differ from
// the reference at this node).
func Preprocess(g *Tree, refSeq []byte, roots []NodeID) {
	for _, root := range roots {
		g.Nodes[root].TmpMutations = map[int]byte{}
		applyBranch(&g.Nodes[root], refSeq)
		preprocessWalk(g, root, refSeq)
	}
}

func preprocessWalk(g *Tree, root NodeID, refSeq []byte) {
	g.Walk(root, func(id NodeID, kind VisitKind) {
		if kind != Enter {
			return
		}
		parent := g.Parent(id)
		if parent == -1 {
			return // root already initialized by caller
		}
		parentMuts := g.Nodes[parent].TmpMutations
		childMuts := make(map[int]byte, len(parentMuts))
		for k, v := range parentMuts {
			childMuts[k] = v
		}
		g.Nodes[id].TmpMutations = childMuts
		applyBranch(&g.Nodes[id], refSeq)
	})
}

// applyBranch folds node's own branch mutations into its already-copied
// TmpMutations map.
func applyBranch(node *NodePayload, refSeq []byte) {
	for _, sub := range node.BranchMuts.NucMuts {
		pos := sub.Pos.Int()
		if pos >= 0 && pos < len(refSeq) && sub.QryNuc == refSeq[pos] {
			delete(node.TmpMutations, pos)
		} else {
			node.TmpMutations[pos] = sub.QryNuc
		}
	}
}
