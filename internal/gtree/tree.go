package gtree

import (
	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/variant"
)

// NodePayload is the per-node data carried by the reference tree: its
// name, assigned clade and clade-like attributes, the nucleotide/AA
// mutations on the branch leading to it, and the precomputed cumulative
// "tmp.mutations" oracle (spec §3's AuspiceGraphNodePayload.tmp.mutations).
type NodePayload struct {
	Name string
	// CladeLikeAttrs holds "clade_membership" plus any dataset-configured
	// clade-like attribute, keyed by attribute name.
	CladeLikeAttrs map[string]string
	// BranchMuts are the mutations on the branch leading to this node from
	// its parent (empty for the root).
	BranchMuts variant.BranchMutations
	// TmpMutations is, for every reference position that differs from the
	// reference along the path root->this node, the letter present at this
	// node. Computed once by Preprocess.
	TmpMutations map[int]byte
	// Unsequenced lists reference ranges this node has no coverage data
	// for; a position inside one of these ranges is never "sequenced" for
	// the purposes of private-mutation/reversion detection.
	Unsequenced []coord.RefNucRange
	// Divergence is this node's distance-from-root guess, in whatever
	// divergence unit the tree was built with (number of mutations is the
	// common case); used only as a display attribute, not placement input.
	Divergence float64
}

// EdgeData is unused payload for Graph edges in this tree (the mutation
// data that would naturally live on an edge instead lives on the child's
// NodePayload.BranchMuts, mirroring how Auspice JSON attaches
// branch_attrs to the child node it leads to).
type EdgeData struct{}

// TreeData is the whole-graph metadata carried alongside a reference tree:
// the root nucleotide sequence it was built against, if the dataset
// supplies one (spec §6 "optionally carrying a root sequence"), and the
// guessed divergence unit.
type TreeData struct {
	RootSeq []byte
	// DivergenceUnits is guessed from the maximum node divergence: small
	// maxima mean per-site rates, large ones mean mutation counts.
	DivergenceUnits string
}

// Tree is the reference tree used for nearest-node placement.
type Tree = Graph[NodePayload, EdgeData, TreeData]

// IsSequenced reports whether node has coverage data at reference position
// p (spec §4.10's "sequenced" predicate).
func IsSequenced(node *NodePayload, p coord.RefNucPos) bool {
	for _, r := range node.Unsequenced {
		if r.Contains(p) {
			return false
		}
	}
	return true
}
