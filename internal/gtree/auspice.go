package gtree

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/ncerr"
	"github.com/nextstrain-go/nextclade-go/internal/variant"
)

// auspiceNode mirrors the subset of Auspice-JSON-v2 tree nodes this engine
// reads: name, node_attrs.clade_membership (plus arbitrary clade-like
// attrs), branch_attrs.mutations.{nuc,aa}, and nested children (spec §6).
type auspiceNode struct {
	Name      string                 `json:"name"`
	NodeAttrs map[string]auspiceAttr `json:"node_attrs"`
	Branch    auspiceBranchAttrs     `json:"branch_attrs"`
	Children  []*auspiceNode         `json:"children"`
}

type auspiceAttr struct {
	Value string `json:"value"`
}

// UnmarshalJSON accepts both {"value": "..."} and a bare scalar, since
// Auspice JSON mixes both shapes across attribute keys.
func (a *auspiceAttr) UnmarshalJSON(data []byte) error {
	type alias auspiceAttr
	var v alias
	if err := json.Unmarshal(data, &v); err == nil && v.Value != "" {
		*a = auspiceAttr(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Value = s
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		a.Value = strconv.FormatFloat(f, 'g', -1, 64)
		return nil
	}
	return nil
}

type auspiceBranchAttrs struct {
	Mutations struct {
		Nuc []string            `json:"nuc"`
		Aa  map[string][]string `json:"aa"`
	} `json:"mutations"`
}

// auspiceDoc is the top-level Auspice-JSON-v2 document.
type auspiceDoc struct {
	Tree *auspiceNode `json:"tree"`
	Meta struct {
		RootSequence map[string]string `json:"root_sequence"`
	} `json:"meta"`
}

// LoadAuspice parses an Auspice-JSON-v2 reference tree (spec §6) and
// builds a preprocessed Tree: node payloads, clade/clade-like attributes,
// branch mutations parsed from "A123T"-style strings, and TmpMutations
// computed over the whole tree.
func LoadAuspice(r io.Reader, refSeq []byte) (*Tree, error) {
	var doc auspiceDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, ncerr.Wrap(ncerr.KindInputFormat, "parse reference tree", err)
	}
	if doc.Tree == nil {
		return nil, ncerr.New(ncerr.KindInputFormat, "reference tree has no root")
	}

	rootSeq := refSeq
	if nuc, ok := doc.Meta.RootSequence["nuc"]; ok && len(nuc) > 0 {
		rootSeq = []byte(nuc)
	}

	g := New[NodePayload, EdgeData, TreeData](TreeData{RootSeq: rootSeq})

	type pending struct {
		node     *auspiceNode
		parentID NodeID
	}
	stack := []pending{{node: doc.Tree, parentID: -1}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		payload, err := buildPayload(top.node)
		if err != nil {
			return nil, err
		}
		id := g.AddNode(payload)
		if top.parentID != -1 {
			g.AddEdge(top.parentID, id, EdgeData{})
		}
		for i := len(top.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, pending{node: top.node.Children[i], parentID: id})
		}
	}

	Preprocess(g, rootSeq, g.Roots())
	g.Data.DivergenceUnits = guessDivergenceUnits(g)
	return g, nil
}

// guessDivergenceUnits inspects the maximum node divergence: trees built
// with per-site rates top out well below 1 mutation-equivalent, while
// mutation-count trees reach into the tens or hundreds (spec §4.10).
func guessDivergenceUnits(g *Tree) string {
	max := 0.0
	for i := range g.Nodes {
		if d := g.Nodes[i].Divergence; d > max {
			max = d
		}
	}
	if max > 5 {
		return "mutations"
	}
	return "mutations-per-site"
}

func buildPayload(n *auspiceNode) (NodePayload, error) {
	attrs := make(map[string]string, len(n.NodeAttrs))
	for k, v := range n.NodeAttrs {
		attrs[k] = v.Value
	}

	var branch variant.BranchMutations
	branch.AaMuts = make(map[string][]variant.AaSub)
	for _, m := range n.Branch.Mutations.Nuc {
		sub, err := parseNucMutation(m)
		if err != nil {
			return NodePayload{}, err
		}
		branch.NucMuts = append(branch.NucMuts, sub)
	}
	for cds, muts := range n.Branch.Mutations.Aa {
		for _, m := range muts {
			sub, err := parseAaMutation(cds, m)
			if err != nil {
				return NodePayload{}, err
			}
			branch.AaMuts[cds] = append(branch.AaMuts[cds], sub)
		}
	}

	payload := NodePayload{
		Name:           n.Name,
		CladeLikeAttrs: attrs,
		BranchMuts:     branch,
	}
	if div, ok := attrs["div"]; ok {
		if f, err := strconv.ParseFloat(div, 64); err == nil {
			payload.Divergence = f
		}
	}
	return payload, nil
}

// parseNucMutation parses Nextclade/Auspice's "A123T" mutation notation:
// one reference letter, a 1-based position, one query letter.
func parseNucMutation(s string) (variant.NucSub, error) {
	if len(s) < 3 {
		return variant.NucSub{}, ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("malformed nuc mutation %q", s))
	}
	ref := s[0]
	qry := s[len(s)-1]
	posStr := s[1 : len(s)-1]
	pos, err := strconv.Atoi(posStr)
	if err != nil {
		return variant.NucSub{}, ncerr.Wrap(ncerr.KindInputFormat, fmt.Sprintf("malformed nuc mutation %q", s), err)
	}
	return variant.NucSub{
		Pos:    coord.New[coord.RefSpace, coord.Global, coord.NucKind](pos - 1),
		RefNuc: ref,
		QryNuc: qry,
	}, nil
}

// parseAaMutation parses "M123V"-style amino-acid mutation notation.
func parseAaMutation(cds, s string) (variant.AaSub, error) {
	if len(s) < 3 {
		return variant.AaSub{}, ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("malformed aa mutation %q", s))
	}
	ref := s[0]
	qry := s[len(s)-1]
	posStr := s[1 : len(s)-1]
	pos, err := strconv.Atoi(posStr)
	if err != nil {
		return variant.AaSub{}, ncerr.Wrap(ncerr.KindInputFormat, fmt.Sprintf("malformed aa mutation %q", s), err)
	}
	return variant.AaSub{
		CdsName: cds,
		Pos:     coord.New[coord.RefSpace, coord.Global, coord.AaKind](pos - 1),
		RefAa:   ref,
		QryAa:   qry,
	}, nil
}
