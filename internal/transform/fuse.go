package transform

import (
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// FuseAdjacentAssociative fuses a chained pair of associative nodes into a
// single variadic node. Matching walks nodes in ascending graph order and a
// node's outputs in port order; the first eligible pair is rewritten and
// the pass returns, leaving the re-scan to the engine.
//
// Precondition for a pair (first, second) connected by tensor t:
//   - both op types are in the fusable set,
//   - t is not a graph output,
//   - second is t's only consumer, and consumes it exactly once.
//
// The fused node's inputs are both nodes' inputs minus the connecting
// tensor, its output is second's output (identity preserved), and it is
// spliced at first's position. Dead registry entries are left for
// RemoveDeadTensors.
type FuseAdjacentAssociative struct {
	// Ops is the set of fusable op types.
	Ops map[string]bool
	// FusedOp is the variadic op type of the replacement node.
	FusedOp string
}

// FuseChainedAdds fuses adjacent Add (and already-fused Sum) nodes into
// variadic Sum nodes.
func FuseChainedAdds() FuseAdjacentAssociative {
	return FuseAdjacentAssociative{
		Ops:     map[string]bool{graph.OpAdd: true, graph.OpSum: true},
		FusedOp: graph.OpSum,
	}
}

// Name implements Transformation.
func (t FuseAdjacentAssociative) Name() string { return "FuseAdjacentAssociative" }

// Apply implements Transformation.
func (t FuseAdjacentAssociative) Apply(g *graph.Graph) (bool, error) {
	for _, first := range g.Nodes() {
		if !t.Ops[first.OpType] {
			continue
		}
		for _, connecting := range first.Outputs {
			if connecting == "" || g.IsOutput(connecting) {
				continue
			}
			consumers := g.Consumers(connecting)
			if len(consumers) != 1 {
				continue
			}
			second := consumers[0]
			if !t.Ops[second.OpType] || countInput(second, connecting) != 1 {
				continue
			}
			return true, t.fuse(g, first, second, connecting)
		}
	}
	return false, nil
}

func (t FuseAdjacentAssociative) fuse(g *graph.Graph, first, second *graph.Node, connecting string) error {
	inputs := make([]string, 0, len(first.Inputs)+len(second.Inputs)-1)
	inputs = append(inputs, first.Inputs...)
	for _, in := range second.Inputs {
		if in != connecting {
			inputs = append(inputs, in)
		}
	}

	fused := graph.NewNode(t.FusedOp, g.MakeUniqueNodeName(t.FusedOp), inputs, second.Outputs)
	pos := g.NodeIndex(first)

	if err := g.RemoveNode(first); err != nil {
		return err
	}
	if err := g.RemoveNode(second); err != nil {
		return err
	}
	g.InsertNodeAt(pos, fused)
	return nil
}

func countInput(n *graph.Node, name string) int {
	count := 0
	for _, in := range n.Inputs {
		if in == name {
			count++
		}
	}
	return count
}

// IdentifyAdderNodes returns all addition nodes (Add and fused Sum) in
// graph order.
func IdentifyAdderNodes(g *graph.Graph) []*graph.Node {
	var out []*graph.Node
	for _, n := range g.Nodes() {
		if n.OpType == graph.OpAdd || n.OpType == graph.OpSum {
			out = append(out, n)
		}
	}
	return out
}
