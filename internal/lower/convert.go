package lower

import (
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// ConvertToHWBlocks rewrites high-level operators into their streaming
// hardware block equivalents:
//
//	MatMul                → MVAU (absorbing a directly chained
//	                        MultiThreshold as the unit's activation)
//	MultiThreshold        → Thresholding
//	Add / two-input Sum   → AddStreams
//	wider Sum             → AddStreams chain (peeled two operands at a
//	                        time)
//
//	Mul                   → ChannelwiseOp with func=mul
//
// One sweep converts every mappable node, so the fixed-point iteration
// count stays independent of graph size. Operators without a block mapping
// are left alone; the terminal check reports them as a stall.
type ConvertToHWBlocks struct{}

// Name implements transform.Transformation.
func (ConvertToHWBlocks) Name() string { return "ConvertToHWBlocks" }

// Apply implements transform.Transformation.
func (ConvertToHWBlocks) Apply(g *graph.Graph) (bool, error) {
	changed := false
	for {
		converted, err := convertNext(g)
		if err != nil {
			return changed, err
		}
		if !converted {
			return changed, nil
		}
		changed = true
	}
}

// convertNext rewrites the first mappable node, reporting whether one was
// found. Rewrites splice into the node sequence, so the scan restarts from
// the front after each one.
func convertNext(g *graph.Graph) (bool, error) {
	for _, n := range g.Nodes() {
		switch n.OpType {
		case graph.OpMatMul:
			return true, convertMatMul(g, n)
		case graph.OpMultiThreshold:
			return true, replaceOp(g, n, graph.OpThresholding)
		case graph.OpAdd:
			return true, replaceOp(g, n, graph.OpAddStreams)
		case graph.OpSum:
			if len(n.Inputs) <= 2 {
				return true, replaceOp(g, n, graph.OpAddStreams)
			}
			return true, peelSum(g, n)
		case graph.OpMul:
			if len(n.Inputs) != 2 || g.Initializer(n.Inputs[1]) == nil {
				// Not mappable onto a parameterized block; the
				// terminal check will name it.
				continue
			}
			return true, convertMul(g, n)
		}
	}
	return false, nil
}

// replaceOp swaps a node for the equivalent block with the same tensors
// and attributes.
func replaceOp(g *graph.Graph, n *graph.Node, blockType string) error {
	repl := graph.NewNode(blockType, g.MakeUniqueNodeName(blockType), n.Inputs, n.Outputs)
	repl.Attrs = n.Attrs.Clone()
	pos := g.NodeIndex(n)
	if err := g.RemoveNode(n); err != nil {
		return err
	}
	g.InsertNodeAt(pos, repl)
	return nil
}

// convertMatMul turns a MatMul into an MVAU. When the matmul result feeds
// exactly one MultiThreshold and nothing else, the activation folds into
// the unit and the threshold tensor becomes the MVAU's third input.
func convertMatMul(g *graph.Graph, n *graph.Node) error {
	acc := n.Outputs[0]
	if !g.IsOutput(acc) {
		if consumers := g.Consumers(acc); len(consumers) == 1 {
			act := consumers[0]
			if act.OpType == graph.OpMultiThreshold && act.Inputs[0] == acc {
				return fuseMatMulActivation(g, n, act)
			}
		}
	}

	mvau := graph.NewNode(graph.OpMVAU, g.MakeUniqueNodeName(graph.OpMVAU), n.Inputs, n.Outputs)
	mvau.Attrs = n.Attrs.Clone()
	pos := g.NodeIndex(n)
	if err := g.RemoveNode(n); err != nil {
		return err
	}
	g.InsertNodeAt(pos, mvau)
	return nil
}

func fuseMatMulActivation(g *graph.Graph, mm, act *graph.Node) error {
	inputs := []string{mm.Inputs[0], mm.Inputs[1], act.Inputs[1]}
	mvau := graph.NewNode(graph.OpMVAU, g.MakeUniqueNodeName(graph.OpMVAU), inputs, act.Outputs)
	mvau.Attrs = act.Attrs.Clone()

	pos := g.NodeIndex(mm)
	if err := g.RemoveNode(mm); err != nil {
		return err
	}
	if err := g.RemoveNode(act); err != nil {
		return err
	}
	g.InsertNodeAt(pos, mvau)
	return nil
}

// peelSum splits the first two operands of a wide Sum into an AddStreams
// block, leaving a narrower Sum for the next call.
func peelSum(g *graph.Graph, n *graph.Node) error {
	partial := g.MakeUniqueTensorName(n.Name + "_partial")
	adder := graph.NewNode(graph.OpAddStreams, g.MakeUniqueNodeName(graph.OpAddStreams),
		n.Inputs[:2], []string{partial})

	rest := append([]string{partial}, n.Inputs[2:]...)
	residual := graph.NewNode(graph.OpSum, g.MakeUniqueNodeName(graph.OpSum), rest, n.Outputs)

	pos := g.NodeIndex(n)
	if err := g.RemoveNode(n); err != nil {
		return err
	}
	g.InsertNodeAt(pos, adder)
	g.InsertNodeAt(pos+1, residual)
	return nil
}

// convertMul maps an elementwise Mul onto a ChannelwiseOp block. The block
// streams the first operand and applies the second as a baked parameter.
func convertMul(g *graph.Graph, n *graph.Node) error {
	repl := graph.NewNode(graph.OpChannelwiseOp, g.MakeUniqueNodeName(graph.OpChannelwiseOp),
		n.Inputs, n.Outputs)
	repl.Attrs = n.Attrs.Clone()
	repl.Attrs.SetString("func", "mul")
	pos := g.NodeIndex(n)
	if err := g.RemoveNode(n); err != nil {
		return err
	}
	g.InsertNodeAt(pos, repl)
	return nil
}
