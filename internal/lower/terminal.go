package lower

import (
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// CheckTerminal verifies the terminal lowering state: every node is a
// concrete hardware block with resolved stream widths and with constant
// values present for its parameter inputs. The first violation is returned
// as a StalledError naming the blocking node.
func CheckTerminal(g *graph.Graph, stage string) error {
	for _, n := range g.Nodes() {
		if !hwBlocks[n.OpType] {
			return &StalledError{Node: n.Name, Stage: stage,
				Reason: "no hardware block mapping for op " + n.OpType}
		}
		if n.Attrs.IntOr("in_width", 0) <= 0 || n.Attrs.IntOr("out_width", 0) <= 0 {
			return &StalledError{Node: n.Name, Stage: stage,
				Reason: "unresolved stream width"}
		}
		if err := checkParameters(g, n, stage); err != nil {
			return err
		}
	}
	return nil
}

// checkParameters verifies that a block's baked parameter inputs (weights,
// thresholds, channelwise constants) are initializers.
func checkParameters(g *graph.Graph, n *graph.Node, stage string) error {
	var params []string
	switch n.OpType {
	case graph.OpMVAU:
		params = n.Inputs[1:]
	case graph.OpThresholding, graph.OpChannelwiseOp:
		if len(n.Inputs) > 1 {
			params = n.Inputs[1:]
		}
	}
	for _, p := range params {
		if p == "" {
			continue
		}
		if g.Initializer(p) == nil {
			return &StalledError{Node: n.Name, Stage: stage,
				Reason: "parameter tensor " + p + " has no constant value"}
		}
	}
	return nil
}
