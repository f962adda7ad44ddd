package transform

import (
	"github.com/surajkarki66/edge-AI/internal/execute"
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// FoldConstants evaluates nodes whose inputs are all constants and replaces
// them with initializers on their output tensors. One sweep folds every
// eligible node, cascading forward in graph order, so a second application
// reports no change. The dead input constants are left for
// RemoveDeadTensors.
type FoldConstants struct {
	Backend execute.Backend
}

// Name implements Transformation.
func (FoldConstants) Name() string { return "FoldConstants" }

// Apply implements Transformation.
func (t FoldConstants) Apply(g *graph.Graph) (bool, error) {
	changed := false
	for _, n := range append([]*graph.Node(nil), g.Nodes()...) {
		if len(n.Inputs) == 0 {
			continue
		}
		inputs := make([]*execute.Tensor, len(n.Inputs))
		allConst := true
		for i, in := range n.Inputs {
			if in == "" {
				continue
			}
			init := g.Initializer(in)
			if init == nil {
				allConst = false
				break
			}
			inputs[i] = execute.FromInitializer(init)
		}
		if !allConst {
			continue
		}

		outputs, err := t.Backend.Run(n, inputs)
		if err != nil {
			// Not computable by the reference backend; leave the node
			// for a later stage to handle.
			continue
		}
		if len(outputs) < len(n.Outputs) {
			continue
		}
		for i, out := range n.Outputs {
			g.SetInitializer(out, &graph.Initializer{
				Shape: outputs[i].Shape.Clone(),
				Data:  outputs[i].Data,
			})
		}
		if err := g.RemoveNode(n); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}
