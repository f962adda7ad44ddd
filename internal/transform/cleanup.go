package transform

import (
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// RemoveIdentityOps excises Identity nodes, rewiring their consumers to the
// pass-through input. An identity feeding a graph output directly is kept:
// the output tensor's identity must be preserved. All eligible identities
// go in one sweep, so a second application reports no change.
type RemoveIdentityOps struct{}

// Name implements Transformation.
func (RemoveIdentityOps) Name() string { return "RemoveIdentityOps" }

// Apply implements Transformation.
func (RemoveIdentityOps) Apply(g *graph.Graph) (bool, error) {
	changed := false
	for _, n := range append([]*graph.Node(nil), g.Nodes()...) {
		if n.OpType != graph.OpIdentity || len(n.Inputs) != 1 || len(n.Outputs) != 1 {
			continue
		}
		in, out := n.Inputs[0], n.Outputs[0]
		if g.IsOutput(out) {
			continue
		}
		for _, consumer := range g.Consumers(out) {
			consumer.ReplaceInput(out, in)
		}
		if err := g.RemoveNode(n); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}

// RemoveDeadTensors prunes registry entries no node or graph input/output
// references. Structural rewrites leave their dead intermediates behind on
// purpose; this pass is the cleanup.
type RemoveDeadTensors struct{}

// Name implements Transformation.
func (RemoveDeadTensors) Name() string { return "RemoveDeadTensors" }

// Apply implements Transformation.
func (RemoveDeadTensors) Apply(g *graph.Graph) (bool, error) {
	live := make(map[string]bool)
	for _, name := range g.Inputs() {
		live[name] = true
	}
	for _, name := range g.Outputs() {
		live[name] = true
	}
	for _, n := range g.Nodes() {
		for _, in := range n.Inputs {
			live[in] = true
		}
		for _, out := range n.Outputs {
			live[out] = true
		}
	}

	changed := false
	for _, name := range g.TensorNames() {
		if !live[name] {
			g.RemoveTensor(name)
			changed = true
		}
	}
	return changed, nil
}
