package transform

import (
	"fmt"

	"github.com/surajkarki66/edge-AI/internal/graph"
)

// GiveUniqueNodeNames assigns each node a canonical name derived from its
// op type and position: Add_0, Add_1, MatMul_0, ...
type GiveUniqueNodeNames struct{}

// Name implements Transformation.
func (GiveUniqueNodeNames) Name() string { return "GiveUniqueNodeNames" }

// Apply implements Transformation.
func (GiveUniqueNodeNames) Apply(g *graph.Graph) (bool, error) {
	changed := false
	counters := make(map[string]int)
	for _, n := range g.Nodes() {
		want := fmt.Sprintf("%s_%d", n.OpType, counters[n.OpType])
		counters[n.OpType]++
		if n.Name != want {
			n.Name = want
			changed = true
		}
	}
	return changed, nil
}

// GiveReadableTensorNames renames intermediate tensors after their
// producing node: <node>_out0, <node>_out1, ... Graph inputs and outputs
// keep their external names. Run after GiveUniqueNodeNames.
type GiveReadableTensorNames struct{}

// Name implements Transformation.
func (GiveReadableTensorNames) Name() string { return "GiveReadableTensorNames" }

// Apply implements Transformation.
func (GiveReadableTensorNames) Apply(g *graph.Graph) (bool, error) {
	changed := false
	for _, n := range g.Nodes() {
		for i, out := range n.Outputs {
			if out == "" || g.IsInput(out) || g.IsOutput(out) {
				continue
			}
			want := fmt.Sprintf("%s_out%d", n.Name, i)
			if out == want || g.HasTensor(want) {
				continue
			}
			if err := g.RenameTensor(out, want); err != nil {
				return changed, err
			}
			changed = true
		}
	}
	return changed, nil
}
