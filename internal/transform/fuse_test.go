package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surajkarki66/edge-AI/internal/backend/cpu"
	"github.com/surajkarki66/edge-AI/internal/dtype"
	"github.com/surajkarki66/edge-AI/internal/execute"
	"github.com/surajkarki66/edge-AI/internal/graph"
	"github.com/surajkarki66/edge-AI/internal/transform"
)

// adderGraph is the three-adder setup: Add1 feeds Add2 in a chain, Add3
// sits on a fork of the graph input and is not part of the chain.
//
//	in1 ─┬─ Add1 ── t1 ── Add2 ── sum_out
//	in2 ─┘                 │
//	in3 ──────────────────-┘
//	in1 ─┬─ Add3 ── side_out
//	in4 ─┘
func adderGraph() *graph.Graph {
	g := graph.New("adders")
	shape := graph.Shape{1, 4}
	for _, name := range []string{"in1", "in2", "in3", "in4"} {
		g.AddInput(name, shape, dtype.Float32)
	}
	g.AddNode(graph.NewNode(graph.OpAdd, "Add1", []string{"in1", "in2"}, []string{"t1"}))
	g.AddNode(graph.NewNode(graph.OpAdd, "Add2", []string{"t1", "in3"}, []string{"sum_out"}))
	g.AddNode(graph.NewNode(graph.OpAdd, "Add3", []string{"in1", "in4"}, []string{"side_out"}))
	g.AddOutput("sum_out")
	g.AddOutput("side_out")
	return g
}

func adderInputs(t *testing.T) map[string]*execute.Tensor {
	t.Helper()
	mk := func(vals ...float32) *execute.Tensor {
		tensor, err := execute.NewTensor(graph.Shape{1, 4}, vals)
		require.NoError(t, err)
		return tensor
	}
	return map[string]*execute.Tensor{
		"in1": mk(1, 2, 3, 4),
		"in2": mk(10, 20, 30, 40),
		"in3": mk(100, 200, 300, 400),
		"in4": mk(-1, -2, -3, -4),
	}
}

func TestIdentifyAdderNodes(t *testing.T) {
	g := adderGraph()
	names := []string{}
	for _, n := range transform.IdentifyAdderNodes(g) {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Add1", "Add2", "Add3"}, names)
}

func TestFuseChainedAddPair(t *testing.T) {
	g := adderGraph()
	inputs := adderInputs(t)
	before, err := execute.Run(g, inputs, cpu.New())
	require.NoError(t, err)

	pass := transform.FuseChainedAdds()
	changed, err := pass.Apply(g)
	require.NoError(t, err)
	require.True(t, changed)

	// Exactly one rewrite: the Add1/Add2 chain becomes one Sum, Add3 stays.
	require.Equal(t, 2, g.NumNodes())
	fused := g.Nodes()[0]
	assert.Equal(t, graph.OpSum, fused.OpType)
	assert.ElementsMatch(t, []string{"in1", "in2", "in3"}, fused.Inputs)
	assert.Equal(t, []string{"sum_out"}, fused.Outputs)

	side := g.Nodes()[1]
	assert.Equal(t, "Add3", side.Name)
	assert.Equal(t, []string{"in1", "in4"}, side.Inputs)

	// Nothing further to fuse.
	changed, err = pass.Apply(g)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, g.Validate())

	after, err := execute.Run(g, inputs, cpu.New())
	require.NoError(t, err)
	for _, name := range g.Outputs() {
		assert.True(t, before[name].AllClose(after[name], 1e-6),
			"output %s diverged after fusion", name)
	}
}

func TestFuseGrowsSumIncrementally(t *testing.T) {
	// in1+in2 -> +in3 -> +in4: two engine-driven rewrites collapse the
	// whole chain into a single four-input Sum.
	g := graph.New("deep")
	shape := graph.Shape{1, 2}
	for _, name := range []string{"in1", "in2", "in3", "in4"} {
		g.AddInput(name, shape, dtype.Float32)
	}
	g.AddNode(graph.NewNode(graph.OpAdd, "a0", []string{"in1", "in2"}, []string{"t0"}))
	g.AddNode(graph.NewNode(graph.OpAdd, "a1", []string{"t0", "in3"}, []string{"t1"}))
	g.AddNode(graph.NewNode(graph.OpAdd, "a2", []string{"t1", "in4"}, []string{"out"}))
	g.AddOutput("out")

	pass := transform.FuseChainedAdds()
	for i := 0; i < 2; i++ {
		changed, err := pass.Apply(g)
		require.NoError(t, err)
		require.True(t, changed, "rewrite %d", i)
	}
	changed, err := pass.Apply(g)
	require.NoError(t, err)
	assert.False(t, changed)

	require.Equal(t, 1, g.NumNodes())
	fused := g.Nodes()[0]
	assert.Equal(t, graph.OpSum, fused.OpType)
	assert.ElementsMatch(t, []string{"in1", "in2", "in3", "in4"}, fused.Inputs)
	assert.Equal(t, []string{"out"}, fused.Outputs)
}

func TestFuseSkipsForkedConnectingTensor(t *testing.T) {
	// t1 forks to Add2 and Abs, so the Add1/Add2 pair must not fuse.
	g := graph.New("forked")
	shape := graph.Shape{1, 2}
	for _, name := range []string{"in1", "in2", "in3"} {
		g.AddInput(name, shape, dtype.Float32)
	}
	g.AddNode(graph.NewNode(graph.OpAdd, "Add1", []string{"in1", "in2"}, []string{"t1"}))
	g.AddNode(graph.NewNode(graph.OpAdd, "Add2", []string{"t1", "in3"}, []string{"out"}))
	g.AddNode(graph.NewNode(graph.OpAbs, "Abs1", []string{"t1"}, []string{"abs_out"}))
	g.AddOutput("out")
	g.AddOutput("abs_out")

	changed, err := transform.FuseChainedAdds().Apply(g)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 3, g.NumNodes())
}

func TestFuseSkipsGraphOutputConnectingTensor(t *testing.T) {
	g := graph.New("output-tap")
	shape := graph.Shape{1, 2}
	for _, name := range []string{"in1", "in2", "in3"} {
		g.AddInput(name, shape, dtype.Float32)
	}
	g.AddNode(graph.NewNode(graph.OpAdd, "Add1", []string{"in1", "in2"}, []string{"t1"}))
	g.AddNode(graph.NewNode(graph.OpAdd, "Add2", []string{"t1", "in3"}, []string{"out"}))
	g.AddOutput("t1")
	g.AddOutput("out")

	changed, err := transform.FuseChainedAdds().Apply(g)
	require.NoError(t, err)
	assert.False(t, changed)
}
