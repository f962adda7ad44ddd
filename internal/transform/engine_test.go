package transform_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surajkarki66/edge-AI/internal/backend/cpu"
	"github.com/surajkarki66/edge-AI/internal/dtype"
	"github.com/surajkarki66/edge-AI/internal/graph"
	"github.com/surajkarki66/edge-AI/internal/transform"
)

// togglePass flips a node attribute on every call, never converging.
type togglePass struct{}

func (togglePass) Name() string { return "Toggle" }

func (togglePass) Apply(g *graph.Graph) (bool, error) {
	n := g.Nodes()[0]
	n.Attrs.SetInt("flip", 1-n.Attrs.IntOr("flip", 0))
	return true, nil
}

// countedPass reports a change for the first few calls, then settles.
type countedPass struct {
	calls   int
	settles int
}

func (p *countedPass) Name() string { return "Counted" }

func (p *countedPass) Apply(_ *graph.Graph) (bool, error) {
	p.calls++
	return p.calls <= p.settles, nil
}

func chainGraph() *graph.Graph {
	g := graph.New("chain")
	g.AddInput("in", graph.Shape{1, 4}, dtype.Float32)
	g.AddNode(graph.NewNode(graph.OpAbs, "abs", []string{"in"}, []string{"t0"}))
	g.AddNode(graph.NewNode(graph.OpRound, "round", []string{"t0"}, []string{"out"}))
	g.AddOutput("out")
	return g
}

func TestRunToFixedPointConverges(t *testing.T) {
	g := chainGraph()
	pass := &countedPass{settles: 3}
	err := transform.NewEngine().RunToFixedPoint(context.Background(), g, pass)
	require.NoError(t, err)
	// Three changing sweeps plus one confirming sweep.
	assert.Equal(t, 4, pass.calls)
}

func TestRunToFixedPointHitsCeiling(t *testing.T) {
	g := chainGraph()
	engine := &transform.Engine{MaxIterations: 8}
	err := engine.RunToFixedPoint(context.Background(), g, togglePass{})
	require.Error(t, err)
	assert.ErrorIs(t, err, transform.ErrNonConvergent)

	var nce *transform.NonConvergentError
	require.ErrorAs(t, err, &nce)
	assert.Equal(t, "Toggle", nce.Pass)
	assert.Equal(t, 8, nce.Iterations)
}

func TestRunToFixedPointHonorsContext(t *testing.T) {
	g := chainGraph()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := transform.NewEngine().RunToFixedPoint(ctx, g, togglePass{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizationReachesFixedPoint(t *testing.T) {
	g := graph.New("messy")
	g.AddInput("in", graph.Shape{1, 4}, dtype.Float32)
	g.AddNode(graph.NewNode(graph.OpAbs, "", []string{"in"}, []string{"t0"}))
	g.AddNode(graph.NewNode(graph.OpIdentity, "", []string{"t0"}, []string{"t1"}))
	g.AddNode(graph.NewNode(graph.OpRound, "", []string{"t1"}, []string{"out"}))
	g.AddOutput("out")

	engine := transform.NewEngine()
	passes := transform.NormalizationPasses()
	require.NoError(t, engine.RunToFixedPoint(context.Background(), g, passes...))

	require.Equal(t, 2, g.NumNodes())
	assert.Equal(t, "Abs_0", g.Nodes()[0].Name)
	assert.Equal(t, "Round_0", g.Nodes()[1].Name)
	assert.Equal(t, []string{"Abs_0_out0"}, g.Nodes()[1].Inputs)

	shape, ok := g.TensorShape("out")
	require.True(t, ok)
	assert.Equal(t, graph.Shape{1, 4}, shape)

	// A normalized graph is a fixed point: every pass reports no change.
	for _, pass := range passes {
		changed, err := engine.Apply(g, pass)
		require.NoError(t, err)
		assert.False(t, changed, "pass %s changed a normalized graph", pass.Name())
	}
}

func TestNormalizationWithBackendFoldsConstants(t *testing.T) {
	g := graph.New("foldable")
	g.AddInput("in", graph.Shape{1, 2}, dtype.Float32)
	g.SetInitializer("c0", &graph.Initializer{Shape: graph.Shape{1, 2}, Data: []float32{1, 2}})
	g.SetInitializer("c1", &graph.Initializer{Shape: graph.Shape{1, 2}, Data: []float32{3, 4}})
	g.AddNode(graph.NewNode(graph.OpAdd, "", []string{"c0", "c1"}, []string{"c2"}))
	g.AddNode(graph.NewNode(graph.OpAdd, "", []string{"in", "c2"}, []string{"out"}))
	g.AddOutput("out")

	engine := transform.NewEngine()
	passes := transform.NormalizationPassesWith(cpu.New())
	require.NoError(t, engine.RunToFixedPoint(context.Background(), g, passes...))

	require.Equal(t, 1, g.NumNodes())
	folded := g.Initializer("c2")
	require.NotNil(t, folded)
	assert.Equal(t, []float32{4, 6}, folded.Data)
	// The folded node's constant operands are dead and pruned.
	assert.False(t, g.HasTensor("c0"))
	assert.False(t, g.HasTensor("c1"))
}

// failingPass exercises error propagation with pass attribution.
type failingPass struct{}

func (failingPass) Name() string { return "Failing" }

func (failingPass) Apply(_ *graph.Graph) (bool, error) {
	return false, errors.New("boom")
}

func TestEngineWrapsPassErrors(t *testing.T) {
	g := chainGraph()
	_, err := transform.NewEngine().Apply(g, failingPass{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failing")
	assert.Contains(t, err.Error(), "boom")
}
