package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surajkarki66/edge-AI/internal/dtype"
)

// chainGraph builds in -> Abs(a) -> Round(b) -> out.
func chainGraph(t *testing.T) (*Graph, *Node, *Node) {
	t.Helper()
	g := New("chain")
	g.AddInput("in", Shape{1, 4}, dtype.Float32)
	abs := NewNode(OpAbs, "abs0", []string{"in"}, []string{"mid"})
	round := NewNode(OpRound, "round0", []string{"mid"}, []string{"out"})
	g.AddNode(abs)
	g.AddNode(round)
	g.AddOutput("out")
	return g, abs, round
}

func TestProducerAndConsumers(t *testing.T) {
	g, abs, round := chainGraph(t)

	p, err := g.Producer("mid")
	require.NoError(t, err)
	assert.Same(t, abs, p)

	p, err = g.Producer("in")
	require.NoError(t, err)
	assert.Nil(t, p, "graph input has no producer")

	consumers := g.Consumers("mid")
	require.Len(t, consumers, 1)
	assert.Same(t, round, consumers[0])

	assert.Empty(t, g.Consumers("out"))
}

func TestAmbiguousProducer(t *testing.T) {
	g, _, _ := chainGraph(t)
	g.AddNode(NewNode(OpAbs, "rogue", []string{"in"}, []string{"mid"}))

	_, err := g.Producer("mid")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousGraph)

	var ambiguous *AmbiguousGraphError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "mid", ambiguous.Tensor)
	assert.Len(t, ambiguous.Nodes, 2)

	assert.ErrorIs(t, g.Validate(), ErrAmbiguousGraph)
}

// A node with exactly one predecessor and one successor must come back to
// itself when walking predecessors then successors.
func TestSuccessorPredecessorRoundTrip(t *testing.T) {
	g := New("roundtrip")
	g.AddInput("in", Shape{4}, dtype.Float32)
	a := NewNode(OpAbs, "a", []string{"in"}, []string{"t0"})
	b := NewNode(OpRound, "b", []string{"t0"}, []string{"t1"})
	c := NewNode(OpAbs, "c", []string{"t1"}, []string{"out"})
	g.AddNode(a)
	g.AddNode(b)
	g.AddNode(c)
	g.AddOutput("out")

	preds, err := g.DirectPredecessors(b)
	require.NoError(t, err)
	require.Len(t, preds, 1)

	succs := g.DirectSuccessors(preds[0])
	require.Len(t, succs, 1)
	assert.Same(t, b, succs[0])
}

func TestForkAndJoin(t *testing.T) {
	g := New("forkjoin")
	g.AddInput("in1", Shape{4}, dtype.Float32)
	g.AddInput("in2", Shape{4}, dtype.Float32)
	a := NewNode(OpAbs, "a", []string{"in1"}, []string{"fa"})
	b := NewNode(OpAbs, "b", []string{"in2"}, []string{"fb"})
	join := NewNode(OpAdd, "join", []string{"fa", "fb"}, []string{"j"})
	c1 := NewNode(OpRound, "c1", []string{"j"}, []string{"o1"})
	c2 := NewNode(OpAbs, "c2", []string{"j"}, []string{"o2"})
	for _, n := range []*Node{a, b, join, c1, c2} {
		g.AddNode(n)
	}
	g.AddOutput("o1")
	g.AddOutput("o2")

	assert.True(t, g.IsForkTensor("j"))
	assert.False(t, g.IsForkTensor("fa"))
	assert.True(t, g.IsForkNode(join))
	assert.False(t, g.IsForkNode(c1))

	isJoin, err := g.IsJoinNode(join)
	require.NoError(t, err)
	assert.True(t, isJoin)

	isJoin, err = g.IsJoinNode(a)
	require.NoError(t, err)
	assert.False(t, isJoin)
}

func TestForkNodeCountsDistinctSuccessors(t *testing.T) {
	g := New("multiport")
	g.AddInput("in", Shape{4}, dtype.Float32)
	split := NewNode("Split", "split", []string{"in"}, []string{"p0", "p1"})
	sink := NewNode(OpAdd, "sink", []string{"p0", "p1"}, []string{"out"})
	g.AddNode(split)
	g.AddNode(sink)
	g.AddOutput("out")

	// Two output ports into one consumer is straight-line fan-out of 1.
	assert.False(t, g.IsForkNode(split))

	other := NewNode(OpAbs, "other", []string{"p1"}, []string{"o2"})
	g.AddNode(other)
	g.AddOutput("o2")
	assert.True(t, g.IsForkNode(split))
}

func TestInsertRemoveAndValidate(t *testing.T) {
	g, abs, round := chainGraph(t)
	require.NoError(t, g.Validate())

	// Insert an identity between abs and round.
	id := NewNode(OpIdentity, "id0", []string{"mid"}, []string{"mid2"})
	g.InsertNodeAt(1, id)
	round.Inputs[0] = "mid2"
	require.NoError(t, g.Validate())
	assert.Equal(t, 1, g.NodeIndex(id))

	require.NoError(t, g.RemoveNode(id))
	round.Inputs[0] = "mid"
	require.NoError(t, g.Validate())

	assert.Error(t, g.RemoveNode(id), "removing twice fails")
	_ = abs
}

func TestValidateDetectsOrderViolation(t *testing.T) {
	g := New("disorder")
	g.AddInput("in", Shape{4}, dtype.Float32)
	// round consumes mid but is inserted before its producer.
	g.AddNode(NewNode(OpRound, "round0", []string{"mid"}, []string{"out"}))
	g.AddNode(NewNode(OpAbs, "abs0", []string{"in"}, []string{"mid"}))
	g.AddOutput("out")

	assert.ErrorIs(t, g.Validate(), ErrNotTopological)

	require.NoError(t, g.SortTopologically())
	require.NoError(t, g.Validate())
	assert.Equal(t, "abs0", g.Nodes()[0].Name)
}

func TestSortDetectsCycle(t *testing.T) {
	g := New("cycle")
	g.AddNode(NewNode(OpAbs, "a", []string{"t2"}, []string{"t1"}))
	g.AddNode(NewNode(OpAbs, "b", []string{"t1"}, []string{"t2"}))
	assert.Error(t, g.SortTopologically())
}

func TestRegistryAccessors(t *testing.T) {
	g := New("registry")
	g.SetTensorShape("x", Shape{2, 3})
	g.SetTensorDataType("x", dtype.Int(4))

	shape, ok := g.TensorShape("x")
	require.True(t, ok)
	assert.Equal(t, Shape{2, 3}, shape)
	assert.Equal(t, dtype.Int(4), g.TensorDataType("x"))

	_, ok = g.TensorShape("missing")
	assert.False(t, ok)
	assert.Equal(t, dtype.Unknown, g.TensorDataType("missing"))

	g.SetInitializer("w", &Initializer{Shape: Shape{2}, Data: []float32{1, 2}})
	shape, ok = g.TensorShape("w")
	require.True(t, ok)
	assert.Equal(t, Shape{2}, shape)
	require.NotNil(t, g.Initializer("w"))

	g.SetSparsity("w", "dense")
	assert.Equal(t, "dense", g.Sparsity("w"))

	g.RemoveTensor("w")
	assert.False(t, g.HasTensor("w"))
	assert.Nil(t, g.Initializer("w"))
}

func TestRenameTensor(t *testing.T) {
	g, _, round := chainGraph(t)
	require.NoError(t, g.RenameTensor("mid", "abs0_out0"))

	assert.False(t, g.HasTensor("mid"))
	assert.True(t, g.HasTensor("abs0_out0"))
	assert.Equal(t, "abs0_out0", round.Inputs[0])

	p, err := g.Producer("abs0_out0")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "abs0", p.Name)

	assert.Error(t, g.RenameTensor("nope", "x"))
	assert.Error(t, g.RenameTensor("in", "out"), "target name taken")
}

func TestUniqueNames(t *testing.T) {
	g, _, _ := chainGraph(t)
	assert.Equal(t, "fresh", g.MakeUniqueTensorName("fresh"))
	assert.Equal(t, "mid_0", g.MakeUniqueTensorName("mid"))
	assert.Equal(t, "abs0_0", g.MakeUniqueNodeName("abs0"))
}

func TestCloneIsIndependent(t *testing.T) {
	g, abs, _ := chainGraph(t)
	g.SetInitializer("w", &Initializer{Shape: Shape{1}, Data: []float32{3}})
	abs.Attrs.SetInt("flag", 1)

	c := g.Clone()
	require.Equal(t, g.NumNodes(), c.NumNodes())
	require.Equal(t, g.TensorNames(), c.TensorNames())

	// Mutating the clone must not leak into the original.
	c.Nodes()[0].Name = "renamed"
	c.SetTensorDataType("in", dtype.Bipolar)
	c.Initializer("w").Data[0] = 99

	assert.Equal(t, "abs0", g.Nodes()[0].Name)
	assert.Equal(t, dtype.Float32, g.TensorDataType("in"))
	assert.Equal(t, float32(3), g.Initializer("w").Data[0])
}
