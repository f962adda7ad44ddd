package execute_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surajkarki66/edge-AI/internal/backend/cpu"
	"github.com/surajkarki66/edge-AI/internal/dtype"
	"github.com/surajkarki66/edge-AI/internal/execute"
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// addChain builds out = (in1 + in2) + in3.
func addChain(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New("addchain")
	for _, name := range []string{"in1", "in2", "in3"} {
		g.AddInput(name, graph.Shape{2}, dtype.Float32)
	}
	g.AddNode(graph.NewNode(graph.OpAdd, "add1", []string{"in1", "in2"}, []string{"mid"}))
	g.AddNode(graph.NewNode(graph.OpAdd, "add2", []string{"mid", "in3"}, []string{"out"}))
	g.AddOutput("out")
	return g
}

func inputsFor(t *testing.T, vals ...float32) map[string]*execute.Tensor {
	t.Helper()
	out := make(map[string]*execute.Tensor)
	for i, v := range vals {
		tensor, err := execute.NewTensor(graph.Shape{2}, []float32{v, v + 1})
		require.NoError(t, err)
		out[fmt.Sprintf("in%d", i+1)] = tensor
	}
	return out
}

func TestRunSimpleGraph(t *testing.T) {
	g := addChain(t)
	outputs, err := execute.Run(g, inputsFor(t, 1, 10, 100), cpu.New())
	require.NoError(t, err)
	require.Contains(t, outputs, "out")
	assert.Equal(t, []float32{111, 114}, outputs["out"].Data)
}

func TestRunMissingInput(t *testing.T) {
	g := addChain(t)
	in := inputsFor(t, 1, 10, 100)
	delete(in, "in3")

	_, err := execute.Run(g, in, cpu.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, execute.ErrShapeMismatch)

	var mismatch *execute.ShapeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "in3", mismatch.Tensor)
	assert.Nil(t, mismatch.Got)
}

func TestRunShapeMismatch(t *testing.T) {
	g := addChain(t)
	in := inputsFor(t, 1, 10, 100)
	bad, err := execute.NewTensor(graph.Shape{3}, []float32{1, 2, 3})
	require.NoError(t, err)
	in["in2"] = bad

	_, err = execute.Run(g, in, cpu.New())
	assert.ErrorIs(t, err, execute.ErrShapeMismatch)
}

func TestRunDatatypeMismatch(t *testing.T) {
	g := graph.New("typed")
	g.AddInput("in1", graph.Shape{2}, dtype.Bipolar)
	g.AddNode(graph.NewNode(graph.OpAbs, "abs0", []string{"in1"}, []string{"out"}))
	g.AddOutput("out")

	in, err := execute.NewTensor(graph.Shape{2}, []float32{1, 0.5})
	require.NoError(t, err)
	_, err = execute.Run(g, map[string]*execute.Tensor{"in1": in}, cpu.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, execute.ErrDatatypeMismatch)
}

func TestRunBackendFailureCarriesNode(t *testing.T) {
	g := graph.New("bad")
	g.AddInput("in1", graph.Shape{2}, dtype.Float32)
	g.AddNode(graph.NewNode("Softmax", "sm0", []string{"in1"}, []string{"out"}))
	g.AddOutput("out")

	in, err := execute.NewTensor(graph.Shape{2}, []float32{1, 2})
	require.NoError(t, err)
	_, err = execute.Run(g, map[string]*execute.Tensor{"in1": in}, cpu.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, execute.ErrExecution)

	var execErr *execute.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "sm0", execErr.Node)
	assert.Equal(t, "Softmax", execErr.Op)
}

func TestRunDoesNotMutateGraph(t *testing.T) {
	g := addChain(t)
	before := g.Clone()

	_, err := execute.Run(g, inputsFor(t, 1, 10, 100), cpu.New())
	require.NoError(t, err)

	assert.Equal(t, before.NumNodes(), g.NumNodes())
	assert.Equal(t, before.TensorNames(), g.TensorNames())
	for i, n := range before.Nodes() {
		assert.Equal(t, n.Name, g.Nodes()[i].Name)
	}
}

func TestRunBatchReassociatesByIndex(t *testing.T) {
	g := addChain(t)
	const n = 17
	batch := make([]map[string]*execute.Tensor, n)
	for i := range batch {
		batch[i] = inputsFor(t, float32(i), 0, 0)
	}

	results := execute.RunBatch(context.Background(), g, batch, cpu.New(), 4)
	require.Len(t, results, n)
	for i, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, i, res.Index)
		assert.Equal(t, float32(i), res.Outputs["out"].Data[0])
	}
}

func TestRunBatchHonorsCancellation(t *testing.T) {
	g := addChain(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := []map[string]*execute.Tensor{inputsFor(t, 1, 2, 3)}
	results := execute.RunBatch(ctx, g, batch, cpu.New(), 1)
	require.Len(t, results, 1)
	assert.True(t, errors.Is(results[0].Err, context.Canceled))
}

func TestTensorHelpers(t *testing.T) {
	_, err := execute.NewTensor(graph.Shape{2, 2}, []float32{1})
	assert.Error(t, err, "payload size must match shape")

	a, err := execute.NewTensor(graph.Shape{2}, []float32{1, 2})
	require.NoError(t, err)
	b := a.Clone()
	b.Data[0] = 9
	assert.Equal(t, float32(1), a.Data[0])

	assert.True(t, a.AllClose(a, 0))
	assert.False(t, a.AllClose(b, 0.5))
	assert.True(t, a.AllClose(b, 10))
}
