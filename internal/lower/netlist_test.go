package lower_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surajkarki66/edge-AI/internal/backend/cpu"
	"github.com/surajkarki66/edge-AI/internal/graph"
	"github.com/surajkarki66/edge-AI/internal/lower"
)

func TestBuildNetlistFromLoweredGraph(t *testing.T) {
	g := thresholdMLP()
	p := lower.New(lower.DefaultResources())
	require.NoError(t, p.Run(context.Background(), g, cpu.New()))

	n, err := lower.BuildNetlist(g)
	require.NoError(t, err)

	require.Len(t, n.Instances, 1)
	mvau := n.Instances[0]
	assert.Equal(t, graph.OpMVAU, mvau.Block)
	// Weights and thresholds are baked parameters, only the data stream
	// remains.
	require.Len(t, mvau.Inputs, 1)
	assert.Equal(t, 8, mvau.Inputs[0].Width)
	require.Len(t, mvau.Outputs, 1)
	assert.Equal(t, 4, mvau.Outputs[0].Width)
	assert.Equal(t, int64(4), mvau.Params["pe"])
	assert.Equal(t, int64(8), mvau.Params["simd"])

	require.Len(t, n.TopInputs, 1)
	assert.Equal(t, "in", n.TopInputs[0].Name)
	require.Len(t, n.TopOutputs, 1)
	assert.Equal(t, "out", n.TopOutputs[0].Name)

	// top.in -> MVAU.in0 and MVAU.out0 -> top.out.
	require.Len(t, n.Connections, 2)
	assert.Equal(t, "top", n.Connections[0].FromInstance)
	assert.Equal(t, mvau.Name, n.Connections[0].ToInstance)
	assert.Equal(t, mvau.Name, n.Connections[1].FromInstance)
	assert.Equal(t, "top", n.Connections[1].ToInstance)
}

func TestBuildNetlistRejectsNonTerminalGraph(t *testing.T) {
	g := thresholdMLP()
	_, err := lower.BuildNetlist(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, lower.ErrLoweringStalled)
}

func TestNetlistRender(t *testing.T) {
	g := thresholdMLP()
	p := lower.New(lower.DefaultResources())
	require.NoError(t, p.Run(context.Background(), g, cpu.New()))

	n, err := lower.BuildNetlist(g)
	require.NoError(t, err)
	text := n.Render()

	assert.True(t, strings.HasPrefix(text, "netlist mlp\n"))
	assert.Contains(t, text, "input  in[8]")
	assert.Contains(t, text, "output out[4]")
	assert.Contains(t, text, ": MVAU (clk, rst, pe=4, simd=8)")
	assert.Contains(t, text, "-> top.out [4]")
}
