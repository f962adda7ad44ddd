// Package cpu provides the reference numeric backend: plain float32
// golden-model implementations of every operator the core executes,
// including the streaming hardware block ops produced by lowering.
package cpu

import (
	"fmt"

	"github.com/surajkarki66/edge-AI/internal/execute"
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// Handler computes one operator.
type Handler func(node *graph.Node, inputs []*execute.Tensor) ([]*execute.Tensor, error)

// Backend dispatches operators to reference implementations.
type Backend struct {
	handlers map[string]Handler
}

// New creates a backend with all supported operators registered.
func New() *Backend {
	b := &Backend{handlers: make(map[string]Handler)}

	b.Register(graph.OpAdd, binaryElementwise(func(x, y float32) float32 { return x + y }))
	b.Register(graph.OpMul, binaryElementwise(func(x, y float32) float32 { return x * y }))
	b.Register(graph.OpSum, sumOp)
	b.Register(graph.OpAbs, unaryElementwise(absf))
	b.Register(graph.OpRound, unaryElementwise(roundf))
	b.Register(graph.OpMatMul, matMulOp)
	b.Register(graph.OpMultiThreshold, multiThresholdOp)
	b.Register(graph.OpIdentity, passThrough)

	// Streaming hardware blocks keep their pre-lowering numerics.
	b.Register(graph.OpAddStreams, binaryElementwise(func(x, y float32) float32 { return x + y }))
	b.Register(graph.OpThresholding, multiThresholdOp)
	b.Register(graph.OpChannelwiseOp, channelwiseOp)
	b.Register(graph.OpMVAU, mvauOp)
	b.Register(graph.OpStreamWidthConverter, passThrough)
	b.Register(graph.OpFIFO, passThrough)

	return b
}

// Register adds or replaces an operator implementation.
func (b *Backend) Register(opType string, h Handler) {
	b.handlers[opType] = h
}

// SupportedOps returns all registered operator types.
func (b *Backend) SupportedOps() []string {
	ops := make([]string, 0, len(b.handlers))
	for op := range b.handlers {
		ops = append(ops, op)
	}
	return ops
}

// Run implements execute.Backend.
func (b *Backend) Run(node *graph.Node, inputs []*execute.Tensor) ([]*execute.Tensor, error) {
	h, ok := b.handlers[node.OpType]
	if !ok {
		return nil, fmt.Errorf("unsupported operator: %s", node.OpType)
	}
	return h(node, inputs)
}

func passThrough(_ *graph.Node, inputs []*execute.Tensor) ([]*execute.Tensor, error) {
	if len(inputs) < 1 || inputs[0] == nil {
		return nil, fmt.Errorf("requires 1 input")
	}
	return []*execute.Tensor{inputs[0]}, nil
}
