package cpu

import (
	"fmt"

	"github.com/surajkarki66/edge-AI/internal/execute"
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// matMulOp multiplies a (M,K) matrix by a (K,N) matrix. A 1-D left operand
// of length K is treated as (1,K).
func matMulOp(node *graph.Node, inputs []*execute.Tensor) ([]*execute.Tensor, error) {
	if len(inputs) != 2 || inputs[0] == nil || inputs[1] == nil {
		return nil, fmt.Errorf("requires 2 inputs, got %d", len(inputs))
	}
	a, b := inputs[0], inputs[1]

	aShape := a.Shape
	promoted := false
	if len(aShape) == 1 {
		aShape = graph.Shape{1, aShape[0]}
		promoted = true
	}
	if len(aShape) != 2 || len(b.Shape) != 2 {
		return nil, fmt.Errorf("only 2-D operands supported, got %v x %v", a.Shape, b.Shape)
	}
	m, k := aShape[0], aShape[1]
	if b.Shape[0] != k {
		return nil, fmt.Errorf("inner dimensions disagree: %v x %v", a.Shape, b.Shape)
	}
	n := b.Shape[1]

	outShape := graph.Shape{m, n}
	if promoted {
		outShape = graph.Shape{n}
	}
	out := execute.Zeros(outShape)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var acc float32
			for p := 0; p < k; p++ {
				acc += a.Data[i*k+p] * b.Data[p*n+j]
			}
			out.Data[i*n+j] = acc
		}
	}
	return []*execute.Tensor{out}, nil
}

// mvauOp is a matrix-vector-activation unit: a MatMul against the weight
// initializer, followed by thresholding when a threshold input is wired.
func mvauOp(node *graph.Node, inputs []*execute.Tensor) ([]*execute.Tensor, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("requires data and weight inputs, got %d", len(inputs))
	}
	mm, err := matMulOp(node, inputs[:2])
	if err != nil {
		return nil, err
	}
	if len(inputs) < 3 || inputs[2] == nil {
		return mm, nil
	}
	return multiThresholdOp(node, []*execute.Tensor{mm[0], inputs[2]})
}
