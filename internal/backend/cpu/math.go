package cpu

import (
	"fmt"
	"math"

	"github.com/surajkarki66/edge-AI/internal/execute"
	"github.com/surajkarki66/edge-AI/internal/graph"
)

func absf(x float32) float32 { return float32(math.Abs(float64(x))) }

// roundf rounds half away from zero, matching the reference semantics of
// the Round operator.
func roundf(x float32) float32 { return float32(math.Round(float64(x))) }

// unaryElementwise lifts a scalar function to a tensor operator.
func unaryElementwise(f func(float32) float32) Handler {
	return func(node *graph.Node, inputs []*execute.Tensor) ([]*execute.Tensor, error) {
		if len(inputs) != 1 || inputs[0] == nil {
			return nil, fmt.Errorf("requires 1 input, got %d", len(inputs))
		}
		in := inputs[0]
		out := execute.Zeros(in.Shape)
		for i, v := range in.Data {
			out.Data[i] = f(v)
		}
		return []*execute.Tensor{out}, nil
	}
}

// binaryElementwise lifts a scalar function to a two-input tensor operator.
// A one-element operand broadcasts against the other operand's shape.
func binaryElementwise(f func(x, y float32) float32) Handler {
	return func(node *graph.Node, inputs []*execute.Tensor) ([]*execute.Tensor, error) {
		if len(inputs) != 2 || inputs[0] == nil || inputs[1] == nil {
			return nil, fmt.Errorf("requires 2 inputs, got %d", len(inputs))
		}
		a, b := inputs[0], inputs[1]
		switch {
		case a.Shape.Equal(b.Shape):
			out := execute.Zeros(a.Shape)
			for i := range a.Data {
				out.Data[i] = f(a.Data[i], b.Data[i])
			}
			return []*execute.Tensor{out}, nil
		case b.NumElements() == 1:
			out := execute.Zeros(a.Shape)
			for i := range a.Data {
				out.Data[i] = f(a.Data[i], b.Data[0])
			}
			return []*execute.Tensor{out}, nil
		case a.NumElements() == 1:
			out := execute.Zeros(b.Shape)
			for i := range b.Data {
				out.Data[i] = f(a.Data[0], b.Data[i])
			}
			return []*execute.Tensor{out}, nil
		default:
			return nil, fmt.Errorf("incompatible shapes %v and %v", a.Shape, b.Shape)
		}
	}
}

// sumOp adds any number of same-shaped inputs elementwise. It is the
// variadic form produced by fusing chained Add nodes.
func sumOp(node *graph.Node, inputs []*execute.Tensor) ([]*execute.Tensor, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("requires at least 1 input")
	}
	for i, in := range inputs {
		if in == nil {
			return nil, fmt.Errorf("input %d is nil", i)
		}
		if !in.Shape.Equal(inputs[0].Shape) {
			return nil, fmt.Errorf("input %d shape %v differs from %v", i, in.Shape, inputs[0].Shape)
		}
	}
	out := execute.Zeros(inputs[0].Shape)
	for _, in := range inputs {
		for i, v := range in.Data {
			out.Data[i] += v
		}
	}
	return []*execute.Tensor{out}, nil
}

// channelwiseOp applies a per-channel parameter to the data input. The
// parameter is either a scalar or a vector over the last (channel)
// dimension; the "func" attribute selects add or mul.
func channelwiseOp(node *graph.Node, inputs []*execute.Tensor) ([]*execute.Tensor, error) {
	if len(inputs) != 2 || inputs[0] == nil || inputs[1] == nil {
		return nil, fmt.Errorf("requires 2 inputs, got %d", len(inputs))
	}
	data, param := inputs[0], inputs[1]

	var f func(x, p float32) float32
	switch fn := node.Attrs.StringOr("func", "mul"); fn {
	case "mul":
		f = func(x, p float32) float32 { return x * p }
	case "add":
		f = func(x, p float32) float32 { return x + p }
	default:
		return nil, fmt.Errorf("unsupported func %q", fn)
	}

	if param.NumElements() == 1 {
		out := execute.Zeros(data.Shape)
		for i, v := range data.Data {
			out.Data[i] = f(v, param.Data[0])
		}
		return []*execute.Tensor{out}, nil
	}

	channels := data.Shape[len(data.Shape)-1]
	if param.NumElements() != channels {
		return nil, fmt.Errorf("parameter has %d elements, want %d channels", param.NumElements(), channels)
	}
	out := execute.Zeros(data.Shape)
	for i, v := range data.Data {
		out.Data[i] = f(v, param.Data[i%channels])
	}
	return []*execute.Tensor{out}, nil
}
