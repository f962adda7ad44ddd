package cpu

import (
	"fmt"

	"github.com/surajkarki66/edge-AI/internal/execute"
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// multiThresholdOp quantizes each element by counting how many of its
// channel's thresholds it reaches: out = out_scale * count + out_bias.
// Data has channels in the last dimension; thresholds are (C, T) with rows
// in ascending order. Defaults out_scale=1, out_bias=0; bipolar outputs use
// out_scale=2, out_bias=-1.
func multiThresholdOp(node *graph.Node, inputs []*execute.Tensor) ([]*execute.Tensor, error) {
	if len(inputs) != 2 || inputs[0] == nil || inputs[1] == nil {
		return nil, fmt.Errorf("requires data and threshold inputs, got %d", len(inputs))
	}
	data, thresholds := inputs[0], inputs[1]

	if len(thresholds.Shape) != 2 {
		return nil, fmt.Errorf("thresholds must be (channels, levels), got %v", thresholds.Shape)
	}
	channels, levels := thresholds.Shape[0], thresholds.Shape[1]
	if len(data.Shape) == 0 || data.Shape[len(data.Shape)-1] != channels {
		return nil, fmt.Errorf("data shape %v does not end in %d channels", data.Shape, channels)
	}

	scale := node.Attrs.FloatOr("out_scale", 1)
	bias := node.Attrs.FloatOr("out_bias", 0)

	out := execute.Zeros(data.Shape)
	for i, v := range data.Data {
		c := i % channels
		count := 0
		for t := 0; t < levels; t++ {
			if v >= thresholds.Data[c*levels+t] {
				count++
			}
		}
		out.Data[i] = scale*float32(count) + bias
	}
	return []*execute.Tensor{out}, nil
}
