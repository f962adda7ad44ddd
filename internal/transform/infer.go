package transform

import (
	"fmt"

	"github.com/surajkarki66/edge-AI/internal/dtype"
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// InferShapes propagates tensor shapes forward through the node sequence.
// Nodes whose input shapes are not yet known are skipped and picked up on
// the next engine iteration.
type InferShapes struct{}

// Name implements Transformation.
func (InferShapes) Name() string { return "InferShapes" }

// Apply implements Transformation.
func (InferShapes) Apply(g *graph.Graph) (bool, error) {
	changed := false
	for _, n := range g.Nodes() {
		outShape, ok, err := nodeOutputShape(g, n)
		if err != nil {
			return changed, err
		}
		if !ok {
			continue
		}
		for _, out := range n.Outputs {
			if out == "" {
				continue
			}
			current, has := g.TensorShape(out)
			if has && current.Equal(outShape) {
				continue
			}
			g.SetTensorShape(out, outShape)
			changed = true
		}
	}
	return changed, nil
}

// nodeOutputShape computes the common output shape of a node from its
// input shapes. ok=false when inputs are not yet resolved.
func nodeOutputShape(g *graph.Graph, n *graph.Node) (graph.Shape, bool, error) {
	if len(n.Inputs) == 0 {
		return nil, false, nil
	}
	first, ok := g.TensorShape(n.Inputs[0])
	if !ok {
		return nil, false, nil
	}

	switch n.OpType {
	case graph.OpMatMul, graph.OpMVAU:
		if len(n.Inputs) < 2 {
			return nil, false, fmt.Errorf("node %q: %s needs a weight input", n.Name, n.OpType)
		}
		weights, ok := g.TensorShape(n.Inputs[1])
		if !ok {
			return nil, false, nil
		}
		if len(weights) != 2 {
			return nil, false, fmt.Errorf("node %q: weight shape %v is not 2-D", n.Name, weights)
		}
		if len(first) == 1 {
			return graph.Shape{weights[1]}, true, nil
		}
		if len(first) != 2 {
			return nil, false, fmt.Errorf("node %q: data shape %v is not 2-D", n.Name, first)
		}
		return graph.Shape{first[0], weights[1]}, true, nil
	default:
		// Elementwise, thresholding and transport ops keep the data
		// operand's shape.
		return first, true, nil
	}
}

// InferDataTypes resolves each output's element datatype to the narrowest
// type implied by its producer, propagating forward through the node
// sequence.
type InferDataTypes struct{}

// Name implements Transformation.
func (InferDataTypes) Name() string { return "InferDataTypes" }

// Apply implements Transformation.
func (InferDataTypes) Apply(g *graph.Graph) (bool, error) {
	changed := false
	for _, n := range g.Nodes() {
		dt, ok, err := nodeOutputDataType(g, n)
		if err != nil {
			return changed, err
		}
		if !ok {
			continue
		}
		for _, out := range n.Outputs {
			if out == "" || g.TensorDataType(out) == dt {
				continue
			}
			g.SetTensorDataType(out, dt)
			changed = true
		}
	}
	return changed, nil
}

//nolint:gocognit // per-operator range arithmetic.
func nodeOutputDataType(g *graph.Graph, n *graph.Node) (dtype.DataType, bool, error) {
	switch n.OpType {
	case graph.OpMultiThreshold, graph.OpThresholding:
		return thresholdOutputType(g, n)

	case graph.OpMVAU:
		// With thresholds wired the activation decides; otherwise the
		// accumulator range does.
		if len(n.Inputs) >= 3 && n.Inputs[2] != "" {
			return thresholdOutputType(g, n)
		}
		return matMulOutputType(g, n)

	case graph.OpMatMul:
		return matMulOutputType(g, n)

	case graph.OpAdd, graph.OpAddStreams, graph.OpSum:
		lo, hi := 0.0, 0.0
		for _, in := range n.Inputs {
			dt := g.TensorDataType(in)
			if dt == dtype.Unknown {
				return dtype.Unknown, false, nil
			}
			if !dt.IsInteger() {
				return dtype.Float32, true, nil
			}
			lo += dt.Min()
			hi += dt.Max()
		}
		return dtype.SmallestIntType(lo, hi), true, nil

	case graph.OpMul, graph.OpChannelwiseOp:
		dts := make([]dtype.DataType, 0, 2)
		for _, in := range n.Inputs {
			dt := g.TensorDataType(in)
			if dt == dtype.Unknown {
				return dtype.Unknown, false, nil
			}
			if !dt.IsInteger() {
				return dtype.Float32, true, nil
			}
			dts = append(dts, dt)
		}
		if len(dts) != 2 {
			return dtype.Unknown, false, nil
		}
		lo, hi := productRange(dts[0], dts[1])
		return dtype.SmallestIntType(lo, hi), true, nil

	case graph.OpAbs:
		dt := g.TensorDataType(n.Inputs[0])
		if dt == dtype.Unknown {
			return dtype.Unknown, false, nil
		}
		if !dt.IsInteger() {
			return dtype.Float32, true, nil
		}
		hi := dt.Max()
		if -dt.Min() > hi {
			hi = -dt.Min()
		}
		return dtype.SmallestIntType(0, hi), true, nil

	case graph.OpRound, graph.OpIdentity, graph.OpStreamWidthConverter, graph.OpFIFO:
		dt := g.TensorDataType(n.Inputs[0])
		if dt == dtype.Unknown {
			return dtype.Unknown, false, nil
		}
		return dt, true, nil

	default:
		return dtype.Unknown, false, nil
	}
}

// thresholdOutputType derives the output type of a thresholding activation:
// an explicit out_dtype attribute wins, bipolar scaling is recognized, and
// otherwise the level count implies an unsigned type.
func thresholdOutputType(g *graph.Graph, n *graph.Node) (dtype.DataType, bool, error) {
	if s := n.Attrs.StringOr("out_dtype", ""); s != "" {
		dt, err := dtype.Parse(s)
		if err != nil {
			return dtype.Unknown, false, fmt.Errorf("node %q: %w", n.Name, err)
		}
		return dt, true, nil
	}
	if n.Attrs.FloatOr("out_scale", 1) == 2 && n.Attrs.FloatOr("out_bias", 0) == -1 {
		return dtype.Bipolar, true, nil
	}

	thresholdInput := n.Inputs[len(n.Inputs)-1]
	shape, ok := g.TensorShape(thresholdInput)
	if !ok || len(shape) != 2 {
		return dtype.Unknown, false, nil
	}
	levels := shape[1]
	return dtype.SmallestIntType(0, float64(levels)), true, nil
}

func matMulOutputType(g *graph.Graph, n *graph.Node) (dtype.DataType, bool, error) {
	if len(n.Inputs) < 2 {
		return dtype.Unknown, false, nil
	}
	a := g.TensorDataType(n.Inputs[0])
	b := g.TensorDataType(n.Inputs[1])
	if a == dtype.Unknown || b == dtype.Unknown {
		return dtype.Unknown, false, nil
	}
	if !a.IsInteger() || !b.IsInteger() {
		return dtype.Float32, true, nil
	}
	aShape, ok := g.TensorShape(n.Inputs[0])
	if !ok {
		return dtype.Unknown, false, nil
	}
	k := float64(aShape[len(aShape)-1])
	lo, hi := productRange(a, b)
	return dtype.SmallestIntType(k*lo, k*hi), true, nil
}

// productRange returns the value range of x*y over both operand ranges.
func productRange(a, b dtype.DataType) (lo, hi float64) {
	candidates := []float64{
		a.Min() * b.Min(), a.Min() * b.Max(),
		a.Max() * b.Min(), a.Max() * b.Max(),
	}
	lo, hi = candidates[0], candidates[0]
	for _, c := range candidates[1:] {
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	return lo, hi
}
