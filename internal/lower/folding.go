package lower

import (
	"fmt"

	"github.com/surajkarki66/edge-AI/internal/graph"
)

// SetFolding chooses per-block parallelism within the resource model's
// width limits and records it on the node: pe (and simd for MVAU) plus the
// resulting in_width/out_width stream widths in elements per cycle.
// Idempotent; nodes whose shapes are not yet resolved are skipped.
type SetFolding struct {
	Resources ResourceModel
}

// Name implements transform.Transformation.
func (SetFolding) Name() string { return "SetFolding" }

// Apply implements transform.Transformation.
func (t SetFolding) Apply(g *graph.Graph) (bool, error) {
	changed := false
	for _, n := range g.Nodes() {
		var c bool
		var err error
		switch n.OpType {
		case graph.OpMVAU:
			c, err = t.foldMVAU(g, n)
		case graph.OpThresholding, graph.OpAddStreams, graph.OpChannelwiseOp:
			c, err = t.foldChannelParallel(g, n)
		}
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	return changed, nil
}

// foldMVAU folds the matrix unit: simd lanes over input channels, pe lanes
// over output channels, both capped by the block's achievable width.
func (t SetFolding) foldMVAU(g *graph.Graph, n *graph.Node) (bool, error) {
	if len(n.Inputs) < 2 {
		return false, fmt.Errorf("node %q: MVAU needs a weight input", n.Name)
	}
	wShape, ok := g.TensorShape(n.Inputs[1])
	if !ok {
		return false, nil
	}
	if len(wShape) != 2 {
		return false, fmt.Errorf("node %q: weight shape %v is not 2-D", n.Name, wShape)
	}

	max := t.Resources.For(n.OpType).MaxWidth
	simd := largestDivisor(wShape[0], max)
	pe := largestDivisor(wShape[1], max)
	return setWidths(n, map[string]int64{
		"simd":      int64(simd),
		"pe":        int64(pe),
		"in_width":  int64(simd),
		"out_width": int64(pe),
	}), nil
}

// foldChannelParallel folds an elementwise block: pe lanes over the channel
// dimension of the streamed operand.
func (t SetFolding) foldChannelParallel(g *graph.Graph, n *graph.Node) (bool, error) {
	if len(n.Inputs) == 0 {
		return false, fmt.Errorf("node %q: no data input", n.Name)
	}
	shape, ok := g.TensorShape(n.Inputs[0])
	if !ok || len(shape) == 0 {
		return false, nil
	}

	channels := shape[len(shape)-1]
	pe := largestDivisor(channels, t.Resources.For(n.OpType).MaxWidth)
	return setWidths(n, map[string]int64{
		"pe":        int64(pe),
		"in_width":  int64(pe),
		"out_width": int64(pe),
	}), nil
}

func setWidths(n *graph.Node, attrs map[string]int64) bool {
	changed := false
	for _, name := range []string{"pe", "simd", "in_width", "out_width"} {
		want, ok := attrs[name]
		if !ok {
			continue
		}
		if n.Attrs.IntOr(name, -1) != want {
			n.Attrs.SetInt(name, want)
			changed = true
		}
	}
	return changed
}

// largestDivisor returns the largest divisor of n not exceeding limit.
func largestDivisor(n, limit int) int {
	if n <= 0 {
		return 1
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	for d := limit; d > 1; d-- {
		if n%d == 0 {
			return d
		}
	}
	return 1
}
