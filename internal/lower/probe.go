package lower

import (
	"fmt"
	"math/rand"

	"github.com/surajkarki66/edge-AI/internal/dtype"
	"github.com/surajkarki66/edge-AI/internal/execute"
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// ProbeInputs generates a deterministic input set for the verification
// gates. Values are drawn inside each input's annotated datatype range so
// the probes pass datatype checking on both the original and the lowered
// graph.
func ProbeInputs(g *graph.Graph, seed int64) (map[string]*execute.Tensor, error) {
	rng := rand.New(rand.NewSource(seed))
	inputs := make(map[string]*execute.Tensor)
	for _, name := range g.Inputs() {
		shape, ok := g.TensorShape(name)
		if !ok {
			return nil, fmt.Errorf("graph input %q has no shape", name)
		}
		t := execute.Zeros(shape)
		fill(rng, g.TensorDataType(name), t.Data)
		inputs[name] = t
	}
	return inputs, nil
}

func fill(rng *rand.Rand, dt dtype.DataType, data []float32) {
	for i := range data {
		switch {
		case dt == dtype.Bipolar:
			data[i] = float32(2*rng.Intn(2) - 1)
		case dt == dtype.Binary:
			data[i] = float32(rng.Intn(2))
		case dt.IsInteger():
			lo, hi := dt.Min(), dt.Max()
			data[i] = float32(lo + float64(rng.Int63n(int64(hi-lo)+1)))
		default:
			data[i] = rng.Float32()*2 - 1
		}
	}
}
