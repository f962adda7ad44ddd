package execute

import (
	"fmt"

	"github.com/surajkarki66/edge-AI/internal/dtype"
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// Backend computes single operators. Implementations must be pure and
// deterministic and must not mutate their inputs.
type Backend interface {
	// Run evaluates one node. The inputs slice matches node.Inputs
	// positionally; unused input slots are nil.
	Run(node *graph.Node, inputs []*Tensor) ([]*Tensor, error)
}

// Run evaluates the graph on the given named inputs and returns the named
// outputs. Every designated graph input must be present with a shape
// matching the registry. The graph is never mutated.
func Run(g *graph.Graph, inputs map[string]*Tensor, backend Backend) (map[string]*Tensor, error) {
	values := make(map[string]*Tensor)
	for _, name := range g.TensorNames() {
		if init := g.Initializer(name); init != nil {
			values[name] = FromInitializer(init)
		}
	}

	for _, name := range g.Inputs() {
		t, ok := inputs[name]
		want, _ := g.TensorShape(name)
		if !ok {
			return nil, &ShapeMismatchError{Tensor: name, Want: want}
		}
		if want != nil && !t.Shape.Equal(want) {
			return nil, &ShapeMismatchError{Tensor: name, Want: want, Got: t.Shape}
		}
		if err := checkDataType(name, g.TensorDataType(name), t); err != nil {
			return nil, err
		}
		values[name] = t
	}

	for _, node := range g.Nodes() {
		nodeInputs := make([]*Tensor, len(node.Inputs))
		for i, inputName := range node.Inputs {
			if inputName == "" {
				// Optional input not provided.
				continue
			}
			t, ok := values[inputName]
			if !ok {
				return nil, &ExecutionError{Node: node.Name, Op: node.OpType,
					Err: fmt.Errorf("missing input tensor %q", inputName)}
			}
			nodeInputs[i] = t
		}

		outputs, err := backend.Run(node, nodeInputs)
		if err != nil {
			return nil, &ExecutionError{Node: node.Name, Op: node.OpType, Err: err}
		}
		if len(outputs) < len(node.Outputs) {
			return nil, &ExecutionError{Node: node.Name, Op: node.OpType,
				Err: fmt.Errorf("backend produced %d outputs, node declares %d",
					len(outputs), len(node.Outputs))}
		}
		for i, outputName := range node.Outputs {
			values[outputName] = outputs[i]
		}
	}

	result := make(map[string]*Tensor)
	for _, name := range g.Outputs() {
		t, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("missing output tensor %q", name)
		}
		result[name] = t
	}
	return result, nil
}

// checkDataType verifies every value is representable in the annotated
// datatype. Unknown annotations are not checked.
func checkDataType(name string, dt dtype.DataType, t *Tensor) error {
	if dt == dtype.Unknown || dt == dtype.Float32 {
		return nil
	}
	for _, v := range t.Data {
		if !dt.Allowed(float64(v)) {
			return &DatatypeMismatchError{Tensor: name, DataType: dt, Value: v}
		}
	}
	return nil
}
