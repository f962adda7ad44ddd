// Package execute runs a graph against concrete tensor values using a
// pluggable numeric backend. It wires node inputs to outputs in graph order
// and surfaces backend failures with node context; the arithmetic itself
// lives in the backend.
package execute

import (
	"fmt"
	"math"

	"github.com/surajkarki66/edge-AI/internal/graph"
)

// Tensor is a concrete tensor value: a shape and a flat float32 payload in
// row-major order. Element datatypes narrower than float32 (INT4, BIPOLAR,
// ...) are carried as float32 values inside the annotated range.
type Tensor struct {
	Shape graph.Shape
	Data  []float32
}

// NewTensor creates a tensor, validating that the payload matches the shape.
func NewTensor(shape graph.Shape, data []float32) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("payload has %d elements, shape %v wants %d",
			len(data), shape, shape.NumElements())
	}
	return &Tensor{Shape: shape.Clone(), Data: data}, nil
}

// Zeros creates a zero-filled tensor.
func Zeros(shape graph.Shape) *Tensor {
	return &Tensor{Shape: shape.Clone(), Data: make([]float32, shape.NumElements())}
}

// FromInitializer wraps a registry constant as a tensor value. The payload
// is shared, not copied; backends must not mutate their inputs.
func FromInitializer(init *graph.Initializer) *Tensor {
	return &Tensor{Shape: init.Shape.Clone(), Data: init.Data}
}

// NumElements returns the element count.
func (t *Tensor) NumElements() int { return t.Shape.NumElements() }

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{Shape: t.Shape.Clone(), Data: append([]float32(nil), t.Data...)}
}

// AllClose reports whether both tensors have the same shape and elementwise
// values within tol.
func (t *Tensor) AllClose(other *Tensor, tol float64) bool {
	if other == nil || !t.Shape.Equal(other.Shape) {
		return false
	}
	for i := range t.Data {
		if math.Abs(float64(t.Data[i])-float64(other.Data[i])) > tol {
			return false
		}
	}
	return true
}
