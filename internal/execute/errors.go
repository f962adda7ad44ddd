package execute

import (
	"errors"
	"fmt"

	"github.com/surajkarki66/edge-AI/internal/dtype"
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// Common errors.
var (
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrDatatypeMismatch = errors.New("datatype mismatch")
	ErrExecution        = errors.New("execution failed")
)

// ShapeMismatchError reports a caller-supplied input missing or inconsistent
// with the registry. Got is nil when the input was absent.
type ShapeMismatchError struct {
	Tensor string
	Want   graph.Shape
	Got    graph.Shape
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	if e.Got == nil {
		return fmt.Sprintf("shape mismatch: input %q not provided (want %v)", e.Tensor, e.Want)
	}
	return fmt.Sprintf("shape mismatch: input %q has shape %v, registry wants %v", e.Tensor, e.Got, e.Want)
}

// Is reports whether the target is the shape-mismatch sentinel.
func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// DatatypeMismatchError reports a value outside the annotated element
// datatype's range.
type DatatypeMismatchError struct {
	Tensor   string
	DataType dtype.DataType
	Value    float32
}

// Error implements the error interface.
func (e *DatatypeMismatchError) Error() string {
	return fmt.Sprintf("datatype mismatch: tensor %q value %v not representable as %s",
		e.Tensor, e.Value, e.DataType)
}

// Is reports whether the target is the datatype-mismatch sentinel.
func (e *DatatypeMismatchError) Is(target error) bool { return target == ErrDatatypeMismatch }

// ExecutionError reports a backend failure, carrying the offending node.
type ExecutionError struct {
	Node string
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed at node %q (%s): %v", e.Node, e.Op, e.Err)
}

// Unwrap returns the backend error.
func (e *ExecutionError) Unwrap() error { return e.Err }

// Is reports whether the target is the execution sentinel.
func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }
