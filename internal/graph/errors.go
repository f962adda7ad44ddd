package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors.
var (
	ErrAmbiguousGraph     = errors.New("ambiguous graph: tensor has multiple producers")
	ErrUnknownTensor      = errors.New("unknown tensor")
	ErrUnknownNode        = errors.New("unknown node")
	ErrMissingAttribute   = errors.New("missing attribute")
	ErrWrongAttributeType = errors.New("wrong attribute type")
	ErrNotTopological     = errors.New("node order is not topological")
)

// AmbiguousGraphError reports a tensor claimed as output by more than one
// node. This is structural corruption and is never retried.
type AmbiguousGraphError struct {
	Tensor string
	Nodes  []string
}

// Error implements the error interface.
func (e *AmbiguousGraphError) Error() string {
	return fmt.Sprintf("ambiguous graph: tensor %q produced by nodes [%s]",
		e.Tensor, strings.Join(e.Nodes, ", "))
}

// Is reports whether the target is the ambiguous-graph sentinel.
func (e *AmbiguousGraphError) Is(target error) bool {
	return target == ErrAmbiguousGraph
}
