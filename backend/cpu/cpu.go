// Package cpu provides the reference numeric backend: pure Go float32
// implementations of every operator the core executes, used both for
// running graphs directly and as the golden model behind the lowering
// pipeline's verification gates.
package cpu

import (
	internalcpu "github.com/surajkarki66/edge-AI/internal/backend/cpu"
	"github.com/surajkarki66/edge-AI/pipeline"
)

// Backend dispatches operators to reference implementations.
type Backend = internalcpu.Backend

// Compile-time check that Backend implements pipeline.Backend.
var _ pipeline.Backend = (*Backend)(nil)

// New creates a backend with all supported operators registered,
// including the streaming hardware block ops produced by lowering.
//
// Example:
//
//	backend := cpu.New()
//	outputs, err := pipeline.Run(g, inputs, backend)
func New() *Backend {
	return internalcpu.New()
}
