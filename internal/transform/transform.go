// Package transform provides the transformation engine: named rewrites
// applied to a graph until a fixed point, plus the normalization passes and
// structural rewrites the lowering pipeline is built from.
//
// Every Transformation reports whether it changed the graph. Normalization
// passes are idempotent: they sweep every eligible site in one call, so a
// second application reports no change. The structural fusion rewrite
// instead commits to a single rewrite per call so changes stay auditable
// and replayable, and relies on the engine to re-scan.
package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/surajkarki66/edge-AI/internal/execute"
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// Common errors.
var (
	ErrNonConvergent = errors.New("normalization did not converge")
)

// Transformation is a named rewrite of a graph.
type Transformation interface {
	// Name identifies the pass in errors and pipeline configuration.
	Name() string
	// Apply rewrites the graph in place and reports whether anything
	// changed.
	Apply(g *graph.Graph) (bool, error)
}

// NonConvergentError reports that the fixed point was not reached within
// the iteration ceiling. Pass names the last pass that still reported a
// change.
type NonConvergentError struct {
	Pass       string
	Iterations int
}

// Error implements the error interface.
func (e *NonConvergentError) Error() string {
	return fmt.Sprintf("normalization did not converge after %d iterations (last changing pass: %s)",
		e.Iterations, e.Pass)
}

// Is reports whether the target is the non-convergence sentinel.
func (e *NonConvergentError) Is(target error) bool { return target == ErrNonConvergent }

// DefaultMaxIterations bounds fixed-point iteration. Normalization passes
// converge in a handful of sweeps on well-formed graphs; hitting the
// ceiling means a pass keeps toggling state.
const DefaultMaxIterations = 64

// Engine drives transformations to a fixed point.
type Engine struct {
	MaxIterations int
}

// NewEngine creates an engine with the default iteration ceiling.
func NewEngine() *Engine {
	return &Engine{MaxIterations: DefaultMaxIterations}
}

// Apply runs a single transformation once.
func (e *Engine) Apply(g *graph.Graph, t Transformation) (bool, error) {
	changed, err := t.Apply(g)
	if err != nil {
		return false, fmt.Errorf("pass %s: %w", t.Name(), err)
	}
	return changed, nil
}

// RunToFixedPoint repeats the pass sequence while any pass reports a
// change, bounded by the iteration ceiling.
func (e *Engine) RunToFixedPoint(ctx context.Context, g *graph.Graph, passes ...Transformation) error {
	max := e.MaxIterations
	if max <= 0 {
		max = DefaultMaxIterations
	}

	lastChanged := ""
	for iter := 0; ; iter++ {
		if iter >= max {
			return &NonConvergentError{Pass: lastChanged, Iterations: iter}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		anyChanged := false
		for _, pass := range passes {
			changed, err := e.Apply(g, pass)
			if err != nil {
				return err
			}
			if changed {
				anyChanged = true
				lastChanged = pass.Name()
			}
		}
		if !anyChanged {
			return nil
		}
	}
}

// NormalizationPasses returns the standard tidy-up sequence in its
// canonical order, without the constant-folding pass: folding needs a
// numeric backend, so drivers that have one use NormalizationPassesWith.
func NormalizationPasses() []Transformation {
	return []Transformation{
		GiveUniqueNodeNames{},
		GiveReadableTensorNames{},
		InferShapes{},
		InferDataTypes{},
		RemoveIdentityOps{},
		RemoveDeadTensors{},
	}
}

// NormalizationPassesWith returns the full normalization sequence including
// constant folding against the given backend. Folding runs after inference
// and before the cleanup passes so its dead constants are pruned in the
// same sweep.
func NormalizationPassesWith(backend execute.Backend) []Transformation {
	return []Transformation{
		GiveUniqueNodeNames{},
		GiveReadableTensorNames{},
		InferShapes{},
		InferDataTypes{},
		FoldConstants{Backend: backend},
		RemoveIdentityOps{},
		RemoveDeadTensors{},
	}
}
