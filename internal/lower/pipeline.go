// Package lower implements the staged lowering pipeline: a fixed sequence
// of graph rewrites that converts a normalized high-level graph into a
// structural netlist of streaming hardware blocks, verifying semantic
// equivalence against the pre-lowering graph at each gated stage boundary.
package lower

import (
	"context"
	"fmt"

	"github.com/surajkarki66/edge-AI/internal/execute"
	"github.com/surajkarki66/edge-AI/internal/graph"
	"github.com/surajkarki66/edge-AI/internal/transform"
)

// Stage is one pipeline step: a set of passes driven to a fixed point,
// optionally followed by a semantic-equivalence verification gate.
type Stage struct {
	Name   string
	Passes []transform.Transformation
	Verify bool
}

// Pipeline lowers a graph stage by stage. The zero value is not usable;
// construct with New or from a Config.
type Pipeline struct {
	Engine    *transform.Engine
	Stages    []Stage
	Resources ResourceModel

	// Tolerance bounds the elementwise deviation the verification gates
	// accept.
	Tolerance float64
	// ProbeSeed makes the verification input set reproducible.
	ProbeSeed int64
}

// DefaultTolerance for the verification gates. Lowering only rearranges
// float32 arithmetic, so deviations stay near machine epsilon.
const DefaultTolerance = 1e-5

// New creates the standard lowering pipeline against a resource model.
func New(res ResourceModel) *Pipeline {
	return &Pipeline{
		Engine:    transform.NewEngine(),
		Stages:    DefaultStages(res),
		Resources: res,
		Tolerance: DefaultTolerance,
	}
}

// DefaultStages returns the canonical stage sequence.
func DefaultStages(res ResourceModel) []Stage {
	return []Stage{
		{Name: "convert", Passes: []transform.Transformation{ConvertToHWBlocks{}}, Verify: true},
		{Name: "folding", Passes: []transform.Transformation{SetFolding{Resources: res}}, Verify: true},
		{Name: "width_converters", Passes: []transform.Transformation{InsertStreamWidthConverters{}}, Verify: true},
		{Name: "fifos", Passes: []transform.Transformation{InsertFIFOs{Resources: res}}, Verify: true},
	}
}

// Run lowers the graph in place. The backend serves both the stage passes
// that evaluate nodes and the verification gates. Returns a StalledError
// when the terminal state is not reached, and a plain error when a gate
// detects divergence.
func (p *Pipeline) Run(ctx context.Context, g *graph.Graph, backend execute.Backend) error {
	probes, err := ProbeInputs(g, p.ProbeSeed)
	if err != nil {
		return fmt.Errorf("building probe inputs: %w", err)
	}
	reference, err := execute.Run(g, probes, backend)
	if err != nil {
		return fmt.Errorf("executing pre-lowering graph: %w", err)
	}

	for _, stage := range p.Stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stage %s: %w", stage.Name, err)
		}
		if err := p.Engine.RunToFixedPoint(ctx, g, stage.Passes...); err != nil {
			return fmt.Errorf("stage %s: %w", stage.Name, err)
		}
		if stage.Verify {
			if err := p.verify(g, backend, probes, reference, stage.Name); err != nil {
				return err
			}
		}
	}

	return CheckTerminal(g, "terminal")
}

// verify executes the lowered graph on the probe inputs and compares every
// output against the pre-lowering reference.
func (p *Pipeline) verify(g *graph.Graph, backend execute.Backend,
	probes, reference map[string]*execute.Tensor, stage string) error {
	got, err := execute.Run(g, probes, backend)
	if err != nil {
		return fmt.Errorf("stage %s: verification run: %w", stage, err)
	}
	for _, name := range g.Outputs() {
		ref, ok := reference[name]
		if !ok {
			return fmt.Errorf("stage %s: output %q missing from reference", stage, name)
		}
		if !ref.AllClose(got[name], p.Tolerance) {
			return fmt.Errorf("stage %s: output %q diverged from pre-lowering graph", stage, name)
		}
	}
	return nil
}
