package pipeline

import (
	"context"

	"github.com/surajkarki66/edge-AI/internal/execute"
	"github.com/surajkarki66/edge-AI/internal/graph"
	"github.com/surajkarki66/edge-AI/internal/lower"
	"github.com/surajkarki66/edge-AI/internal/transform"
)

// Graph is the dataflow graph the pipeline operates on.
type Graph = graph.Graph

// Transformation is a named graph rewrite reporting whether it changed
// anything.
type Transformation = transform.Transformation

// Engine drives transformations to a fixed point, bounded by an iteration
// ceiling.
type Engine = transform.Engine

// Lowering is the staged pipeline converting a normalized graph into
// hardware-block form.
type Lowering = lower.Pipeline

// Stage is one lowering step with an optional verification gate.
type Stage = lower.Stage

// ResourceModel describes achievable stream widths and buffer depths per
// hardware block type.
type ResourceModel = lower.ResourceModel

// Config is the YAML-loadable form of a lowering pipeline.
type Config = lower.Config

// Netlist is the structural export of a fully lowered graph.
type Netlist = lower.Netlist

// Tensor is a concrete tensor value used by execution and verification.
type Tensor = execute.Tensor

// Backend computes single operators for execution and verification.
type Backend = execute.Backend

// BatchResult re-associates one batch entry's outputs (or failure) with
// its input index.
type BatchResult = execute.BatchResult

// Failure sentinels.
var (
	ErrNonConvergent    = transform.ErrNonConvergent
	ErrLoweringStalled  = lower.ErrLoweringStalled
	ErrShapeMismatch    = execute.ErrShapeMismatch
	ErrDatatypeMismatch = execute.ErrDatatypeMismatch
)

// NonConvergentError names the last changing pass when the iteration
// ceiling is hit.
type NonConvergentError = transform.NonConvergentError

// StalledError names the node lowering could not resolve.
type StalledError = lower.StalledError

// NewEngine creates a fixed-point engine with the default iteration
// ceiling.
func NewEngine() *Engine { return transform.NewEngine() }

// NormalizationPasses returns the standard tidy-up sequence: unique node
// names, readable tensor names, shape and datatype inference, identity
// removal, dead tensor removal. Constant folding needs a numeric backend;
// use NormalizationPassesWith to include it.
func NormalizationPasses() []Transformation { return transform.NormalizationPasses() }

// NormalizationPassesWith returns the full normalization sequence including
// constant folding against the given backend.
func NormalizationPassesWith(backend Backend) []Transformation {
	return transform.NormalizationPassesWith(backend)
}

// NewLowering creates the standard lowering pipeline against a resource
// model.
func NewLowering(res ResourceModel) *Lowering { return lower.New(res) }

// DefaultResources returns a conservative generic device model.
func DefaultResources() ResourceModel { return lower.DefaultResources() }

// LoadConfigFile reads a YAML pipeline configuration from disk.
func LoadConfigFile(path string) (Config, error) { return lower.LoadConfigFile(path) }

// BuildNetlist exports a fully lowered graph as block instances and stream
// connections.
func BuildNetlist(g *Graph) (*Netlist, error) { return lower.BuildNetlist(g) }

// ProbeInputs generates the deterministic input set the verification gates
// use, with values inside each input's annotated datatype range.
func ProbeInputs(g *Graph, seed int64) (map[string]*Tensor, error) {
	return lower.ProbeInputs(g, seed)
}

// Run executes a graph on named inputs with the given backend.
func Run(g *Graph, inputs map[string]*Tensor, backend Backend) (map[string]*Tensor, error) {
	return execute.Run(g, inputs, backend)
}

// RunBatch executes a graph over a batch of input sets in parallel,
// re-associating each result with its batch index.
func RunBatch(ctx context.Context, g *Graph, batch []map[string]*Tensor,
	backend Backend, workers int) []BatchResult {
	return execute.RunBatch(ctx, g, batch, backend, workers)
}
