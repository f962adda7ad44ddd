package graph

import (
	"github.com/surajkarki66/edge-AI/internal/dtype"
	"github.com/surajkarki66/edge-AI/internal/graph"
	"github.com/surajkarki66/edge-AI/internal/onnx"
)

// Graph is a mutable dataflow graph: an ordered node sequence plus the
// tensor registry.
type Graph = graph.Graph

// Node is a single operation instance referencing tensors by name.
type Node = graph.Node

// Shape is a tensor shape; all dimensions are positive.
type Shape = graph.Shape

// Attributes is an insertion-ordered attribute bag.
type Attributes = graph.Attributes

// Initializer is a constant tensor value bound to a registry entry.
type Initializer = graph.Initializer

// DataType is a tensor element datatype, including the sub-byte
// quantized types.
type DataType = dtype.DataType

// Common element datatypes. Arbitrary-width integer types come from Int
// and UInt.
var (
	Float32 = dtype.Float32
	Bipolar = dtype.Bipolar
	Binary  = dtype.Binary
)

// Operator types understood by the reference backend and the lowering
// stages. The enumeration is open: nodes may carry any op type.
const (
	OpAdd            = graph.OpAdd
	OpMul            = graph.OpMul
	OpMatMul         = graph.OpMatMul
	OpAbs            = graph.OpAbs
	OpRound          = graph.OpRound
	OpSum            = graph.OpSum
	OpMultiThreshold = graph.OpMultiThreshold
	OpIdentity       = graph.OpIdentity
)

// Errors surfaced by graph queries.
var (
	ErrAmbiguousGraph = graph.ErrAmbiguousGraph
	ErrUnknownTensor  = graph.ErrUnknownTensor
)

// AmbiguousGraphError reports a tensor claimed by multiple producers.
type AmbiguousGraphError = graph.AmbiguousGraphError

// New creates an empty graph.
func New(name string) *Graph { return graph.New(name) }

// NewNode creates a node with the given op type, name and tensor names.
func NewNode(opType, name string, inputs, outputs []string) *Node {
	return graph.NewNode(opType, name, inputs, outputs)
}

// Int returns the signed integer datatype of the given bit width (1–32).
func Int(width int) DataType { return dtype.Int(width) }

// UInt returns the unsigned integer datatype of the given bit width (1–32).
func UInt(width int) DataType { return dtype.UInt(width) }

// ParseDataType converts a canonical datatype name (INT4, BIPOLAR, ...)
// into a DataType.
func ParseDataType(s string) (DataType, error) { return dtype.Parse(s) }

// Load reads a graph from an ONNX file.
func Load(path string) (*Graph, error) { return onnx.Load(path) }

// Save writes a graph to an ONNX file. Node order, tensor names, shapes,
// datatypes and attributes round-trip exactly.
func Save(g *Graph, path string) error { return onnx.Save(g, path) }
