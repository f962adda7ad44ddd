// Package graph provides the mutable dataflow graph model: an ordered node
// sequence plus a tensor registry tracking shape, datatype and initializer
// for every named edge.
//
// Nodes reference tensors by name only. The Graph exclusively owns its node
// sequence and registry; structural edits go through the Graph so the
// registry stays consistent.
package graph

import (
	"fmt"

	"github.com/surajkarki66/edge-AI/internal/dtype"
)

// Initializer is a constant tensor value bound to a registry entry.
type Initializer struct {
	Shape Shape
	Data  []float32
}

// Clone returns a deep copy.
func (in *Initializer) Clone() *Initializer {
	if in == nil {
		return nil
	}
	return &Initializer{
		Shape: in.Shape.Clone(),
		Data:  append([]float32(nil), in.Data...),
	}
}

// tensorInfo is one registry entry.
type tensorInfo struct {
	shape    Shape
	hasShape bool
	dtype    dtype.DataType
	init     *Initializer
	sparsity string
}

// MetadataEntry is a key/value metadata property carried by the graph.
type MetadataEntry struct {
	Key   string
	Value string
}

// Graph is an ordered collection of computation nodes plus the tensor
// registry. Node order encodes an implicit topological sort.
type Graph struct {
	Name     string
	Metadata []MetadataEntry

	nodes   []*Node
	inputs  []string
	outputs []string

	tensors     map[string]*tensorInfo
	tensorOrder []string
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{
		Name:    name,
		tensors: make(map[string]*tensorInfo),
	}
}

func (g *Graph) info(name string) *tensorInfo {
	ti, ok := g.tensors[name]
	if !ok {
		ti = &tensorInfo{}
		g.tensors[name] = ti
		g.tensorOrder = append(g.tensorOrder, name)
	}
	return ti
}

// AddInput designates a graph input with its shape and datatype.
func (g *Graph) AddInput(name string, shape Shape, dt dtype.DataType) {
	g.inputs = append(g.inputs, name)
	g.SetTensorShape(name, shape)
	g.SetTensorDataType(name, dt)
}

// AddOutput designates a graph output.
func (g *Graph) AddOutput(name string) {
	g.outputs = append(g.outputs, name)
	g.info(name)
}

// Inputs returns the designated input tensor names in order.
func (g *Graph) Inputs() []string { return append([]string(nil), g.inputs...) }

// Outputs returns the designated output tensor names in order.
func (g *Graph) Outputs() []string { return append([]string(nil), g.outputs...) }

// IsInput reports whether the tensor is a designated graph input.
func (g *Graph) IsInput(name string) bool {
	for _, in := range g.inputs {
		if in == name {
			return true
		}
	}
	return false
}

// IsOutput reports whether the tensor is a designated graph output.
func (g *Graph) IsOutput(name string) bool {
	for _, out := range g.outputs {
		if out == name {
			return true
		}
	}
	return false
}

// AddNode appends a node and registers its tensors.
func (g *Graph) AddNode(n *Node) {
	g.registerNodeTensors(n)
	g.nodes = append(g.nodes, n)
}

// InsertNodeAt inserts a node at the given position in the node sequence.
// The caller must preserve the topological-order invariant.
func (g *Graph) InsertNodeAt(pos int, n *Node) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(g.nodes) {
		pos = len(g.nodes)
	}
	g.registerNodeTensors(n)
	g.nodes = append(g.nodes, nil)
	copy(g.nodes[pos+1:], g.nodes[pos:])
	g.nodes[pos] = n
}

// RemoveNode removes the node from the sequence. Registry entries for its
// tensors are left in place; dead entries are pruned by a cleanup pass.
func (g *Graph) RemoveNode(n *Node) error {
	for i, cand := range g.nodes {
		if cand == n {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownNode, n.Name)
}

func (g *Graph) registerNodeTensors(n *Node) {
	for _, name := range n.Inputs {
		if name != "" {
			g.info(name)
		}
	}
	for _, name := range n.Outputs {
		if name != "" {
			g.info(name)
		}
	}
}

// Nodes returns the node sequence. The slice must not be reordered by
// callers; use InsertNodeAt/RemoveNode for structural edits.
func (g *Graph) Nodes() []*Node { return g.nodes }

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NodeIndex returns the position of the node in the sequence, or -1.
func (g *Graph) NodeIndex(n *Node) int {
	for i, cand := range g.nodes {
		if cand == n {
			return i
		}
	}
	return -1
}

// NodeByName returns the node with the given name, or nil.
func (g *Graph) NodeByName(name string) *Node {
	for _, n := range g.nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Producer returns the unique node whose output list contains the tensor,
// or nil if the tensor is a graph input or constant. A tensor claimed by
// more than one node is structural corruption.
func (g *Graph) Producer(tensor string) (*Node, error) {
	var found *Node
	var claimants []string
	for _, n := range g.nodes {
		if n.HasOutput(tensor) {
			found = n
			claimants = append(claimants, n.Name)
		}
	}
	if len(claimants) > 1 {
		return nil, &AmbiguousGraphError{Tensor: tensor, Nodes: claimants}
	}
	return found, nil
}

// Consumers returns all nodes whose input list contains the tensor, in
// graph node order.
func (g *Graph) Consumers(tensor string) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.HasInput(tensor) {
			out = append(out, n)
		}
	}
	return out
}

// DirectSuccessors returns the consumers of each of the node's outputs, in
// output-port order then node order, without duplicates.
func (g *Graph) DirectSuccessors(n *Node) []*Node {
	var out []*Node
	seen := make(map[*Node]bool)
	for _, tensor := range n.Outputs {
		for _, succ := range g.Consumers(tensor) {
			if !seen[succ] {
				seen[succ] = true
				out = append(out, succ)
			}
		}
	}
	return out
}

// DirectPredecessors returns the producers of each of the node's inputs, in
// input-port order, without duplicates.
func (g *Graph) DirectPredecessors(n *Node) ([]*Node, error) {
	var out []*Node
	seen := make(map[*Node]bool)
	for _, tensor := range n.Inputs {
		if tensor == "" {
			continue
		}
		pred, err := g.Producer(tensor)
		if err != nil {
			return nil, err
		}
		if pred != nil && !seen[pred] {
			seen[pred] = true
			out = append(out, pred)
		}
	}
	return out, nil
}

// IsForkTensor reports whether the tensor has more than one consumer.
func (g *Graph) IsForkTensor(tensor string) bool {
	return len(g.Consumers(tensor)) > 1
}

// IsForkNode reports whether the node has more than one distinct direct
// successor.
func (g *Graph) IsForkNode(n *Node) bool {
	return len(g.DirectSuccessors(n)) > 1
}

// IsJoinNode reports whether the node's inputs come from more than one
// distinct producer.
func (g *Graph) IsJoinNode(n *Node) (bool, error) {
	preds, err := g.DirectPredecessors(n)
	if err != nil {
		return false, err
	}
	return len(preds) > 1, nil
}

// TensorNames returns all registered tensor names in registration order.
func (g *Graph) TensorNames() []string {
	return append([]string(nil), g.tensorOrder...)
}

// HasTensor reports whether the tensor is registered.
func (g *Graph) HasTensor(name string) bool {
	_, ok := g.tensors[name]
	return ok
}

// TensorShape returns the registered shape, or ok=false when unset.
func (g *Graph) TensorShape(name string) (Shape, bool) {
	ti, ok := g.tensors[name]
	if !ok || !ti.hasShape {
		return nil, false
	}
	return ti.shape.Clone(), true
}

// SetTensorShape registers the shape. Consistency with downstream consumers
// is the transformation engine's responsibility, not checked here.
func (g *Graph) SetTensorShape(name string, shape Shape) {
	ti := g.info(name)
	ti.shape = shape.Clone()
	ti.hasShape = true
}

// TensorDataType returns the registered datatype; dtype.Unknown when unset.
func (g *Graph) TensorDataType(name string) dtype.DataType {
	if ti, ok := g.tensors[name]; ok {
		return ti.dtype
	}
	return dtype.Unknown
}

// SetTensorDataType registers the element datatype.
func (g *Graph) SetTensorDataType(name string, dt dtype.DataType) {
	g.info(name).dtype = dt
}

// Initializer returns the constant value bound to the tensor, or nil.
func (g *Graph) Initializer(name string) *Initializer {
	if ti, ok := g.tensors[name]; ok {
		return ti.init
	}
	return nil
}

// SetInitializer binds a constant value to the tensor and registers its
// shape.
func (g *Graph) SetInitializer(name string, init *Initializer) {
	ti := g.info(name)
	ti.init = init
	if init != nil {
		ti.shape = init.Shape.Clone()
		ti.hasShape = true
	}
}

// Sparsity returns the sparsity annotation, empty when unset.
func (g *Graph) Sparsity(name string) string {
	if ti, ok := g.tensors[name]; ok {
		return ti.sparsity
	}
	return ""
}

// SetSparsity records a sparsity annotation for the tensor.
func (g *Graph) SetSparsity(name, annotation string) {
	g.info(name).sparsity = annotation
}

// RemoveTensor drops the registry entry. Used by cleanup passes after the
// last reference disappears.
func (g *Graph) RemoveTensor(name string) {
	if _, ok := g.tensors[name]; !ok {
		return
	}
	delete(g.tensors, name)
	for i, cand := range g.tensorOrder {
		if cand == name {
			g.tensorOrder = append(g.tensorOrder[:i], g.tensorOrder[i+1:]...)
			break
		}
	}
}

// RenameTensor renames a registry entry and updates every node reference
// and input/output designation.
func (g *Graph) RenameTensor(old, new string) error {
	ti, ok := g.tensors[old]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTensor, old)
	}
	if old == new {
		return nil
	}
	if _, exists := g.tensors[new]; exists {
		return fmt.Errorf("tensor %q already exists", new)
	}
	delete(g.tensors, old)
	g.tensors[new] = ti
	for i, cand := range g.tensorOrder {
		if cand == old {
			g.tensorOrder[i] = new
		}
	}
	for i, cand := range g.inputs {
		if cand == old {
			g.inputs[i] = new
		}
	}
	for i, cand := range g.outputs {
		if cand == old {
			g.outputs[i] = new
		}
	}
	for _, n := range g.nodes {
		n.ReplaceInput(old, new)
		for i, out := range n.Outputs {
			if out == old {
				n.Outputs[i] = new
			}
		}
	}
	return nil
}

// MakeUniqueTensorName returns prefix, or prefix_k for the first free k.
func (g *Graph) MakeUniqueTensorName(prefix string) string {
	if !g.HasTensor(prefix) {
		return prefix
	}
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s_%d", prefix, i)
		if !g.HasTensor(name) {
			return name
		}
	}
}

// MakeUniqueNodeName returns prefix, or prefix_k for the first free k.
func (g *Graph) MakeUniqueNodeName(prefix string) string {
	if g.NodeByName(prefix) == nil {
		return prefix
	}
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s_%d", prefix, i)
		if g.NodeByName(name) == nil {
			return name
		}
	}
}

// Clone returns a deep copy. Workers mutating graphs in parallel must each
// own their copy.
func (g *Graph) Clone() *Graph {
	c := New(g.Name)
	c.Metadata = append([]MetadataEntry(nil), g.Metadata...)
	c.inputs = append([]string(nil), g.inputs...)
	c.outputs = append([]string(nil), g.outputs...)
	for _, name := range g.tensorOrder {
		ti := g.tensors[name]
		c.tensors[name] = &tensorInfo{
			shape:    ti.shape.Clone(),
			hasShape: ti.hasShape,
			dtype:    ti.dtype,
			init:     ti.init.Clone(),
			sparsity: ti.sparsity,
		}
		c.tensorOrder = append(c.tensorOrder, name)
	}
	for _, n := range g.nodes {
		c.nodes = append(c.nodes, n.Clone())
	}
	return c
}
