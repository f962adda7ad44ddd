package graph

// Operator type tags used by the core. The enumeration is open: a node may
// carry any op type, these are the ones the reference backend and the
// lowering stages know about.
const (
	OpAdd            = "Add"
	OpMul            = "Mul"
	OpMatMul         = "MatMul"
	OpAbs            = "Abs"
	OpRound          = "Round"
	OpSum            = "Sum"
	OpMultiThreshold = "MultiThreshold"
	OpIdentity       = "Identity"

	// Streaming hardware block op types produced by lowering.
	OpMVAU                 = "MVAU"
	OpThresholding         = "Thresholding"
	OpAddStreams           = "AddStreams"
	OpChannelwiseOp        = "ChannelwiseOp"
	OpStreamWidthConverter = "StreamWidthConverter"
	OpFIFO                 = "FIFO"
)

// Node is a single operation instance. It references tensors by name only;
// the owning Graph holds the tensor registry.
type Node struct {
	Name    string
	OpType  string
	Inputs  []string
	Outputs []string
	Attrs   Attributes
}

// NewNode creates a node with the given op type, name and tensor names.
func NewNode(opType, name string, inputs, outputs []string) *Node {
	return &Node{
		Name:    name,
		OpType:  opType,
		Inputs:  append([]string(nil), inputs...),
		Outputs: append([]string(nil), outputs...),
	}
}

// HasInput reports whether the node reads the tensor.
func (n *Node) HasInput(name string) bool {
	for _, in := range n.Inputs {
		if in == name {
			return true
		}
	}
	return false
}

// HasOutput reports whether the node writes the tensor.
func (n *Node) HasOutput(name string) bool {
	for _, out := range n.Outputs {
		if out == name {
			return true
		}
	}
	return false
}

// ReplaceInput swaps every occurrence of old in the input list for new.
// Returns the number of replacements.
func (n *Node) ReplaceInput(old, new string) int {
	count := 0
	for i, in := range n.Inputs {
		if in == old {
			n.Inputs[i] = new
			count++
		}
	}
	return count
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := NewNode(n.OpType, n.Name, n.Inputs, n.Outputs)
	c.Attrs = n.Attrs.Clone()
	return c
}
