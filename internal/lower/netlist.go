package lower

import (
	"fmt"
	"strings"

	"github.com/surajkarki66/edge-AI/internal/graph"
)

// StreamPort is one typed streaming interface of a block instance.
type StreamPort struct {
	Name  string
	Width int
}

// Instance is one hardware block in the netlist. Every instance carries
// the implicit clk and rst pins in addition to its stream ports.
type Instance struct {
	Name    string
	Block   string
	Inputs  []StreamPort
	Outputs []StreamPort
	Params  map[string]int64
}

// Connection wires one instance output port to one instance input port.
// Top-level graph inputs and outputs appear with the instance name "top".
type Connection struct {
	FromInstance string
	FromPort     string
	ToInstance   string
	ToPort       string
	Tensor       string
	Width        int
}

// Netlist is the structural export of a terminal graph.
type Netlist struct {
	Name        string
	Instances   []*Instance
	Connections []Connection
	TopInputs   []StreamPort
	TopOutputs  []StreamPort
}

// endpoint locates one side of a stream: the instance and port bound to a
// tensor name.
type endpoint struct {
	instance string
	port     string
	width    int
}

// BuildNetlist exports a terminal graph as block instances and stream
// connections. The graph must pass CheckTerminal first; a non-terminal
// graph surfaces as a StalledError here too.
func BuildNetlist(g *graph.Graph) (*Netlist, error) {
	if err := CheckTerminal(g, "netlist"); err != nil {
		return nil, err
	}

	n := &Netlist{Name: g.Name}
	producers := make(map[string]endpoint)
	for _, name := range g.Inputs() {
		port := StreamPort{Name: name, Width: consumerWidth(g, name)}
		n.TopInputs = append(n.TopInputs, port)
		producers[name] = endpoint{instance: "top", port: name, width: port.Width}
	}

	for _, node := range g.Nodes() {
		inst := &Instance{
			Name:   node.Name,
			Block:  node.OpType,
			Params: blockParams(node),
		}
		inWidth := int(node.Attrs.IntOr("in_width", 0))
		outWidth := int(node.Attrs.IntOr("out_width", 0))

		streamIdx := 0
		for _, in := range node.Inputs {
			if in == "" || g.Initializer(in) != nil {
				// Parameter inputs are baked into the block, not
				// streamed.
				continue
			}
			port := StreamPort{Name: fmt.Sprintf("in%d", streamIdx), Width: inWidth}
			inst.Inputs = append(inst.Inputs, port)
			src, ok := producers[in]
			if !ok {
				return nil, fmt.Errorf("tensor %q consumed before production", in)
			}
			n.Connections = append(n.Connections, Connection{
				FromInstance: src.instance, FromPort: src.port,
				ToInstance: inst.Name, ToPort: port.Name,
				Tensor: in, Width: inWidth,
			})
			streamIdx++
		}
		for i, out := range node.Outputs {
			port := StreamPort{Name: fmt.Sprintf("out%d", i), Width: outWidth}
			inst.Outputs = append(inst.Outputs, port)
			producers[out] = endpoint{instance: inst.Name, port: port.Name, width: outWidth}
		}
		n.Instances = append(n.Instances, inst)
	}

	for _, name := range g.Outputs() {
		src, ok := producers[name]
		if !ok {
			return nil, fmt.Errorf("graph output %q has no producer", name)
		}
		n.TopOutputs = append(n.TopOutputs, StreamPort{Name: name, Width: src.width})
		n.Connections = append(n.Connections, Connection{
			FromInstance: src.instance, FromPort: src.port,
			ToInstance: "top", ToPort: name,
			Tensor: name, Width: src.width,
		})
	}
	return n, nil
}

// consumerWidth finds the stream width a tensor is consumed at.
func consumerWidth(g *graph.Graph, tensor string) int {
	for _, c := range g.Consumers(tensor) {
		if w := c.Attrs.IntOr("in_width", 0); w > 0 {
			return int(w)
		}
	}
	return 0
}

// blockParams collects the folding and buffering parameters worth carrying
// into the netlist.
func blockParams(node *graph.Node) map[string]int64 {
	params := make(map[string]int64)
	for _, name := range []string{"pe", "simd", "depth", "in_width", "out_width"} {
		if v := node.Attrs.IntOr(name, -1); v >= 0 {
			params[name] = v
		}
	}
	return params
}

// Render formats the netlist for inspection.
func (n *Netlist) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "netlist %s\n", n.Name)
	for _, p := range n.TopInputs {
		fmt.Fprintf(&b, "  input  %s[%d]\n", p.Name, p.Width)
	}
	for _, p := range n.TopOutputs {
		fmt.Fprintf(&b, "  output %s[%d]\n", p.Name, p.Width)
	}
	for _, inst := range n.Instances {
		fmt.Fprintf(&b, "  instance %s : %s (clk, rst", inst.Name, inst.Block)
		for _, name := range []string{"pe", "simd", "depth"} {
			if v, ok := inst.Params[name]; ok {
				fmt.Fprintf(&b, ", %s=%d", name, v)
			}
		}
		b.WriteString(")\n")
		for _, p := range inst.Inputs {
			fmt.Fprintf(&b, "    in  %s[%d]\n", p.Name, p.Width)
		}
		for _, p := range inst.Outputs {
			fmt.Fprintf(&b, "    out %s[%d]\n", p.Name, p.Width)
		}
	}
	for _, c := range n.Connections {
		fmt.Fprintf(&b, "  net %s.%s -> %s.%s [%d] (%s)\n",
			c.FromInstance, c.FromPort, c.ToInstance, c.ToPort, c.Width, c.Tensor)
	}
	return b.String()
}
