package lower

import (
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// hardware block types a terminal graph may contain.
var hwBlocks = map[string]bool{
	graph.OpMVAU:                 true,
	graph.OpThresholding:         true,
	graph.OpAddStreams:           true,
	graph.OpChannelwiseOp:        true,
	graph.OpStreamWidthConverter: true,
	graph.OpFIFO:                 true,
}

// InsertStreamWidthConverters places a StreamWidthConverter block on every
// stream whose producer emits a different folded width than its consumer
// accepts. One sweep resolves every mismatched edge; runs after SetFolding
// so both widths are known.
type InsertStreamWidthConverters struct{}

// Name implements transform.Transformation.
func (InsertStreamWidthConverters) Name() string { return "InsertStreamWidthConverters" }

// Apply implements transform.Transformation.
func (InsertStreamWidthConverters) Apply(g *graph.Graph) (bool, error) {
	changed := false
	for {
		inserted, err := insertNextConverter(g)
		if err != nil {
			return changed, err
		}
		if !inserted {
			return changed, nil
		}
		changed = true
	}
}

func insertNextConverter(g *graph.Graph) (bool, error) {
	for _, producer := range g.Nodes() {
		outWidth := producer.Attrs.IntOr("out_width", 0)
		if !hwBlocks[producer.OpType] || outWidth == 0 {
			continue
		}
		for _, tensor := range producer.Outputs {
			for _, consumer := range g.Consumers(tensor) {
				inWidth := consumer.Attrs.IntOr("in_width", 0)
				if !hwBlocks[consumer.OpType] || inWidth == 0 || inWidth == outWidth {
					continue
				}
				return true, insertConverter(g, tensor, consumer, outWidth, inWidth)
			}
		}
	}
	return false, nil
}

func insertConverter(g *graph.Graph, tensor string, consumer *graph.Node, from, to int64) error {
	converted := g.MakeUniqueTensorName(tensor + "_wc")
	swc := graph.NewNode(graph.OpStreamWidthConverter,
		g.MakeUniqueNodeName(graph.OpStreamWidthConverter),
		[]string{tensor}, []string{converted})
	swc.Attrs.SetInt("in_width", from)
	swc.Attrs.SetInt("out_width", to)

	if shape, ok := g.TensorShape(tensor); ok {
		g.SetTensorShape(converted, shape)
	}
	g.SetTensorDataType(converted, g.TensorDataType(tensor))

	consumer.ReplaceInput(tensor, converted)
	g.InsertNodeAt(g.NodeIndex(consumer), swc)
	return nil
}

// InsertFIFOs decouples adjacent hardware blocks with FIFO buffers sized
// from the resource model. The FIFO inherits the stream width of the edge.
// One sweep buffers every unbuffered edge; edges already buffered are
// skipped.
type InsertFIFOs struct {
	Resources ResourceModel
}

// Name implements transform.Transformation.
func (InsertFIFOs) Name() string { return "InsertFIFOs" }

// Apply implements transform.Transformation.
func (t InsertFIFOs) Apply(g *graph.Graph) (bool, error) {
	changed := false
	for {
		inserted, err := t.insertNextFIFO(g)
		if err != nil {
			return changed, err
		}
		if !inserted {
			return changed, nil
		}
		changed = true
	}
}

func (t InsertFIFOs) insertNextFIFO(g *graph.Graph) (bool, error) {
	for _, producer := range g.Nodes() {
		if !hwBlocks[producer.OpType] || producer.OpType == graph.OpFIFO {
			continue
		}
		for _, tensor := range producer.Outputs {
			for _, consumer := range g.Consumers(tensor) {
				if !hwBlocks[consumer.OpType] || consumer.OpType == graph.OpFIFO {
					continue
				}
				return true, t.insertFIFO(g, producer, tensor, consumer)
			}
		}
	}
	return false, nil
}

func (t InsertFIFOs) insertFIFO(g *graph.Graph, producer *graph.Node, tensor string, consumer *graph.Node) error {
	buffered := g.MakeUniqueTensorName(tensor + "_fifo")
	fifo := graph.NewNode(graph.OpFIFO, g.MakeUniqueNodeName(graph.OpFIFO),
		[]string{tensor}, []string{buffered})
	width := producer.Attrs.IntOr("out_width", 0)
	fifo.Attrs.SetInt("depth", int64(t.Resources.For(consumer.OpType).FIFODepth))
	fifo.Attrs.SetInt("in_width", width)
	fifo.Attrs.SetInt("out_width", width)

	if shape, ok := g.TensorShape(tensor); ok {
		g.SetTensorShape(buffered, shape)
	}
	g.SetTensorDataType(buffered, g.TensorDataType(tensor))

	consumer.ReplaceInput(tensor, buffered)
	g.InsertNodeAt(g.NodeIndex(consumer), fifo)
	return nil
}
