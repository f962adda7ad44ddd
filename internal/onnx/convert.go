package onnx

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/surajkarki66/edge-AI/internal/dtype"
	"github.com/surajkarki66/edge-AI/internal/graph"
)

const (
	producerName    = "edge-AI"
	producerVersion = "0.1.0"
	irVersion       = 8
	opsetVersion    = 14
)

// Load reads a persisted model file into a graph.
func Load(path string) (*graph.Graph, error) {
	model, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return FromModelProto(model)
}

// Save persists a graph to a model file.
func Save(g *graph.Graph, path string) error {
	return WriteFile(ToModelProto(g), path)
}

// ToModelProto converts a graph into its persisted representation. Node
// order, tensor names, shapes, datatypes and attribute values are preserved
// exactly; element datatypes beyond the standard ONNX enumeration travel in
// quantization annotations.
func ToModelProto(g *graph.Graph) *ModelProto {
	gp := &GraphProto{Name: g.Name}

	for _, n := range g.Nodes() {
		gp.Nodes = append(gp.Nodes, nodeToProto(n))
	}

	inputSet := make(map[string]bool)
	for _, name := range g.Inputs() {
		inputSet[name] = true
		gp.Inputs = append(gp.Inputs, valueInfoFor(g, name))
	}
	outputSet := make(map[string]bool)
	for _, name := range g.Outputs() {
		outputSet[name] = true
		gp.Outputs = append(gp.Outputs, valueInfoFor(g, name))
	}

	for _, name := range g.TensorNames() {
		if init := g.Initializer(name); init != nil {
			gp.Initializers = append(gp.Initializers, initializerToProto(g, name, init))
		} else if !inputSet[name] && !outputSet[name] {
			if _, ok := g.TensorShape(name); ok {
				gp.ValueInfo = append(gp.ValueInfo, valueInfoFor(g, name))
			}
		}

		var params []StringStringEntry
		if dt := g.TensorDataType(name); dt != dtype.Unknown {
			params = append(params, StringStringEntry{Key: AnnotationDataType, Value: dt.String()})
		}
		if sp := g.Sparsity(name); sp != "" {
			params = append(params, StringStringEntry{Key: AnnotationSparsity, Value: sp})
		}
		if len(params) > 0 {
			gp.Annotations = append(gp.Annotations, TensorAnnotation{TensorName: name, Params: params})
		}
	}

	model := &ModelProto{
		IRVersion:       irVersion,
		OpsetImport:     []OperatorSetID{{Version: opsetVersion}},
		ProducerName:    producerName,
		ProducerVersion: producerVersion,
		Graph:           gp,
	}
	for _, entry := range g.Metadata {
		model.MetadataProps = append(model.MetadataProps, StringStringEntry{Key: entry.Key, Value: entry.Value})
	}
	return model
}

// FromModelProto converts a persisted representation back into a graph.
func FromModelProto(m *ModelProto) (*graph.Graph, error) {
	if m.Graph == nil {
		return nil, fmt.Errorf("model has no graph")
	}
	gp := m.Graph
	g := graph.New(gp.Name)
	for _, prop := range m.MetadataProps {
		g.Metadata = append(g.Metadata, graph.MetadataEntry{Key: prop.Key, Value: prop.Value})
	}

	initNames := make(map[string]bool)
	for i := range gp.Initializers {
		initNames[gp.Initializers[i].Name] = true
	}

	// Inputs are declared inputs minus initializers (some exporters list
	// constants as inputs).
	for i := range gp.Inputs {
		vi := &gp.Inputs[i]
		if initNames[vi.Name] {
			continue
		}
		shape, elem := shapeAndElem(vi)
		g.AddInput(vi.Name, shape, elemToDataType(elem))
	}

	for i := range gp.Nodes {
		node, err := nodeFromProto(&gp.Nodes[i])
		if err != nil {
			return nil, err
		}
		g.AddNode(node)
	}

	for i := range gp.Outputs {
		vi := &gp.Outputs[i]
		g.AddOutput(vi.Name)
		if shape, elem := shapeAndElem(vi); shape != nil {
			g.SetTensorShape(vi.Name, shape)
			g.SetTensorDataType(vi.Name, elemToDataType(elem))
		}
	}

	for i := range gp.ValueInfo {
		vi := &gp.ValueInfo[i]
		if shape, elem := shapeAndElem(vi); shape != nil {
			g.SetTensorShape(vi.Name, shape)
			g.SetTensorDataType(vi.Name, elemToDataType(elem))
		}
	}

	for i := range gp.Initializers {
		tp := &gp.Initializers[i]
		init, err := initializerFromProto(tp)
		if err != nil {
			return nil, fmt.Errorf("initializer %q: %w", tp.Name, err)
		}
		g.SetInitializer(tp.Name, init)
		g.SetTensorDataType(tp.Name, elemToDataType(tp.DataType))
	}

	// Annotations override the coarse element-type mapping.
	for i := range gp.Annotations {
		ann := &gp.Annotations[i]
		for _, param := range ann.Params {
			switch param.Key {
			case AnnotationDataType:
				dt, err := dtype.Parse(param.Value)
				if err != nil {
					return nil, fmt.Errorf("tensor %q: %w", ann.TensorName, err)
				}
				g.SetTensorDataType(ann.TensorName, dt)
			case AnnotationSparsity:
				g.SetSparsity(ann.TensorName, param.Value)
			}
		}
	}

	return g, nil
}

func nodeToProto(n *graph.Node) NodeProto {
	np := NodeProto{
		Name:    n.Name,
		OpType:  n.OpType,
		Inputs:  append([]string(nil), n.Inputs...),
		Outputs: append([]string(nil), n.Outputs...),
	}
	for _, name := range n.Attrs.Names() {
		v, _ := n.Attrs.Get(name)
		ap := AttributeProto{Name: name}
		switch v.Kind {
		case graph.AttrInt:
			ap.Type = AttributeProtoInt
			ap.I = v.I
		case graph.AttrFloat:
			ap.Type = AttributeProtoFloat
			ap.F = v.F
		case graph.AttrString:
			ap.Type = AttributeProtoString
			ap.S = []byte(v.S)
		case graph.AttrInts:
			ap.Type = AttributeProtoInts
			ap.Ints = append([]int64(nil), v.Ints...)
		case graph.AttrFloats:
			ap.Type = AttributeProtoFloats
			ap.Floats = append([]float32(nil), v.Floats...)
		}
		np.Attributes = append(np.Attributes, ap)
	}
	return np
}

func nodeFromProto(np *NodeProto) (*graph.Node, error) {
	n := graph.NewNode(np.OpType, np.Name, np.Inputs, np.Outputs)
	for i := range np.Attributes {
		ap := &np.Attributes[i]
		switch ap.Type {
		case AttributeProtoInt:
			n.Attrs.SetInt(ap.Name, ap.I)
		case AttributeProtoFloat:
			n.Attrs.SetFloat(ap.Name, ap.F)
		case AttributeProtoString:
			n.Attrs.SetString(ap.Name, string(ap.S))
		case AttributeProtoInts:
			n.Attrs.SetInts(ap.Name, append([]int64(nil), ap.Ints...))
		case AttributeProtoFloats:
			n.Attrs.SetFloats(ap.Name, append([]float32(nil), ap.Floats...))
		default:
			return nil, fmt.Errorf("node %q: unsupported attribute type %d for %q",
				np.Name, ap.Type, ap.Name)
		}
	}
	return n, nil
}

func valueInfoFor(g *graph.Graph, name string) ValueInfoProto {
	vi := ValueInfoProto{Name: name}
	shape, ok := g.TensorShape(name)
	if !ok {
		return vi
	}
	sp := &TensorShapeProto{}
	for _, dim := range shape {
		sp.Dims = append(sp.Dims, DimensionProto{DimValue: int64(dim)})
	}
	vi.Type = &TypeProto{TensorType: &TensorTypeProto{
		ElemType: dataTypeToElem(g.TensorDataType(name)),
		Shape:    sp,
	}}
	return vi
}

func shapeAndElem(vi *ValueInfoProto) (graph.Shape, int32) {
	if vi.Type == nil || vi.Type.TensorType == nil {
		return nil, TensorProtoUndefined
	}
	tt := vi.Type.TensorType
	if tt.Shape == nil {
		return nil, tt.ElemType
	}
	shape := make(graph.Shape, len(tt.Shape.Dims))
	for i, dim := range tt.Shape.Dims {
		shape[i] = int(dim.DimValue)
	}
	return shape, tt.ElemType
}

func initializerToProto(g *graph.Graph, name string, init *graph.Initializer) TensorProto {
	tp := TensorProto{
		Name:     name,
		DataType: dataTypeToElem(g.TensorDataType(name)),
	}
	for _, dim := range init.Shape {
		tp.Dims = append(tp.Dims, int64(dim))
	}
	tp.FloatData = append([]float32(nil), init.Data...)
	return tp
}

func initializerFromProto(tp *TensorProto) (*graph.Initializer, error) {
	shape := make(graph.Shape, len(tp.Dims))
	for i, dim := range tp.Dims {
		shape[i] = int(dim)
	}
	init := &graph.Initializer{Shape: shape}

	switch {
	case len(tp.FloatData) > 0:
		init.Data = append([]float32(nil), tp.FloatData...)
	case len(tp.RawData) > 0:
		if len(tp.RawData)%4 != 0 {
			return nil, fmt.Errorf("raw data length %d is not a multiple of 4", len(tp.RawData))
		}
		init.Data = make([]float32, len(tp.RawData)/4)
		for i := range init.Data {
			bits := binary.LittleEndian.Uint32(tp.RawData[i*4:])
			init.Data[i] = math.Float32frombits(bits)
		}
	case len(tp.Int64Data) > 0:
		init.Data = make([]float32, len(tp.Int64Data))
		for i, v := range tp.Int64Data {
			init.Data[i] = float32(v)
		}
	case len(tp.Int32Data) > 0:
		init.Data = make([]float32, len(tp.Int32Data))
		for i, v := range tp.Int32Data {
			init.Data[i] = float32(v)
		}
	default:
		init.Data = make([]float32, shape.NumElements())
	}

	if want := shape.NumElements(); len(init.Data) != want {
		return nil, fmt.Errorf("data has %d elements, shape %v wants %d", len(init.Data), shape, want)
	}
	return init, nil
}

// dataTypeToElem maps an element datatype onto the closest standard ONNX
// element type. Widths without a standard container round up; bipolar and
// binary are stored as float with the exact type in the annotation.
func dataTypeToElem(dt dtype.DataType) int32 {
	switch dt.Kind() {
	case dtype.KindInt:
		switch {
		case dt.BitWidth() <= 8:
			return TensorProtoInt8
		case dt.BitWidth() <= 16:
			return TensorProtoInt16
		default:
			return TensorProtoInt32
		}
	case dtype.KindUInt:
		switch {
		case dt.BitWidth() <= 8:
			return TensorProtoUint8
		case dt.BitWidth() <= 16:
			return TensorProtoUint16
		default:
			return TensorProtoUint32
		}
	default:
		return TensorProtoFloat
	}
}

func elemToDataType(elem int32) dtype.DataType {
	switch elem {
	case TensorProtoInt8:
		return dtype.Int(8)
	case TensorProtoInt16:
		return dtype.Int(16)
	case TensorProtoInt32, TensorProtoInt64:
		return dtype.Int(32)
	case TensorProtoUint8:
		return dtype.UInt(8)
	case TensorProtoUint16:
		return dtype.UInt(16)
	case TensorProtoUint32, TensorProtoUint64:
		return dtype.UInt(32)
	case TensorProtoBool:
		return dtype.Binary
	default:
		return dtype.Float32
	}
}
