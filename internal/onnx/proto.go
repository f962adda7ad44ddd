package onnx

// Hand-written structs for the ONNX protobuf subset the core round-trips.

// ModelProto represents a serialized model.
type ModelProto struct {
	IRVersion       int64               // IR version (e.g., 7, 8, 9)
	OpsetImport     []OperatorSetID     // Opset version(s)
	ProducerName    string              // Producing tool name
	ProducerVersion string              // Producing tool version
	Domain          string              // Model domain
	ModelVersion    int64               // Model version number
	DocString       string              // Model description
	Graph           *GraphProto         // Computation graph
	MetadataProps   []StringStringEntry // Key-value metadata
}

// GraphProto represents the computation graph.
type GraphProto struct {
	Name         string             // Graph name
	Nodes        []NodeProto        // Operation nodes, in topological order
	Inputs       []ValueInfoProto   // Graph inputs
	Outputs      []ValueInfoProto   // Graph outputs
	Initializers []TensorProto      // Constant tensors
	ValueInfo    []ValueInfoProto   // Intermediate tensor info
	Annotations  []TensorAnnotation // Per-tensor quantization annotations
	DocString    string             // Graph description
}

// NodeProto represents a single operation.
type NodeProto struct {
	Name       string           // Node name
	OpType     string           // Operation type (e.g., "Add", "MatMul")
	Inputs     []string         // Input tensor names
	Outputs    []string         // Output tensor names
	Attributes []AttributeProto // Operation attributes, in declared order
	Domain     string           // Custom domain (empty for default)
	DocString  string           // Node description
}

// TensorProto represents a constant tensor.
type TensorProto struct {
	Name      string    // Tensor name
	DataType  int32     // Element data type
	Dims      []int64   // Tensor shape
	RawData   []byte    // Raw binary data
	FloatData []float32 // Float32 data
	Int32Data []int32   // Int32 data (legacy)
	Int64Data []int64   // Int64 data (legacy)
	DocString string    // Tensor description
}

// ValueInfoProto describes a tensor's type and shape.
type ValueInfoProto struct {
	Name      string     // Tensor name
	Type      *TypeProto // Tensor type information
	DocString string     // Description
}

// TypeProto describes tensor type.
type TypeProto struct {
	TensorType *TensorTypeProto // Tensor type (the only variant used here)
}

// TensorTypeProto describes tensor shape and element type.
type TensorTypeProto struct {
	ElemType int32             // Element data type
	Shape    *TensorShapeProto // Tensor shape
}

// TensorShapeProto describes tensor dimensions.
type TensorShapeProto struct {
	Dims []DimensionProto // Dimensions
}

// DimensionProto describes a single dimension.
type DimensionProto struct {
	DimValue int64  // Static dimension value
	DimParam string // Dynamic dimension name (e.g., "batch_size")
}

// AttributeProto represents a node attribute.
type AttributeProto struct {
	Name    string    // Attribute name
	Type    int32     // Attribute type tag
	F       float32   // FLOAT value
	I       int64     // INT value
	S       []byte    // STRING value
	Floats  []float32 // FLOATS array
	Ints    []int64   // INTS array
	Strings [][]byte  // STRINGS array
}

// OperatorSetID identifies an opset version.
type OperatorSetID struct {
	Domain  string // Operator domain (empty for default)
	Version int64  // Opset version number
}

// StringStringEntry represents key-value metadata.
type StringStringEntry struct {
	Key   string
	Value string
}

// TensorAnnotation carries per-tensor key/value annotations. The core uses
// it to persist element datatypes and sparsity tags that ONNX element types
// cannot express (arbitrary-width integers, bipolar).
type TensorAnnotation struct {
	TensorName string
	Params     []StringStringEntry
}

// Annotation keys written by this tool.
const (
	AnnotationDataType = "edgeai_datatype"
	AnnotationSparsity = "edgeai_sparsity"
)

// ONNX element data types (TensorProto.DataType).
const (
	TensorProtoUndefined = 0
	TensorProtoFloat     = 1  // float32
	TensorProtoUint8     = 2  // uint8
	TensorProtoInt8      = 3  // int8
	TensorProtoUint16    = 4  // uint16
	TensorProtoInt16     = 5  // int16
	TensorProtoInt32     = 6  // int32
	TensorProtoInt64     = 7  // int64
	TensorProtoString    = 8  // string
	TensorProtoBool      = 9  // bool
	TensorProtoFloat16   = 10 // float16
	TensorProtoDouble    = 11 // float64
	TensorProtoUint32    = 12 // uint32
	TensorProtoUint64    = 13 // uint64
)

// ONNX attribute types (AttributeProto.Type).
const (
	AttributeProtoUndefined = 0
	AttributeProtoFloat     = 1 // FLOAT
	AttributeProtoInt       = 2 // INT
	AttributeProtoString    = 3 // STRING
	AttributeProtoFloats    = 6 // FLOATS
	AttributeProtoInts      = 7 // INTS
	AttributeProtoStrings   = 8 // STRINGS
)
