package onnx

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Marshal serializes a model to protobuf wire format bytes.
func Marshal(m *ModelProto) []byte {
	e := &encoder{}
	e.writeModelProto(m)
	return e.buf
}

// WriteFile serializes a model and writes it to path.
func WriteFile(m *ModelProto, path string) error {
	if err := os.WriteFile(path, Marshal(m), 0o644); err != nil { //nolint:gosec // G306: model files are not secrets.
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// encoder implements a minimal protobuf wire format writer. Fields holding
// their proto3 default value are omitted; the decoder restores the same
// defaults, so values round-trip.
type encoder struct {
	buf []byte
}

func (e *encoder) writeModelProto(m *ModelProto) {
	e.varintField(1, m.IRVersion)
	e.stringField(2, m.ProducerName)
	e.stringField(3, m.ProducerVersion)
	e.stringField(4, m.Domain)
	e.varintField(5, m.ModelVersion)
	e.stringField(6, m.DocString)
	if m.Graph != nil {
		e.embedded(7, func(sub *encoder) {
			sub.writeGraphProto(m.Graph)
		})
	}
	for i := range m.OpsetImport {
		opset := &m.OpsetImport[i]
		e.embedded(8, func(sub *encoder) {
			sub.stringField(1, opset.Domain)
			sub.varintField(2, opset.Version)
		})
	}
	for i := range m.MetadataProps {
		e.stringStringEntry(14, &m.MetadataProps[i])
	}
}

func (e *encoder) writeGraphProto(m *GraphProto) {
	for i := range m.Nodes {
		node := &m.Nodes[i]
		e.embedded(1, func(sub *encoder) {
			sub.writeNodeProto(node)
		})
	}
	e.stringField(2, m.Name)
	for i := range m.Initializers {
		tensor := &m.Initializers[i]
		e.embedded(5, func(sub *encoder) {
			sub.writeTensorProto(tensor)
		})
	}
	e.stringField(10, m.DocString)
	for i := range m.Inputs {
		e.valueInfo(11, &m.Inputs[i])
	}
	for i := range m.Outputs {
		e.valueInfo(12, &m.Outputs[i])
	}
	for i := range m.ValueInfo {
		e.valueInfo(13, &m.ValueInfo[i])
	}
	for i := range m.Annotations {
		ann := &m.Annotations[i]
		e.embedded(14, func(sub *encoder) {
			sub.stringField(1, ann.TensorName)
			for j := range ann.Params {
				sub.stringStringEntry(2, &ann.Params[j])
			}
		})
	}
}

func (e *encoder) writeNodeProto(m *NodeProto) {
	for _, in := range m.Inputs {
		e.stringFieldAlways(1, in)
	}
	for _, out := range m.Outputs {
		e.stringFieldAlways(2, out)
	}
	e.stringField(3, m.Name)
	e.stringField(4, m.OpType)
	for i := range m.Attributes {
		attr := &m.Attributes[i]
		e.embedded(5, func(sub *encoder) {
			sub.writeAttributeProto(attr)
		})
	}
	e.stringField(6, m.DocString)
	e.stringField(7, m.Domain)
}

func (e *encoder) writeTensorProto(m *TensorProto) {
	for _, dim := range m.Dims {
		e.varintFieldAlways(1, dim)
	}
	e.varintField(2, int64(m.DataType))
	if len(m.FloatData) > 0 {
		e.tag(4, wireBytes)
		e.packedFloats(m.FloatData)
	}
	if len(m.Int32Data) > 0 {
		e.tag(5, wireBytes)
		sub := &encoder{}
		for _, v := range m.Int32Data {
			sub.varint(uint64(uint32(v))) //nolint:gosec // G115: two's complement wire encoding.
		}
		e.lengthDelimited(sub.buf)
	}
	if len(m.Int64Data) > 0 {
		e.tag(7, wireBytes)
		sub := &encoder{}
		for _, v := range m.Int64Data {
			sub.varint(uint64(v)) //nolint:gosec // G115: two's complement wire encoding.
		}
		e.lengthDelimited(sub.buf)
	}
	e.stringField(8, m.Name)
	if len(m.RawData) > 0 {
		e.tag(9, wireBytes)
		e.lengthDelimited(m.RawData)
	}
}

func (e *encoder) writeAttributeProto(m *AttributeProto) {
	e.stringField(1, m.Name)
	switch m.Type {
	case AttributeProtoFloat:
		e.tag(2, wire32Bit)
		e.fixed32(math.Float32bits(m.F))
	case AttributeProtoInt:
		e.varintFieldAlways(3, m.I)
	case AttributeProtoString:
		e.tag(4, wireBytes)
		e.lengthDelimited(m.S)
	case AttributeProtoFloats:
		e.tag(7, wireBytes)
		e.packedFloats(m.Floats)
	case AttributeProtoInts:
		e.tag(8, wireBytes)
		sub := &encoder{}
		for _, v := range m.Ints {
			sub.varint(uint64(v)) //nolint:gosec // G115: two's complement wire encoding.
		}
		e.lengthDelimited(sub.buf)
	case AttributeProtoStrings:
		for _, s := range m.Strings {
			e.tag(9, wireBytes)
			e.lengthDelimited(s)
		}
	}
	e.varintField(20, int64(m.Type))
}

func (e *encoder) valueInfo(field int, vi *ValueInfoProto) {
	e.embedded(field, func(sub *encoder) {
		sub.stringField(1, vi.Name)
		if vi.Type == nil || vi.Type.TensorType == nil {
			return
		}
		tt := vi.Type.TensorType
		sub.embedded(2, func(typ *encoder) {
			typ.embedded(1, func(tensorType *encoder) {
				tensorType.varintField(1, int64(tt.ElemType))
				if tt.Shape == nil {
					return
				}
				tensorType.embedded(2, func(shape *encoder) {
					for i := range tt.Shape.Dims {
						dim := &tt.Shape.Dims[i]
						shape.embedded(1, func(d *encoder) {
							d.varintField(1, dim.DimValue)
							d.stringField(2, dim.DimParam)
						})
					}
				})
			})
		})
	})
}

func (e *encoder) stringStringEntry(field int, entry *StringStringEntry) {
	e.embedded(field, func(sub *encoder) {
		sub.stringField(1, entry.Key)
		sub.stringField(2, entry.Value)
	})
}

// tag writes a field tag.
func (e *encoder) tag(fieldNum, wireType int) {
	e.varint(uint64(fieldNum)<<3 | uint64(wireType)) //nolint:gosec // G115: field numbers are small positives.
}

// varint writes a varint-encoded value.
func (e *encoder) varint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

// fixed32 writes a little-endian 32-bit value.
func (e *encoder) fixed32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// lengthDelimited writes a length prefix followed by the payload.
func (e *encoder) lengthDelimited(data []byte) {
	e.varint(uint64(len(data)))
	e.buf = append(e.buf, data...)
}

// embedded writes a length-delimited sub-message built by fill.
func (e *encoder) embedded(fieldNum int, fill func(*encoder)) {
	sub := &encoder{}
	fill(sub)
	e.tag(fieldNum, wireBytes)
	e.lengthDelimited(sub.buf)
}

// varintField writes a varint field, omitting the proto3 default.
func (e *encoder) varintField(fieldNum int, v int64) {
	if v == 0 {
		return
	}
	e.varintFieldAlways(fieldNum, v)
}

// varintFieldAlways writes a varint field even when zero.
func (e *encoder) varintFieldAlways(fieldNum int, v int64) {
	e.tag(fieldNum, wireVarint)
	e.varint(uint64(v)) //nolint:gosec // G115: two's complement wire encoding.
}

// stringField writes a string field, omitting the empty default.
func (e *encoder) stringField(fieldNum int, s string) {
	if s == "" {
		return
	}
	e.stringFieldAlways(fieldNum, s)
}

// stringFieldAlways writes a string field even when empty. Node input and
// output slots use this: an empty name is a meaningful "unused port" marker
// whose position must survive the round trip.
func (e *encoder) stringFieldAlways(fieldNum int, s string) {
	e.tag(fieldNum, wireBytes)
	e.lengthDelimited([]byte(s))
}

// packedFloats writes a packed repeated float payload.
func (e *encoder) packedFloats(vals []float32) {
	data := make([]byte, 0, len(vals)*4)
	for _, v := range vals {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
	}
	e.lengthDelimited(data)
}
