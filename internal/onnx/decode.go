// Package onnx implements the persisted graph format: a hand-rolled codec
// for the ONNX protobuf wire format, covering the message subset the core
// needs to round-trip node order, tensor names, shapes, datatypes and
// attribute values exactly.
package onnx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ParseFile parses a serialized model from a file.
//
//nolint:gosec // G304: path is provided by the user, file inclusion is intentional.
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse parses a serialized model from bytes.
func Parse(data []byte) (*ModelProto, error) {
	d := &decoder{data: data}
	model := &ModelProto{}
	if err := d.readModelProto(model); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return model, nil
}

// decoder implements a minimal protobuf wire format reader.
type decoder struct {
	data []byte
	pos  int
}

// Protobuf wire types.
const (
	wireVarint = 0 // int32, int64, bool, enum
	wire64Bit  = 1 // fixed64, double
	wireBytes  = 2 // string, bytes, embedded messages, packed repeated fields
	wire32Bit  = 5 // fixed32, float
)

// embedded decodes a length-delimited sub-message with read.
func (d *decoder) embedded(read func(*decoder) error) error {
	data, err := d.readBytes()
	if err != nil {
		return err
	}
	return read(&decoder{data: data})
}

// readString reads a length-delimited string.
func (d *decoder) readString() (string, error) {
	data, err := d.readBytes()
	return string(data), err
}

// readModelProto reads a ModelProto message.
func (d *decoder) readModelProto(m *ModelProto) error {
	return d.readFields(func(fieldNum, wireType int) error {
		var err error
		switch fieldNum {
		case 1: // ir_version
			m.IRVersion, err = d.readVarint()
		case 2: // producer_name
			m.ProducerName, err = d.readString()
		case 3: // producer_version
			m.ProducerVersion, err = d.readString()
		case 4: // domain
			m.Domain, err = d.readString()
		case 5: // model_version
			m.ModelVersion, err = d.readVarint()
		case 6: // doc_string
			m.DocString, err = d.readString()
		case 7: // graph
			m.Graph = &GraphProto{}
			err = d.embedded(func(sub *decoder) error {
				return sub.readGraphProto(m.Graph)
			})
		case 8: // opset_import
			opset := OperatorSetID{}
			err = d.embedded(func(sub *decoder) error {
				return sub.readOperatorSetID(&opset)
			})
			m.OpsetImport = append(m.OpsetImport, opset)
		case 14: // metadata_props
			entry := StringStringEntry{}
			err = d.embedded(func(sub *decoder) error {
				return sub.readStringStringEntry(&entry)
			})
			m.MetadataProps = append(m.MetadataProps, entry)
		default:
			err = d.skipField(wireType)
		}
		return err
	})
}

// readGraphProto reads a GraphProto message.
//
//nolint:gocognit // field-by-field switch logic.
func (d *decoder) readGraphProto(m *GraphProto) error {
	return d.readFields(func(fieldNum, wireType int) error {
		var err error
		switch fieldNum {
		case 1: // node
			node := NodeProto{}
			err = d.embedded(func(sub *decoder) error {
				return sub.readNodeProto(&node)
			})
			m.Nodes = append(m.Nodes, node)
		case 2: // name
			m.Name, err = d.readString()
		case 5: // initializer
			tensor := TensorProto{}
			err = d.embedded(func(sub *decoder) error {
				return sub.readTensorProto(&tensor)
			})
			m.Initializers = append(m.Initializers, tensor)
		case 10: // doc_string
			m.DocString, err = d.readString()
		case 11: // input
			vi := ValueInfoProto{}
			err = d.embedded(func(sub *decoder) error {
				return sub.readValueInfoProto(&vi)
			})
			m.Inputs = append(m.Inputs, vi)
		case 12: // output
			vi := ValueInfoProto{}
			err = d.embedded(func(sub *decoder) error {
				return sub.readValueInfoProto(&vi)
			})
			m.Outputs = append(m.Outputs, vi)
		case 13: // value_info
			vi := ValueInfoProto{}
			err = d.embedded(func(sub *decoder) error {
				return sub.readValueInfoProto(&vi)
			})
			m.ValueInfo = append(m.ValueInfo, vi)
		case 14: // quantization_annotation
			ann := TensorAnnotation{}
			err = d.embedded(func(sub *decoder) error {
				return sub.readTensorAnnotation(&ann)
			})
			m.Annotations = append(m.Annotations, ann)
		default:
			err = d.skipField(wireType)
		}
		return err
	})
}

// readNodeProto reads a NodeProto message.
func (d *decoder) readNodeProto(m *NodeProto) error {
	return d.readFields(func(fieldNum, wireType int) error {
		var err error
		switch fieldNum {
		case 1: // input
			var s string
			s, err = d.readString()
			m.Inputs = append(m.Inputs, s)
		case 2: // output
			var s string
			s, err = d.readString()
			m.Outputs = append(m.Outputs, s)
		case 3: // name
			m.Name, err = d.readString()
		case 4: // op_type
			m.OpType, err = d.readString()
		case 5: // attribute
			attr := AttributeProto{}
			err = d.embedded(func(sub *decoder) error {
				return sub.readAttributeProto(&attr)
			})
			m.Attributes = append(m.Attributes, attr)
		case 6: // doc_string
			m.DocString, err = d.readString()
		case 7: // domain
			m.Domain, err = d.readString()
		default:
			err = d.skipField(wireType)
		}
		return err
	})
}

// readTensorProto reads a TensorProto message.
//
//nolint:gocognit // field-by-field switch logic.
func (d *decoder) readTensorProto(m *TensorProto) error {
	return d.readFields(func(fieldNum, wireType int) error {
		var err error
		switch fieldNum {
		case 1: // dims (repeated int64)
			if wireType == wireBytes {
				err = d.embedded(func(sub *decoder) error {
					for sub.pos < len(sub.data) {
						v, err2 := sub.readVarint()
						if err2 != nil {
							return err2
						}
						m.Dims = append(m.Dims, v)
					}
					return nil
				})
				break
			}
			var v int64
			v, err = d.readVarint()
			m.Dims = append(m.Dims, v)
		case 2: // data_type
			m.DataType, err = d.readInt32()
		case 4: // float_data (packed)
			var data []byte
			data, err = d.readBytes()
			for i := 0; i+4 <= len(data); i += 4 {
				bits := binary.LittleEndian.Uint32(data[i:])
				m.FloatData = append(m.FloatData, math.Float32frombits(bits))
			}
		case 5: // int32_data (packed)
			err = d.embedded(func(sub *decoder) error {
				for sub.pos < len(sub.data) {
					v, err2 := sub.readVarint()
					if err2 != nil {
						return err2
					}
					m.Int32Data = append(m.Int32Data, int32(v)) //nolint:gosec // G115: varint fits in int32.
				}
				return nil
			})
		case 7: // int64_data (packed)
			err = d.embedded(func(sub *decoder) error {
				for sub.pos < len(sub.data) {
					v, err2 := sub.readVarint()
					if err2 != nil {
						return err2
					}
					m.Int64Data = append(m.Int64Data, v)
				}
				return nil
			})
		case 8: // name
			m.Name, err = d.readString()
		case 9: // raw_data
			m.RawData, err = d.readBytes()
		default:
			err = d.skipField(wireType)
		}
		return err
	})
}

// readValueInfoProto reads a ValueInfoProto message.
func (d *decoder) readValueInfoProto(m *ValueInfoProto) error {
	return d.readFields(func(fieldNum, wireType int) error {
		var err error
		switch fieldNum {
		case 1: // name
			m.Name, err = d.readString()
		case 2: // type
			m.Type = &TypeProto{}
			err = d.embedded(func(sub *decoder) error {
				return sub.readTypeProto(m.Type)
			})
		default:
			err = d.skipField(wireType)
		}
		return err
	})
}

// readTypeProto reads a TypeProto message.
func (d *decoder) readTypeProto(m *TypeProto) error {
	return d.readFields(func(fieldNum, wireType int) error {
		if fieldNum == 1 { // tensor_type
			m.TensorType = &TensorTypeProto{}
			return d.embedded(func(sub *decoder) error {
				return sub.readTensorTypeProto(m.TensorType)
			})
		}
		return d.skipField(wireType)
	})
}

// readTensorTypeProto reads a TypeProto.Tensor message.
func (d *decoder) readTensorTypeProto(m *TensorTypeProto) error {
	return d.readFields(func(fieldNum, wireType int) error {
		var err error
		switch fieldNum {
		case 1: // elem_type
			m.ElemType, err = d.readInt32()
		case 2: // shape
			m.Shape = &TensorShapeProto{}
			err = d.embedded(func(sub *decoder) error {
				return sub.readTensorShapeProto(m.Shape)
			})
		default:
			err = d.skipField(wireType)
		}
		return err
	})
}

// readTensorShapeProto reads a TensorShapeProto message.
func (d *decoder) readTensorShapeProto(m *TensorShapeProto) error {
	return d.readFields(func(fieldNum, wireType int) error {
		if fieldNum == 1 { // dim
			dim := DimensionProto{}
			if err := d.embedded(func(sub *decoder) error {
				return sub.readDimensionProto(&dim)
			}); err != nil {
				return err
			}
			m.Dims = append(m.Dims, dim)
			return nil
		}
		return d.skipField(wireType)
	})
}

// readDimensionProto reads a TensorShapeProto.Dimension message.
func (d *decoder) readDimensionProto(m *DimensionProto) error {
	return d.readFields(func(fieldNum, wireType int) error {
		var err error
		switch fieldNum {
		case 1: // dim_value
			m.DimValue, err = d.readVarint()
		case 2: // dim_param
			m.DimParam, err = d.readString()
		default:
			err = d.skipField(wireType)
		}
		return err
	})
}

// readAttributeProto reads an AttributeProto message.
//
//nolint:gocognit // field-by-field switch logic.
func (d *decoder) readAttributeProto(m *AttributeProto) error {
	return d.readFields(func(fieldNum, wireType int) error {
		var err error
		switch fieldNum {
		case 1: // name
			m.Name, err = d.readString()
		case 2: // f (float)
			m.F, err = d.readFloat32()
		case 3: // i (int)
			m.I, err = d.readVarint()
		case 4: // s (bytes)
			m.S, err = d.readBytes()
		case 7: // floats (packed)
			var data []byte
			data, err = d.readBytes()
			for i := 0; i+4 <= len(data); i += 4 {
				bits := binary.LittleEndian.Uint32(data[i:])
				m.Floats = append(m.Floats, math.Float32frombits(bits))
			}
		case 8: // ints (packed)
			err = d.embedded(func(sub *decoder) error {
				for sub.pos < len(sub.data) {
					v, err2 := sub.readVarint()
					if err2 != nil {
						return err2
					}
					m.Ints = append(m.Ints, v)
				}
				return nil
			})
		case 9: // strings
			var data []byte
			data, err = d.readBytes()
			m.Strings = append(m.Strings, data)
		case 20: // type
			m.Type, err = d.readInt32()
		default:
			err = d.skipField(wireType)
		}
		return err
	})
}

// readOperatorSetID reads an OperatorSetIdProto message.
func (d *decoder) readOperatorSetID(m *OperatorSetID) error {
	return d.readFields(func(fieldNum, wireType int) error {
		var err error
		switch fieldNum {
		case 1: // domain
			m.Domain, err = d.readString()
		case 2: // version
			m.Version, err = d.readVarint()
		default:
			err = d.skipField(wireType)
		}
		return err
	})
}

// readStringStringEntry reads a StringStringEntryProto message.
func (d *decoder) readStringStringEntry(m *StringStringEntry) error {
	return d.readFields(func(fieldNum, wireType int) error {
		var err error
		switch fieldNum {
		case 1: // key
			m.Key, err = d.readString()
		case 2: // value
			m.Value, err = d.readString()
		default:
			err = d.skipField(wireType)
		}
		return err
	})
}

// readTensorAnnotation reads a TensorAnnotation message.
func (d *decoder) readTensorAnnotation(m *TensorAnnotation) error {
	return d.readFields(func(fieldNum, wireType int) error {
		var err error
		switch fieldNum {
		case 1: // tensor_name
			m.TensorName, err = d.readString()
		case 2: // quant_parameter_tensor_names
			entry := StringStringEntry{}
			err = d.embedded(func(sub *decoder) error {
				return sub.readStringStringEntry(&entry)
			})
			m.Params = append(m.Params, entry)
		default:
			err = d.skipField(wireType)
		}
		return err
	})
}

// readFields iterates the message's fields, dispatching each to handle.
func (d *decoder) readFields(handle func(fieldNum, wireType int) error) error {
	for d.pos < len(d.data) {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if err := handle(fieldNum, wireType); err != nil {
			return err
		}
	}
	return nil
}

// readTag reads a protobuf field tag.
func (d *decoder) readTag() (fieldNum, wireType int, err error) {
	if d.pos >= len(d.data) {
		return 0, 0, io.EOF
	}
	tag, err := d.readVarint()
	if err != nil {
		return 0, 0, err
	}
	return int(tag >> 3), int(tag & 0x7), nil
}

// readVarint reads a varint-encoded int64.
func (d *decoder) readVarint() (int64, error) {
	var result uint64
	var shift uint
	for {
		if d.pos >= len(d.data) {
			return 0, io.EOF
		}
		b := d.data[d.pos]
		d.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
	}
	return int64(result), nil //nolint:gosec // G115: protobuf varint fits in int64.
}

// readInt32 reads a varint-encoded int32.
func (d *decoder) readInt32() (int32, error) {
	v, err := d.readVarint()
	if err != nil {
		return 0, err
	}
	return int32(v), nil //nolint:gosec // G115: protobuf varint fits in int32.
}

// readBytes reads a length-delimited byte slice.
func (d *decoder) readBytes() ([]byte, error) {
	length, err := d.readVarint()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errors.New("negative length")
	}
	end := d.pos + int(length)
	if end > len(d.data) {
		return nil, io.ErrUnexpectedEOF
	}
	result := d.data[d.pos:end]
	d.pos = end
	return result, nil
}

// readFloat32 reads a 32-bit float.
func (d *decoder) readFloat32() (float32, error) {
	if d.pos+4 > len(d.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint32(d.data[d.pos:])
	d.pos += 4
	return math.Float32frombits(bits), nil
}

// skipField skips a field based on wire type.
func (d *decoder) skipField(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := d.readVarint()
		return err
	case wire64Bit:
		if d.pos+8 > len(d.data) {
			return io.ErrUnexpectedEOF
		}
		d.pos += 8
		return nil
	case wireBytes:
		_, err := d.readBytes()
		return err
	case wire32Bit:
		if d.pos+4 > len(d.data) {
			return io.ErrUnexpectedEOF
		}
		d.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type: %d", wireType)
	}
}
