// Package dtype provides the element datatype lattice for graph tensors.
//
// Datatypes describe the value container of a tensor edge, independent of the
// float32 carrier the reference backend computes with: an edge annotated INT4
// still travels as float32 values, but every value is required to be an
// integer in [-8, 7].
package dtype

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the datatype family.
type Kind uint8

// Supported datatype families.
const (
	KindUnknown Kind = iota
	KindFloat
	KindInt
	KindUInt
	KindBipolar
	KindBinary
)

// DataType is a concrete element datatype: a family plus a bit width.
// The zero value is Unknown.
type DataType struct {
	kind Kind
	bits int
}

// Predefined datatypes.
var (
	Unknown = DataType{}
	Float32 = DataType{KindFloat, 32}
	Bipolar = DataType{KindBipolar, 1}
	Binary  = DataType{KindBinary, 1}
)

// MaxIntWidth is the widest supported integer datatype.
const MaxIntWidth = 32

// Int returns the signed integer datatype of the given bit width.
func Int(width int) DataType {
	if width < 1 || width > MaxIntWidth {
		panic(fmt.Sprintf("dtype: invalid INT width %d", width))
	}
	return DataType{KindInt, width}
}

// UInt returns the unsigned integer datatype of the given bit width.
func UInt(width int) DataType {
	if width < 1 || width > MaxIntWidth {
		panic(fmt.Sprintf("dtype: invalid UINT width %d", width))
	}
	return DataType{KindUInt, width}
}

// Kind returns the datatype family.
func (dt DataType) Kind() Kind { return dt.kind }

// BitWidth returns the number of bits needed to store one element.
func (dt DataType) BitWidth() int { return dt.bits }

// Signed reports whether the datatype can represent negative values.
func (dt DataType) Signed() bool {
	return dt.kind == KindFloat || dt.kind == KindInt || dt.kind == KindBipolar
}

// IsInteger reports whether every allowed value is an integer.
// Bipolar and binary count as integer types.
func (dt DataType) IsInteger() bool {
	switch dt.kind {
	case KindInt, KindUInt, KindBipolar, KindBinary:
		return true
	default:
		return false
	}
}

// Min returns the smallest allowed value.
func (dt DataType) Min() float64 {
	switch dt.kind {
	case KindFloat:
		return -math.MaxFloat32
	case KindInt:
		return -math.Exp2(float64(dt.bits - 1))
	case KindUInt, KindBinary:
		return 0
	case KindBipolar:
		return -1
	default:
		return 0
	}
}

// Max returns the largest allowed value.
func (dt DataType) Max() float64 {
	switch dt.kind {
	case KindFloat:
		return math.MaxFloat32
	case KindInt:
		return math.Exp2(float64(dt.bits-1)) - 1
	case KindUInt:
		return math.Exp2(float64(dt.bits)) - 1
	case KindBipolar, KindBinary:
		return 1
	default:
		return 0
	}
}

// Allowed reports whether v is representable in the datatype.
func (dt DataType) Allowed(v float64) bool {
	switch dt.kind {
	case KindFloat:
		return true
	case KindBipolar:
		return v == -1 || v == 1
	case KindBinary:
		return v == 0 || v == 1
	case KindInt, KindUInt:
		return v == math.Trunc(v) && v >= dt.Min() && v <= dt.Max()
	default:
		return false
	}
}

// String returns the canonical name, e.g. "INT4", "UINT8", "BIPOLAR".
func (dt DataType) String() string {
	switch dt.kind {
	case KindFloat:
		return "FLOAT32"
	case KindInt:
		return "INT" + strconv.Itoa(dt.bits)
	case KindUInt:
		return "UINT" + strconv.Itoa(dt.bits)
	case KindBipolar:
		return "BIPOLAR"
	case KindBinary:
		return "BINARY"
	default:
		return "UNKNOWN"
	}
}

// Parse converts a canonical datatype name back into a DataType.
func Parse(s string) (DataType, error) {
	switch s {
	case "FLOAT32":
		return Float32, nil
	case "BIPOLAR":
		return Bipolar, nil
	case "BINARY":
		return Binary, nil
	case "UNKNOWN", "":
		return Unknown, nil
	}
	if rest, ok := strings.CutPrefix(s, "UINT"); ok {
		w, err := strconv.Atoi(rest)
		if err != nil || w < 1 || w > MaxIntWidth {
			return Unknown, fmt.Errorf("dtype: invalid datatype %q", s)
		}
		return UInt(w), nil
	}
	if rest, ok := strings.CutPrefix(s, "INT"); ok {
		w, err := strconv.Atoi(rest)
		if err != nil || w < 1 || w > MaxIntWidth {
			return Unknown, fmt.Errorf("dtype: invalid datatype %q", s)
		}
		return Int(w), nil
	}
	return Unknown, fmt.Errorf("dtype: invalid datatype %q", s)
}

// SmallestIntType returns the narrowest integer datatype whose range covers
// [minVal, maxVal]. Falls back to Float32 when the range exceeds MaxIntWidth
// bits or the bounds are not integral.
func SmallestIntType(minVal, maxVal float64) DataType {
	if minVal != math.Trunc(minVal) || maxVal != math.Trunc(maxVal) || minVal > maxVal {
		return Float32
	}
	if minVal >= 0 {
		for w := 1; w <= MaxIntWidth; w++ {
			if maxVal <= UInt(w).Max() {
				return UInt(w)
			}
		}
		return Float32
	}
	for w := 1; w <= MaxIntWidth; w++ {
		dt := Int(w)
		if minVal >= dt.Min() && maxVal <= dt.Max() {
			return dt
		}
	}
	return Float32
}
