package graph

import "fmt"

// AttrKind identifies the variant stored in an attribute value.
type AttrKind uint8

// Supported attribute variants.
const (
	AttrInt AttrKind = iota
	AttrFloat
	AttrString
	AttrInts
	AttrFloats
)

// String returns a human-readable variant name.
func (k AttrKind) String() string {
	switch k {
	case AttrInt:
		return "int"
	case AttrFloat:
		return "float"
	case AttrString:
		return "string"
	case AttrInts:
		return "ints"
	case AttrFloats:
		return "floats"
	default:
		return "unknown"
	}
}

// AttrValue is a tagged variant attribute value.
type AttrValue struct {
	Kind   AttrKind
	I      int64
	F      float32
	S      string
	Ints   []int64
	Floats []float32
}

// Attributes is an insertion-ordered mapping of attribute name to value.
// The zero value is ready to use.
type Attributes struct {
	names  []string
	values map[string]AttrValue
}

// Len returns the number of attributes.
func (a *Attributes) Len() int { return len(a.names) }

// Names returns attribute names in insertion order.
func (a *Attributes) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Has reports whether the attribute is present.
func (a *Attributes) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

func (a *Attributes) set(name string, v AttrValue) {
	if a.values == nil {
		a.values = make(map[string]AttrValue)
	}
	if _, ok := a.values[name]; !ok {
		a.names = append(a.names, name)
	}
	a.values[name] = v
}

// SetInt stores an integer attribute.
func (a *Attributes) SetInt(name string, v int64) {
	a.set(name, AttrValue{Kind: AttrInt, I: v})
}

// SetFloat stores a float attribute.
func (a *Attributes) SetFloat(name string, v float32) {
	a.set(name, AttrValue{Kind: AttrFloat, F: v})
}

// SetString stores a string attribute.
func (a *Attributes) SetString(name, v string) {
	a.set(name, AttrValue{Kind: AttrString, S: v})
}

// SetInts stores an integer list attribute.
func (a *Attributes) SetInts(name string, v []int64) {
	a.set(name, AttrValue{Kind: AttrInts, Ints: v})
}

// SetFloats stores a float list attribute.
func (a *Attributes) SetFloats(name string, v []float32) {
	a.set(name, AttrValue{Kind: AttrFloats, Floats: v})
}

// Get returns the raw variant value.
func (a *Attributes) Get(name string) (AttrValue, bool) {
	v, ok := a.values[name]
	return v, ok
}

func (a *Attributes) typed(name string, kind AttrKind) (AttrValue, error) {
	v, ok := a.values[name]
	if !ok {
		return AttrValue{}, fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}
	if v.Kind != kind {
		return AttrValue{}, fmt.Errorf("%w: %q is %s, want %s",
			ErrWrongAttributeType, name, v.Kind, kind)
	}
	return v, nil
}

// Int returns an integer attribute.
func (a *Attributes) Int(name string) (int64, error) {
	v, err := a.typed(name, AttrInt)
	return v.I, err
}

// IntOr returns an integer attribute or a default when absent.
func (a *Attributes) IntOr(name string, def int64) int64 {
	if v, err := a.typed(name, AttrInt); err == nil {
		return v.I
	}
	return def
}

// Float returns a float attribute.
func (a *Attributes) Float(name string) (float32, error) {
	v, err := a.typed(name, AttrFloat)
	return v.F, err
}

// FloatOr returns a float attribute or a default when absent.
func (a *Attributes) FloatOr(name string, def float32) float32 {
	if v, err := a.typed(name, AttrFloat); err == nil {
		return v.F
	}
	return def
}

// String returns a string attribute.
func (a *Attributes) String(name string) (string, error) {
	v, err := a.typed(name, AttrString)
	return v.S, err
}

// StringOr returns a string attribute or a default when absent.
func (a *Attributes) StringOr(name, def string) string {
	if v, err := a.typed(name, AttrString); err == nil {
		return v.S
	}
	return def
}

// IntsAttr returns an integer list attribute.
func (a *Attributes) IntsAttr(name string) ([]int64, error) {
	v, err := a.typed(name, AttrInts)
	return v.Ints, err
}

// FloatsAttr returns a float list attribute.
func (a *Attributes) FloatsAttr(name string) ([]float32, error) {
	v, err := a.typed(name, AttrFloats)
	return v.Floats, err
}

// Clone returns a deep copy.
func (a *Attributes) Clone() Attributes {
	out := Attributes{}
	for _, name := range a.names {
		v := a.values[name]
		if v.Ints != nil {
			v.Ints = append([]int64(nil), v.Ints...)
		}
		if v.Floats != nil {
			v.Floats = append([]float32(nil), v.Floats...)
		}
		out.set(name, v)
	}
	return out
}
