// FILE: lixenwraith/paramconfig/deserialize.go
package paramconfig

import (
	"fmt"
)

var (
	trueTokens  = []string{"True", "true", "t", "on", "TRUE", "T", "ON", "yes", "YES", "1"}
	falseTokens = []string{"False", "false", "f", "off", "FALSE", "F", "OFF", "no", "NO", "0"}
)

func inTokens(s string, tokens []string) bool {
	for _, t := range tokens {
		if s == t {
			return true
		}
	}
	return false
}

// BooleanDeserializer accepts bools, the numbers 0 and 1, and common
// spellings such as "yes", "off" or "T".
type BooleanDeserializer struct{}

func (BooleanDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	switch v := raw.(type) {
	case bool:
		return set(obj, name, v)
	case string:
		switch {
		case inTokens(v, trueTokens):
			return set(obj, name, true)
		case inTokens(v, falseTokens):
			return set(obj, name, false)
		}
	default:
		if f, ok := toFloat(v); ok && (f == 0 || f == 1) {
			return set(obj, name, f == 1)
		}
	}
	return typeErrorf(obj, name, "cannot convert \"%v\" to bool", raw)
}

// IntegerDeserializer casts raw to int64.
type IntegerDeserializer struct{}

func (IntegerDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	i, err := castInt(raw)
	if err != nil {
		return wrapTypeError(obj, name, err)
	}
	return set(obj, name, i)
}

// NumberDeserializer casts raw to float64.
type NumberDeserializer struct{}

func (NumberDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	f, err := castFloat(raw)
	if err != nil {
		return wrapTypeError(obj, name, err)
	}
	return set(obj, name, f)
}

// StringDeserializer casts raw to its string form.
type StringDeserializer struct{}

func (StringDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	return set(obj, name, castString(raw))
}

// TupleDeserializer casts raw to a sequence; elements are kept as they are.
type TupleDeserializer struct{}

func (TupleDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	elems, ok := toSlice(raw)
	if !ok {
		return typeErrorf(obj, name, "cannot convert %v (%T) to a tuple", raw, raw)
	}
	return set(obj, name, append([]any(nil), elems...))
}

// NumericTupleDeserializer casts every element of raw to float64.
type NumericTupleDeserializer struct{}

func (NumericTupleDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	elems, ok := toSlice(raw)
	if !ok {
		return typeErrorf(obj, name, "cannot convert %v (%T) to a numeric tuple", raw, raw)
	}
	out := make([]float64, len(elems))
	for i, e := range elems {
		f, err := castFloat(e)
		if err != nil {
			return wrapTypeError(obj, name, fmt.Errorf("element %d: %w", i, err))
		}
		out[i] = f
	}
	return set(obj, name, out)
}

// ListDeserializer casts raw to a list. When the attribute declares an
// element class, elements not already of that class are constructed from
// the raw element.
type ListDeserializer struct{}

func (ListDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	elems, ok := toSlice(raw)
	if !ok {
		return typeErrorf(obj, name, "cannot convert %v (%T) to a list", raw, raw)
	}
	p, _ := obj.Param(name)
	out := make([]any, len(elems))
	for i, e := range elems {
		if p.Class == nil || isInstance(e, p.Class) {
			out[i] = e
			continue
		}
		v, err := construct(p.Class, e)
		if err != nil {
			return wrapTypeError(obj, name, fmt.Errorf("element %d: %w", i, err))
		}
		out[i] = v
	}
	return set(obj, name, out)
}

// DictDeserializer accepts any mapping, flattening ordered Maps.
type DictDeserializer struct{}

func (DictDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	m, ok := asMap(raw)
	if !ok {
		return typeErrorf(obj, name, "cannot convert %v (%T) to a dict", raw, raw)
	}
	return set(obj, name, m.ToMap())
}

// TupleSerializer writes tuple kinds as plain lists.
type TupleSerializer struct{}

func (TupleSerializer) Serialize(name string, obj Parameterized) (any, error) {
	v := obj.Get(name)
	if v == nil {
		return nil, nil
	}
	elems, ok := toSlice(v)
	if !ok {
		return nil, typeErrorf(obj, name, "expected a sequence, got %T", v)
	}
	return append([]any(nil), elems...), nil
}
