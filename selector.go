// FILE: lixenwraith/paramconfig/selector.go
package paramconfig

import (
	"fmt"
	"reflect"
	"strings"
)

// valuesEqual compares values the way choice matching needs: numbers by
// value regardless of width, sequences element-wise.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if _, isBool := a.(bool); !isBool {
		if _, isBool := b.(bool); !isBool {
			fa, okA := toFloat(a)
			fb, okB := toFloat(b)
			if okA && okB {
				return fa == fb
			}
		}
	}
	sa, okA := toSlice(a)
	sb, okB := toSlice(b)
	if okA && okB {
		if len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !valuesEqual(sa[i], sb[i]) {
				return false
			}
		}
		return true
	}
	if okA != okB {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb && ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// sameClass reports whether two values are of a matching type, treating all
// numbers as one class.
func sameClass(a, b any) bool {
	if reflect.TypeOf(a) == reflect.TypeOf(b) {
		return true
	}
	_, na := toFloat(a)
	_, nb := toFloat(b)
	return na && nb
}

// findChoiceByValue returns the declared choice value equal to v.
func findChoiceByValue(p *Param, v any) (any, bool) {
	for _, c := range p.Choices {
		if valuesEqual(c.Value, v) {
			return c.Value, true
		}
	}
	return nil, false
}

// findChoiceByName returns the choice value declared under name.
func findChoiceByName(p *Param, name string) (any, bool) {
	for _, c := range p.Choices {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// findChoice resolves raw as a choice value first, then as a choice name.
func findChoice(p *Param, raw any) (any, bool) {
	if v, ok := findChoiceByValue(p, raw); ok {
		return v, true
	}
	return findChoiceByName(p, castString(raw))
}

// choiceNameOf maps v back to its choice name. The second result is false
// when no choice of the same class holds v.
func choiceNameOf(p *Param, v any) (string, bool) {
	for _, c := range p.Choices {
		if sameClass(c.Value, v) && valuesEqual(c.Value, v) {
			return c.Name, true
		}
	}
	return "", false
}

// nameOrValue serializes a selected value by name, warning when it is not a choice.
func nameOrValue(name string, obj Parameterized, v any) any {
	p, _ := obj.Param(name)
	if n, ok := choiceNameOf(p, v); ok {
		return n
	}
	loggerFor(nil, obj).Warn(fmt.Sprintf(
		"Could not find value of %s in choices, so serializing value directly", name),
		loggerField(obj, name))
	return v
}

func quotedChoices(p *Param) string {
	names := p.ChoiceNames()
	for i, n := range names {
		names[i] = `"` + n + `"`
	}
	return strings.Join(names, ", ")
}

// ObjectSelectorSerializer writes the choice name of the selected value.
type ObjectSelectorSerializer struct{}

func (ObjectSelectorSerializer) Serialize(name string, obj Parameterized) (any, error) {
	v := obj.Get(name)
	if v == nil {
		return nil, nil
	}
	return nameOrValue(name, obj, v), nil
}

func (ObjectSelectorSerializer) Help(name string, obj Parameterized) string {
	p, ok := obj.Param(name)
	if !ok || len(p.Choices) == 0 {
		return ""
	}
	return "Choices: " + quotedChoices(p)
}

// ListSelectorSerializer writes each selected element by choice name.
type ListSelectorSerializer struct{}

func (ListSelectorSerializer) Serialize(name string, obj Parameterized) (any, error) {
	v := obj.Get(name)
	if v == nil {
		return nil, nil
	}
	elems, ok := toSlice(v)
	if !ok {
		return nil, typeErrorf(obj, name, "expected a list, got %T", v)
	}
	out := make([]any, len(elems))
	for i, e := range elems {
		out[i] = nameOrValue(name, obj, e)
	}
	return out, nil
}

func (ListSelectorSerializer) Help(name string, obj Parameterized) string {
	p, ok := obj.Param(name)
	if !ok || len(p.Choices) == 0 {
		return ""
	}
	return "Element choices: " + quotedChoices(p)
}

// ClassSelectorSerializer writes instances verbatim and types by choice name.
type ClassSelectorSerializer struct{}

func (ClassSelectorSerializer) Serialize(name string, obj Parameterized) (any, error) {
	v := obj.Get(name)
	p, _ := obj.Param(name)
	if v == nil || p.IsInstance {
		return v, nil
	}
	return nameOrValue(name, obj, v), nil
}

func (ClassSelectorSerializer) Help(name string, obj Parameterized) string {
	p, ok := obj.Param(name)
	if !ok || !p.IsInstance || len(p.Choices) == 0 {
		return ""
	}
	return "Choices: " + quotedChoices(p)
}

// ObjectSelectorDeserializer matches raw against the choices by value, then by name.
type ObjectSelectorDeserializer struct{}

func (ObjectSelectorDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	p, _ := obj.Param(name)
	if len(p.Choices) == 0 {
		return set(obj, name, raw)
	}
	v, ok := findChoice(p, raw)
	if !ok {
		return typeErrorf(obj, name, "%v is not one of %s", raw, quotedChoices(p))
	}
	return set(obj, name, v)
}

// ListSelectorDeserializer matches every element of raw against the choices.
// A list selector is never nil, so there is no none check.
type ListSelectorDeserializer struct{}

func (ListSelectorDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	elems, ok := toSlice(raw)
	if !ok {
		return typeErrorf(obj, name, "cannot convert %v (%T) to a list", raw, raw)
	}
	p, _ := obj.Param(name)
	out := make([]any, len(elems))
	for i, e := range elems {
		v, ok := findChoice(p, e)
		if !ok {
			return typeErrorf(obj, name, "element %v is not one of %s", e, quotedChoices(p))
		}
		out[i] = v
	}
	return set(obj, name, out)
}

// ClassSelectorDeserializer builds an instance of the declared class when the
// attribute holds instances, otherwise resolves raw among the allowed types.
type ClassSelectorDeserializer struct{}

func (ClassSelectorDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	p, _ := obj.Param(name)
	if p.IsInstance && p.Class != nil {
		if isInstance(raw, p.Class) {
			return set(obj, name, raw)
		}
		v, err := construct(p.Class, raw)
		if err != nil {
			return wrapTypeError(obj, name, err)
		}
		return set(obj, name, v)
	}
	if v, ok := findChoice(p, raw); ok {
		return set(obj, name, v)
	}
	if t, ok := raw.(reflect.Type); ok {
		return set(obj, name, t)
	}
	return typeErrorf(obj, name, "%v is not one of %s", raw, quotedChoices(p))
}
