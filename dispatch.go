// FILE: lixenwraith/paramconfig/dispatch.go
package paramconfig

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Selection restricts which attributes are serialized. A nil Selection
// selects every attribute except the identity "name".
//
// In a tree walk, a Selection with Children is indexed per child key (a
// missing child selects everything); one without Children applies to every leaf.
type Selection struct {
	Names    []string
	Children map[string]*Selection
}

// Only selects the named attributes.
func Only(names ...string) *Selection {
	return &Selection{Names: names}
}

// OnlyTree selects per path in a tree.
func OnlyTree(children map[string]*Selection) *Selection {
	return &Selection{Children: children}
}

func (s *Selection) child(key string) *Selection {
	if s == nil {
		return nil
	}
	if s.Children != nil {
		return s.Children[key]
	}
	return s
}

// SerializeOptions controls serialization of objects and trees.
type SerializeOptions struct {
	Only      *Selection
	Overrides *SerializerOverrides
	OnMissing MissingPolicy // DefaultPolicy means Raise
	Registry  *Registry     // nil means DefaultRegistry
	Logger    *zap.Logger   // nil means the object's logger, then DefaultLogger
}

// DeserializeOptions controls deserialization of objects and trees.
type DeserializeOptions struct {
	Overrides *DeserializerOverrides
	OnMissing MissingPolicy // DefaultPolicy means Warn
	Registry  *Registry     // nil means DefaultRegistry
	Logger    *zap.Logger
}

// DefaultSerializeOptions returns the options used when none are given.
func DefaultSerializeOptions() SerializeOptions {
	return SerializeOptions{OnMissing: Raise, Registry: DefaultRegistry()}
}

// DefaultDeserializeOptions returns the options used when none are given.
func DefaultDeserializeOptions() DeserializeOptions {
	return DeserializeOptions{OnMissing: Warn, Registry: DefaultRegistry()}
}

func (o SerializeOptions) resolved() (SerializeOptions, error) {
	if !o.OnMissing.valid() {
		return o, fmt.Errorf("%w: %s", ErrInvalidPolicy, o.OnMissing)
	}
	o.OnMissing = o.OnMissing.or(Raise)
	if o.Registry == nil {
		o.Registry = baseRegistry
	}
	return o, nil
}

func (o DeserializeOptions) resolved() (DeserializeOptions, error) {
	if !o.OnMissing.valid() {
		return o, fmt.Errorf("%w: %s", ErrInvalidPolicy, o.OnMissing)
	}
	o.OnMissing = o.OnMissing.or(Warn)
	if o.Registry == nil {
		o.Registry = baseRegistry
	}
	return o, nil
}

// SerializeToDict serializes one object into a Map keyed by attribute name
// in sorted order, along with the help text of every attribute that has any.
func SerializeToDict(obj Parameterized, opts SerializeOptions) (*Map, map[string]string, error) {
	opts, err := opts.resolved()
	if err != nil {
		return nil, nil, err
	}
	return serializeFlat(obj, opts.Only, opts.Overrides, opts)
}

func serializeFlat(obj Parameterized, only *Selection, ov *SerializerOverrides, opts SerializeOptions) (*Map, map[string]string, error) {
	logger := loggerFor(opts.Logger, obj)

	var names []string
	if only == nil {
		for _, p := range obj.Params() {
			if p.Name != NameParam {
				names = append(names, p.Name)
			}
		}
	} else {
		names = append([]string(nil), only.Names...)
	}
	sort.Strings(names)

	data := NewMap()
	help := make(map[string]string)
	for _, name := range names {
		if data.Has(name) {
			continue
		}
		p, ok := obj.Param(name)
		if !ok {
			msg := fmt.Sprintf("No param %q to read in %q", name, obj.Name())
			if err := opts.OnMissing.apply(logger, msg); err != nil {
				return nil, nil, err
			}
			continue
		}

		s := opts.Registry.resolveSerializer(p, ov)
		v, err := s.Serialize(name, obj)
		if err != nil {
			return nil, nil, wrapTypeError(obj, name, err)
		}
		data.Set(name, v)
		if h := joinHelp(p.Doc, helpOf(s, name, obj)); h != "" {
			help[name] = h
		}
	}
	return data, help, nil
}

// joinHelp combines a declared doc string with serializer help.
func joinHelp(doc, serial string) string {
	switch {
	case doc != "" && serial != "":
		return strings.Trim(doc, ". ") + ". " + serial
	case doc != "":
		return doc
	}
	return serial
}

// DeserializeFromDict assigns every entry of data to the matching attribute of obj.
func DeserializeFromDict(data *Map, obj Parameterized, opts DeserializeOptions) error {
	opts, err := opts.resolved()
	if err != nil {
		return err
	}
	return deserializeFlat(data, obj, opts.Overrides, opts)
}

func deserializeFlat(data *Map, obj Parameterized, ov *DeserializerOverrides, opts DeserializeOptions) error {
	logger := loggerFor(opts.Logger, obj)
	for _, name := range data.Keys() {
		p, ok := obj.Param(name)
		if !ok {
			msg := fmt.Sprintf("No param %q to set in %q", name, obj.Name())
			if err := opts.OnMissing.apply(logger, msg); err != nil {
				return err
			}
			continue
		}
		raw, _ := data.Get(name)
		d := opts.Registry.resolveDeserializer(p, ov)
		if err := d.Deserialize(name, raw, obj); err != nil {
			return wrapTypeError(obj, name, err)
		}
	}
	return nil
}
