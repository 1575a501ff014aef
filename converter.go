// FILE: lixenwraith/paramconfig/converter.go
package paramconfig

// Serializer turns one attribute of obj into its external representation.
type Serializer interface {
	Serialize(name string, obj Parameterized) (any, error)
}

// Helper is implemented by serializers that can explain their output.
// An empty string means no help.
type Helper interface {
	Help(name string, obj Parameterized) string
}

// Deserializer converts raw into a value for attribute name and assigns it to obj.
type Deserializer interface {
	Deserialize(name string, raw any, obj Parameterized) error
}

// SerializerFunc adapts a function to Serializer.
type SerializerFunc func(name string, obj Parameterized) (any, error)

func (f SerializerFunc) Serialize(name string, obj Parameterized) (any, error) {
	return f(name, obj)
}

// DeserializerFunc adapts a function to Deserializer.
type DeserializerFunc func(name string, raw any, obj Parameterized) error

func (f DeserializerFunc) Deserialize(name string, raw any, obj Parameterized) error {
	return f(name, raw, obj)
}

// Overrides carries caller-supplied converters consulted before the registry.
// Names match attribute names exactly, Kinds match declared kinds.
//
// In a tree walk, Names is handed to each child unchanged unless Children is
// set, in which case each child receives Children[key] (nil when absent).
// Kinds accumulate: a child sees its parent's Kinds merged with its own.
// A child explicitly mapped to nil receives no overrides at all.
type Overrides[C any] struct {
	Names    map[string]C
	Kinds    map[Kind]C
	Children map[string]*Overrides[C]
}

// SerializerOverrides is the override set used when serializing.
type SerializerOverrides = Overrides[Serializer]

// DeserializerOverrides is the override set used when deserializing.
type DeserializerOverrides = Overrides[Deserializer]

// child returns the overrides threaded to the child at key.
func (o *Overrides[C]) child(key string) *Overrides[C] {
	if o == nil {
		return nil
	}
	var sub *Overrides[C]
	if o.Children != nil {
		c, present := o.Children[key]
		if present && c == nil {
			return nil
		}
		sub = c
	} else {
		sub = &Overrides[C]{Names: o.Names}
	}
	if len(o.Kinds) == 0 {
		return sub
	}

	merged := make(map[Kind]C, len(o.Kinds))
	for k, c := range o.Kinds {
		merged[k] = c
	}
	out := &Overrides[C]{Kinds: merged}
	if sub != nil {
		out.Names = sub.Names
		out.Children = sub.Children
		for k, c := range sub.Kinds {
			merged[k] = c
		}
	}
	return out
}

// lookup resolves a converter by precedence: name override, kind override,
// registry default. ok is false when the verbatim fallback applies.
func lookup[C any](p *Param, o *Overrides[C], defaults map[Kind]C) (c C, ok bool) {
	if o != nil {
		if c, ok = o.Names[p.Name]; ok {
			return c, true
		}
		if c, ok = o.Kinds[p.Kind]; ok {
			return c, true
		}
	}
	c, ok = defaults[p.Kind]
	return c, ok
}

// verbatimSerializer returns the attribute value as is.
type verbatimSerializer struct{}

func (verbatimSerializer) Serialize(name string, obj Parameterized) (any, error) {
	return obj.Get(name), nil
}

// verbatimDeserializer performs a none check then assigns raw unchanged.
type verbatimDeserializer struct{}

func (verbatimDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	return set(obj, name, raw)
}

// noneCheck assigns nil when raw is nil and the attribute allows it.
// done reports whether the conversion is finished.
func noneCheck(name string, raw any, obj Parameterized) (done bool, err error) {
	if raw != nil {
		return false, nil
	}
	p, ok := obj.Param(name)
	if !ok || !p.AllowNone {
		return false, nil
	}
	return true, set(obj, name, nil)
}

// set assigns through the object's validation, reporting rejects as TypeError.
func set(obj Parameterized, name string, v any) error {
	if err := obj.Set(name, v); err != nil {
		return wrapTypeError(obj, name, err)
	}
	return nil
}

// helpOf returns the converter's help, if it offers any.
func helpOf(c any, name string, obj Parameterized) string {
	if h, ok := c.(Helper); ok {
		return h.Help(name, obj)
	}
	return ""
}
