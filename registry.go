// FILE: lixenwraith/paramconfig/registry.go
package paramconfig

import "maps"

// Registry maps attribute kinds to default converters. Entry points take a
// *Registry and fall back to DefaultRegistry (structured formats) or
// StringRegistry (INI) when it is nil. Registries are not synchronized;
// configure them before sharing.
type Registry struct {
	serializers   map[Kind]Serializer
	deserializers map[Kind]Deserializer
}

// NewRegistry returns an empty registry; every kind uses the verbatim fallback.
func NewRegistry() *Registry {
	return &Registry{
		serializers:   make(map[Kind]Serializer),
		deserializers: make(map[Kind]Deserializer),
	}
}

var (
	baseRegistry   = buildDefaultRegistry()
	stringRegistry = buildStringRegistry(baseRegistry)
)

// DefaultRegistry returns a fresh copy of the natural converter table used by
// JSON, YAML and TOML.
func DefaultRegistry() *Registry {
	return baseRegistry.Clone()
}

// StringRegistry returns a fresh copy of the natural table overlaid with
// JSON-string converters for container kinds, as used by INI.
func StringRegistry() *Registry {
	return stringRegistry.Clone()
}

// Clone returns an independent copy that can be extended without affecting r.
func (r *Registry) Clone() *Registry {
	return &Registry{
		serializers:   maps.Clone(r.serializers),
		deserializers: maps.Clone(r.deserializers),
	}
}

// SetSerializer registers s for kind. A nil s removes the entry.
func (r *Registry) SetSerializer(kind Kind, s Serializer) *Registry {
	if s == nil {
		delete(r.serializers, kind)
	} else {
		r.serializers[kind] = s
	}
	return r
}

// SetDeserializer registers d for kind. A nil d removes the entry.
func (r *Registry) SetDeserializer(kind Kind, d Deserializer) *Registry {
	if d == nil {
		delete(r.deserializers, kind)
	} else {
		r.deserializers[kind] = d
	}
	return r
}

// Serializer returns the registered serializer for kind.
func (r *Registry) Serializer(kind Kind) (Serializer, bool) {
	s, ok := r.serializers[kind]
	return s, ok
}

// Deserializer returns the registered deserializer for kind.
func (r *Registry) Deserializer(kind Kind) (Deserializer, bool) {
	d, ok := r.deserializers[kind]
	return d, ok
}

// resolveSerializer applies name, kind and registry precedence.
func (r *Registry) resolveSerializer(p *Param, o *SerializerOverrides) Serializer {
	if s, ok := lookup(p, o, r.serializers); ok && s != nil {
		return s
	}
	return verbatimSerializer{}
}

// resolveDeserializer applies name, kind and registry precedence.
func (r *Registry) resolveDeserializer(p *Param, o *DeserializerOverrides) Deserializer {
	if d, ok := lookup(p, o, r.deserializers); ok && d != nil {
		return d
	}
	return verbatimDeserializer{}
}

func buildDefaultRegistry() *Registry {
	r := NewRegistry()

	tuple := TupleSerializer{}
	listSel := ListSelectorSerializer{}
	r.SetSerializer(KindArray, ArraySerializer{}).
		SetSerializer(KindClassSelector, ClassSelectorSerializer{}).
		SetSerializer(KindDataFrame, DataFrameSerializer{}).
		SetSerializer(KindDate, NewDateSerializer()).
		SetSerializer(KindDateRange, NewDateRangeSerializer()).
		SetSerializer(KindListSelector, listSel).
		SetSerializer(KindMultiFileSelector, listSel).
		SetSerializer(KindNumericTuple, tuple).
		SetSerializer(KindObjectSelector, ObjectSelectorSerializer{}).
		SetSerializer(KindRange, tuple).
		SetSerializer(KindSeries, SeriesSerializer{}).
		SetSerializer(KindTuple, tuple).
		SetSerializer(KindXYCoordinates, tuple)

	list := ListDeserializer{}
	number := NumberDeserializer{}
	numTuple := NumericTupleDeserializer{}
	listSelD := ListSelectorDeserializer{}
	r.SetDeserializer(KindArray, ArrayDeserializer{}).
		SetDeserializer(KindBoolean, BooleanDeserializer{}).
		SetDeserializer(KindClassSelector, ClassSelectorDeserializer{}).
		SetDeserializer(KindDataFrame, NewDataFrameDeserializer()).
		SetDeserializer(KindDate, NewDateDeserializer()).
		SetDeserializer(KindDateRange, NewDateRangeDeserializer()).
		SetDeserializer(KindDict, DictDeserializer{}).
		SetDeserializer(KindHookList, list).
		SetDeserializer(KindInteger, IntegerDeserializer{}).
		SetDeserializer(KindList, list).
		SetDeserializer(KindListSelector, listSelD).
		SetDeserializer(KindMagnitude, number).
		SetDeserializer(KindMultiFileSelector, listSelD).
		SetDeserializer(KindNumber, number).
		SetDeserializer(KindNumericTuple, numTuple).
		SetDeserializer(KindObjectSelector, ObjectSelectorDeserializer{}).
		SetDeserializer(KindRange, numTuple).
		SetDeserializer(KindSeries, NewSeriesDeserializer()).
		SetDeserializer(KindString, StringDeserializer{}).
		SetDeserializer(KindTuple, TupleDeserializer{}).
		SetDeserializer(KindXYCoordinates, numTuple)
	return r
}

// buildStringRegistry overlays JSON-string wrappers on top of base.
func buildStringRegistry(base *Registry) *Registry {
	r := base.Clone()
	for _, k := range jsonStringKinds {
		inner, ok := base.Serializer(k)
		if !ok {
			inner = verbatimSerializer{}
		}
		r.SetSerializer(k, JSONStringSerializer{Inner: inner})

		innerD, ok := base.Deserializer(k)
		if !ok {
			innerD = verbatimDeserializer{}
		}
		r.SetDeserializer(k, JSONStringDeserializer{Inner: innerD, FileSuffixes: fileSuffixes[k]})
	}
	if _, ok := r.deserializers[KindParameter]; !ok {
		r.deserializers[KindParameter] = verbatimDeserializer{}
	}
	for k, d := range r.deserializers {
		if k == KindString {
			continue
		}
		r.deserializers[k] = noneTokenDeserializer{Inner: d}
	}
	return r
}
