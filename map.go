// FILE: lixenwraith/paramconfig/map.go
package paramconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Map is a string-keyed mapping that remembers insertion order. Serialized
// data trees are built from Maps so file output keeps the order of the
// object tree and attribute names stay sorted.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// MapOf builds a Map from alternating key/value arguments.
func MapOf(kv ...any) *Map {
	m := NewMap()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return m
}

// MapFrom converts a Go map into a Map with sorted keys. Nested maps are converted too.
func MapFrom(src map[string]any) *Map {
	m := NewMap()
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.Set(k, toMapValue(src[k]))
	}
	return m
}

func toMapValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return MapFrom(t)
	case map[any]any:
		conv := make(map[string]any, len(t))
		for k, e := range t {
			conv[fmt.Sprint(k)] = e
		}
		return MapFrom(conv)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toMapValue(e)
		}
		return out
	}
	return v
}

// asMap accepts *Map or map[string]any as a mapping node.
func asMap(v any) (*Map, bool) {
	switch t := v.(type) {
	case *Map:
		return t, t != nil
	case map[string]any:
		return MapFrom(t), true
	case map[any]any:
		m, _ := toMapValue(t).(*Map)
		return m, true
	}
	return nil, false
}

// Set inserts or replaces a value. Replacing keeps the original position.
func (m *Map) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value at key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key if present.
func (m *Map) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Sub returns the nested Map at key, if any.
func (m *Map) Sub(key string) (*Map, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*Map)
	return sub, ok
}

// ToMap converts to nested Go maps, dropping order.
func (m *Map) ToMap() map[string]any {
	out := make(map[string]any, m.Len())
	for _, k := range m.Keys() {
		out[k] = fromMapValue(m.values[k])
	}
	return out
}

func fromMapValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.ToMap()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromMapValue(e)
		}
		return out
	}
	return v
}

// Clone deep-copies nested Maps and slices.
func (m *Map) Clone() *Map {
	c := NewMap()
	for _, k := range m.Keys() {
		c.Set(k, cloneMapValue(m.values[k]))
	}
	return c
}

func cloneMapValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneMapValue(e)
		}
		return out
	}
	return v
}

// MarshalJSON writes entries in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalJSON(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalJSON(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalJSON is json.Marshal without HTML escaping.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON reads an object keeping key order. Numbers become int64 when
// integral and float64 otherwise; nested objects become *Map.
func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return err
	}
	parsed, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("expected JSON object, got %T", v)
	}
	*m = *parsed
	return nil
}

// decodeJSONValue reads one value from a token stream.
func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", kt)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			arr := []any{}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		return normalizeNumber(t), nil
	}
	return tok, nil
}

// normalizeNumber prefers int64 for integral literals.
func normalizeNumber(n json.Number) any {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return s
}

// decodeJSON parses any JSON document with the same normalization as Map.
func decodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("unexpected data after top-level value")
		}
		return nil, err
	}
	return v, nil
}

// MarshalYAML renders the Map as an ordered mapping node.
func (m *Map) MarshalYAML() (any, error) {
	return m.yamlNode(nil)
}

// yamlNode builds a mapping node. help, when given, mirrors the Map and its
// string leaves become end-of-line comments on the matching keys.
func (m *Map) yamlNode(help *Map) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.Keys() {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		var (
			valNode *yaml.Node
			err     error
		)
		hv, _ := help.Get(k)
		switch v := m.values[k].(type) {
		case *Map:
			subHelp, _ := hv.(*Map)
			valNode, err = v.yamlNode(subHelp)
		default:
			valNode, err = yamlValueNode(v)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to encode key %q: %w", k, err)
		}
		if s, ok := hv.(string); ok && s != "" {
			keyNode.LineComment = s
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

func yamlValueNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case *Map:
		return t.yamlNode(nil)
	case time.Time:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.Format(time.RFC3339Nano)}, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

// UnmarshalYAML reads a mapping node keeping key order.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	v, err := yamlNodeValue(node)
	if err != nil {
		return err
	}
	parsed, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("expected YAML mapping, got %T", v)
	}
	*m = *parsed
	return nil
}

// yamlNodeValue converts a node tree into Maps, slices and scalars.
// Timestamps stay strings so attribute converters decide their meaning.
func yamlNodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return yamlNodeValue(node.Content[0])
	case yaml.AliasNode:
		return yamlNodeValue(node.Alias)
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			if k.Tag == "!!merge" {
				merged, err := yamlNodeValue(v)
				if err != nil {
					return nil, err
				}
				if mm, ok := merged.(*Map); ok {
					for _, mk := range mm.Keys() {
						if !m.Has(mk) {
							mv, _ := mm.Get(mk)
							m.Set(mk, mv)
						}
					}
				}
				continue
			}
			val, err := yamlNodeValue(v)
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, val)
		}
		return m, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(node.Content))
		for _, c := range node.Content {
			val, err := yamlNodeValue(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return nil, err
			}
			return b, nil
		case "!!int":
			var i int64
			if err := node.Decode(&i); err != nil {
				return nil, err
			}
			return i, nil
		case "!!float":
			var f float64
			if err := node.Decode(&f); err != nil {
				return nil, err
			}
			return f, nil
		case "!!binary":
			var b []byte
			if err := node.Decode(&b); err != nil {
				return nil, err
			}
			return b, nil
		}
		return node.Value, nil
	}
	return nil, fmt.Errorf("unsupported YAML node kind %d at line %d", node.Kind, node.Line)
}

// String renders the Map as compact JSON for debugging.
func (m *Map) String() string {
	b, err := m.MarshalJSON()
	if err != nil {
		return "{" + strconv.Quote(err.Error()) + "}"
	}
	return string(b)
}
