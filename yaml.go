// FILE: lixenwraith/paramconfig/yaml.go
package paramconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	yamlv2 "gopkg.in/yaml.v2"
	"gopkg.in/yaml.v3"
)

// YAMLBackend encodes and decodes YAML documents. help mirrors data and may be nil.
type YAMLBackend interface {
	Name() string
	Encode(w io.Writer, data, help *Map) error
	Decode(r io.Reader) (any, error)
}

// DefaultYAMLBackends is the backend preference order: yaml.v3 writes help as
// end-of-line comments, yaml.v2 as a leading comment block.
var DefaultYAMLBackends = []string{"yaml.v3", "yaml.v2"}

var (
	yamlMu       sync.RWMutex
	yamlBackends = map[string]YAMLBackend{
		"yaml.v3": yamlV3Backend{},
		"yaml.v2": yamlV2Backend{},
	}
)

// RegisterYAMLBackend makes b selectable by its name, replacing any backend
// of the same name.
func RegisterYAMLBackend(b YAMLBackend) {
	yamlMu.Lock()
	defer yamlMu.Unlock()
	yamlBackends[b.Name()] = b
}

// resolveYAMLBackend returns the first registered backend in names.
func resolveYAMLBackend(names []string) (YAMLBackend, error) {
	if names == nil {
		names = DefaultYAMLBackends
	}
	yamlMu.RLock()
	defer yamlMu.RUnlock()
	for _, n := range names {
		if b, ok := yamlBackends[n]; ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: tried %s", ErrNoYAMLBackend, strings.Join(names, ", "))
}

// YAMLWriteOptions controls SerializeToYAML.
type YAMLWriteOptions struct {
	SerializeOptions
	IncludeHelp bool
	Backends    []string // nil means DefaultYAMLBackends
}

// YAMLReadOptions controls DeserializeFromYAML.
type YAMLReadOptions struct {
	DeserializeOptions
	Backends []string
}

// DefaultYAMLWriteOptions writes help with the default backends.
func DefaultYAMLWriteOptions() YAMLWriteOptions {
	return YAMLWriteOptions{SerializeOptions: DefaultSerializeOptions(), IncludeHelp: true}
}

// DefaultYAMLReadOptions warns on unknown keys.
func DefaultYAMLReadOptions() YAMLReadOptions {
	return YAMLReadOptions{DeserializeOptions: DefaultDeserializeOptions()}
}

// SerializeToYAML writes root as a YAML mapping, keeping tree order.
func SerializeToYAML(w io.Writer, root Node, opts YAMLWriteOptions) error {
	backend, err := resolveYAMLBackend(opts.Backends)
	if err != nil {
		return err
	}
	data, help, err := SerializeTree(root, opts.SerializeOptions)
	if err != nil {
		return err
	}
	if !opts.IncludeHelp {
		help = nil
	}
	var buf bytes.Buffer
	if err := backend.Encode(&buf, data, help); err != nil {
		return fmt.Errorf("failed to encode YAML with %s: %w", backend.Name(), err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// SerializeToYAMLFile writes root to path atomically.
func SerializeToYAMLFile(path string, root Node, opts YAMLWriteOptions) error {
	var buf bytes.Buffer
	if err := SerializeToYAML(&buf, root, opts); err != nil {
		return err
	}
	return atomicWriteFile(path, buf.Bytes())
}

// DeserializeFromYAML reads a YAML mapping from r into root. An empty
// document changes nothing.
func DeserializeFromYAML(r io.Reader, root Node, opts YAMLReadOptions) error {
	backend, err := resolveYAMLBackend(opts.Backends)
	if err != nil {
		return err
	}
	v, err := backend.Decode(r)
	if err != nil {
		return fmt.Errorf("failed to parse YAML with %s: %w", backend.Name(), err)
	}
	if v == nil {
		return nil
	}
	data, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("%w: YAML root must be a mapping, got %T", ErrShapeMismatch, v)
	}
	return DeserializeTree(data, root, opts.DeserializeOptions)
}

// DeserializeFromYAMLFile reads the YAML file at path into root.
func DeserializeFromYAMLFile(path string, root Node, opts YAMLReadOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open YAML file '%s': %w", path, err)
	}
	defer f.Close()
	if err := DeserializeFromYAML(f, root, opts); err != nil {
		return fmt.Errorf("failed to deserialize '%s': %w", path, err)
	}
	return nil
}

// yamlV3Backend writes help as end-of-line comments on each key.
type yamlV3Backend struct{}

func (yamlV3Backend) Name() string { return "yaml.v3" }

func (yamlV3Backend) Encode(w io.Writer, data, help *Map) error {
	node, err := data.yamlNode(help)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return err
	}
	return enc.Close()
}

func (yamlV3Backend) Decode(r io.Reader) (any, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return yamlNodeValue(&node)
}

// yamlV2Backend writes help as a commented YAML block before the document.
type yamlV2Backend struct{}

func (yamlV2Backend) Name() string { return "yaml.v2" }

func (yamlV2Backend) Encode(w io.Writer, data, help *Map) error {
	if help.Len() > 0 {
		hb, err := yamlv2.Marshal(toMapSlice(help))
		if err != nil {
			return fmt.Errorf("failed to encode help: %w", err)
		}
		var banner strings.Builder
		banner.WriteString("# == Help ==\n")
		for _, line := range strings.Split(strings.TrimRight(string(hb), "\n"), "\n") {
			banner.WriteString("# " + line + "\n")
		}
		banner.WriteString("\n")
		if _, err := io.WriteString(w, banner.String()); err != nil {
			return err
		}
	}
	b, err := yamlv2.Marshal(toMapSlice(data))
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (yamlV2Backend) Decode(r io.Reader) (any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var ms yamlv2.MapSlice
	if err := yamlv2.Unmarshal(raw, &ms); err != nil {
		return nil, err
	}
	if ms == nil {
		return nil, nil
	}
	return fromYAMLv2(ms), nil
}

// toMapSlice converts Maps (recursively) to yaml.v2's ordered mapping.
func toMapSlice(m *Map) yamlv2.MapSlice {
	ms := make(yamlv2.MapSlice, 0, m.Len())
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		ms = append(ms, yamlv2.MapItem{Key: k, Value: toYAMLv2(v)})
	}
	return ms
}

func toYAMLv2(v any) any {
	switch t := v.(type) {
	case *Map:
		return toMapSlice(t)
	case map[string]any:
		return toMapSlice(MapFrom(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toYAMLv2(e)
		}
		return out
	}
	return v
}

// fromYAMLv2 converts decoded yaml.v2 values to Maps, int64 and float64.
func fromYAMLv2(v any) any {
	switch t := v.(type) {
	case yamlv2.MapSlice:
		m := NewMap()
		for _, item := range t {
			m.Set(fmt.Sprint(item.Key), fromYAMLv2(item.Value))
		}
		return m
	case map[any]any:
		conv := make(map[string]any, len(t))
		for k, e := range t {
			conv[fmt.Sprint(k)] = fromYAMLv2(e)
		}
		return MapFrom(conv)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromYAMLv2(e)
		}
		return out
	case int:
		return int64(t)
	case uint64:
		return float64(t)
	}
	return v
}
