// FILE: lixenwraith/paramconfig/combine.go
package paramconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// CombineOptions controls how parsed documents are merged.
type CombineOptions struct {
	// Nested merges colliding mappings key by key instead of replacing them.
	Nested bool

	// Quiet suppresses warnings about appended lists and clobbered values
	// of a different type.
	Quiet bool

	// Compact writes JSON without indentation.
	Compact bool

	Logger *zap.Logger
}

var errUnmergeable = errors.New("more than one source and sources encode neither a mapping nor a list, " +
	"or some encode mappings and some encode lists; unable to merge")

// CombineValues merges parsed documents. A single value is returned as is;
// lists are concatenated; mappings are merged with later values clobbering
// earlier ones. Anything else is an error.
func CombineValues(vals []any, opts CombineOptions) (any, error) {
	logger := loggerFor(opts.Logger, nil)
	switch {
	case len(vals) == 0:
		return nil, fmt.Errorf("nothing to combine")
	case len(vals) == 1:
		return vals[0], nil
	}

	allLists, allMaps := true, true
	for _, v := range vals {
		if _, ok := v.([]any); !ok {
			allLists = false
		}
		if _, ok := asMap(v); !ok {
			allMaps = false
		}
	}

	switch {
	case allLists:
		if !opts.Quiet {
			logger.Warn("Source files are all lists. Source files will merely be appended together")
		}
		var out []any
		for _, v := range vals {
			out = append(out, v.([]any)...)
		}
		return out, nil
	case allMaps:
		ms := make([]*Map, len(vals))
		for i, v := range vals {
			ms[i], _ = asMap(v)
		}
		if opts.Nested {
			return combineNested(ms, nil, !opts.Quiet, logger), nil
		}
		return combineClobber(ms, !opts.Quiet, logger), nil
	}
	return nil, errUnmergeable
}

// sameShape reports whether two decoded values have the same type, treating
// every mapping representation alike.
func sameShape(a, b any) bool {
	_, aMap := asMap(a)
	_, bMap := asMap(b)
	if aMap || bMap {
		return aMap && bMap
	}
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

func combineClobber(maps []*Map, warn bool, logger *zap.Logger) *Map {
	out := NewMap()
	for _, m := range maps {
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			if orig, ok := out.Get(k); ok && warn && !sameShape(orig, v) {
				logger.Warn(fmt.Sprintf("clobbered value at key=%s not the same type", k))
			}
			out.Set(k, v)
		}
	}
	return out
}

func combineNested(maps []*Map, path []string, warn bool, logger *zap.Logger) *Map {
	out := NewMap()
	for _, m := range maps {
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			if orig, ok := out.Get(k); ok {
				origMap, origIsMap := asMap(orig)
				newMap, newIsMap := asMap(v)
				switch {
				case origIsMap && newIsMap:
					v = combineNested([]*Map{origMap, newMap}, extend(path, k), warn, logger)
				case warn && !sameShape(orig, v):
					logger.Warn(fmt.Sprintf("clobbered value at multiindex=%s not the same type", keyChain(extend(path, k))))
				}
			}
			out.Set(k, v)
		}
	}
	return out
}

// CombineINI merges INI files section by section, later values overriding
// earlier ones, and writes the result to w. Comments are dropped; bare keys
// stay bare.
func CombineINI(w io.Writer, sources ...string) error {
	if len(sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	merged := NewMap()
	for _, path := range sources {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read '%s': %w", path, err)
		}
		sections, err := readINI(data)
		if err != nil {
			return fmt.Errorf("failed to parse '%s': %w", path, err)
		}
		for _, name := range sections.Keys() {
			src, _ := sections.Sub(name)
			dst, ok := merged.Sub(name)
			if !ok {
				dst = NewMap()
				merged.Set(name, dst)
			}
			for _, k := range src.Keys() {
				v, _ := src.Get(k)
				dst.Set(k, v)
			}
		}
	}
	return writeINI(w, merged)
}

// readDocument parses a whole JSON, YAML or TOML file into Maps, slices and scalars.
func readDocument(path string, format Format) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s': %w", path, err)
	}
	defer f.Close()

	var v any
	switch format {
	case FormatJSON:
		v, err = decodeJSON(f)
	case FormatYAML:
		var backend YAMLBackend
		if backend, err = resolveYAMLBackend(nil); err == nil {
			v, err = backend.Decode(f)
		}
	case FormatTOML:
		v, err = parseTOML(f)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse '%s': %w", path, err)
	}
	return v, nil
}

// writeDocument renders a combined value in format.
func writeDocument(w io.Writer, v any, format Format, compact bool) error {
	switch format {
	case FormatJSON:
		indent := 2
		if compact {
			indent = 0
		}
		b, err := encodeJSON(v, indent)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		m, ok := asMap(v)
		if !ok {
			return fmt.Errorf("TOML documents must be tables, got %T", v)
		}
		var buf bytes.Buffer
		if err := writeTOMLTable(&buf, nil, m); err != nil {
			return fmt.Errorf("failed to encode TOML: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	}
	return fmt.Errorf("unsupported format %s", format)
}

// CombineFiles merges the JSON, YAML or TOML files in sources into dest.
// INI files go through CombineINI instead.
func CombineFiles(format Format, dest string, sources []string, opts CombineOptions) error {
	if format == FormatINI {
		var buf bytes.Buffer
		if err := CombineINI(&buf, sources...); err != nil {
			return err
		}
		return atomicWriteFile(dest, buf.Bytes())
	}
	vals := make([]any, 0, len(sources))
	for _, src := range sources {
		v, err := readDocument(src, format)
		if err != nil {
			return err
		}
		vals = append(vals, v)
	}
	combined, err := CombineValues(vals, opts)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := writeDocument(&buf, combined, format, opts.Compact); err != nil {
		return err
	}
	return atomicWriteFile(dest, buf.Bytes())
}
