// FILE: lixenwraith/paramconfig/toml.go
package paramconfig

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// TOMLWriteOptions controls SerializeToTOML.
type TOMLWriteOptions struct {
	SerializeOptions
	IncludeHelp bool
}

// TOMLReadOptions controls DeserializeFromTOML.
type TOMLReadOptions struct {
	DeserializeOptions
}

// DefaultTOMLWriteOptions writes a help banner.
func DefaultTOMLWriteOptions() TOMLWriteOptions {
	return TOMLWriteOptions{SerializeOptions: DefaultSerializeOptions(), IncludeHelp: true}
}

// DefaultTOMLReadOptions warns on unknown keys.
func DefaultTOMLReadOptions() TOMLReadOptions {
	return TOMLReadOptions{DeserializeOptions: DefaultDeserializeOptions()}
}

// SerializeToTOML writes root as a TOML document, one table per branch.
// TOML has no null, so nil values are left out.
func SerializeToTOML(w io.Writer, root Node, opts TOMLWriteOptions) error {
	data, help, err := SerializeTree(root, opts.SerializeOptions)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if opts.IncludeHelp {
		writeTOMLHelp(&buf, help)
	}
	if err := writeTOMLTable(&buf, nil, data); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// writeTOMLHelp emits help as "# path.key: text" lines.
func writeTOMLHelp(buf *bytes.Buffer, help *Map) {
	flat := flattenMap(help, "")
	keys := sortedKeys(flat)
	lines := 0
	for _, k := range keys {
		if s, ok := flat[k].(string); ok && s != "" {
			if lines == 0 {
				buf.WriteString("# == Help ==\n")
			}
			fmt.Fprintf(buf, "# %s: %s\n", k, s)
			lines++
		}
	}
	if lines > 0 {
		buf.WriteString("\n")
	}
}

var bareTOMLKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func tomlKey(k string) string {
	if bareTOMLKey.MatchString(k) {
		return k
	}
	return strconv.Quote(k)
}

// writeTOMLTable writes the scalar keys of m, then each sub-Map as its own
// [table]. A table with no scalar keys still gets a header so empty branches
// survive a round trip.
func writeTOMLTable(buf *bytes.Buffer, path []string, m *Map) error {
	if len(path) > 0 {
		quoted := make([]string, len(path))
		for i, p := range path {
			quoted[i] = tomlKey(p)
		}
		if buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n\n")) {
			buf.WriteString("\n")
		}
		fmt.Fprintf(buf, "[%s]\n", strings.Join(quoted, "."))
	}
	var (
		tables []string
		subs   []*Map
	)
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		if v == nil {
			continue
		}
		if sub, ok := asMap(v); ok {
			tables = append(tables, k)
			subs = append(subs, sub)
			continue
		}
		value := fromMapValue(v)
		if holdsMapping(value) {
			return fmt.Errorf("key %s: TOML output cannot hold a list of mappings", keyChain(extend(path, k)))
		}
		if err := toml.NewEncoder(buf).Encode(map[string]any{k: value}); err != nil {
			return fmt.Errorf("key %s: %w", keyChain(extend(path, k)), err)
		}
	}
	for i, k := range tables {
		if err := writeTOMLTable(buf, extend(path, k), subs[i]); err != nil {
			return err
		}
	}
	return nil
}

// holdsMapping reports a sequence with a mapping element; the encoder would
// write it as an array of tables and break the surrounding table.
func holdsMapping(v any) bool {
	seq, ok := toSlice(v)
	if !ok {
		return false
	}
	for _, e := range seq {
		if _, isMap := asMap(e); isMap {
			return true
		}
	}
	return false
}

// SerializeToTOMLFile writes root to path atomically.
func SerializeToTOMLFile(path string, root Node, opts TOMLWriteOptions) error {
	var buf bytes.Buffer
	if err := SerializeToTOML(&buf, root, opts); err != nil {
		return err
	}
	return atomicWriteFile(path, buf.Bytes())
}

// parseTOML decodes a document into a Map ordered as the keys appear in the file.
func parseTOML(r io.Reader) (*Map, error) {
	raw := make(map[string]any)
	md, err := toml.NewDecoder(r).Decode(&raw)
	if err != nil {
		return nil, err
	}
	out := NewMap()
	for _, key := range md.Keys() {
		v, ok := tomlLookup(raw, key)
		if !ok {
			continue
		}
		if _, seen := mapAt(out, key); seen {
			continue
		}
		if _, isTable := v.(map[string]any); isTable {
			setNestedValue(out, key, NewMap())
			continue
		}
		setNestedValue(out, key, tomlValue(v))
	}
	return out, nil
}

// tomlLookup walks raw along key through tables only. Keys inside arrays
// of tables are reported by MetaData too; those are skipped.
func tomlLookup(raw map[string]any, key toml.Key) (any, bool) {
	var cur any = raw
	for _, seg := range key {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// mapAt reports an existing Map already placed at path.
func mapAt(m *Map, path []string) (*Map, bool) {
	cur := m
	for _, seg := range path {
		next, ok := cur.Sub(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func tomlValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return MapFrom(t)
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = MapFrom(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = tomlValue(e)
		}
		return out
	}
	return v
}

// DeserializeFromTOML reads a TOML document from r into root.
func DeserializeFromTOML(r io.Reader, root Node, opts TOMLReadOptions) error {
	data, err := parseTOML(r)
	if err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}
	return DeserializeTree(data, root, opts.DeserializeOptions)
}

// DeserializeFromTOMLFile reads the TOML file at path into root.
func DeserializeFromTOMLFile(path string, root Node, opts TOMLReadOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open TOML file '%s': %w", path, err)
	}
	defer f.Close()
	if err := DeserializeFromTOML(f, root, opts); err != nil {
		return fmt.Errorf("failed to deserialize '%s': %w", path, err)
	}
	return nil
}
