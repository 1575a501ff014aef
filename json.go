// FILE: lixenwraith/paramconfig/json.go
package paramconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// JSONWriteOptions controls SerializeToJSON. Indent is the number of spaces
// per level; 0 writes compact JSON.
type JSONWriteOptions struct {
	SerializeOptions
	Indent int
}

// JSONReadOptions controls DeserializeFromJSON.
type JSONReadOptions struct {
	DeserializeOptions
}

// DefaultJSONWriteOptions indents by two spaces.
func DefaultJSONWriteOptions() JSONWriteOptions {
	return JSONWriteOptions{SerializeOptions: DefaultSerializeOptions(), Indent: 2}
}

// DefaultJSONReadOptions warns on unknown keys.
func DefaultJSONReadOptions() JSONReadOptions {
	return JSONReadOptions{DeserializeOptions: DefaultDeserializeOptions()}
}

// SerializeToJSON writes root as a JSON object. JSON has no comments, so no
// help is written.
func SerializeToJSON(w io.Writer, root Node, opts JSONWriteOptions) error {
	data, _, err := SerializeTree(root, opts.SerializeOptions)
	if err != nil {
		return err
	}
	b, err := encodeJSON(data, opts.Indent)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// encodeJSON renders v with the given indent, ending in a newline.
func encodeJSON(v any, indent int) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// SerializeToJSONFile writes root to path atomically.
func SerializeToJSONFile(path string, root Node, opts JSONWriteOptions) error {
	var buf bytes.Buffer
	if err := SerializeToJSON(&buf, root, opts); err != nil {
		return err
	}
	return atomicWriteFile(path, buf.Bytes())
}

// DeserializeFromJSON reads a JSON object from r into root.
func DeserializeFromJSON(r io.Reader, root Node, opts JSONReadOptions) error {
	v, err := decodeJSON(r)
	if err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	data, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("%w: JSON root must be an object, got %T", ErrShapeMismatch, v)
	}
	return DeserializeTree(data, root, opts.DeserializeOptions)
}

// DeserializeFromJSONFile reads the JSON file at path into root.
func DeserializeFromJSONFile(path string, root Node, opts JSONReadOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open JSON file '%s': %w", path, err)
	}
	defer f.Close()
	if err := DeserializeFromJSON(f, root, opts); err != nil {
		return fmt.Errorf("failed to deserialize '%s': %w", path, err)
	}
	return nil
}
