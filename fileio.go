// FILE: lixenwraith/paramconfig/fileio.go
package paramconfig

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Format names a supported file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatINI
	FormatJSON
	FormatYAML
	FormatTOML
)

// Formats lists every supported format in flag registration order.
func Formats() []Format {
	return []Format{FormatINI, FormatJSON, FormatYAML, FormatTOML}
}

func (f Format) String() string {
	switch f {
	case FormatINI:
		return "ini"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "unknown"
	}
}

// ParseFormat converts a format name such as "yaml" or "yml" into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "ini", "cfg", "conf":
		return FormatINI, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml", "tml":
		return FormatTOML, nil
	}
	return FormatUnknown, fmt.Errorf("unsupported format %q", s)
}

// DetectFormat determines the format from the file extension, then from
// content when the extension says nothing. Content detection cannot tell INI
// from TOML when every value is a number or boolean: such text is valid in
// both and is reported as TOML. Give INI files an extension (.ini, .cfg,
// .conf) to have them read as INI regardless of content.
func DetectFormat(path string, data []byte) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return detectFormatFromContent(data)
}

// detectFormatFromContent tries the strictest parsers first. INI accepts
// nearly anything, so it is the last resort.
func detectFormatFromContent(data []byte) Format {
	if len(bytes.TrimSpace(data)) == 0 {
		return FormatUnknown
	}
	if v, err := decodeJSON(bytes.NewReader(data)); err == nil {
		if _, ok := v.(*Map); ok {
			return FormatJSON
		}
	}
	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err == nil && len(node.Content) > 0 && node.Content[0].Kind == yaml.MappingNode {
		return FormatYAML
	}
	if _, err := ini.Load(data); err == nil {
		return FormatINI
	}
	return FormatUnknown
}

// ReadFile reads path into root with each format's default read options.
// FormatUnknown detects the format first.
func ReadFile(path string, root Node, format Format) error {
	if format == FormatUnknown {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file '%s': %w", path, err)
		}
		if format = DetectFormat(path, data); format == FormatUnknown {
			return fmt.Errorf("unable to determine the format of '%s'", path)
		}
	}
	switch format {
	case FormatINI:
		return DeserializeFromINIFile(path, root, DefaultINIReadOptions())
	case FormatJSON:
		return DeserializeFromJSONFile(path, root, DefaultJSONReadOptions())
	case FormatYAML:
		return DeserializeFromYAMLFile(path, root, DefaultYAMLReadOptions())
	case FormatTOML:
		return DeserializeFromTOMLFile(path, root, DefaultTOMLReadOptions())
	}
	return fmt.Errorf("unsupported format %s", format)
}

// WriteFile writes root to path with each format's default write options.
// FormatUnknown picks the format from the extension.
func WriteFile(path string, root Node, format Format) error {
	if format == FormatUnknown {
		f, err := ParseFormat(filepath.Ext(path))
		if err != nil {
			return fmt.Errorf("unable to determine the format of '%s': %w", path, err)
		}
		format = f
	}
	switch format {
	case FormatINI:
		return SerializeToINIFile(path, root, DefaultINIWriteOptions())
	case FormatJSON:
		return SerializeToJSONFile(path, root, DefaultJSONWriteOptions())
	case FormatYAML:
		return SerializeToYAMLFile(path, root, DefaultYAMLWriteOptions())
	case FormatTOML:
		return SerializeToTOMLFile(path, root, DefaultTOMLWriteOptions())
	}
	return fmt.Errorf("unsupported format %s", format)
}

// atomicWriteFile writes through a temporary file in the same directory and
// renames it into place, so path is either fully written or untouched.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
