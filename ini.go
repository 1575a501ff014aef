// FILE: lixenwraith/paramconfig/ini.go
package paramconfig

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// INIWriteOptions controls SerializeToINI.
type INIWriteOptions struct {
	SerializeOptions
	Section     string // section for a single object; defaults to its name
	IncludeHelp bool
	HelpPrefix  string // comment prefix of help lines; defaults to "#"
}

// INIReadOptions controls DeserializeFromINI.
type INIReadOptions struct {
	DeserializeOptions
	Section  string            // section for a single object; defaults to its name
	Defaults map[string]string // values every section inherits
}

// DefaultINIWriteOptions writes help and uses the string registry.
func DefaultINIWriteOptions() INIWriteOptions {
	return INIWriteOptions{
		SerializeOptions: SerializeOptions{OnMissing: Raise, Registry: StringRegistry()},
		IncludeHelp:      true,
		HelpPrefix:       "#",
	}
}

// DefaultINIReadOptions uses the string registry and warns on unknown keys.
func DefaultINIReadOptions() INIReadOptions {
	return INIReadOptions{
		DeserializeOptions: DeserializeOptions{OnMissing: Warn, Registry: StringRegistry()},
	}
}

// iniSections pairs each section name with the object it holds. INI has one
// level of sections, so deeper trees are rejected.
func iniSections(root Node, section string) ([]string, *Tree, error) {
	switch n := root.(type) {
	case Leaf:
		if section == "" {
			section = n.Name()
		}
		return []string{section}, NewTree().Add(section, n.Parameterized), nil
	case *Tree:
		for _, key := range n.Keys() {
			child, _ := n.Get(key)
			if _, ok := child.(Leaf); !ok {
				return nil, nil, ErrINIDepth
			}
		}
		return n.Keys(), n, nil
	}
	return nil, nil, fmt.Errorf("unsupported tree node %T", root)
}

// SerializeToINI writes root as INI, one section per object. Container
// values are written as JSON text and nil values as bare keys.
func SerializeToINI(w io.Writer, root Node, opts INIWriteOptions) error {
	if opts.Registry == nil {
		opts.Registry = stringRegistry
	}
	if opts.HelpPrefix == "" {
		opts.HelpPrefix = "#"
	}
	sections, tree, err := iniSections(root, opts.Section)
	if err != nil {
		return err
	}
	data, help, err := SerializeTree(tree, opts.SerializeOptions)
	if err != nil {
		return err
	}

	var banner bytes.Buffer
	if opts.IncludeHelp {
		for _, name := range sections {
			secHelp, _ := help.Sub(name)
			if secHelp.Len() == 0 {
				continue
			}
			fmt.Fprintf(&banner, "%s [%s]\n", opts.HelpPrefix, name)
			for _, key := range secHelp.Keys() {
				h, _ := secHelp.Get(key)
				// Every line is commented, or ini.v1 reads the rest as DEFAULT keys.
				for _, line := range strings.Split(fmt.Sprintf("%s: %v", key, h), "\n") {
					fmt.Fprintf(&banner, "%s %s\n", opts.HelpPrefix, strings.TrimRight(line, "\r"))
				}
			}
			banner.WriteString("\n")
		}
	}

	var out bytes.Buffer
	if banner.Len() > 0 {
		fmt.Fprintf(&out, "%s == Help ==\n", opts.HelpPrefix)
		out.Write(banner.Bytes())
		out.WriteString("\n")
	}
	if err := writeINI(&out, data); err != nil {
		return err
	}
	_, err = w.Write(out.Bytes())
	return err
}

// iniValue renders a scalar for an INI value.
func iniValue(v any) string {
	switch t := v.(type) {
	case string:
		return iniQuote(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return iniFloat(strconv.FormatFloat(t, 'g', -1, 64))
	case float32:
		return iniFloat(strconv.FormatFloat(float64(t), 'g', -1, 32))
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return castString(v)
}

// iniFloat keeps whole floats distinguishable from integers.
func iniFloat(s string) string {
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}

// iniQuote wraps s in triple quotes when ini.v1 would strip quotes from it on
// read. Values holding a newline, backtick, '#' or ';' are quoted by ini.v1.
func iniQuote(s string) string {
	if strings.ContainsAny(s, "\n`#;") {
		return s
	}
	var stripped bool
	if strings.TrimSpace(s) != s {
		// ini.v1 writes padded values as "s" and only unquotes a clean pair.
		stripped = strings.Contains(s, `"`)
	} else {
		stripped = surroundedBy(s, '"') || surroundedBy(s, '\'') || strings.HasPrefix(s, `"""`)
	}
	if stripped {
		return `"""` + s + `"""`
	}
	return s
}

// surroundedBy reports whether q occurs in s only as its first and last byte.
func surroundedBy(s string, q byte) bool {
	return len(s) >= 2 && s[0] == q && s[len(s)-1] == q && strings.IndexByte(s[1:], q) == len(s)-2
}

// SerializeToINIFile writes root to path atomically.
func SerializeToINIFile(path string, root Node, opts INIWriteOptions) error {
	var buf bytes.Buffer
	if err := SerializeToINI(&buf, root, opts); err != nil {
		return err
	}
	return atomicWriteFile(path, buf.Bytes())
}

// readINI parses INI text into a Map of section Maps in file order, the
// DEFAULT section first. Bare keys read as nil.
func readINI(data []byte) (*Map, error) {
	f, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse INI: %w", err)
	}
	// A second pass without boolean keys tells bare keys apart from "key = true".
	valued, err := ini.LoadSources(ini.LoadOptions{SkipUnrecognizableLines: true}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse INI: %w", err)
	}

	out := NewMap()
	for _, sec := range f.Sections() {
		m := NewMap()
		plain := valued.Section(sec.Name())
		for _, key := range sec.Keys() {
			if plain.HasKey(key.Name()) {
				m.Set(key.Name(), key.Value())
			} else {
				m.Set(key.Name(), nil)
			}
		}
		out.Set(sec.Name(), m)
	}
	return out, nil
}

// parseINI reads INI text into a Map of section Maps. Defaults and the
// DEFAULT section are merged under every other section.
func parseINI(data []byte, defaults map[string]string) (*Map, error) {
	sections, err := readINI(data)
	if err != nil {
		return nil, err
	}

	base := NewMap()
	for _, k := range sortedKeys(defaults) {
		base.Set(k, defaults[k])
	}
	if fileDefaults, ok := sections.Sub(ini.DefaultSection); ok {
		for _, k := range fileDefaults.Keys() {
			v, _ := fileDefaults.Get(k)
			base.Set(k, v)
		}
	}

	out := NewMap()
	for _, name := range sections.Keys() {
		if name == ini.DefaultSection {
			continue
		}
		own, _ := sections.Sub(name)
		m := base.Clone()
		for _, k := range own.Keys() {
			v, _ := own.Get(k)
			m.Set(k, v)
		}
		out.Set(name, m)
	}
	return out, nil
}

// writeINI renders section Maps as INI text. Nil values become bare keys.
func writeINI(w io.Writer, sections *Map) error {
	f := ini.Empty()
	for _, name := range sections.Keys() {
		secData, _ := sections.Sub(name)
		sec := f.Section(name)
		if name != ini.DefaultSection {
			var err error
			if sec, err = f.NewSection(name); err != nil {
				return fmt.Errorf("failed to create INI section '%s': %w", name, err)
			}
		}
		for _, key := range secData.Keys() {
			v, _ := secData.Get(key)
			var err error
			if v == nil {
				_, err = sec.NewBooleanKey(key)
			} else {
				_, err = sec.NewKey(key, iniValue(v))
			}
			if err != nil {
				return fmt.Errorf("failed to write INI key '%s.%s': %w", name, key, err)
			}
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode INI: %w", err)
	}
	return nil
}

// DeserializeFromINI reads INI from r into root. A single object reads the
// section named by opts.Section (or its own name); a tree maps sections to
// its top-level keys.
func DeserializeFromINI(r io.Reader, root Node, opts INIReadOptions) error {
	if opts.Registry == nil {
		opts.Registry = stringRegistry
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read INI: %w", err)
	}
	data, err := parseINI(raw, opts.Defaults)
	if err != nil {
		return err
	}

	if leaf, ok := root.(Leaf); ok {
		section := opts.Section
		if section == "" {
			section = leaf.Name()
		}
		sec, ok := data.Sub(section)
		if !ok {
			return fmt.Errorf("INI section '%s' not found", section)
		}
		return DeserializeTree(sec, leaf, opts.DeserializeOptions)
	}
	if _, _, err := iniSections(root, ""); err != nil {
		return err
	}
	return DeserializeTree(data, root, opts.DeserializeOptions)
}

// DeserializeFromINIFile reads the INI file at path into root.
func DeserializeFromINIFile(path string, root Node, opts INIReadOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open INI file '%s': %w", path, err)
	}
	defer f.Close()
	if err := DeserializeFromINI(f, root, opts); err != nil {
		return fmt.Errorf("failed to deserialize '%s': %w", path, err)
	}
	return nil
}
