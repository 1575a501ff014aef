// File: lixenwraith/paramconfig/doc.go

// Package paramconfig reads and writes declared parameter objects from INI,
// JSON, YAML and TOML files, and wires them into cobra commands.
//
// A parameterized object declares typed attributes with defaults, bounds
// and documentation. Serializers and deserializers, chosen per attribute
// kind through a Registry and optionally overridden per attribute, turn
// attribute values into plain data and back. Objects are arranged into
// trees of nested mappings whose keys become file sections.
//
// Features:
//   - Typed attributes: String, Integer, Number, Boolean, Date, List, Dict,
//     selectors, numeric tuples, arrays, data frames and more
//   - Per-kind converters with per-attribute and per-subtree overrides
//   - Configurable handling of keys missing on either side (ignore, warn, raise)
//   - Help text emitted as comments alongside serialized values
//   - Struct declaration through `param` and `doc` tags
//   - cobra/pflag flags that read or print objects
//   - Tunable attributes sampled from an optimizer trial
//   - Combining parameter files of one format, and watching a file for changes
//
// Quick Start:
//
//	type Model struct {
//	    Layers int64   `param:"layers" doc:"Number of hidden layers"`
//	    LR     float64 `param:"lr"`
//	}
//
//	obj, err := paramconfig.FromStruct("model", &Model{Layers: 3, LR: 1e-3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tree := paramconfig.NewTree().Add("model", obj)
//	if err := paramconfig.ReadFile("params.yaml", tree, paramconfig.FormatUnknown); err != nil {
//	    log.Fatal(err)
//	}
//
//	var m Model
//	_ = obj.Decode(&m)
//
// Logging goes through zap. Objects may carry their own logger; otherwise
// DefaultLogger is used.
package paramconfig
