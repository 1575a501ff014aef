// FILE: lixenwraith/paramconfig/flags.go
package paramconfig

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	_ pflag.Value = (*ReadValue)(nil)
	_ pflag.Value = (*PrintValue)(nil)
	_ pflag.Value = (*MissingPolicy)(nil)
)

// ReadConfig describes what a read flag deserializes into. Exactly one of
// Target and New must be set; New is called once when the value is built.
type ReadConfig struct {
	Target Node
	New    func() Parameterized

	Overrides    *DeserializerOverrides
	OnMissing    MissingPolicy // DefaultPolicy means Warn
	Registry     *Registry     // nil means the format's default registry
	Logger       *zap.Logger
	Section      string   // INI section for a single object
	YAMLBackends []string // nil means DefaultYAMLBackends
}

// resolveTarget returns the node a config reads into.
func resolveTarget(target Node, newFn func() Parameterized) (Node, error) {
	switch {
	case target == nil && newFn == nil:
		return nil, fmt.Errorf("%w: one of target or new must be set", ErrTargetConflict)
	case target != nil && newFn != nil:
		return nil, fmt.Errorf("%w: only one of target or new can be set", ErrTargetConflict)
	case target != nil:
		return target, nil
	}
	obj := newFn()
	if obj == nil {
		return nil, fmt.Errorf("%w: new returned nil", ErrTargetConflict)
	}
	return Leaf{obj}, nil
}

// ReadValue is a pflag.Value that deserializes each file it is given into
// its target. Repeating the flag applies files in order, so later files
// override earlier ones key by key.
type ReadValue struct {
	format Format
	cfg    ReadConfig
	target Node
	paths  []string
}

// NewReadValue builds a read flag value for format.
func NewReadValue(format Format, cfg ReadConfig) (*ReadValue, error) {
	target, err := resolveTarget(cfg.Target, cfg.New)
	if err != nil {
		return nil, err
	}
	if format < FormatINI || format > FormatTOML {
		return nil, fmt.Errorf("unsupported format %s", format)
	}
	return &ReadValue{format: format, cfg: cfg, target: target}, nil
}

// Set reads path into the target.
func (v *ReadValue) Set(path string) error {
	base := DeserializeOptions{
		Overrides: v.cfg.Overrides,
		OnMissing: v.cfg.OnMissing,
		Registry:  v.cfg.Registry,
		Logger:    v.cfg.Logger,
	}
	var err error
	switch v.format {
	case FormatINI:
		err = DeserializeFromINIFile(path, v.target, INIReadOptions{DeserializeOptions: base, Section: v.cfg.Section})
	case FormatJSON:
		err = DeserializeFromJSONFile(path, v.target, JSONReadOptions{DeserializeOptions: base})
	case FormatYAML:
		err = DeserializeFromYAMLFile(path, v.target, YAMLReadOptions{DeserializeOptions: base, Backends: v.cfg.YAMLBackends})
	case FormatTOML:
		err = DeserializeFromTOMLFile(path, v.target, TOMLReadOptions{DeserializeOptions: base})
	}
	if err != nil {
		return err
	}
	v.paths = append(v.paths, path)
	return nil
}

// String lists the files read so far.
func (v *ReadValue) String() string {
	return strings.Join(v.paths, ",")
}

// Type implements pflag.Value.
func (v *ReadValue) Type() string {
	return v.format.String() + "-file"
}

// Target returns the node files are read into.
func (v *ReadValue) Target() Node {
	return v.target
}

// Paths returns the files read so far, in order.
func (v *ReadValue) Paths() []string {
	return append([]string(nil), v.paths...)
}

// PrintConfig describes what a print flag serializes. Exactly one of
// Target and New must be set.
type PrintConfig struct {
	Target Node
	New    func() Parameterized

	Only         *Selection
	Overrides    *SerializerOverrides
	OnMissing    MissingPolicy // DefaultPolicy means Raise
	Registry     *Registry
	Logger       *zap.Logger
	NoHelp       bool // omit help comments
	Compact      bool // JSON without indentation
	Section      string
	YAMLBackends []string

	Out  io.Writer       // nil means os.Stdout
	Exit func(code int) // nil means os.Exit
}

// PrintValue is a boolean pflag.Value. Setting it serializes the target,
// writes it out and exits with status 0.
type PrintValue struct {
	format Format
	cfg    PrintConfig
	target Node
	set    bool
}

// NewPrintValue builds a print flag value for format. Registered by hand,
// the flag needs NoOptDefVal "true" to be usable without an argument;
// AddPrintFlags does this.
func NewPrintValue(format Format, cfg PrintConfig) (*PrintValue, error) {
	target, err := resolveTarget(cfg.Target, cfg.New)
	if err != nil {
		return nil, err
	}
	if format < FormatINI || format > FormatTOML {
		return nil, fmt.Errorf("unsupported format %s", format)
	}
	return &PrintValue{format: format, cfg: cfg, target: target}, nil
}

// Set prints and exits when s parses as true.
func (v *PrintValue) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if !b {
		return nil
	}
	v.set = true

	// Serialize fully before writing so a failure leaves no partial output.
	var buf bytes.Buffer
	if err := v.print(&buf); err != nil {
		return err
	}
	out := v.cfg.Out
	if out == nil {
		out = os.Stdout
	}
	if _, err := out.Write(buf.Bytes()); err != nil {
		return err
	}
	exit := v.cfg.Exit
	if exit == nil {
		exit = os.Exit
	}
	exit(0)
	return nil
}

func (v *PrintValue) print(w io.Writer) error {
	base := SerializeOptions{
		Only:      v.cfg.Only,
		Overrides: v.cfg.Overrides,
		OnMissing: v.cfg.OnMissing,
		Registry:  v.cfg.Registry,
		Logger:    v.cfg.Logger,
	}
	switch v.format {
	case FormatINI:
		return SerializeToINI(w, v.target, INIWriteOptions{
			SerializeOptions: base,
			Section:          v.cfg.Section,
			IncludeHelp:      !v.cfg.NoHelp,
		})
	case FormatJSON:
		indent := 2
		if v.cfg.Compact {
			indent = 0
		}
		return SerializeToJSON(w, v.target, JSONWriteOptions{SerializeOptions: base, Indent: indent})
	case FormatYAML:
		return SerializeToYAML(w, v.target, YAMLWriteOptions{
			SerializeOptions: base,
			IncludeHelp:      !v.cfg.NoHelp,
			Backends:         v.cfg.YAMLBackends,
		})
	case FormatTOML:
		return SerializeToTOML(w, v.target, TOMLWriteOptions{SerializeOptions: base, IncludeHelp: !v.cfg.NoHelp})
	}
	return fmt.Errorf("unsupported format %s", v.format)
}

func (v *PrintValue) String() string {
	return strconv.FormatBool(v.set)
}

// Type implements pflag.Value.
func (v *PrintValue) Type() string {
	return "bool"
}

// IsBoolFlag marks the value as a switch for flag packages that check it.
func (v *PrintValue) IsBoolFlag() bool {
	return true
}

// FlagOptions customizes one format's flag in a group.
type FlagOptions struct {
	Name    string // defaults to "read-<format>" or "print-<format>"
	Usage   string
	Disable bool
}

// FlagGroupOptions customizes a read or print flag group per format.
type FlagGroupOptions struct {
	Formats map[Format]FlagOptions
}

func (o FlagGroupOptions) flag(f Format, verb, usage string) (FlagOptions, bool) {
	fo := o.Formats[f]
	if fo.Disable {
		return fo, false
	}
	if fo.Name == "" {
		fo.Name = verb + "-" + f.String()
	}
	if fo.Usage == "" {
		fo.Usage = usage
	}
	return fo, true
}

func formatLabel(f Format) string {
	return strings.ToUpper(f.String())
}

// AddReadFlags registers --read-ini, --read-json, --read-yaml and
// --read-toml on cmd, all reading into the same target. The flags are
// mutually exclusive. It returns the shared target.
func AddReadFlags(cmd *cobra.Command, cfg ReadConfig, opts FlagGroupOptions) (Node, error) {
	target, err := resolveTarget(cfg.Target, cfg.New)
	if err != nil {
		return nil, err
	}
	cfg.Target, cfg.New = target, nil

	var names []string
	for _, f := range Formats() {
		fo, ok := opts.flag(f, "read", fmt.Sprintf("Read parameters from %s file(s)", formatLabel(f)))
		if !ok {
			continue
		}
		v, err := NewReadValue(f, cfg)
		if err != nil {
			return nil, err
		}
		cmd.Flags().Var(v, fo.Name, fo.Usage)
		names = append(names, fo.Name)
	}
	if len(names) > 1 {
		cmd.MarkFlagsMutuallyExclusive(names...)
	}
	return target, nil
}

// AddPrintFlags registers --print-ini, --print-json, --print-yaml and
// --print-toml on cmd. Each prints the target and exits.
func AddPrintFlags(cmd *cobra.Command, cfg PrintConfig, opts FlagGroupOptions) (Node, error) {
	target, err := resolveTarget(cfg.Target, cfg.New)
	if err != nil {
		return nil, err
	}
	cfg.Target, cfg.New = target, nil

	var names []string
	for _, f := range Formats() {
		fo, ok := opts.flag(f, "print", fmt.Sprintf("Print parameters as %s and exit", formatLabel(f)))
		if !ok {
			continue
		}
		v, err := NewPrintValue(f, cfg)
		if err != nil {
			return nil, err
		}
		fl := cmd.Flags().VarPF(v, fo.Name, "", fo.Usage)
		fl.NoOptDefVal = "true"
		names = append(names, fo.Name)
	}
	if len(names) > 1 {
		cmd.MarkFlagsMutuallyExclusive(names...)
	}
	return target, nil
}
