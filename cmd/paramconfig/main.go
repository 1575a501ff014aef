// FILE: lixenwraith/paramconfig/cmd/paramconfig/main.go
// Command paramconfig combines parameter files of the same format.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/paramconfig"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "paramconfig",
		Short:        "Utilities for parameter files",
		SilenceUsage: true,
	}
	root.AddCommand(
		newCombineCmd(paramconfig.FormatINI, `Combine INI files

All but the last positional argument are input files. Earlier values are
clobbered by later values. Comments (anything after a '#' or ';') are dropped.`),
		newCombineCmd(paramconfig.FormatJSON, `Combine JSON files

If all source files are lists, the lists are appended together. If all are
mappings, colliding keys are clobbered by later values; with --nested, two
colliding mappings are merged key by key instead, so

  {"a": {"b": {"c": null}, "d": true}} + {"a": {"b": {"e": 1}}, "f": "g"}

gives {"a": {"b": {"e": 1}}, "f": "g"} by default and
{"a": {"b": {"c": null, "e": 1}, "d": true}, "f": "g"} with --nested.
Mixing root types is an error.`),
		newCombineCmd(paramconfig.FormatYAML, `Combine YAML files

Lists are appended and mappings merged as in combine-json. Comments are dropped.`),
		newCombineCmd(paramconfig.FormatTOML, `Combine TOML files

Tables are merged as mappings in combine-json. Comments are dropped.`),
	)
	return root
}

func newCombineCmd(format paramconfig.Format, long string) *cobra.Command {
	var opts paramconfig.CombineOptions
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("combine-%s SOURCE... DEST", format),
		Short: fmt.Sprintf("Combine %s files", format),
		Long:  long,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, dest := args[:len(args)-1], args[len(args)-1]
			return paramconfig.CombineFiles(format, dest, sources, opts)
		},
	}
	if format != paramconfig.FormatINI {
		cmd.Flags().BoolVar(&opts.Quiet, "quiet", false, "Suppress merge warnings")
		cmd.Flags().BoolVar(&opts.Nested, "nested", false,
			"Resolve mapping collisions by descending into children")
	}
	if format == paramconfig.FormatJSON {
		cmd.Flags().BoolVar(&opts.Compact, "compact", false,
			"Write the most compact JSON instead of 2-space indentation")
	}
	return cmd
}
