// FILE: lixenwraith/paramconfig/example/main.go
package main

import (
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/paramconfig"
)

// ModelParams is declared from a tagged struct.
type ModelParams struct {
	Layers     int64   `param:"layers" doc:"Number of hidden layers"`
	Width      int64   `param:"width" doc:"Units per layer"`
	Activation string  `param:"activation" doc:"Activation function"`
	Dropout    float64 `param:"dropout" doc:"Dropout probability"`
}

func newTrainingParams() *paramconfig.Object {
	return paramconfig.MustNew("training",
		paramconfig.Number("lr", 1e-3, paramconfig.Bounds(1e-8, math.Inf(1)), paramconfig.Doc("Learning rate")),
		paramconfig.Integer("epochs", 10, paramconfig.Bounds(1, math.Inf(1))),
		paramconfig.ObjectSelector("optimizer", "adam", paramconfig.Objects("adam", "sgd", "rmsprop")),
		paramconfig.Date("start", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		paramconfig.Dict("schedule", map[string]any{"warmup": int64(1)}),
	)
}

func main() {
	model, err := paramconfig.FromStruct("model", &ModelParams{Layers: 3, Width: 128, Activation: "relu", Dropout: 0.1})
	if err != nil {
		log.Fatalf("❌ Failed to declare model parameters: %v", err)
	}
	tree := paramconfig.NewTree().
		Add("model", model).
		Add("training", newTrainingParams())

	// A discovered file is applied before any --read-* flag.
	if path, format, found := paramconfig.Discover(paramconfig.DefaultDiscoveryOptions("paramconfig-example")); found {
		if err := paramconfig.ReadFile(path, tree, format); err != nil {
			log.Fatalf("❌ Failed to read %s: %v", path, err)
		}
		log.Printf("✅ Loaded defaults from %s", path)
	}

	cmd := &cobra.Command{
		Use:   "example",
		Short: "Show how parameter trees are read, printed and decoded",
		RunE: func(cmd *cobra.Command, args []string) error {
			var decoded ModelParams
			if err := model.Decode(&decoded); err != nil {
				return err
			}
			printCurrentState(tree, decoded)
			return nil
		},
	}
	if _, err := paramconfig.AddReadFlags(cmd, paramconfig.ReadConfig{Target: tree}, paramconfig.FlagGroupOptions{}); err != nil {
		log.Fatalf("❌ Failed to add read flags: %v", err)
	}
	if _, err := paramconfig.AddPrintFlags(cmd, paramconfig.PrintConfig{Target: tree}, paramconfig.FlagGroupOptions{}); err != nil {
		log.Fatalf("❌ Failed to add print flags: %v", err)
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// printCurrentState displays the typed state of the tree.
func printCurrentState(tree *paramconfig.Tree, model ModelParams) {
	training, _ := tree.Lookup("training")
	obj := training.(*paramconfig.Object)
	lr, _ := obj.Float64("lr")
	epochs, _ := obj.Int64("epochs")
	optimizer, _ := obj.String("optimizer")

	fmt.Println("   --------------------------------------------------")
	fmt.Printf("     Model:        %d x %d (%s, dropout %.2f)\n", model.Layers, model.Width, model.Activation, model.Dropout)
	fmt.Printf("     Learning rate: %g\n", lr)
	fmt.Printf("     Epochs:        %d\n", epochs)
	fmt.Printf("     Optimizer:     %s\n", optimizer)
	fmt.Println("   --------------------------------------------------")
}
