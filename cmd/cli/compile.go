package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	core "synnergy-lrt/core"
)

// loadSourceExpr reads a JSON-encoded SourceExpr from path, the external
// parser's output format per §4.1 ("consumed, not specified here").
func loadSourceExpr(path string) (*core.SourceExpr, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compile: read %s: %w", path, err)
	}
	var expr core.SourceExpr
	if err := json.Unmarshal(raw, &expr); err != nil {
		return nil, fmt.Errorf("compile: decode %s: %w", path, err)
	}
	return &expr, nil
}

func compileRunHandler(cmd *cobra.Command, args []string) error {
	expr, err := loadSourceExpr(args[0])
	if err != nil {
		return err
	}
	program, err := core.Generate(expr)
	if err != nil {
		return err
	}

	skipOptimize, _ := cmd.Flags().GetBool("no-optimize")
	stats, _ := cmd.Flags().GetBool("stats")

	instrs := program.Instructions
	var metrics core.OptimizationMetrics
	if !skipOptimize {
		instrs, metrics = core.Optimize(instrs)
	}

	for _, in := range instrs {
		fmt.Fprintln(cmd.OutOrStdout(), in.String())
	}
	if stats {
		fmt.Fprintf(cmd.ErrOrStderr(), "registers=%d before=%d after=%d removed=%d reg_reduction=%d\n",
			program.RegisterCount, metrics.UnoptInstr, metrics.OptInstr,
			metrics.Removed, metrics.RegReduction)
	}
	return nil
}

var compileCmd = &cobra.Command{
	Use:   "compile <source.json>",
	Short: "Compile a source expression to register-machine instructions",
	Args:  cobra.ExactArgs(1),
	RunE:  compileRunHandler,
}

func init() {
	compileCmd.Flags().Bool("no-optimize", false, "skip the optimizer pipeline")
	compileCmd.Flags().Bool("stats", false, "print optimizer statistics to stderr")
}

// CompileCmd exports the root command.
var CompileCmd = compileCmd
