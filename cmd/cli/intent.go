package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	core "synnergy-lrt/core"
)

func intentSynthesizeHandler(cmd *cobra.Command, args []string) error {
	if err := runtimeInit(); err != nil {
		return err
	}
	domain, _ := cmd.Flags().GetString("domain")
	inputName, _ := cmd.Flags().GetString("input-name")
	inputType, _ := cmd.Flags().GetString("input-type")
	outputName, _ := cmd.Flags().GetString("output-name")
	outputType, _ := cmd.Flags().GetString("output-type")
	quantity, _ := cmd.Flags().GetUint64("quantity")

	intent := core.Intent{
		Domain: core.DomainID(domain),
		Inputs: []core.ResourceBinding{{Name: inputName, Type: inputType, MinQuantity: quantity}},
		Constraint: core.Conservation(
			core.ResourceBinding{Name: inputName, Type: inputType, MinQuantity: quantity},
			core.ResourceBinding{Name: outputName, Type: outputType, MinQuantity: quantity},
		),
	}

	strategy, custom := core.SelectStrategy(intent)
	effects, err := core.Synthesize(intent, templates)
	if err != nil {
		return err
	}
	if err := core.ValidateFlow(effects, intent); err != nil {
		return err
	}

	label := strategy.String()
	if custom != "" {
		label = fmt.Sprintf("%s(%s)", label, custom)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "strategy=%s effects=%d\n", label, len(effects))
	for _, e := range effects {
		fmt.Fprintf(cmd.OutOrStdout(), "  %+v\n", e)
	}
	return nil
}

var intentCmd = &cobra.Command{
	Use:   "intent",
	Short: "Synthesize and validate effect sequences from declared intents",
}

var intentSynthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Synthesize effects for a single-input/single-output conservation intent",
	Args:  cobra.NoArgs,
	RunE:  intentSynthesizeHandler,
}

func init() {
	intentSynthesizeCmd.Flags().String("domain", "default", "intent domain")
	intentSynthesizeCmd.Flags().String("input-name", "source", "input resource binding name")
	intentSynthesizeCmd.Flags().String("input-type", "token", "input resource type")
	intentSynthesizeCmd.Flags().String("output-name", "dest", "output resource binding name")
	intentSynthesizeCmd.Flags().String("output-type", "token", "output resource type")
	intentSynthesizeCmd.Flags().Uint64("quantity", 1, "conserved quantity")
	intentCmd.AddCommand(intentSynthesizeCmd)
}

// IntentCmd exports the root command.
var IntentCmd = intentCmd
