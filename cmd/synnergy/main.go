// Command synnergy is the CLI front end for the linear-resource register
// runtime: compiling source expressions, driving register lifecycle,
// running session-typed simulations, synthesizing intents, and fetching
// storage proofs.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"synnergy-lrt/cmd/cli"
	cfg "synnergy-lrt/pkg/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "synnergy",
		Short: "Synnergy linear-resource register-machine runtime",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, _ := cmd.Flags().GetString("env")
			if _, err := cfg.Load(env); err != nil {
				log.WithError(err).Warn("config: falling back to defaults")
			}
			level, err := log.ParseLevel(cfg.AppConfig.Logging.Level)
			if err != nil {
				level = log.InfoLevel
			}
			log.SetLevel(level)
			return nil
		},
	}
	rootCmd.PersistentFlags().String("env", "", "environment overlay (e.g. bootstrap) merged onto default.yaml")

	rootCmd.AddCommand(cli.CompileCmd)
	rootCmd.AddCommand(cli.RegistersCmd)
	rootCmd.AddCommand(cli.SessionCmd)
	rootCmd.AddCommand(cli.IntentCmd)
	rootCmd.AddCommand(cli.ProofCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
