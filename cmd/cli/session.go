package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	core "synnergy-lrt/core"
)

// buildDemoProtocol constructs a small fixed two-step Send/Receive/End
// protocol, standing in for a protocol a real deployment would load from a
// session-type declaration file.
func buildDemoProtocol() *core.SessionType {
	return core.Send("Payload", core.Receive("Ack", core.End()))
}

func sessionRunHandler(cmd *cobra.Command, args []string) error {
	protocol := buildDemoProtocol()
	now := nowSim()
	alice := core.NewParticipant("alice", protocol, now)
	bob := core.NewParticipant("bob", core.Receive("Payload", core.Send("Ack", core.End())), now)
	alice.SetPeer("bob")
	bob.SetPeer("alice")

	engine := core.NewEngine(nil, now, core.WithSnapshots(true))
	engine.AddParticipant("alice", alice)
	engine.AddParticipant("bob", bob)

	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	timeoutMS, _ := cmd.Flags().GetInt64("timeout-ms")

	result := engine.RunWithTimeout(timeoutMS, maxSteps)
	fmt.Fprintf(cmd.OutOrStdout(), "outcome=%s steps=%d gas=%d\n", result.Outcome, result.Steps, result.Gas)
	if result.Report != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "deadlock kind=%s participants=%v detail=%s\n",
			result.Report.Kind, result.Report.Participants, result.Report.Detail)
	}
	return nil
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Drive session-typed simulation protocols",
}

var sessionRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the built-in two-party demo protocol to completion",
	Args:  cobra.NoArgs,
	RunE:  sessionRunHandler,
}

func init() {
	sessionRunCmd.Flags().Int("max-steps", 1000, "maximum scheduler steps before MaxStepsReached")
	sessionRunCmd.Flags().Int64("timeout-ms", 60_000, "simulated-clock timeout in milliseconds")
	sessionCmd.AddCommand(sessionRunCmd)
}

// SessionCmd exports the root command.
var SessionCmd = sessionCmd
