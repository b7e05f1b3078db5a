package cli

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	core "synnergy-lrt/core"
)

func decodeAddress(h string) (core.Address, error) {
	var a core.Address
	b, err := hex.DecodeString(strings.TrimPrefix(h, "0x"))
	if err != nil || len(b) != len(a) {
		return a, fmt.Errorf("invalid address %q", h)
	}
	copy(a[:], b)
	return a, nil
}

func decodeRegisterID(h string) (core.RegisterID, error) {
	var id core.RegisterID
	b, err := hex.DecodeString(strings.TrimPrefix(h, "blake3:"))
	if err != nil || len(b) != len(id) {
		return id, fmt.Errorf("invalid register id %q", h)
	}
	copy(id[:], b)
	return id, nil
}

func registersCreateHandler(cmd *cobra.Command, args []string) error {
	if err := runtimeInit(); err != nil {
		return err
	}
	owner, err := decodeAddress(args[0])
	if err != nil {
		return err
	}
	txID := args[1]
	salt := []byte(args[2])
	domain, _ := cmd.Flags().GetString("domain")
	balance, _ := cmd.Flags().GetUint64("balance")

	id := core.DeriveRegisterID(txID, salt)
	contents := core.Contents{Kind: core.ContentTokenBalance, Balance: balance}
	now := nowSim()
	r := core.NewRegister(id, owner, core.DomainID(domain), contents, epochs.Current(), txID, now)
	if err := regs.Create(r); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id.String())
	return nil
}

func registersShowHandler(cmd *cobra.Command, args []string) error {
	if err := runtimeInit(); err != nil {
		return err
	}
	id, err := decodeRegisterID(args[0])
	if err != nil {
		return err
	}
	r, err := regs.Get(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "id=%s owner=%s domain=%s state=%s epoch=%d balance=%d\n",
		r.ID, r.Owner.Hex(), r.Domain, r.State, r.Epoch, r.Contents.Balance)
	return nil
}

func registersLockHandler(cmd *cobra.Command, args []string) error {
	if err := runtimeInit(); err != nil {
		return err
	}
	id, err := decodeRegisterID(args[0])
	if err != nil {
		return err
	}
	return regs.Lock(id, nowSim())
}

func registersFreezeHandler(cmd *cobra.Command, args []string) error {
	if err := runtimeInit(); err != nil {
		return err
	}
	id, err := decodeRegisterID(args[0])
	if err != nil {
		return err
	}
	return regs.Freeze(id, nowSim())
}

func registersConsumeHandler(cmd *cobra.Command, args []string) error {
	if err := runtimeInit(); err != nil {
		return err
	}
	id, err := decodeRegisterID(args[0])
	if err != nil {
		return err
	}
	domain, _ := cmd.Flags().GetString("domain")
	height, _ := cmd.Flags().GetUint64("height")
	txID := args[1]

	n, err := regs.Consume(id, core.DomainID(domain), txID, nil, height, nowSim())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "nullifier=%s status=%s\n", n.NullifierHash, n.Status)
	return nil
}

func registersArchiveHandler(cmd *cobra.Command, args []string) error {
	if err := runtimeInit(); err != nil {
		return err
	}
	id, err := decodeRegisterID(args[0])
	if err != nil {
		return err
	}
	ref, err := archives.Archive(id, nowSim())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "store=%s hash=%s\n", ref.StoreID, ref.ContentHash)
	return nil
}

func registersGCHandler(cmd *cobra.Command, args []string) error {
	if err := runtimeInit(); err != nil {
		return err
	}
	epoch, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid epoch %q: %w", args[0], err)
	}
	collected := gc.GarbageCollectEpoch(epoch)
	fmt.Fprintf(cmd.OutOrStdout(), "collected %d registers\n", len(collected))
	return nil
}

var registersCmd = &cobra.Command{
	Use:   "registers",
	Short: "Inspect and drive the one-time register lifecycle",
}

var (
	registersCreateCmd = &cobra.Command{Use: "create <owner-hex> <tx-id> <salt>", Short: "Mint a register", Args: cobra.ExactArgs(3), RunE: registersCreateHandler}
	registersShowCmd   = &cobra.Command{Use: "show <register-id>", Short: "Show a register", Args: cobra.ExactArgs(1), RunE: registersShowHandler}
	registersLockCmd   = &cobra.Command{Use: "lock <register-id>", Short: "Lock a register", Args: cobra.ExactArgs(1), RunE: registersLockHandler}
	registersFreezeCmd = &cobra.Command{Use: "freeze <register-id>", Short: "Freeze a register", Args: cobra.ExactArgs(1), RunE: registersFreezeHandler}
	registersConsumeCmd = &cobra.Command{Use: "consume <register-id> <tx-id>", Short: "Consume a register", Args: cobra.ExactArgs(2), RunE: registersConsumeHandler}
	registersArchiveCmd = &cobra.Command{Use: "archive <register-id>", Short: "Archive a register", Args: cobra.ExactArgs(1), RunE: registersArchiveHandler}
	registersGCCmd      = &cobra.Command{Use: "gc <epoch>", Short: "Garbage-collect an epoch", Args: cobra.ExactArgs(1), RunE: registersGCHandler}
)

func init() {
	registersCreateCmd.Flags().String("domain", "default", "owning domain id")
	registersCreateCmd.Flags().Uint64("balance", 0, "initial token balance")
	registersConsumeCmd.Flags().String("domain", "default", "owning domain id")
	registersConsumeCmd.Flags().Uint64("height", 0, "block height of consumption")

	registersCmd.AddCommand(registersCreateCmd, registersShowCmd, registersLockCmd, registersFreezeCmd, registersConsumeCmd, registersArchiveCmd, registersGCCmd)
}

// RegistersCmd exports the root command.
var RegistersCmd = registersCmd
