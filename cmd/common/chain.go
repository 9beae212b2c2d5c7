package common

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"github.com/0glabs/storage-ops/config"
	"github.com/0glabs/storage-ops/contracts"
	"github.com/0glabs/storage-ops/log"
	"github.com/0glabs/storage-ops/metrics"
)

// ChainFlags are the flags shared by the contract commands.
type ChainFlags struct {
	// Path to the configuration file.
	ConfigFile string
	// Key overrides chain.private_key.
	Key string
}

// Register adds the flags to cmd and its sub-commands.
func (f *ChainFlags) Register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.ConfigFile, "config", "./config/local.yml", "path to the config.yml file")
	cmd.PersistentFlags().StringVar(&f.Key, "key", "", "hex-encoded signer key, overrides chain.private_key")
}

// Chain is an initialized environment for one contract command.
type Chain struct {
	Config *config.ChainConfig
	Client *contracts.Client
	Logger *log.Logger

	closeFn func()
}

// Close releases the node connection.
func (c *Chain) Close() {
	c.closeFn()
}

// Address returns the configured address of contract `name`.
func (c *Chain) Address(name string) (ethCommon.Address, error) {
	return c.Config.Contracts.Address(name)
}

// RunChain loads the config, dials the node and runs fn with a context that
// is canceled on SIGINT or SIGTERM. Failures are logged and exit the
// process, as for every command.
func RunChain(flags *ChainFlags, module string, fn func(ctx context.Context, chain *Chain) error) {
	cfg, err := config.InitConfig(flags.ConfigFile)
	if err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}
	if err = Init(cfg); err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}
	logger := RootLogger().WithModule(module)
	if cfg.Chain == nil {
		logger.Error("chain config not provided")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainMetrics := metrics.NewChainMetrics(MetricsPackage)
	client, closeFn, err := contracts.Dial(ctx, cfg.Chain, flags.Key, &chainMetrics, RootLogger())
	if err != nil {
		logger.Error("failed to connect to chain", "rpc", cfg.Chain.RPC, "err", err)
		os.Exit(1)
	}
	chain := &Chain{Config: cfg.Chain, Client: client, Logger: logger, closeFn: closeFn}

	err = fn(ctx, chain)
	chain.Close()
	if err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// BeaconCommands returns the beacon-owner, transfer-beacon-ownership and
// upgrade commands for the beacon configured as contracts.<beaconKey>.
func BeaconCommands(flags *ChainFlags, module string, beaconKey string) []*cobra.Command {
	beacon := func(chain *Chain) (*contracts.Beacon, error) {
		addr, err := chain.Address(beaconKey)
		if err != nil {
			return nil, err
		}
		return contracts.NewBeacon(chain.Client, beaconKey, addr), nil
	}

	ownerCmd := &cobra.Command{
		Use:   "beacon-owner",
		Short: "Show the beacon owner and whether it is the signer",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			RunChain(flags, module, func(ctx context.Context, chain *Chain) error {
				b, err := beacon(chain)
				if err != nil {
					return err
				}
				status, err := b.CheckOwner(ctx)
				if err != nil {
					return err
				}
				impl, err := b.Implementation(ctx)
				if err != nil {
					return err
				}
				chain.Logger.Info("beacon owner",
					"beacon", status.Beacon.Hex(),
					"owner", status.Owner.Hex(),
					"signer", status.Signer.Hex(),
					"is_owner", status.IsOwner,
					"implementation", impl.Hex(),
				)
				return nil
			})
		},
	}

	var execute bool
	transferCmd := &cobra.Command{
		Use:   "transfer-beacon-ownership <new-owner>",
		Short: "Transfer beacon ownership; a dry run unless --execute is given",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			RunChain(flags, module, func(ctx context.Context, chain *Chain) error {
				newOwner, err := contracts.ParseAddress(args[0])
				if err != nil {
					return err
				}
				b, err := beacon(chain)
				if err != nil {
					return err
				}
				transfer, err := b.TransferOwnership(ctx, newOwner, execute)
				if err != nil {
					return err
				}
				if !transfer.Executed {
					chain.Logger.Info("dry run, nothing sent; rerun with --execute",
						"current_owner", transfer.CurrentOwner.Hex(),
						"call", transfer.Call(),
					)
					return nil
				}
				chain.Logger.Info("beacon ownership transferred",
					"previous_owner", transfer.CurrentOwner.Hex(),
					"owner", transfer.ConfirmedOwner.Hex(),
					"tx", transfer.TxHash.Hex(),
				)
				if transfer.ConfirmedOwner != transfer.NewOwner {
					return fmt.Errorf("beacon reports owner %s after transfer", transfer.ConfirmedOwner.Hex())
				}
				return nil
			})
		},
	}
	transferCmd.Flags().BoolVar(&execute, "execute", false, "send the transaction")

	var artifactPath string
	upgradeCmd := &cobra.Command{
		Use:   "upgrade [constructor-args...]",
		Short: "Deploy a new implementation from a build artifact and point the beacon at it",
		Run: func(cmd *cobra.Command, args []string) {
			RunChain(flags, module, func(ctx context.Context, chain *Chain) error {
				artifact, err := contracts.LoadArtifact(artifactPath)
				if err != nil {
					return err
				}
				ctorArgs, err := contracts.ParseConstructorArgs(artifact, args)
				if err != nil {
					return err
				}
				b, err := beacon(chain)
				if err != nil {
					return err
				}
				report, err := b.Upgrade(ctx, artifact, ctorArgs...)
				if err != nil {
					return err
				}
				if report.UpToDate {
					chain.Logger.Info("implementation already up to date",
						"implementation", report.OldImplementation.Hex(),
					)
					return nil
				}
				chain.Logger.Info("beacon upgraded",
					"old_implementation", report.OldImplementation.Hex(),
					"new_implementation", report.NewImplementation.Hex(),
					"tx", report.TxHash.Hex(),
					"gas_used", report.GasUsed,
				)
				if !report.Verified {
					return fmt.Errorf("beacon does not report the new implementation")
				}
				return nil
			})
		},
	}
	upgradeCmd.Flags().StringVar(&artifactPath, "artifact", "", "path to the compiled contract artifact (JSON)")
	_ = upgradeCmd.MarkFlagRequired("artifact")

	return []*cobra.Command{ownerCmd, transferCmd, upgradeCmd}
}

// AdminTransferer is a contract whose admin roles can be rotated.
type AdminTransferer interface {
	TransferAdmin(ctx context.Context, newAdmin ethCommon.Address) (*contracts.RoleTransferReport, error)
}

// SetAdminCommand returns the set-admin command, which moves the operator
// and admin roles of the contract built by handle to a new address.
func SetAdminCommand(flags *ChainFlags, module string, handle func(chain *Chain) (AdminTransferer, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "set-admin <new-admin>",
		Short: "Move the operator and admin roles from the signer to a new address",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			RunChain(flags, module, func(ctx context.Context, chain *Chain) error {
				newAdmin, err := contracts.ParseAddress(args[0])
				if err != nil {
					return err
				}
				c, err := handle(chain)
				if err != nil {
					return err
				}
				report, err := c.TransferAdmin(ctx, newAdmin)
				if err != nil {
					return err
				}
				chain.Logger.Info("admin transferred",
					"operator_role", report.OperatorRole,
					"old_admin", report.OldAdmin.Hex(),
					"new_admin", report.NewAdmin.Hex(),
					"new_has_admin", report.NewHasAdmin,
					"old_admin_revoked", report.OldAdminRevoked,
					"new_has_operator", report.NewHasOperator,
					"old_operator_revoked", report.OldOperatorRevoked,
					"blocks", report.Blocks,
				)
				if !report.OK() {
					return fmt.Errorf("role transfer to %s incomplete", newAdmin.Hex())
				}
				return nil
			})
		},
	}
}

// ParseAmount parses a non-negative decimal or 0x-hex integer argument.
func ParseAmount(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("'%s' is not a non-negative integer", s)
	}
	return n, nil
}

// LogReceipt logs a mined transaction.
func LogReceipt(logger *log.Logger, msg string, receipt *types.Receipt) {
	logger.Info(msg,
		"tx", receipt.TxHash.Hex(),
		"block", receipt.BlockNumber,
		"gas_used", receipt.GasUsed,
	)
}
