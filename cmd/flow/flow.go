// Package flow implements the flow sub-commands.
package flow

import (
	"context"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/0glabs/storage-ops/cmd/common"
	"github.com/0glabs/storage-ops/contracts"
)

const moduleName = "flow"

var (
	flags common.ChainFlags

	flowCmd = &cobra.Command{
		Use:   "flow",
		Short: "Operate the flow contract",
	}
)

func flowHandle(chain *common.Chain) (*contracts.Flow, error) {
	addr, err := chain.Address("flow")
	if err != nil {
		return nil, err
	}
	return contracts.NewFlow(chain.Client, addr), nil
}

// run runs fn against the configured flow.
func run(fn func(ctx context.Context, chain *common.Chain, flow *contracts.Flow) error) {
	common.RunChain(&flags, moduleName, func(ctx context.Context, chain *common.Chain) error {
		flow, err := flowHandle(chain)
		if err != nil {
			return err
		}
		return fn(ctx, chain, flow)
	})
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the mining context and epoch parameters",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, chain *common.Chain, flow *contracts.Flow) error {
			status, err := flow.Show(ctx)
			if err != nil {
				return err
			}
			chain.Logger.Info("flow",
				"address", flow.Address().Hex(),
				"epoch", status.Context.Epoch,
				"mine_start", status.Context.MineStart,
				"flow_root", fmt.Sprintf("%#x", status.Context.FlowRoot),
				"flow_length", status.Context.FlowLength,
				"block_digest", fmt.Sprintf("%#x", status.Context.BlockDigest),
				"digest", fmt.Sprintf("%#x", status.Context.Digest),
				"blocks_per_epoch", status.BlocksPerEpoch,
				"first_block", status.FirstBlock,
				"root_history", status.RootHistory.Hex(),
			)
			return nil
		})
	},
}

var setParamsCmd = &cobra.Command{
	Use:   "setparams",
	Short: "Write chain.flow_params to the flow",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, chain *common.Chain, flow *contracts.Flow) error {
			params := chain.Config.FlowParams
			if params == nil {
				return fmt.Errorf("chain.flow_params not configured")
			}
			rootHistory, err := contracts.ParseAddress(params.RootHistory)
			if err != nil {
				return err
			}
			receipt, err := flow.SetParams(ctx,
				new(big.Int).SetUint64(params.BlocksPerEpoch),
				new(big.Int).SetUint64(params.FirstBlock),
				rootHistory,
			)
			if err != nil {
				return err
			}
			common.LogReceipt(chain.Logger, "flow params set", receipt)
			return nil
		})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the flow",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, chain *common.Chain, flow *contracts.Flow) error {
			receipt, err := flow.Pause(ctx)
			if err != nil {
				return err
			}
			common.LogReceipt(chain.Logger, "flow paused", receipt)
			return nil
		})
	},
}

var unpauseCmd = &cobra.Command{
	Use:   "unpause",
	Short: "Resume the flow",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, chain *common.Chain, flow *contracts.Flow) error {
			receipt, err := flow.Unpause(ctx)
			if err != nil {
				return err
			}
			common.LogReceipt(chain.Logger, "flow unpaused", receipt)
			return nil
		})
	},
}

var updateContextCmd = &cobra.Command{
	Use:   "updatecontext",
	Short: "Advance the mining context until it reaches the current epoch",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, chain *common.Chain, flow *contracts.Flow) error {
			epoch, err := flow.UpdateContext(ctx, nil)
			if err != nil {
				return err
			}
			chain.Logger.Info("context up to date", "epoch", epoch)
			return nil
		})
	},
}

// Register registers the flow sub-commands.
func Register(parentCmd *cobra.Command) {
	flags.Register(flowCmd)
	flowCmd.AddCommand(showCmd, setParamsCmd, pauseCmd, unpauseCmd, updateContextCmd)
	flowCmd.AddCommand(common.SetAdminCommand(&flags, moduleName, func(chain *common.Chain) (common.AdminTransferer, error) {
		return flowHandle(chain)
	}))
	flowCmd.AddCommand(common.BeaconCommands(&flags, moduleName, "flow_beacon")...)
	parentCmd.AddCommand(flowCmd)
}
