// Package mine implements the mine sub-commands.
package mine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"github.com/0glabs/storage-ops/cmd/common"
	"github.com/0glabs/storage-ops/contracts"
)

const moduleName = "mine"

var (
	flags common.ChainFlags

	mineCmd = &cobra.Command{
		Use:   "mine",
		Short: "Operate the mine contract",
	}
)

func mineHandle(chain *common.Chain) (*contracts.Mine, error) {
	addr, err := chain.Address("mine")
	if err != nil {
		return nil, err
	}
	return contracts.NewMine(chain.Client, addr), nil
}

func run(fn func(ctx context.Context, chain *common.Chain, mine *contracts.Mine) error) {
	common.RunChain(&flags, moduleName, func(ctx context.Context, chain *common.Chain) error {
		mine, err := mineHandle(chain)
		if err != nil {
			return err
		}
		return fn(ctx, chain, mine)
	})
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the mining parameters",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, chain *common.Chain, mine *contracts.Mine) error {
			status, err := mine.Show(ctx)
			if err != nil {
				return err
			}
			chain.Logger.Info("mine",
				"address", mine.Address().Hex(),
				"target_submissions", status.TargetSubmissions,
				"can_submit", status.CanSubmit,
			)
			return nil
		})
	},
}

// setter builds a command writing one integer parameter.
func setter(use, short, done string, set func(ctx context.Context, mine *contracts.Mine, arg string) (*types.Receipt, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			run(func(ctx context.Context, chain *common.Chain, mine *contracts.Mine) error {
				receipt, err := set(ctx, mine, args[0])
				if err != nil {
					return err
				}
				common.LogReceipt(chain.Logger.With("value", args[0]), done, receipt)
				return nil
			})
		},
	}
}

var setTargetSubmissionsCmd = setter(
	"set-target-submissions <n>",
	"Set the number of submissions targeted per epoch",
	"target submissions set",
	func(ctx context.Context, mine *contracts.Mine, arg string) (*types.Receipt, error) {
		n, err := common.ParseAmount(arg)
		if err != nil {
			return nil, err
		}
		return mine.SetTargetSubmissions(ctx, n)
	},
)

var setMinDifficultyCmd = setter(
	"set-min-difficulty <difficulty>",
	"Set the minimum mining difficulty",
	"min difficulty set",
	func(ctx context.Context, mine *contracts.Mine, arg string) (*types.Receipt, error) {
		n, err := common.ParseAmount(arg)
		if err != nil {
			return nil, err
		}
		return mine.SetMinDifficulty(ctx, n)
	},
)

var setNumSubtasksCmd = setter(
	"set-num-subtasks <n>",
	"Set the number of subtasks per mining round",
	"num subtasks set",
	func(ctx context.Context, mine *contracts.Mine, arg string) (*types.Receipt, error) {
		n, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("'%s' is not a uint64: %w", arg, err)
		}
		return mine.SetNumSubtasks(ctx, n)
	},
)

// Register registers the mine sub-commands.
func Register(parentCmd *cobra.Command) {
	flags.Register(mineCmd)
	mineCmd.AddCommand(showCmd, setTargetSubmissionsCmd, setMinDifficultyCmd, setNumSubtasksCmd)
	mineCmd.AddCommand(common.SetAdminCommand(&flags, moduleName, func(chain *common.Chain) (common.AdminTransferer, error) {
		return mineHandle(chain)
	}))
	mineCmd.AddCommand(common.BeaconCommands(&flags, moduleName, "mine_beacon")...)
	parentCmd.AddCommand(mineCmd)
}
