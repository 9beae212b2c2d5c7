// Package reward implements the reward sub-commands.
package reward

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/0glabs/storage-ops/cmd/common"
	"github.com/0glabs/storage-ops/contracts"
)

const moduleName = "reward"

var (
	flags common.ChainFlags

	rewardCmd = &cobra.Command{
		Use:   "reward",
		Short: "Operate the reward contract",
	}
)

func run(fn func(ctx context.Context, chain *common.Chain, reward *contracts.Reward) error) {
	common.RunChain(&flags, moduleName, func(ctx context.Context, chain *common.Chain) error {
		addr, err := chain.Address("reward")
		if err != nil {
			return err
		}
		return fn(ctx, chain, contracts.NewReward(chain.Client, addr))
	})
}

var donateCmd = &cobra.Command{
	Use:   "donate <ether>",
	Short: "Donate an amount of ether to the reward pool",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, chain *common.Chain, reward *contracts.Reward) error {
			wei, err := contracts.ParseEther(args[0])
			if err != nil {
				return err
			}
			receipt, err := reward.Donate(ctx, wei)
			if err != nil {
				return err
			}
			common.LogReceipt(chain.Logger.With("ether", contracts.FormatEther(wei)), "donated", receipt)
			return nil
		})
	},
}

var setBaseRewardCmd = &cobra.Command{
	Use:   "set-base-reward <ether>",
	Short: "Set the base reward paid per submission",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, chain *common.Chain, reward *contracts.Reward) error {
			wei, err := contracts.ParseEther(args[0])
			if err != nil {
				return err
			}
			receipt, err := reward.SetBaseReward(ctx, wei)
			if err != nil {
				return err
			}
			common.LogReceipt(chain.Logger.With("ether", contracts.FormatEther(wei)), "base reward set", receipt)
			return nil
		})
	},
}

// Register registers the reward sub-commands.
func Register(parentCmd *cobra.Command) {
	flags.Register(rewardCmd)
	rewardCmd.AddCommand(donateCmd, setBaseRewardCmd)
	rewardCmd.AddCommand(common.BeaconCommands(&flags, moduleName, "reward_beacon")...)
	parentCmd.AddCommand(rewardCmd)
}
