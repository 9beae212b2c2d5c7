package contracts

import (
	"context"
	"math/big"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/0glabs/storage-ops/contracts/evmabi"
)

// Reward is the chunk linear reward pool.
type Reward struct {
	*contract
}

// NewReward returns a handle for the reward pool at address.
func NewReward(c *Client, address ethCommon.Address) *Reward {
	return &Reward{&contract{client: c, name: "reward", address: address, abi: evmabi.ChunkLinearReward}}
}

// Donate sends wei to the pool's extra total base reward.
func (r *Reward) Donate(ctx context.Context, wei *big.Int) (*types.Receipt, error) {
	return r.transact(ctx, wei, "donate")
}

// SetBaseReward sets the extra base reward, in wei.
func (r *Reward) SetBaseReward(ctx context.Context, wei *big.Int) (*types.Receipt, error) {
	return r.transact(ctx, nil, "setBaseReward", wei)
}
