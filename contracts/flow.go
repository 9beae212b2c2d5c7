package contracts

import (
	"context"
	"fmt"
	"math/big"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/0glabs/storage-ops/contracts/evmabi"
)

// ContextUpdateBatch is how many epochs one makeContextFixedTimes call may
// advance.
const ContextUpdateBatch = 100

// MineContext is the mining context the flow exposes for the current epoch.
type MineContext struct {
	Epoch       *big.Int
	MineStart   *big.Int
	FlowRoot    [32]byte
	FlowLength  *big.Int
	BlockDigest [32]byte
	Digest      [32]byte
}

// FlowStatus are the flow parameters shown by Show.
type FlowStatus struct {
	Context        MineContext
	BlocksPerEpoch *big.Int
	FirstBlock     *big.Int
	RootHistory    ethCommon.Address
}

// Flow is the log-structured flow contract.
type Flow struct {
	accessControl
}

// NewFlow returns a handle for the flow at address.
func NewFlow(c *Client, address ethCommon.Address) *Flow {
	return &Flow{accessControl{
		contract:     &contract{client: c, name: "flow", address: address, abi: evmabi.Flow},
		operatorRole: "PAUSER_ROLE",
	}}
}

// Show reads the mining context and epoch parameters concurrently.
func (f *Flow) Show(ctx context.Context) (*FlowStatus, error) {
	var status FlowStatus
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		// A lone tuple output is unpacked into the first field of a struct.
		var out struct{ Context MineContext }
		if err := f.call(groupCtx, &out, "getContext"); err != nil {
			return err
		}
		status.Context = out.Context
		return nil
	})
	group.Go(func() error {
		return f.call(groupCtx, &status.BlocksPerEpoch, "blocksPerEpoch")
	})
	group.Go(func() error {
		return f.call(groupCtx, &status.FirstBlock, "firstBlock")
	})
	group.Go(func() error {
		return f.call(groupCtx, &status.RootHistory, "rootHistory")
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return &status, nil
}

// Epoch returns the current epoch of the flow.
func (f *Flow) Epoch(ctx context.Context) (*big.Int, error) {
	var epoch *big.Int
	if err := f.call(ctx, &epoch, "epoch"); err != nil {
		return nil, err
	}
	return epoch, nil
}

// SetParams sets the epoch parameters.
func (f *Flow) SetParams(ctx context.Context, blocksPerEpoch, firstBlock *big.Int, rootHistory ethCommon.Address) (*types.Receipt, error) {
	return f.transact(ctx, nil, "setParams", blocksPerEpoch, firstBlock, rootHistory)
}

// Pause pauses the flow.
func (f *Flow) Pause(ctx context.Context) (*types.Receipt, error) {
	return f.transact(ctx, nil, "pause")
}

// Unpause resumes the flow.
func (f *Flow) Unpause(ctx context.Context) (*types.Receipt, error) {
	return f.transact(ctx, nil, "unpause")
}

// UpdateContext advances the mining context in batches until the epoch
// stops changing. progress, if not nil, is called with every new epoch.
// It returns the final epoch.
func (f *Flow) UpdateContext(ctx context.Context, progress func(epoch *big.Int)) (*big.Int, error) {
	batch := big.NewInt(ContextUpdateBatch)
	for {
		before, err := f.Epoch(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = f.transact(ctx, nil, "makeContextFixedTimes", batch); err != nil {
			return nil, fmt.Errorf("updating context from epoch %v: %w", before, err)
		}
		after, err := f.Epoch(ctx)
		if err != nil {
			return nil, err
		}
		if after.Cmp(before) == 0 {
			return after, nil
		}
		f.client.logger.Info("updated epoch", "epoch", after)
		if progress != nil {
			progress(after)
		}
	}
}
