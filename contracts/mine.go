package contracts

import (
	"context"
	"math/big"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/0glabs/storage-ops/contracts/evmabi"
)

// MineStatus are the mine parameters shown by Show.
type MineStatus struct {
	TargetSubmissions *big.Int
	// CanSubmit is simulated from the signer address.
	CanSubmit bool
}

// Mine is the PoRA mine contract.
type Mine struct {
	accessControl
}

// NewMine returns a handle for the mine at address.
func NewMine(c *Client, address ethCommon.Address) *Mine {
	return &Mine{accessControl{
		contract:     &contract{client: c, name: "mine", address: address, abi: evmabi.PoraMine},
		operatorRole: "PARAMS_ADMIN_ROLE",
	}}
}

// Show reads the target submissions and whether a submission would be
// accepted right now.
func (m *Mine) Show(ctx context.Context) (*MineStatus, error) {
	var status MineStatus
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return m.call(groupCtx, &status.TargetSubmissions, "targetSubmissions")
	})
	group.Go(func() error {
		return m.call(groupCtx, &status.CanSubmit, "canSubmit")
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return &status, nil
}

// SetTargetSubmissions sets the number of submissions targeted per epoch.
func (m *Mine) SetTargetSubmissions(ctx context.Context, n *big.Int) (*types.Receipt, error) {
	return m.transact(ctx, nil, "setTargetSubmissions", n)
}

// SetMinDifficulty sets the minimum mining difficulty.
func (m *Mine) SetMinDifficulty(ctx context.Context, min *big.Int) (*types.Receipt, error) {
	return m.transact(ctx, nil, "setMinDifficulty", min)
}

// SetNumSubtasks sets the number of subtasks per mining round.
func (m *Mine) SetNumSubtasks(ctx context.Context, n uint64) (*types.Receipt, error) {
	return m.transact(ctx, nil, "setNumSubtasks", n)
}
