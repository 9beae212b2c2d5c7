package contracts

import (
	"context"
	"math/big"
	"testing"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/0glabs/storage-ops/contracts/evmabi"
)

var flowAddress = ethCommon.HexToAddress("0x0460aA47b41a66694c0a73f667a1b795A5ED3556")

type fakeFlow struct {
	roles *fakeRoles

	epoch int64
	// makeContextFixedTimes never advances past target.
	target         int64
	paused         bool
	blocksPerEpoch *big.Int
	firstBlock     *big.Int
	rootHistory    ethCommon.Address
}

func (f *fakeFlow) onlyPauser(c fakeCall) error {
	if !f.roles.has(pauserRoleID, c.From) {
		return errUnauthorized
	}
	return nil
}

func (f *fakeFlow) methods() map[string]fakeMethod {
	return merge(f.roles.methods("PAUSER_ROLE", pauserRoleID), map[string]fakeMethod{
		"getContext": func(fakeCall) ([]interface{}, error) {
			return []interface{}{MineContext{
				Epoch:       big.NewInt(f.epoch),
				MineStart:   big.NewInt(4096),
				FlowRoot:    [32]byte{0xaa},
				FlowLength:  big.NewInt(1 << 20),
				BlockDigest: [32]byte{0xbb},
				Digest:      [32]byte{0xcc},
			}}, nil
		},
		"blocksPerEpoch": func(fakeCall) ([]interface{}, error) { return []interface{}{f.blocksPerEpoch}, nil },
		"firstBlock":     func(fakeCall) ([]interface{}, error) { return []interface{}{f.firstBlock}, nil },
		"rootHistory":    func(fakeCall) ([]interface{}, error) { return []interface{}{f.rootHistory}, nil },
		"epoch":          func(fakeCall) ([]interface{}, error) { return []interface{}{big.NewInt(f.epoch)}, nil },
		"paused":         func(fakeCall) ([]interface{}, error) { return []interface{}{f.paused}, nil },
		"setParams": func(c fakeCall) ([]interface{}, error) {
			if err := f.onlyPauser(c); err != nil {
				return nil, err
			}
			f.blocksPerEpoch = c.Args[0].(*big.Int)
			f.firstBlock = c.Args[1].(*big.Int)
			f.rootHistory = c.Args[2].(ethCommon.Address)
			return nil, nil
		},
		"pause": func(c fakeCall) ([]interface{}, error) {
			if err := f.onlyPauser(c); err != nil {
				return nil, err
			}
			f.paused = true
			return nil, nil
		},
		"unpause": func(c fakeCall) ([]interface{}, error) {
			if err := f.onlyPauser(c); err != nil {
				return nil, err
			}
			f.paused = false
			return nil, nil
		},
		"makeContextFixedTimes": func(c fakeCall) ([]interface{}, error) {
			f.epoch += c.Args[0].(*big.Int).Int64()
			if f.epoch > f.target {
				f.epoch = f.target
			}
			return nil, nil
		},
	})
}

func setupFlow(t *testing.T) (*fakeBackend, *fakeFlow, *Flow) {
	key := newTestKey(t)
	backend := newFakeBackend()
	client := newTestClient(t, backend, key)

	state := &fakeFlow{
		roles:          newFakeRoles(),
		blocksPerEpoch: big.NewInt(1200),
		firstBlock:     big.NewInt(1),
		rootHistory:    ethCommon.HexToAddress("0x1111111111111111111111111111111111111111"),
	}
	state.roles.set(adminRoleID, client.From(), true)
	state.roles.set(pauserRoleID, client.From(), true)
	backend.register(flowAddress, evmabi.Flow, state.methods())
	return backend, state, NewFlow(client, flowAddress)
}

func TestFlowShow(t *testing.T) {
	_, state, flow := setupFlow(t)
	state.epoch = 42

	status, err := flow.Show(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(42), status.Context.Epoch.Int64())
	require.Equal(t, int64(4096), status.Context.MineStart.Int64())
	require.Equal(t, [32]byte{0xaa}, status.Context.FlowRoot)
	require.Equal(t, int64(1<<20), status.Context.FlowLength.Int64())
	require.Equal(t, [32]byte{0xcc}, status.Context.Digest)
	require.Equal(t, int64(1200), status.BlocksPerEpoch.Int64())
	require.Equal(t, int64(1), status.FirstBlock.Int64())
	require.Equal(t, state.rootHistory, status.RootHistory)
}

func TestFlowSetParams(t *testing.T) {
	backend, state, flow := setupFlow(t)
	root := ethCommon.HexToAddress("0x2222222222222222222222222222222222222222")

	receipt, err := flow.SetParams(context.Background(), big.NewInt(300), big.NewInt(9), root)
	require.NoError(t, err)
	require.NotNil(t, receipt.BlockNumber)
	require.Equal(t, int64(300), state.blocksPerEpoch.Int64())
	require.Equal(t, int64(9), state.firstBlock.Int64())
	require.Equal(t, root, state.rootHistory)
	require.Equal(t, []string{"setParams"}, backend.sentMethods())
}

func TestFlowPauseUnpause(t *testing.T) {
	_, state, flow := setupFlow(t)
	ctx := context.Background()

	_, err := flow.Pause(ctx)
	require.NoError(t, err)
	require.True(t, state.paused)

	// Without the pauser role the transaction is mined but reverts.
	state.roles.set(pauserRoleID, flow.client.From(), false)
	_, err = flow.Unpause(ctx)
	require.ErrorIs(t, err, ErrReceiptFailed)
	require.True(t, state.paused)

	state.roles.set(pauserRoleID, flow.client.From(), true)
	_, err = flow.Unpause(ctx)
	require.NoError(t, err)
	require.False(t, state.paused)
}

func TestFlowUpdateContext(t *testing.T) {
	backend, state, flow := setupFlow(t)
	state.epoch = 10
	state.target = 250

	var seen []int64
	final, err := flow.UpdateContext(context.Background(), func(epoch *big.Int) {
		seen = append(seen, epoch.Int64())
	})
	require.NoError(t, err)
	require.Equal(t, int64(250), final.Int64())
	require.Equal(t, []int64{110, 210, 250}, seen)
	// The last batch finds nothing to do and ends the loop.
	require.Len(t, backend.sentMethods(), 4)
}

func TestFlowUpdateContextAlreadyCurrent(t *testing.T) {
	backend, state, flow := setupFlow(t)
	state.epoch = 7
	state.target = 7

	final, err := flow.UpdateContext(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, int64(7), final.Int64())
	require.Equal(t, []string{"makeContextFixedTimes"}, backend.sentMethods())
}
