package contracts

import (
	"context"
	"encoding/json"
	"testing"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/0glabs/storage-ops/contracts/evmabi"
)

var (
	beaconAddress = ethCommon.HexToAddress("0x4444444444444444444444444444444444444444")
	currentImpl   = ethCommon.HexToAddress("0x5555555555555555555555555555555555555555")
	deployedImpl  = ethCommon.HexToAddress("0x6666666666666666666666666666666666666666")
)

type fakeBeacon struct {
	owner ethCommon.Address
	impl  ethCommon.Address
}

func (b *fakeBeacon) methods() map[string]fakeMethod {
	onlyOwner := func(c fakeCall) error {
		if c.From != b.owner {
			return errUnauthorized
		}
		return nil
	}
	return map[string]fakeMethod{
		"owner":          func(fakeCall) ([]interface{}, error) { return []interface{}{b.owner}, nil },
		"implementation": func(fakeCall) ([]interface{}, error) { return []interface{}{b.impl}, nil },
		"transferOwnership": func(c fakeCall) ([]interface{}, error) {
			if err := onlyOwner(c); err != nil {
				return nil, err
			}
			b.owner = c.Args[0].(ethCommon.Address)
			return nil, nil
		},
		"upgradeTo": func(c fakeCall) ([]interface{}, error) {
			if err := onlyOwner(c); err != nil {
				return nil, err
			}
			b.impl = c.Args[0].(ethCommon.Address)
			return nil, nil
		},
	}
}

func setupBeacon(t *testing.T, signerOwns bool) (*fakeBackend, *fakeBeacon, *Beacon) {
	backend := newFakeBackend()
	backend.deployAt = deployedImpl
	client := newTestClient(t, backend, newTestKey(t))

	state := &fakeBeacon{owner: ethCommon.HexToAddress("0x7777777777777777777777777777777777777777"), impl: currentImpl}
	if signerOwns {
		state.owner = client.From()
	}
	backend.register(beaconAddress, evmabi.UpgradeableBeacon, state.methods())
	return backend, state, NewBeacon(client, "reward_beacon", beaconAddress)
}

func testArtifact(t *testing.T) *Artifact {
	raw, err := json.Marshal(map[string]interface{}{
		"contractName": "ChunkLinearReward",
		"abi": []map[string]interface{}{{
			"type":            "constructor",
			"stateMutability": "nonpayable",
			"inputs":          []map[string]string{{"name": "releaseSeconds_", "type": "uint256"}},
		}},
		"bytecode":         "0x6080604052",
		"deployedBytecode": "0x60806040",
	})
	require.NoError(t, err)
	artifact, err := ParseArtifact(raw)
	require.NoError(t, err)
	return artifact
}

func TestBeaconCheckOwner(t *testing.T) {
	_, _, beacon := setupBeacon(t, true)
	status, err := beacon.CheckOwner(context.Background())
	require.NoError(t, err)
	require.True(t, status.IsOwner)
	require.Equal(t, beaconAddress, status.Beacon)

	_, _, beacon = setupBeacon(t, false)
	status, err = beacon.CheckOwner(context.Background())
	require.NoError(t, err)
	require.False(t, status.IsOwner)
}

func TestBeaconTransferOwnershipDryRun(t *testing.T) {
	backend, state, beacon := setupBeacon(t, true)

	transfer, err := beacon.TransferOwnership(context.Background(), newAdmin, false)
	require.NoError(t, err)
	require.False(t, transfer.Executed)
	require.Equal(t, state.owner, transfer.CurrentOwner)
	require.Equal(t, `beacon.transferOwnership("0x3333333333333333333333333333333333333333")`, transfer.Call())
	require.Empty(t, backend.sentMethods())
}

func TestBeaconTransferOwnershipExecute(t *testing.T) {
	_, state, beacon := setupBeacon(t, true)

	transfer, err := beacon.TransferOwnership(context.Background(), newAdmin, true)
	require.NoError(t, err)
	require.True(t, transfer.Executed)
	require.Equal(t, newAdmin, transfer.ConfirmedOwner)
	require.Equal(t, newAdmin, state.owner)
}

func TestBeaconTransferOwnershipNotOwner(t *testing.T) {
	backend, _, beacon := setupBeacon(t, false)

	_, err := beacon.TransferOwnership(context.Background(), newAdmin, true)
	require.ErrorIs(t, err, ErrNotBeaconOwner)
	require.Empty(t, backend.sentMethods())
}

func TestBeaconUpgrade(t *testing.T) {
	backend, state, beacon := setupBeacon(t, true)

	_, err := beacon.Upgrade(context.Background(), testArtifact(t), "32140800")
	require.Error(t, err, "constructor arguments are typed")

	report, err := beacon.Upgrade(context.Background(), testArtifact(t), bigInt(32140800))
	require.NoError(t, err)
	require.False(t, report.UpToDate)
	require.True(t, report.Verified)
	require.Equal(t, currentImpl, report.OldImplementation)
	require.Equal(t, deployedImpl, report.NewImplementation)
	require.Equal(t, deployedImpl, state.impl)
	require.Equal(t, []string{"deploy", "upgradeTo"}, backend.sentMethods())
}

func TestBeaconUpgradeUpToDate(t *testing.T) {
	backend, state, beacon := setupBeacon(t, true)
	artifact := testArtifact(t)
	backend.code[currentImpl] = artifact.DeployedBytecode

	report, err := beacon.Upgrade(context.Background(), artifact, bigInt(32140800))
	require.NoError(t, err)
	require.True(t, report.UpToDate)
	require.Equal(t, currentImpl, state.impl)
	require.Empty(t, backend.sentMethods())
}

func TestBeaconUpgradeNotOwner(t *testing.T) {
	backend, _, beacon := setupBeacon(t, false)

	_, err := beacon.Upgrade(context.Background(), testArtifact(t), bigInt(1))
	require.ErrorIs(t, err, ErrNotBeaconOwner)
	require.Empty(t, backend.sentMethods())
}
