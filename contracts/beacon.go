package contracts

import (
	"bytes"
	"context"
	"fmt"

	ethCommon "github.com/ethereum/go-ethereum/common"

	"github.com/0glabs/storage-ops/contracts/evmabi"
)

// Beacon is an upgradeable beacon fronting one of the contracts.
type Beacon struct {
	*contract
}

// NewBeacon returns a handle for the beacon at address. name labels logs
// and metrics, e.g. "flow_beacon".
func NewBeacon(c *Client, name string, address ethCommon.Address) *Beacon {
	return &Beacon{&contract{client: c, name: name, address: address, abi: evmabi.UpgradeableBeacon}}
}

// Owner returns the beacon owner.
func (b *Beacon) Owner(ctx context.Context) (ethCommon.Address, error) {
	var owner ethCommon.Address
	err := b.call(ctx, &owner, "owner")
	return owner, err
}

// Implementation returns the implementation the beacon points to.
func (b *Beacon) Implementation(ctx context.Context) (ethCommon.Address, error) {
	var impl ethCommon.Address
	err := b.call(ctx, &impl, "implementation")
	return impl, err
}

// OwnerStatus tells who owns the beacon and whether it is the signer.
type OwnerStatus struct {
	Beacon  ethCommon.Address
	Owner   ethCommon.Address
	Signer  ethCommon.Address
	IsOwner bool
}

// CheckOwner compares the beacon owner with the signer.
func (b *Beacon) CheckOwner(ctx context.Context) (*OwnerStatus, error) {
	owner, err := b.Owner(ctx)
	if err != nil {
		return nil, err
	}
	signer := b.client.From()
	return &OwnerStatus{
		Beacon:  b.address,
		Owner:   owner,
		Signer:  signer,
		IsOwner: b.client.HasSigner() && owner == signer,
	}, nil
}

func (b *Beacon) requireOwner(ctx context.Context) (*OwnerStatus, error) {
	status, err := b.CheckOwner(ctx)
	if err != nil {
		return nil, err
	}
	if !status.IsOwner {
		return status, fmt.Errorf("%w: signer %s, owner %s", ErrNotBeaconOwner, status.Signer.Hex(), status.Owner.Hex())
	}
	return status, nil
}

// OwnershipTransfer describes a planned or executed ownership transfer.
type OwnershipTransfer struct {
	CurrentOwner ethCommon.Address
	NewOwner     ethCommon.Address
	Executed     bool
	// TxHash and ConfirmedOwner are only set once executed.
	TxHash         ethCommon.Hash
	ConfirmedOwner ethCommon.Address
}

// Call renders the transfer as the contract call it makes.
func (t *OwnershipTransfer) Call() string {
	return fmt.Sprintf("beacon.transferOwnership(%q)", t.NewOwner.Hex())
}

// TransferOwnership hands the beacon to newOwner. Unless execute is set,
// nothing is sent and the planned transfer is returned.
func (b *Beacon) TransferOwnership(ctx context.Context, newOwner ethCommon.Address, execute bool) (*OwnershipTransfer, error) {
	current, err := b.Owner(ctx)
	if err != nil {
		return nil, err
	}
	transfer := &OwnershipTransfer{CurrentOwner: current, NewOwner: newOwner}
	if !execute {
		return transfer, nil
	}
	if _, err = b.requireOwner(ctx); err != nil {
		return transfer, err
	}

	receipt, err := b.transact(ctx, nil, "transferOwnership", newOwner)
	if err != nil {
		return transfer, err
	}
	transfer.Executed = true
	transfer.TxHash = receipt.TxHash
	if transfer.ConfirmedOwner, err = b.Owner(ctx); err != nil {
		return transfer, err
	}
	return transfer, nil
}

// UpgradeReport is the outcome of an implementation upgrade.
type UpgradeReport struct {
	OldImplementation ethCommon.Address
	NewImplementation ethCommon.Address
	// UpToDate is set when the deployed code already matched the artifact
	// and nothing was upgraded.
	UpToDate bool
	TxHash   ethCommon.Hash
	GasUsed  uint64
	// Verified is set when the beacon reports the new implementation
	// after the upgrade.
	Verified bool
}

// Upgrade deploys artifact with args as a new implementation and points
// the beacon at it. It is a no-op when the current implementation already
// runs the artifact's deployed code.
func (b *Beacon) Upgrade(ctx context.Context, artifact *Artifact, args ...interface{}) (*UpgradeReport, error) {
	current, err := b.Implementation(ctx)
	if err != nil {
		return nil, err
	}
	report := &UpgradeReport{OldImplementation: current}
	if _, err = b.requireOwner(ctx); err != nil {
		return report, err
	}
	logger := b.client.logger.With("beacon", b.name, "current_implementation", current.Hex())

	if len(artifact.DeployedBytecode) > 0 {
		code, err := b.client.backend.CodeAt(ctx, current, nil)
		if err != nil {
			return report, fmt.Errorf("fetching code of %s: %w", current.Hex(), err)
		}
		if bytes.Equal(code, artifact.DeployedBytecode) {
			logger.Info("implementation is already up to date")
			report.NewImplementation = current
			report.UpToDate = true
			return report, nil
		}
	}

	data, err := artifact.DeployData(args...)
	if err != nil {
		return report, err
	}
	deployed, err := b.client.send(ctx, nil, nil, data, "deploy "+artifact.ContractName)
	if err != nil {
		return report, err
	}
	report.NewImplementation = deployed.ContractAddress
	logger.Info("new implementation deployed", "implementation", report.NewImplementation.Hex())
	if report.NewImplementation == current {
		report.UpToDate = true
		return report, nil
	}

	receipt, err := b.transact(ctx, nil, "upgradeTo", report.NewImplementation)
	if err != nil {
		return report, err
	}
	report.TxHash = receipt.TxHash
	report.GasUsed = receipt.GasUsed

	updated, err := b.Implementation(ctx)
	if err != nil {
		return report, err
	}
	report.Verified = updated == report.NewImplementation
	if !report.Verified {
		logger.Warn("upgrade verification failed", "reported_implementation", updated.Hex())
	}
	return report, nil
}
