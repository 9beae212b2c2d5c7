package contracts

import (
	"context"
	"fmt"
	"math/big"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const defaultAdminRole = "DEFAULT_ADMIN_ROLE"

// accessControl adds the role methods shared by the flow and the mine.
type accessControl struct {
	*contract
	// operatorRole is the name of the role getter for day to day operations.
	operatorRole string
}

// Role resolves a role id through its public getter, e.g. PAUSER_ROLE().
func (a *accessControl) Role(ctx context.Context, name string) ([32]byte, error) {
	var role [32]byte
	if err := a.call(ctx, &role, name); err != nil {
		return role, err
	}
	return role, nil
}

// HasRole reports whether account holds role.
func (a *accessControl) HasRole(ctx context.Context, role [32]byte, account ethCommon.Address) (bool, error) {
	var has bool
	if err := a.call(ctx, &has, "hasRole", role, account); err != nil {
		return false, err
	}
	return has, nil
}

// GrantRole grants role to account.
func (a *accessControl) GrantRole(ctx context.Context, role [32]byte, account ethCommon.Address) (*types.Receipt, error) {
	return a.transact(ctx, nil, "grantRole", role, account)
}

// RevokeRole revokes role from account.
func (a *accessControl) RevokeRole(ctx context.Context, role [32]byte, account ethCommon.Address) (*types.Receipt, error) {
	return a.transact(ctx, nil, "revokeRole", role, account)
}

// RoleTransferReport is the outcome of moving the admin roles from the
// signer to a new admin.
type RoleTransferReport struct {
	OperatorRole string
	OldAdmin     ethCommon.Address
	NewAdmin     ethCommon.Address

	NewHasAdmin        bool
	OldAdminRevoked    bool
	NewHasOperator     bool
	OldOperatorRevoked bool

	// Blocks the grant and revoke transactions were mined in, in order.
	Blocks []*big.Int
}

// OK reports whether every post-condition of the transfer holds.
func (r *RoleTransferReport) OK() bool {
	return r.NewHasAdmin && r.OldAdminRevoked && r.NewHasOperator && r.OldOperatorRevoked
}

// TransferAdmin moves the operator role and then DEFAULT_ADMIN_ROLE from
// the signer to newAdmin: grant to the new holder, then revoke from the
// signer. The signer must hold both roles; this is checked before any
// transaction is sent.
func (a *accessControl) TransferAdmin(ctx context.Context, newAdmin ethCommon.Address) (*RoleTransferReport, error) {
	signer := a.client.From()
	if !a.client.HasSigner() {
		return nil, ErrNoSigner
	}
	if newAdmin == signer {
		return nil, fmt.Errorf("new admin %s is the signer", newAdmin.Hex())
	}
	logger := a.client.logger.With("contract", a.name, "new_admin", newAdmin.Hex(), "signer", signer.Hex())

	operator, err := a.Role(ctx, a.operatorRole)
	if err != nil {
		return nil, err
	}
	admin, err := a.Role(ctx, defaultAdminRole)
	if err != nil {
		return nil, err
	}
	for _, r := range []struct {
		name string
		id   [32]byte
	}{{a.operatorRole, operator}, {defaultAdminRole, admin}} {
		has, err := a.HasRole(ctx, r.id, signer)
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, fmt.Errorf("%w: %s does not have %s on %s", ErrMissingRole, signer.Hex(), r.name, a.name)
		}
	}

	report := &RoleTransferReport{
		OperatorRole: a.operatorRole,
		OldAdmin:     signer,
		NewAdmin:     newAdmin,
	}
	steps := []struct {
		desc string
		run  func() (*types.Receipt, error)
	}{
		{"grant " + a.operatorRole, func() (*types.Receipt, error) { return a.GrantRole(ctx, operator, newAdmin) }},
		{"revoke " + a.operatorRole, func() (*types.Receipt, error) { return a.RevokeRole(ctx, operator, signer) }},
		{"grant " + defaultAdminRole, func() (*types.Receipt, error) { return a.GrantRole(ctx, admin, newAdmin) }},
		{"revoke " + defaultAdminRole, func() (*types.Receipt, error) { return a.RevokeRole(ctx, admin, signer) }},
	}
	for _, step := range steps {
		receipt, err := step.run()
		if err != nil {
			return report, fmt.Errorf("%s: %w", step.desc, err)
		}
		logger.Info("role step confirmed", "step", step.desc, "block", receipt.BlockNumber)
		report.Blocks = append(report.Blocks, receipt.BlockNumber)
	}

	checks := []struct {
		out     *bool
		role    [32]byte
		account ethCommon.Address
		want    bool
	}{
		{&report.NewHasAdmin, admin, newAdmin, true},
		{&report.OldAdminRevoked, admin, signer, false},
		{&report.NewHasOperator, operator, newAdmin, true},
		{&report.OldOperatorRevoked, operator, signer, false},
	}
	for _, c := range checks {
		has, err := a.HasRole(ctx, c.role, c.account)
		if err != nil {
			return report, fmt.Errorf("verifying roles: %w", err)
		}
		*c.out = has == c.want
	}
	if !report.OK() {
		logger.Warn("admin transfer completed but verification failed",
			"new_has_admin", report.NewHasAdmin,
			"old_admin_revoked", report.OldAdminRevoked,
			"new_has_operator", report.NewHasOperator,
			"old_operator_revoked", report.OldOperatorRevoked,
		)
	}
	return report, nil
}
