package contracts

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrNoSigner is returned by writes on a client without a key.
	ErrNoSigner = errors.New("contracts: no signer key configured")

	// ErrMissingRole is returned when the signer lacks a role an operation
	// needs. Nothing has been written when it is returned.
	ErrMissingRole = errors.New("contracts: signer is missing role")

	// ErrNotBeaconOwner is returned when the signer does not own a beacon.
	ErrNotBeaconOwner = errors.New("contracts: signer is not the beacon owner")

	// ErrReceiptFailed is returned when a transaction was mined with a
	// failure status.
	ErrReceiptFailed = errors.New("contracts: transaction failed")

	// ErrInvalidAddress is returned for malformed address arguments.
	ErrInvalidAddress = errors.New("contracts: invalid address")
)

// RevertError marks a failure that is deterministic for the given chain
// state, such as a revert or an undecodable result. Retrying it is useless.
type RevertError struct {
	// Note: .error is the implementation of .Error, .Unwrap etc. It is not
	// in the Unwrap chain. Use something like
	// `RevertError{fmt.Errorf("...: %w", err)}` to set up an
	// instance with `err` in the Unwrap chain.
	error
}

func (err RevertError) Is(target error) bool {
	if _, ok := target.(RevertError); ok {
		return true
	}
	return false
}

// asRevert wraps err in a RevertError if the node reported a revert.
func asRevert(err error) error {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) || strings.Contains(err.Error(), "execution reverted") {
		return RevertError{err}
	}
	return err
}
