// Package contracts operates the deployed storage contracts: the flow,
// the mine, the reward pool and their upgrade beacons.
package contracts

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sethvargo/go-retry"

	"github.com/0glabs/storage-ops/log"
	"github.com/0glabs/storage-ops/metrics"
)

const (
	moduleName = "contracts"

	defaultConfirmTimeout = 2 * time.Minute
	defaultPollInterval   = time.Second
)

// Backend is the subset of the JSON-RPC client the contract handles use.
// *ethclient.Client implements it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account ethCommon.Address, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account ethCommon.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash ethCommon.Hash) (*types.Receipt, error)
}

// Options configure a Client.
type Options struct {
	// ChainID is queried from the backend when nil.
	ChainID *big.Int
	// Key signs transactions. Without it the client is read-only.
	Key *ecdsa.PrivateKey
	// GasLimit overrides gas estimation when non-zero.
	GasLimit uint64
	// ConfirmTimeout bounds the wait for a receipt.
	ConfirmTimeout time.Duration
	// PollInterval is the delay between receipt queries.
	PollInterval time.Duration
	// Metrics may be nil.
	Metrics *metrics.ChainMetrics
}

// Client signs and submits calls to the contracts.
type Client struct {
	backend        Backend
	chainID        *big.Int
	key            *ecdsa.PrivateKey
	from           ethCommon.Address
	gasLimit       uint64
	confirmTimeout time.Duration
	pollInterval   time.Duration

	logger  *log.Logger
	metrics *metrics.ChainMetrics
}

// NewClient creates a client over backend.
func NewClient(ctx context.Context, backend Backend, opts Options, logger *log.Logger) (*Client, error) {
	c := &Client{
		backend:        backend,
		chainID:        opts.ChainID,
		key:            opts.Key,
		gasLimit:       opts.GasLimit,
		confirmTimeout: opts.ConfirmTimeout,
		pollInterval:   opts.PollInterval,
		logger:         logger.WithModule(moduleName),
		metrics:        opts.Metrics,
	}
	if c.confirmTimeout <= 0 {
		c.confirmTimeout = defaultConfirmTimeout
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.key != nil {
		c.from = crypto.PubkeyToAddress(c.key.PublicKey)
	}
	if c.chainID == nil {
		chainID, err := backend.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying chain id: %w", err)
		}
		c.chainID = chainID
	}
	return c, nil
}

// From returns the signer address, or the zero address for a read-only
// client.
func (c *Client) From() ethCommon.Address {
	return c.from
}

// HasSigner reports whether the client can send transactions.
func (c *Client) HasSigner() bool {
	return c.key != nil
}

// ParseAddress validates and parses a hex address argument.
func ParseAddress(s string) (ethCommon.Address, error) {
	if !ethCommon.IsHexAddress(s) {
		return ethCommon.Address{}, fmt.Errorf("%w: '%s'", ErrInvalidAddress, s)
	}
	return ethCommon.HexToAddress(s), nil
}

// contract is a deployed contract reachable through a Client.
type contract struct {
	client  *Client
	name    string
	address ethCommon.Address
	abi     *abi.ABI
}

// Address returns the address of the contract.
func (k *contract) Address() ethCommon.Address {
	return k.address
}

// call invokes a read-only method at the latest block and unpacks its
// output into result, whose type must match the output type of method.
// Non-view methods are simulated from the signer address.
func (k *contract) call(ctx context.Context, result interface{}, method string, params ...interface{}) (err error) {
	defer func() {
		if k.client.metrics != nil {
			k.client.metrics.Call(k.name, method, err)
		}
	}()

	inPacked, err := k.abi.Pack(method, params...)
	if err != nil {
		return fmt.Errorf("packing %s.%s call data: %w", k.name, method, err)
	}
	to := k.address
	outPacked, err := k.client.backend.CallContract(ctx, ethereum.CallMsg{
		From: k.client.from,
		To:   &to,
		Data: inPacked,
	}, nil)
	if err != nil {
		return asRevert(fmt.Errorf("calling %s.%s: %w", k.name, method, err))
	}
	if err = k.abi.UnpackIntoInterface(result, method, outPacked); err != nil {
		return RevertError{fmt.Errorf("unpacking %s.%s output: %w", k.name, method, err)}
	}
	return nil
}

// transact sends method(params...) with value attached and waits for a
// successful receipt.
func (k *contract) transact(ctx context.Context, value *big.Int, method string, params ...interface{}) (receipt *types.Receipt, err error) {
	defer func() {
		if k.client.metrics != nil {
			var gasUsed uint64
			if receipt != nil {
				gasUsed = receipt.GasUsed
			}
			k.client.metrics.Transaction(k.name, method, gasUsed, err)
		}
	}()

	data, err := k.abi.Pack(method, params...)
	if err != nil {
		return nil, fmt.Errorf("packing %s.%s call data: %w", k.name, method, err)
	}
	to := k.address
	return k.client.send(ctx, &to, value, data, fmt.Sprintf("%s.%s", k.name, method))
}

// send signs and submits a legacy transaction. A nil to deploys data as a
// contract.
func (c *Client) send(ctx context.Context, to *ethCommon.Address, value *big.Int, data []byte, label string) (*types.Receipt, error) {
	if c.key == nil {
		return nil, ErrNoSigner
	}
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, fmt.Errorf("fetching nonce: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching gas price: %w", err)
	}
	gas := c.gasLimit
	if gas == 0 {
		gas, err = c.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:     c.from,
			To:       to,
			GasPrice: gasPrice,
			Value:    value,
			Data:     data,
		})
		if err != nil {
			return nil, asRevert(fmt.Errorf("estimating gas for %s: %w", label, err))
		}
	}

	tx, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	}), types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("signing %s: %w", label, err)
	}
	if err = c.backend.SendTransaction(ctx, tx); err != nil {
		return nil, asRevert(fmt.Errorf("sending %s: %w", label, err))
	}
	c.logger.Info("transaction sent",
		"call", label,
		"tx_hash", tx.Hash().Hex(),
		"nonce", nonce,
	)

	receipt, err := c.WaitMined(ctx, tx.Hash())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s in tx %s (block %v)", ErrReceiptFailed, label, tx.Hash().Hex(), receipt.BlockNumber)
	}
	c.logger.Info("transaction confirmed",
		"call", label,
		"tx_hash", tx.Hash().Hex(),
		"block", receipt.BlockNumber,
		"gas_used", receipt.GasUsed,
	)
	return receipt, nil
}

// WaitMined polls for the receipt of hash until it appears or the confirm
// timeout passes.
func (c *Client) WaitMined(ctx context.Context, hash ethCommon.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	backoff := retry.NewConstant(c.pollInterval)

	var receipt *types.Receipt
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := c.backend.TransactionReceipt(ctx, hash)
		if err != nil {
			if !errors.Is(err, ethereum.NotFound) {
				c.logger.Debug("receipt query failed", "tx_hash", hash.Hex(), "err", err)
			}
			return retry.RetryableError(err)
		}
		receipt = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for receipt of %s: %w", hash.Hex(), err)
	}
	return receipt, nil
}
