package contracts

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/0glabs/storage-ops/log"
)

var testChainID = big.NewInt(16600)

// fakeCall is one decoded contract invocation.
type fakeCall struct {
	From  ethCommon.Address
	Value *big.Int
	Args  []interface{}
}

type fakeMethod func(call fakeCall) ([]interface{}, error)

type fakeContract struct {
	abi     *abi.ABI
	methods map[string]fakeMethod
}

// fakeBackend is an in-process chain that dispatches calls and
// transactions to Go handlers registered per contract and method.
type fakeBackend struct {
	mu sync.Mutex

	contracts map[ethCommon.Address]*fakeContract
	code      map[ethCommon.Address][]byte
	nonces    map[ethCommon.Address]uint64
	receipts  map[ethCommon.Hash]*types.Receipt
	block     int64

	// sent lists the methods of mined transactions, "deploy" for creations.
	sent []string
	// receiptMisses is how many receipt queries report NotFound first.
	receiptMisses int
	// neverMine drops receipts entirely.
	neverMine bool
	// deployAt is the address the next contract creation lands at.
	deployAt ethCommon.Address
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		contracts: map[ethCommon.Address]*fakeContract{},
		code:      map[ethCommon.Address][]byte{},
		nonces:    map[ethCommon.Address]uint64{},
		receipts:  map[ethCommon.Hash]*types.Receipt{},
		block:     100,
	}
}

func (b *fakeBackend) register(address ethCommon.Address, contractABI *abi.ABI, methods map[string]fakeMethod) {
	b.contracts[address] = &fakeContract{abi: contractABI, methods: methods}
}

func (b *fakeBackend) sentMethods() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.sent...)
}

func (b *fakeBackend) dispatch(from ethCommon.Address, to ethCommon.Address, value *big.Int, data []byte) (string, []byte, error) {
	c, ok := b.contracts[to]
	if !ok {
		return "", nil, fmt.Errorf("no contract at %s", to.Hex())
	}
	if len(data) < 4 {
		return "", nil, fmt.Errorf("short call data")
	}
	method, err := c.abi.MethodById(data[:4])
	if err != nil {
		return "", nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return method.Name, nil, err
	}
	handler, ok := c.methods[method.Name]
	if !ok {
		return method.Name, nil, fmt.Errorf("method %s not faked", method.Name)
	}
	out, err := handler(fakeCall{From: from, Value: value, Args: args})
	if err != nil {
		return method.Name, nil, err
	}
	packed, err := method.Outputs.Pack(out...)
	return method.Name, packed, err
}

func (b *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return testChainID, nil
}

func (b *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, out, err := b.dispatch(msg.From, *msg.To, msg.Value, msg.Data)
	if err != nil {
		return nil, fmt.Errorf("execution reverted: %w", err)
	}
	return out, nil
}

func (b *fakeBackend) CodeAt(ctx context.Context, account ethCommon.Address, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.code[account], nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account ethCommon.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	from, err := types.Sender(types.LatestSignerForChainID(testChainID), tx)
	if err != nil {
		return err
	}
	if tx.Nonce() != b.nonces[from] {
		return fmt.Errorf("nonce too low")
	}
	b.nonces[from]++
	b.block++

	receipt := &types.Receipt{
		TxHash:      tx.Hash(),
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(b.block),
		GasUsed:     21_000,
	}
	if tx.To() == nil {
		receipt.ContractAddress = b.deployAt
		b.code[b.deployAt] = []byte("runtime:" + string(tx.Data()))
		b.sent = append(b.sent, "deploy")
	} else {
		name, _, err := b.dispatch(from, *tx.To(), tx.Value(), tx.Data())
		if err != nil {
			receipt.Status = types.ReceiptStatusFailed
		}
		b.sent = append(b.sent, name)
	}
	if !b.neverMine {
		b.receipts[tx.Hash()] = receipt
	}
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash ethCommon.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.receiptMisses > 0 {
		b.receiptMisses--
		return nil, ethereum.NotFound
	}
	r, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// fakeRoles is an AccessControl role table.
type fakeRoles struct {
	holders map[[32]byte]map[ethCommon.Address]bool
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{holders: map[[32]byte]map[ethCommon.Address]bool{}}
}

func (r *fakeRoles) set(role [32]byte, account ethCommon.Address, has bool) {
	if r.holders[role] == nil {
		r.holders[role] = map[ethCommon.Address]bool{}
	}
	r.holders[role][account] = has
}

func (r *fakeRoles) has(role [32]byte, account ethCommon.Address) bool {
	return r.holders[role][account]
}

var (
	adminRoleID       = [32]byte{}
	pauserRoleID      = crypto.Keccak256Hash([]byte("PAUSER_ROLE"))
	paramsAdminRoleID = crypto.Keccak256Hash([]byte("PARAMS_ADMIN_ROLE"))
	errUnauthorized   = errors.New("AccessControl: account is missing role")
)

// methods returns the role handlers, with operator as the extra role getter.
func (r *fakeRoles) methods(operator string, operatorID [32]byte) map[string]fakeMethod {
	return map[string]fakeMethod{
		"DEFAULT_ADMIN_ROLE": func(fakeCall) ([]interface{}, error) { return []interface{}{adminRoleID}, nil },
		operator:             func(fakeCall) ([]interface{}, error) { return []interface{}{operatorID}, nil },
		"hasRole": func(c fakeCall) ([]interface{}, error) {
			return []interface{}{r.has(c.Args[0].([32]byte), c.Args[1].(ethCommon.Address))}, nil
		},
		"grantRole": func(c fakeCall) ([]interface{}, error) {
			if !r.has(adminRoleID, c.From) {
				return nil, errUnauthorized
			}
			r.set(c.Args[0].([32]byte), c.Args[1].(ethCommon.Address), true)
			return nil, nil
		},
		"revokeRole": func(c fakeCall) ([]interface{}, error) {
			if !r.has(adminRoleID, c.From) {
				return nil, errUnauthorized
			}
			r.set(c.Args[0].([32]byte), c.Args[1].(ethCommon.Address), false)
			return nil, nil
		},
	}
}

func merge(sets ...map[string]fakeMethod) map[string]fakeMethod {
	out := map[string]fakeMethod{}
	for _, set := range sets {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}

func newTestKey(t *testing.T) *ecdsa.PrivateKey {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key
}

func newTestClient(t *testing.T, backend Backend, key *ecdsa.PrivateKey) *Client {
	c, err := NewClient(context.Background(), backend, Options{
		Key:            key,
		ConfirmTimeout: 5 * time.Second,
		PollInterval:   time.Millisecond,
	}, log.NewDefaultLogger("contracts-test"))
	require.NoError(t, err)
	return c
}
