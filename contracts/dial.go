package contracts

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/0glabs/storage-ops/config"
	"github.com/0glabs/storage-ops/log"
	"github.com/0glabs/storage-ops/metrics"
)

// Dial connects to the node configured in cfg. keyOverride, when set,
// replaces the configured signer key. The returned close function releases
// the connection.
func Dial(ctx context.Context, cfg *config.ChainConfig, keyOverride string, m *metrics.ChainMetrics, logger *log.Logger) (*Client, func(), error) {
	opts := Options{
		ChainID:        cfg.ChainIDBig(),
		GasLimit:       cfg.GasLimit,
		ConfirmTimeout: cfg.ConfirmTimeout,
		Metrics:        m,
	}
	key := cfg.PrivateKey
	if keyOverride != "" {
		key = keyOverride
	}
	if key != "" {
		pk, err := crypto.HexToECDSA(strings.TrimPrefix(key, "0x"))
		if err != nil {
			return nil, nil, fmt.Errorf("parsing signer key: %w", err)
		}
		opts.Key = pk
	}

	rpcClient, err := ethclient.DialContext(ctx, cfg.RPC)
	if err != nil {
		return nil, nil, fmt.Errorf("ethclient DialContext %s: %w", cfg.RPC, err)
	}
	client, err := NewClient(ctx, rpcClient, opts, logger)
	if err != nil {
		rpcClient.Close()
		return nil, nil, err
	}
	if client.HasSigner() {
		client.logger.Info("using signer", "address", client.From().Hex())
	}
	return client, rpcClient.Close, nil
}
