// Package config enables config file parsing.
package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/0glabs/storage-ops/history"
	"github.com/0glabs/storage-ops/log"
)

// Config contains the CLI configuration.
type Config struct {
	Chain   *ChainConfig   `koanf:"chain"`
	History *HistoryConfig `koanf:"history"`
	Server  *ServerConfig  `koanf:"server"`
	Log     *LogConfig     `koanf:"log"`
	Metrics *MetricsConfig `koanf:"metrics"`
}

// Validate performs config validation.
func (cfg *Config) Validate() error {
	if cfg.Chain != nil {
		if err := cfg.Chain.Validate(); err != nil {
			return fmt.Errorf("chain: %w", err)
		}
	}
	if cfg.History != nil {
		if err := cfg.History.Validate(); err != nil {
			return fmt.Errorf("history: %w", err)
		}
	}
	if cfg.Server != nil {
		if err := cfg.Server.Validate(); err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}
	if cfg.Log != nil {
		if err := cfg.Log.Validate(); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	if cfg.Metrics != nil {
		if err := cfg.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}

// ChainConfig is how the ops commands reach the deployed contracts.
type ChainConfig struct {
	// RPC is the JSON-RPC endpoint of an EVM node.
	RPC string `koanf:"rpc"`

	// ChainID is the EIP-155 chain id. If zero, it is queried from the node.
	ChainID uint64 `koanf:"chain_id"`

	// PrivateKey is the hex-encoded signer key. Prefer supplying it through
	// the CHAIN__PRIVATE_KEY environment variable.
	PrivateKey string `koanf:"private_key"`

	// ConfirmTimeout bounds how long a write waits for its receipt.
	ConfirmTimeout time.Duration `koanf:"confirm_timeout"`

	// GasLimit overrides gas estimation when non-zero.
	GasLimit uint64 `koanf:"gas_limit"`

	Contracts ContractsConfig `koanf:"contracts"`

	// FlowParams are the values `flow setparams` writes.
	FlowParams *FlowParamsConfig `koanf:"flow_params"`
}

// ContractsConfig holds the deployed contract addresses. Unused entries may
// be left empty.
type ContractsConfig struct {
	Flow         string `koanf:"flow"`
	Mine         string `koanf:"mine"`
	Reward       string `koanf:"reward"`
	FlowBeacon   string `koanf:"flow_beacon"`
	MineBeacon   string `koanf:"mine_beacon"`
	RewardBeacon string `koanf:"reward_beacon"`
}

// FlowParamsConfig are the epoch parameters of the flow contract.
type FlowParamsConfig struct {
	BlocksPerEpoch uint64 `koanf:"blocks_per_epoch"`
	FirstBlock     uint64 `koanf:"first_block"`
	RootHistory    string `koanf:"root_history"`
}

// Validate validates the chain configuration.
func (cfg *ChainConfig) Validate() error {
	if cfg.RPC == "" {
		return fmt.Errorf("no rpc endpoint provided")
	}
	if cfg.ConfirmTimeout < 0 {
		return fmt.Errorf("negative confirm_timeout %v", cfg.ConfirmTimeout)
	}
	for name, addr := range cfg.Contracts.byName() {
		if addr != "" && !ethCommon.IsHexAddress(addr) {
			return fmt.Errorf("contracts.%s: malformed address '%s'", name, addr)
		}
	}
	if cfg.FlowParams != nil {
		if cfg.FlowParams.BlocksPerEpoch == 0 {
			return fmt.Errorf("flow_params.blocks_per_epoch must be positive")
		}
		if !ethCommon.IsHexAddress(cfg.FlowParams.RootHistory) {
			return fmt.Errorf("flow_params.root_history: malformed address '%s'", cfg.FlowParams.RootHistory)
		}
	}
	return nil
}

// ChainIDBig returns the configured chain id, or nil to query the node.
func (cfg *ChainConfig) ChainIDBig() *big.Int {
	if cfg.ChainID == 0 {
		return nil
	}
	return new(big.Int).SetUint64(cfg.ChainID)
}

func (cfg ContractsConfig) byName() map[string]string {
	return map[string]string{
		"flow":          cfg.Flow,
		"mine":          cfg.Mine,
		"reward":        cfg.Reward,
		"flow_beacon":   cfg.FlowBeacon,
		"mine_beacon":   cfg.MineBeacon,
		"reward_beacon": cfg.RewardBeacon,
	}
}

// Address returns the configured address of a contract by its config key,
// or an error if it is missing.
func (cfg ContractsConfig) Address(name string) (ethCommon.Address, error) {
	addr, ok := cfg.byName()[name]
	if !ok {
		return ethCommon.Address{}, fmt.Errorf("unknown contract '%s'", name)
	}
	if addr == "" {
		return ethCommon.Address{}, fmt.Errorf("contracts.%s not configured", name)
	}
	return ethCommon.HexToAddress(addr), nil
}

// HistoryConfig configures the digest history served by `serve`.
type HistoryConfig struct {
	// Name identifies the history in storage, so several can share a database.
	Name string `koanf:"name"`

	// Capacity is the number of digests kept live.
	Capacity uint64 `koanf:"capacity"`

	Storage *StorageConfig `koanf:"storage"`
}

// Validate validates the history configuration.
func (cfg *HistoryConfig) Validate() error {
	if cfg.Name == "" {
		return fmt.Errorf("no history name provided")
	}
	if cfg.Capacity == 0 {
		return fmt.Errorf("capacity must be positive")
	}
	if cfg.Capacity > history.MaxCapacity {
		return fmt.Errorf("capacity %d exceeds the maximum of %d", cfg.Capacity, history.MaxCapacity)
	}
	if cfg.Storage == nil {
		return fmt.Errorf("no storage config provided")
	}
	return cfg.Storage.Validate()
}

// ServerConfig contains the API server configuration.
type ServerConfig struct {
	// Endpoint is the service endpoint from which to serve the API.
	Endpoint string `koanf:"endpoint"`

	// RequestTimeout bounds each API request. Defaults to 10s.
	RequestTimeout *time.Duration `koanf:"request_timeout"`

	// CORSOrigins lists allowed origins; empty allows all.
	CORSOrigins []string `koanf:"cors_origins"`
}

// Validate validates the server configuration.
func (cfg *ServerConfig) Validate() error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("malformed server endpoint '%s'", cfg.Endpoint)
	}
	if cfg.RequestTimeout != nil && *cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}

// StorageBackend is a storage backend.
type StorageBackend uint

const (
	// BackendPostgres is the PostgreSQL storage backend.
	BackendPostgres StorageBackend = iota
	// BackendPogreb is the embedded pogreb key-value backend.
	BackendPogreb
	// BackendInMemory keeps nothing across restarts.
	BackendInMemory
)

// String returns the string representation of a StorageBackend.
func (sb *StorageBackend) String() string {
	switch *sb {
	case BackendPostgres:
		return "postgres"
	case BackendPogreb:
		return "pogreb"
	case BackendInMemory:
		return "inmemory"
	default:
		panic("config: unsupported storage backend")
	}
}

// Set sets the StorageBackend to the value specified by the provided string.
func (sb *StorageBackend) Set(s string) error {
	switch strings.ToLower(s) {
	case "postgres":
		*sb = BackendPostgres
	case "pogreb":
		*sb = BackendPogreb
	case "inmemory":
		*sb = BackendInMemory
	default:
		return fmt.Errorf("config: invalid storage backend: '%s'", s)
	}

	return nil
}

// Type returns the list of supported StorageBackends.
func (sb *StorageBackend) Type() string {
	return "[postgres,pogreb,inmemory]"
}

// StorageConfig contains the storage layer configuration.
type StorageConfig struct {
	// Backend is the storage backend to select.
	Backend string `koanf:"backend"`

	// Endpoint is a postgres connection string, or a directory for pogreb.
	Endpoint string `koanf:"endpoint"`

	// Migrations is the schema migrations source, e.g. file://storage/migrations.
	// Only used by the postgres backend.
	Migrations string `koanf:"migrations"`

	// If true, all stored history is deleted on startup.
	WipeStorage bool `koanf:"DANGER__WIPE_STORAGE_ON_STARTUP"`
}

// Validate validates the storage configuration.
func (cfg *StorageConfig) Validate() error {
	var sb StorageBackend
	if err := sb.Set(cfg.Backend); err != nil {
		return err
	}
	switch sb {
	case BackendPostgres:
		if cfg.Endpoint == "" {
			return fmt.Errorf("malformed storage endpoint '%s'", cfg.Endpoint)
		}
		if cfg.Migrations == "" {
			return fmt.Errorf("invalid path to migrations '%s'", cfg.Migrations)
		}
	case BackendPogreb:
		if cfg.Endpoint == "" {
			return fmt.Errorf("pogreb backend needs a directory endpoint")
		}
	}
	return nil
}

// LogConfig contains the logging configuration.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
	File   string `koanf:"file"`
}

// Validate validates the logging configuration.
func (cfg *LogConfig) Validate() error {
	var format log.Format
	if err := format.Set(cfg.Format); err != nil {
		return err
	}
	var level log.Level
	return level.Set(cfg.Level)
}

// MetricsConfig contains the metrics configuration.
type MetricsConfig struct {
	PullEndpoint string `koanf:"pull_endpoint"`

	// PprofEndpoint, if set, serves runtime profiles under /debug/pprof/.
	PprofEndpoint string `koanf:"pprof_endpoint"`
}

// Validate validates the metrics configuration.
func (cfg *MetricsConfig) Validate() error {
	if cfg.PullEndpoint == "" {
		return fmt.Errorf("malformed Prometheus pull endpoint '%s'", cfg.PullEndpoint)
	}
	return nil
}

// InitConfig initializes configuration from file.
func InitConfig(f string) (*Config, error) {
	return initConfig(file.Provider(f))
}

func initConfig(p koanf.Provider) (*Config, error) {
	var config Config
	k := koanf.New(".")

	// Load configuration from the yaml config.
	if err := k.Load(p, yaml.Parser()); err != nil {
		return nil, err
	}

	// Load environment variables and merge into the loaded config.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		// `__` is used as a hierarchy delimiter.
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	// Unmarshal into config.
	if err := k.Unmarshal("", &config); err != nil {
		return nil, err
	}

	// Validate config.
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
