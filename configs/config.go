package configs

import (
	"errors"
	"fmt"
	"time"

	"github.com/compose-network/rollup-deployer/internal/deploy/genesis"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var Values Config

type (
	ManifestFormat string

	Config struct {
		LogLevel string `mapstructure:"log-level"`
		Deploy   Deploy `mapstructure:"deploy"`
		Devnet   Devnet `mapstructure:"devnet"`
	}

	Deploy struct {
		RPCURL                 string         `mapstructure:"rpc-url"`
		PrivateKey             string         `mapstructure:"private-key"`
		ArtifactsDir           string         `mapstructure:"artifacts-dir"`
		ManifestPath           string         `mapstructure:"manifest-path"`
		ManifestFormat         ManifestFormat `mapstructure:"manifest-format"`
		MaxDepth               int            `mapstructure:"max-depth"`
		MaxDepositSubtreeDepth int            `mapstructure:"max-deposit-subtree-depth"`
		CoordinatorLeaf        string         `mapstructure:"coordinator-leaf"`
		EmptyLeaf              string         `mapstructure:"empty-leaf"`
		GasLimit               int            `mapstructure:"gas-limit"`
		ConfirmationTimeout    time.Duration  `mapstructure:"confirmation-timeout"`
		RPCWaitAttempts        int            `mapstructure:"rpc-wait-attempts"`
		VerifyGenesisRoot      bool           `mapstructure:"verify-genesis-root"`
	}

	Devnet struct {
		Image         string `mapstructure:"image"`
		Dockerfile    string `mapstructure:"dockerfile"`
		ContainerName string `mapstructure:"container-name"`
		RPCPort       int    `mapstructure:"rpc-port"`
		ChainID       int    `mapstructure:"chain-id"`
	}
)

const (
	ManifestFormatJSON ManifestFormat = "json"
	ManifestFormatYAML ManifestFormat = "yaml"
	ManifestFormatTOML ManifestFormat = "toml"
)

func (c *Deploy) Validate() error {
	var errs []error

	if c.RPCURL == "" {
		errs = append(errs, errors.New("deploy.rpc-url is required"))
	}
	if c.PrivateKey == "" {
		errs = append(errs, errors.New("deploy.private-key is required"))
	}
	if c.ArtifactsDir == "" {
		errs = append(errs, errors.New("deploy.artifacts-dir is required"))
	}
	if c.ManifestPath == "" {
		errs = append(errs, errors.New("deploy.manifest-path is required"))
	}

	switch c.ManifestFormat {
	case ManifestFormatJSON, ManifestFormatYAML, ManifestFormatTOML:
	default:
		errs = append(errs, fmt.Errorf("deploy.manifest-format must be one of 'json', 'yaml' or 'toml', got '%s'", c.ManifestFormat))
	}

	if c.MaxDepth < 0 || c.MaxDepth > genesis.MaxDepth {
		errs = append(errs, fmt.Errorf("deploy.max-depth must be between 0 and %d", genesis.MaxDepth))
	}
	if c.MaxDepositSubtreeDepth < 0 {
		errs = append(errs, errors.New("deploy.max-deposit-subtree-depth must not be negative"))
	}

	if err := validateHash(c.CoordinatorLeaf); err != nil {
		errs = append(errs, fmt.Errorf("deploy.coordinator-leaf: %w", err))
	}
	if err := validateHash(c.EmptyLeaf); err != nil {
		errs = append(errs, fmt.Errorf("deploy.empty-leaf: %w", err))
	}
	if c.CoordinatorLeaf != "" && c.CoordinatorLeaf == c.EmptyLeaf {
		errs = append(errs, errors.New("deploy.coordinator-leaf must differ from deploy.empty-leaf"))
	}

	if c.GasLimit <= 0 {
		errs = append(errs, errors.New("deploy.gas-limit must be positive"))
	}
	if c.ConfirmationTimeout <= 0 {
		errs = append(errs, errors.New("deploy.confirmation-timeout must be positive"))
	}
	if c.RPCWaitAttempts <= 0 {
		errs = append(errs, errors.New("deploy.rpc-wait-attempts must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("deploy configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func (c *Devnet) Validate() error {
	var errs []error

	if c.Image == "" {
		errs = append(errs, errors.New("devnet.image is required"))
	}
	if c.ContainerName == "" {
		errs = append(errs, errors.New("devnet.container-name is required"))
	}
	if c.RPCPort <= 0 || c.RPCPort > 65535 {
		errs = append(errs, errors.New("devnet.rpc-port must be a valid TCP port"))
	}
	if c.ChainID <= 0 {
		errs = append(errs, errors.New("devnet.chain-id is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("devnet configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func validateHash(value string) error {
	if value == "" {
		return errors.New("value is required")
	}
	raw, err := hexutil.Decode(value)
	if err != nil {
		return fmt.Errorf("invalid hex value '%s': %w", value, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	return nil
}
