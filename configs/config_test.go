package configs

import (
	"strings"
	"testing"
	"time"

	"github.com/compose-network/rollup-deployer/internal/deploy/genesis"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)

	require.NoError(t, cfg.Deploy.Validate())
	require.NoError(t, cfg.Devnet.Validate())

	assert.Equal(t, 4, cfg.Deploy.MaxDepth)
	assert.Equal(t, 1, cfg.Deploy.MaxDepositSubtreeDepth)
	assert.Equal(t, ManifestFormatJSON, cfg.Deploy.ManifestFormat)
	assert.Equal(t, time.Minute, cfg.Deploy.ConfirmationTimeout)
	assert.Equal(t, "contractAddresses.json", cfg.Deploy.ManifestPath)
}

func TestDeployValidateMaxDepthFollowsGenesisCap(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)

	cfg.Deploy.MaxDepth = genesis.MaxDepth
	assert.NoError(t, cfg.Deploy.Validate())

	cfg.Deploy.MaxDepth = genesis.MaxDepth + 1
	assert.ErrorContains(t, cfg.Deploy.Validate(), "deploy.max-depth must be between 0 and 20")
}

func TestDeployValidateCollectsErrors(t *testing.T) {
	cfg := Deploy{
		ManifestFormat:  "xml",
		MaxDepth:        genesis.MaxDepth + 1,
		CoordinatorLeaf: "0x01",
		EmptyLeaf:       "not-hex",
	}

	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"deploy.rpc-url is required",
		"deploy.private-key is required",
		"deploy.manifest-format",
		"deploy.max-depth",
		"deploy.coordinator-leaf: expected 32 bytes",
		"deploy.empty-leaf: invalid hex value",
		"deploy.gas-limit",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestDeployValidateRejectsEqualLeaves(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)

	cfg.Deploy.EmptyLeaf = cfg.Deploy.CoordinatorLeaf
	err = cfg.Deploy.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestApplyDefaultsIsOverriddenByConfigFile(t *testing.T) {
	v := viper.New()
	require.NoError(t, ApplyDefaults(v))

	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader("deploy:\n  max-depth: 2\n")))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, 2, cfg.Deploy.MaxDepth)
	assert.Equal(t, "build/contracts", cfg.Deploy.ArtifactsDir)
	assert.Equal(t, "rollup-devnet", cfg.Devnet.ContainerName)
}
