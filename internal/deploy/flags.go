package deploy

import (
	"github.com/spf13/viper"
)

type (
	flagType interface {
		string | int | bool
	}

	// flagDef binds a command-line flag to a viper key. Defaults live in the
	// embedded config, so flag defaults stay zero.
	flagDef[T flagType] struct {
		name        string
		viperKey    string
		description string
	}
)

var (
	stringFlags = []flagDef[string]{
		// Chain
		{"rpc-url", "deploy.rpc-url", "JSON-RPC endpoint of the target chain"},
		{"private-key", "deploy.private-key", "Hex private key of the deployer account"},
		{"confirmation-timeout", "deploy.confirmation-timeout", "Maximum time to wait for each transaction receipt"},

		// Artifacts and output
		{"artifacts-dir", "deploy.artifacts-dir", "Directory holding <Name>.json build artifacts"},
		{"manifest-path", "deploy.manifest-path", "Where the address manifest is written"},
		{"manifest-format", "deploy.manifest-format", "Manifest format (json, yaml or toml)"},

		// Genesis
		{"coordinator-leaf", "deploy.coordinator-leaf", "32-byte hash of the coordinator account leaf"},
		{"empty-leaf", "deploy.empty-leaf", "32-byte hash of an empty account leaf"},
	}

	intFlags = []flagDef[int]{
		{"max-depth", "deploy.max-depth", "Depth of the account tree"},
		{"max-deposit-subtree-depth", "deploy.max-deposit-subtree-depth", "Depth of the deposit subtree"},
		{"gas-limit", "deploy.gas-limit", "Gas limit per transaction"},
		{"rpc-wait-attempts", "deploy.rpc-wait-attempts", "Seconds to wait for the RPC endpoint to answer"},
	}

	boolFlags = []flagDef[bool]{
		{"verify-genesis-root", "deploy.verify-genesis-root", "Recompute the genesis root locally and compare"},
	}
)

func init() {
	if err := declareFlags(stringFlags); err != nil {
		panic(err)
	}
	if err := declareFlags(intFlags); err != nil {
		panic(err)
	}
	if err := declareFlags(boolFlags); err != nil {
		panic(err)
	}
	compileCmd.Flags().String("contracts-dir", "contracts", "Root of the forge project to compile")
	CMD.AddCommand(planCmd)
	CMD.AddCommand(compileCmd)
}

func declareFlags[T flagType](flags []flagDef[T]) error {
	for _, flag := range flags {
		if err := declareFlag[T](flag.name, flag.viperKey, flag.description); err != nil {
			return err
		}
	}
	return nil
}

// declareFlag declares a persistent flag so subcommands share it, and binds it to viperKey.
func declareFlag[T flagType](flagName, viperKey, description string) error {
	var zero T
	switch any(zero).(type) {
	case string:
		CMD.PersistentFlags().String(flagName, "", description)
	case int:
		CMD.PersistentFlags().Int(flagName, 0, description)
	case bool:
		CMD.PersistentFlags().Bool(flagName, false, description)
	}
	return viper.BindPFlag(viperKey, CMD.PersistentFlags().Lookup(flagName))
}
