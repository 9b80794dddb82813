package manifest

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/toml"
	"github.com/compose-network/rollup-deployer/configs"
	"github.com/compose-network/rollup-deployer/internal/infra/filesystem"
	"github.com/compose-network/rollup-deployer/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Key is a human-readable manifest entry name
type Key string

const (
	KeyAccountTree         Key = "AccountTree"
	KeyParamManager        Key = "ParamManager"
	KeyDepositManager      Key = "DepositManager"
	KeyRollupContract      Key = "RollupContract"
	KeyProofOfBurnContract Key = "ProofOfBurnContract"
	KeyRollupUtilities     Key = "RollupUtilities"
	KeyNameRegistry        Key = "NameRegistry"
	KeyLogger              Key = "Logger"
	KeyMerkleTreeUtils     Key = "MerkleTreeUtils"
	KeyGovernance          Key = "Governance"
	KeyTokenRegistry       Key = "TokenRegistry"
	KeyTestToken           Key = "TestToken"
)

// Keys is the fixed set every complete manifest carries
var Keys = []Key{
	KeyAccountTree,
	KeyParamManager,
	KeyDepositManager,
	KeyRollupContract,
	KeyProofOfBurnContract,
	KeyRollupUtilities,
	KeyNameRegistry,
	KeyLogger,
	KeyMerkleTreeUtils,
	KeyGovernance,
	KeyTokenRegistry,
	KeyTestToken,
}

type (
	Manifest map[Key]common.Address

	Writer struct {
		path   string
		format configs.ManifestFormat
		writer filesystem.Writer
		logger *slog.Logger
	}
)

// Validate checks that every fixed key carries a non-zero address.
func (m Manifest) Validate() error {
	for _, key := range Keys {
		addr, ok := m[key]
		if !ok {
			return fmt.Errorf("manifest is missing %s", key)
		}
		if addr == (common.Address{}) {
			return fmt.Errorf("manifest entry %s has the zero address", key)
		}
	}
	return nil
}

// Flatten renders the manifest as key -> checksummed hex address.
func (m Manifest) Flatten() map[string]string {
	flat := make(map[string]string, len(m))
	for key, addr := range m {
		flat[string(key)] = addr.Hex()
	}
	return flat
}

func NewWriter(path string, format configs.ManifestFormat, writer filesystem.Writer) *Writer {
	return &Writer{
		path:   path,
		format: format,
		writer: writer,
		logger: logger.Named("manifest_writer"),
	}
}

// Write replaces the manifest file with m
func (w *Writer) Write(m Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}

	flat := m.Flatten()

	switch w.format {
	case configs.ManifestFormatJSON, "":
		if err := w.writer.WriteJSON(w.path, flat); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
	case configs.ManifestFormatYAML:
		data, err := yaml.Marshal(flat)
		if err != nil {
			return fmt.Errorf("could not marshal manifest. Err: '%w'", err)
		}
		if err := w.writer.WriteBytes(w.path, data); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
	case configs.ManifestFormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(flat); err != nil {
			return fmt.Errorf("could not marshal manifest. Err: '%w'", err)
		}
		if err := w.writer.WriteBytes(w.path, buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
	default:
		return fmt.Errorf("unsupported manifest format '%s'", w.format)
	}

	w.logger.With("path", w.path).With("format", w.format).With("entries", len(flat)).Info("manifest written")

	return nil
}
