package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/compose-network/rollup-deployer/internal/infra/filesystem"
	"github.com/compose-network/rollup-deployer/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

type (
	runner func(ctx context.Context, dir string, args ...string) ([]byte, error)

	// Compiler compiles the Solidity sources with forge and writes one artifact per contract
	Compiler struct {
		contractsRootDir string
		outputDir        string
		writer           filesystem.Writer
		run              runner
		logger           *slog.Logger
	}
)

// NewCompiler creates a new contract compiler
func NewCompiler(contractsRootDir, outputDir string, writer filesystem.Writer) *Compiler {
	return &Compiler{
		contractsRootDir: contractsRootDir,
		outputDir:        outputDir,
		writer:           writer,
		run:              runForge,
		logger:           logger.Named("contracts_compiler"),
	}
}

// Compile builds the project and persists an artifact for every contract in names
func (c *Compiler) Compile(ctx context.Context, names []ContractName) error {
	c.logger.
		With("contracts_dir", c.contractsRootDir).
		Info("starting contract compilation")

	if _, err := c.run(ctx, c.contractsRootDir, "build"); err != nil {
		return fmt.Errorf("forge build failed: %w", err)
	}

	for _, name := range names {
		if err := name.Validate(); err != nil {
			return err
		}

		c.logger.With("name", name).Info("inspecting contract")

		artifact, err := c.inspect(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to compile %s: %w", name, err)
		}

		path := filepath.Join(c.outputDir, string(name)+".json")
		if err := c.writer.WriteJSON(path, artifact); err != nil {
			return fmt.Errorf("failed to write artifact for %s: %w", name, err)
		}
	}

	c.logger.With("count", len(names)).Info("contracts compiled successfully")

	return nil
}

func (c *Compiler) inspect(ctx context.Context, name ContractName) (map[string]any, error) {
	abiOutput, err := c.run(ctx, c.contractsRootDir, "inspect", string(name), "abi", "--json")
	if err != nil {
		return nil, fmt.Errorf("failed to get ABI: %w", err)
	}

	// Validate that the ABI is parseable before persisting it
	if _, err := abi.JSON(strings.NewReader(string(abiOutput))); err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	bytecodeOutput, err := c.run(ctx, c.contractsRootDir, "inspect", string(name), "bytecode")
	if err != nil {
		return nil, fmt.Errorf("failed to get bytecode: %w", err)
	}

	artifact := map[string]any{
		"contractName": string(name),
		"abi":          json.RawMessage(abiOutput),
		"bytecode":     strings.TrimSpace(string(bytecodeOutput)),
	}

	metadataOutput, err := c.run(ctx, c.contractsRootDir, "inspect", string(name), "metadata", "--json")
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	var metadata compilationMetadata
	if err := json.Unmarshal(metadataOutput, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	for path, contract := range metadata.Settings.CompilationTarget {
		if contract == string(name) {
			artifact["sourceName"] = path
		}
	}

	return artifact, nil
}

func runForge(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "forge", args...)
	cmd.Dir = dir
	cmd.Stderr = os.Stderr

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("forge %s: %w", strings.Join(args, " "), err)
	}

	return output, nil
}
