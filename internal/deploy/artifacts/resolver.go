package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/compose-network/rollup-deployer/internal/infra/filesystem"
	"github.com/compose-network/rollup-deployer/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

var ErrArtifactNotFound = errors.New("artifacts: artifact not found")

type (
	// Artifact is a compiled, possibly unlinked, contract or library
	Artifact struct {
		Name       ContractName
		ABI        abi.ABI
		Bytecode   string
		SourcePath string
	}

	// artifactFile accepts truffle, hardhat and forge artifact layouts
	artifactFile struct {
		ABI        json.RawMessage `json:"abi"`
		Bytecode   json.RawMessage `json:"bytecode"`
		SourceName string          `json:"sourceName"`
		SourcePath string          `json:"sourcePath"`
		Metadata   json.RawMessage `json:"metadata"`
	}

	forgeBytecode struct {
		Object string `json:"object"`
	}

	compilationMetadata struct {
		Settings struct {
			CompilationTarget map[string]string `json:"compilationTarget"`
		} `json:"settings"`
	}

	// DirResolver loads <dir>/<Name>.json build artifacts
	DirResolver struct {
		dir    string
		reader filesystem.Reader
		cache  map[ContractName]Artifact
		logger *slog.Logger
	}
)

func NewDirResolver(dir string, reader filesystem.Reader) *DirResolver {
	return &DirResolver{
		dir:    dir,
		reader: reader,
		cache:  make(map[ContractName]Artifact),
		logger: logger.Named("artifact_resolver"),
	}
}

// Get returns the artifact for name. Unknown names and missing files are fatal to a run.
func (r *DirResolver) Get(name ContractName) (Artifact, error) {
	if err := name.Validate(); err != nil {
		return Artifact{}, err
	}
	if artifact, ok := r.cache[name]; ok {
		return artifact, nil
	}

	path := filepath.Join(r.dir, string(name)+".json")

	var file artifactFile
	if err := r.reader.ReadJSON(path, &file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Artifact{}, fmt.Errorf("%w: %s (%s)", ErrArtifactNotFound, name, path)
		}
		return Artifact{}, fmt.Errorf("failed to load artifact %s: %w", name, err)
	}

	artifact, err := parseArtifact(name, file)
	if err != nil {
		return Artifact{}, err
	}

	r.logger.With("contract", name).With("path", path).Debug("artifact loaded")
	r.cache[name] = artifact

	return artifact, nil
}

func parseArtifact(name ContractName, file artifactFile) (Artifact, error) {
	if len(file.ABI) == 0 {
		return Artifact{}, fmt.Errorf("artifact %s has no ABI", name)
	}

	parsedABI, err := abi.JSON(strings.NewReader(string(file.ABI)))
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to parse ABI for %s: %w", name, err)
	}

	bytecode, err := decodeBytecode(file.Bytecode)
	if err != nil {
		return Artifact{}, fmt.Errorf("invalid bytecode for %s: %w", name, err)
	}

	return Artifact{
		Name:       name,
		ABI:        parsedABI,
		Bytecode:   bytecode,
		SourcePath: sourcePath(name, file),
	}, nil
}

func decodeBytecode(raw json.RawMessage) (string, error) {
	var bytecode string
	if err := json.Unmarshal(raw, &bytecode); err != nil {
		var forge forgeBytecode
		if err := json.Unmarshal(raw, &forge); err != nil {
			return "", errors.New("bytecode is neither a string nor an object with 'object'")
		}
		bytecode = forge.Object
	}

	bytecode = strings.TrimSpace(bytecode)
	if !strings.HasPrefix(bytecode, "0x") {
		bytecode = "0x" + bytecode
	}
	if len(bytecode) <= 2 {
		return "", errors.New("empty bytecode, contract is abstract or an interface")
	}

	return bytecode, nil
}

// sourcePath prefers the compiler-facing path needed for solc link placeholders.
func sourcePath(name ContractName, file artifactFile) string {
	if file.SourceName != "" {
		return file.SourceName
	}

	var metadata compilationMetadata
	if len(file.Metadata) > 0 && json.Unmarshal(file.Metadata, &metadata) == nil {
		for path, contract := range metadata.Settings.CompilationTarget {
			if contract == string(name) {
				return path
			}
		}
	}

	return file.SourcePath
}
