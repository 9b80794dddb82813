package artifacts

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	fsjson "github.com/compose-network/rollup-deployer/internal/infra/filesystem/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractNameValidate(t *testing.T) {
	require.NoError(t, ContractNameRollup.Validate())
	assert.ErrorIs(t, ContractName("Bridge").Validate(), ErrUnknownContract)

	names := SortedContractNames()
	assert.Len(t, names, len(Contracts))
	assert.True(t, slices.IsSorted(names))
}

func TestDirResolverTruffleArtifact(t *testing.T) {
	r := NewDirResolver("testdata", fsjson.NewReader())

	artifact, err := r.Get(ContractNameTypes)
	require.NoError(t, err)

	assert.Equal(t, ContractNameTypes, artifact.Name)
	assert.True(t, strings.HasPrefix(artifact.Bytecode, "0x6056"))
	assert.Equal(t, "/home/dev/rollup/contracts/libs/Types.sol", artifact.SourcePath)
	assert.Empty(t, artifact.ABI.Methods)
}

func TestDirResolverForgeArtifact(t *testing.T) {
	r := NewDirResolver("testdata", fsjson.NewReader())

	artifact, err := r.Get(ContractNameLogger)
	require.NoError(t, err)

	assert.Equal(t, "0x6080604052348015600f57600080fd5b50", artifact.Bytecode)
	assert.Equal(t, "src/Logger.sol", artifact.SourcePath)
	assert.Contains(t, artifact.ABI.Methods, "logNewBatch")
}

func TestDirResolverErrors(t *testing.T) {
	r := NewDirResolver("testdata", fsjson.NewReader())

	_, err := r.Get(ContractNameGovernance)
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	_, err = r.Get(ContractName("Bridge"))
	assert.ErrorIs(t, err, ErrUnknownContract)

	_, err = r.Get(ContractNameRollup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty bytecode")

	_, err = r.Get(ContractNamePOB)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse ABI")
}

type countingReader struct {
	inner *fsjson.Reader
	reads int
}

func (c *countingReader) ReadJSON(path string, target any) error {
	c.reads++
	return c.inner.ReadJSON(path, target)
}

func TestDirResolverCaches(t *testing.T) {
	reader := &countingReader{inner: fsjson.NewReader()}
	r := NewDirResolver("testdata", reader)

	for range 3 {
		_, err := r.Get(ContractNameLogger)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, reader.reads)
}

func TestCompilerWritesResolvableArtifacts(t *testing.T) {
	outputDir := t.TempDir()
	var calls []string

	c := NewCompiler("contracts", outputDir, fsjson.NewWriter())
	c.run = func(_ context.Context, dir string, args ...string) ([]byte, error) {
		assert.Equal(t, "contracts", dir)
		calls = append(calls, strings.Join(args, " "))

		switch {
		case args[0] == "build":
			return nil, nil
		case args[2] == "abi":
			return []byte(`[{"type":"function","name":"logNewBatch","inputs":[],"outputs":[],"stateMutability":"nonpayable"}]`), nil
		case args[2] == "bytecode":
			return []byte("0x6080__$0123456789abcdef0123456789abcdef01$__00\n"), nil
		case args[2] == "metadata":
			return []byte(fmt.Sprintf(`{"settings":{"compilationTarget":{"src/%s.sol":%q}}}`, args[1], args[1])), nil
		}
		return nil, errors.New("unexpected command")
	}

	require.NoError(t, c.Compile(context.Background(), []ContractName{ContractNameLogger}))
	assert.Equal(t, []string{
		"build",
		"inspect Logger abi --json",
		"inspect Logger bytecode",
		"inspect Logger metadata --json",
	}, calls)

	artifact, err := NewDirResolver(outputDir, fsjson.NewReader()).Get(ContractNameLogger)
	require.NoError(t, err)
	assert.Equal(t, "src/Logger.sol", artifact.SourcePath)
	assert.Equal(t, "0x6080__$0123456789abcdef0123456789abcdef01$__00", artifact.Bytecode)
	assert.FileExists(t, filepath.Join(outputDir, "Logger.json"))
}

func TestCompilerStopsOnForgeFailure(t *testing.T) {
	c := NewCompiler("contracts", t.TempDir(), fsjson.NewWriter())
	c.run = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("forge not installed")
	}

	err := c.Compile(context.Background(), []ContractName{ContractNameLogger})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forge build failed")
}
