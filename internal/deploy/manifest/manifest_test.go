package manifest

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/compose-network/rollup-deployer/configs"
	fsjson "github.com/compose-network/rollup-deployer/internal/infra/filesystem/json"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func completeManifest() Manifest {
	m := make(Manifest, len(Keys))
	for i, key := range Keys {
		m[key] = common.BigToAddress(big.NewInt(int64(0x1000 + i)))
	}
	return m
}

func TestWriteFormats(t *testing.T) {
	m := completeManifest()
	want := m.Flatten()

	decoders := map[configs.ManifestFormat]func([]byte, any) error{
		configs.ManifestFormatJSON: json.Unmarshal,
		configs.ManifestFormatYAML: yaml.Unmarshal,
		configs.ManifestFormatTOML: toml.Unmarshal,
	}

	for format, decode := range decoders {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "contractAddresses."+string(format))
			require.NoError(t, NewWriter(path, format, fsjson.NewWriter()).Write(m))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)

			var got map[string]string
			require.NoError(t, decode(raw, &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestWriteJSONUsesTwoSpaceIndent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contractAddresses.json")
	require.NoError(t, NewWriter(path, configs.ManifestFormatJSON, fsjson.NewWriter()).Write(completeManifest()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"AccountTree\": \"0x")
}

func TestWriteOverwritesPreviousManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contractAddresses.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Stale": "0x01"}`), 0644))

	require.NoError(t, NewWriter(path, configs.ManifestFormatJSON, fsjson.NewWriter()).Write(completeManifest()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Stale")
}

func TestWriteRejectsIncompleteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contractAddresses.json")
	w := NewWriter(path, configs.ManifestFormatJSON, fsjson.NewWriter())

	m := completeManifest()
	delete(m, KeyRollupContract)
	assert.ErrorContains(t, w.Write(m), "missing RollupContract")

	m = completeManifest()
	m[KeyLogger] = common.Address{}
	assert.ErrorContains(t, w.Write(m), "zero address")

	assert.NoFileExists(t, path)
}

func TestWriteUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contractAddresses.xml")
	err := NewWriter(path, "xml", fsjson.NewWriter()).Write(completeManifest())
	assert.ErrorContains(t, err, "unsupported manifest format")
}
