package registry

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/compose-network/rollup-deployer/internal/deploy/chain/chaintest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	registryAddr     = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	paramManagerAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func newTestClient(t *testing.T, backend *chaintest.Backend) *Client {
	t.Helper()

	keys, err := NewParamManager(backend, paramManagerAddr, parseABI(t, paramManagerABIJSON(Names()...)))
	require.NoError(t, err)

	client, err := NewClient(backend, registryAddr, parseABI(t, nameRegistryABIJSON), keys)
	require.NoError(t, err)

	return client
}

func TestParseName(t *testing.T) {
	name, err := ParseName("MERKLE_UTILS")
	require.NoError(t, err)
	assert.Equal(t, NameMerkleUtils, name)

	_, err = ParseName("merkle_utils")
	assert.ErrorIs(t, err, ErrUnknownName)
}

func TestNamesAreSortedAndComplete(t *testing.T) {
	names := Names()
	assert.Len(t, names, 9)
	assert.True(t, slices.IsSorted(names))
	assert.Contains(t, names, NameRollupCore)
}

func TestClientRegisterLookupRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := chaintest.New()
	client := newTestClient(t, backend)

	addr := common.HexToAddress("0x1234")
	require.NoError(t, client.Register(ctx, NameLogger, addr))

	got, err := client.Lookup(ctx, NameLogger)
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	key := crypto.Keccak256Hash([]byte("LOGGER"))
	raw, ok := backend.Registered(registryAddr, key)
	require.True(t, ok, "entry must be stored under the ParamManager key")
	assert.Equal(t, addr, raw)
}

func TestClientLastWriteWins(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, chaintest.New())

	first := common.HexToAddress("0x01")
	second := common.HexToAddress("0x02")
	require.NoError(t, client.Register(ctx, NamePOB, first))
	require.NoError(t, client.Register(ctx, NamePOB, second))

	got, err := client.Lookup(ctx, NamePOB)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestClientLookupNotFound(t *testing.T) {
	ctx := context.Background()

	t.Run("revert", func(t *testing.T) {
		client := newTestClient(t, chaintest.New())
		_, err := client.Lookup(ctx, NameRollupCore)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("zero address", func(t *testing.T) {
		backend := chaintest.New()
		backend.ZeroForMissing = true
		client := newTestClient(t, backend)

		addr, err := client.Lookup(ctx, NameRollupCore)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, common.Address{}, addr)
	})

	t.Run("unknown name", func(t *testing.T) {
		client := newTestClient(t, chaintest.New())
		_, err := client.Lookup(ctx, Name("NONEXISTENT"))
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, ErrUnknownName)
	})
}

func TestClientLookupTransportErrorIsNotNotFound(t *testing.T) {
	backend := chaintest.New()
	backend.FailMethod["getContractDetails"] = errors.New("connection refused")
	client := newTestClient(t, backend)

	_, err := client.Lookup(context.Background(), NameLogger)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestClientLookupRevertTextOverTransportIsNotNotFound(t *testing.T) {
	backend := chaintest.New()
	backend.FailMethod["getContractDetails"] = errors.New("proxy: upstream said execution reverted")
	client := newTestClient(t, backend)

	_, err := client.Lookup(context.Background(), NameLogger)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestClientLookupRevertWithoutReason(t *testing.T) {
	backend := chaintest.New()
	backend.FailMethod["getContractDetails"] = &chaintest.RevertError{}
	client := newTestClient(t, backend)

	_, err := client.Lookup(context.Background(), NameLogger)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientRegisterFailure(t *testing.T) {
	backend := chaintest.New()
	backend.FailMethod["registerName"] = errors.New("execution reverted")
	client := newTestClient(t, backend)

	err := client.Register(context.Background(), NameLogger, common.HexToAddress("0x01"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to register LOGGER")
}

func TestNewClientRejectsIncompleteABI(t *testing.T) {
	_, err := NewClient(chaintest.New(), registryAddr, parseABI(t, `[]`), nil)
	assert.Error(t, err)
}

func TestParamManagerCachesKeys(t *testing.T) {
	ctx := context.Background()
	backend := chaintest.New()

	pm, err := NewParamManager(backend, paramManagerAddr, parseABI(t, paramManagerABIJSON(Names()...)))
	require.NoError(t, err)

	first, err := pm.Key(ctx, NameAccountsTree)
	require.NoError(t, err)
	second, err := pm.Key(ctx, NameAccountsTree)
	require.NoError(t, err)

	assert.Equal(t, crypto.Keccak256Hash([]byte("ACCOUNTS_TREE")), first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.Calls)
}

func TestNewParamManagerRequiresEveryAccessor(t *testing.T) {
	_, err := NewParamManager(chaintest.New(), paramManagerAddr, parseABI(t, paramManagerABIJSON(NameLogger)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no accessor")
}

func TestMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Lookup(ctx, NameLogger)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Lookup(ctx, Name("NONEXISTENT"))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.Register(ctx, Name("NONEXISTENT"), common.HexToAddress("0x01")), ErrUnknownName)

	require.NoError(t, m.Register(ctx, NameLogger, common.HexToAddress("0x01")))
	require.NoError(t, m.Register(ctx, NameLogger, common.HexToAddress("0x02")))

	got, err := m.Lookup(ctx, NameLogger)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x02"), got)
}
