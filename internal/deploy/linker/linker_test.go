package linker

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var typesLib = Library{
	Name:       "Types",
	SourcePath: "contracts/libs/Types.sol",
	Address:    common.HexToAddress("0x00000000000000000000000000000000DeaDBeef"),
}

func TestTrufflePlaceholderShape(t *testing.T) {
	p := truffle("Types")
	assert.Len(t, p, 40)
	assert.True(t, strings.HasPrefix(p, "__Types___"))

	long := truffle(strings.Repeat("X", 50))
	assert.Len(t, long, 40)
	assert.True(t, strings.HasSuffix(long, "X__"))
}

func TestSolcPlaceholderShape(t *testing.T) {
	p := solc("contracts/libs/Types.sol:Types")
	assert.Len(t, p, 40)

	hash := crypto.Keccak256Hash([]byte("contracts/libs/Types.sol:Types")).Hex()
	assert.Equal(t, "__$"+hash[2:36]+"$__", p)
}

func TestLinkReplacesBothStyles(t *testing.T) {
	bytecode := "0x6080" + truffle("Types") + "6000" + solc("contracts/libs/Types.sol:Types") + "00"

	linked := Link(bytecode, typesLib)

	want := "0x6080" + "00000000000000000000000000000000deadbeef" + "6000" + "00000000000000000000000000000000deadbeef" + "00"
	assert.Equal(t, want, linked)
	require.NoError(t, CheckLinked(linked))
}

func TestLinkIsIdempotent(t *testing.T) {
	bytecode := "0x6080" + truffle("Types") + "00"

	once := Link(bytecode, typesLib)
	twice := Link(once, typesLib)
	assert.Equal(t, once, twice)
}

func TestLinkLeavesOtherLibrariesUntouched(t *testing.T) {
	bytecode := "0x" + truffle("Types") + truffle("ECVerify")

	linked := Link(bytecode, typesLib)

	assert.Equal(t, []string{truffle("ECVerify")}, Unresolved(linked))
	assert.ErrorIs(t, CheckLinked(linked), ErrUnlinkedLibrary)
}

func TestUnresolvedDeduplicates(t *testing.T) {
	p := solc("contracts/Other.sol:Other")
	assert.Equal(t, []string{p}, Unresolved("0x"+p+"60"+p))
	assert.Empty(t, Unresolved("0x6080604052"))
}

func TestPlaceholdersWithoutSourcePath(t *testing.T) {
	assert.Equal(t, []string{truffle("Types")}, Placeholders(Library{Name: "Types"}))
	assert.Len(t, Placeholders(typesLib), 2)
}
