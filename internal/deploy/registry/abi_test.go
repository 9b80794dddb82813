package registry

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/require"
)

const nameRegistryABIJSON = `[
	{
		"name": "registerName",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "name", "type": "bytes32"},
			{"name": "addr", "type": "address"}
		],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{
		"name": "getContractDetails",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "name", "type": "bytes32"}],
		"outputs": [{"name": "", "type": "address"}]
	}
]`

func parseABI(t *testing.T, raw string) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(raw))
	require.NoError(t, err)
	return parsed
}

func paramManagerABIJSON(names ...Name) string {
	entries := make([]string, 0, len(names))
	for _, name := range names {
		accessor, _ := name.Accessor()
		entries = append(entries, fmt.Sprintf(
			`{"name": %q, "type": "function", "stateMutability": "pure", "inputs": [], "outputs": [{"name": "", "type": "bytes32"}]}`,
			accessor,
		))
	}
	return "[" + strings.Join(entries, ",") + "]"
}
