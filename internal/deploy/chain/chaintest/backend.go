// Package chaintest provides an in-process chain.Backend that simulates the
// NameRegistry, ParamManager and MerkleTreeUtils contracts for tests.
package chaintest

import (
	"context"
	"fmt"
	"math/big"

	"github.com/compose-network/rollup-deployer/internal/merkle"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrNameNotRegistered mimics the registry's revert reason for unknown keys.
var ErrNameNotRegistered error = &RevertError{Reason: "Name not registered"}

// RevertError has the shape of the JSON-RPC error a node returns for a reverted eth_call.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

func (e *RevertError) ErrorCode() int {
	return 3
}

func (e *RevertError) ErrorData() any {
	return nil
}

type (
	Deployment struct {
		Address  common.Address
		ABI      abi.ABI
		Bytecode []byte
		Args     []any
	}

	Transaction struct {
		To     common.Address
		Method string
		Args   []any
	}

	Backend struct {
		Deployments  []Deployment
		Transactions []Transaction
		Calls        int

		// ZeroForMissing makes getContractDetails return the zero address instead of reverting.
		ZeroForMissing bool
		// FailDeploy, when set, is consulted before every deployment.
		FailDeploy func(index int, bytecode []byte) error
		// FailMethod maps a method name to the error its calls and transactions return.
		FailMethod map[string]error

		registries map[common.Address]map[[32]byte]common.Address
	}
)

func New() *Backend {
	return &Backend{
		FailMethod: make(map[string]error),
		registries: make(map[common.Address]map[[32]byte]common.Address),
	}
}

func (b *Backend) Deploy(_ context.Context, contractABI abi.ABI, bytecode []byte, args ...any) (common.Address, error) {
	index := len(b.Deployments)
	if b.FailDeploy != nil {
		if err := b.FailDeploy(index, bytecode); err != nil {
			return common.Address{}, err
		}
	}

	if _, err := contractABI.Pack("", args...); err != nil {
		return common.Address{}, fmt.Errorf("failed to pack constructor arguments: %w", err)
	}

	address := common.BigToAddress(big.NewInt(int64(0x1000 + index)))
	b.Deployments = append(b.Deployments, Deployment{
		Address:  address,
		ABI:      contractABI,
		Bytecode: bytecode,
		Args:     args,
	})

	return address, nil
}

func (b *Backend) Transact(_ context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) error {
	if err := b.FailMethod[method]; err != nil {
		return err
	}
	if _, err := contractABI.Pack(method, args...); err != nil {
		return fmt.Errorf("failed to pack %s: %w", method, err)
	}

	switch method {
	case "registerName":
		key := args[0].([32]byte)
		addr := args[1].(common.Address)
		entries, ok := b.registries[to]
		if !ok {
			entries = make(map[[32]byte]common.Address)
			b.registries[to] = entries
		}
		entries[key] = addr
	default:
		return fmt.Errorf("chaintest: unsupported transaction %s", method)
	}

	b.Transactions = append(b.Transactions, Transaction{To: to, Method: method, Args: args})
	return nil
}

func (b *Backend) Call(_ context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	b.Calls++
	if err := b.FailMethod[method]; err != nil {
		return nil, err
	}

	m, ok := contractABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("chaintest: method %s not found in ABI", method)
	}
	if _, err := contractABI.Pack(method, args...); err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	var result []any
	switch {
	case method == "getContractDetails":
		addr, found := b.registries[to][args[0].([32]byte)]
		if !found && !b.ZeroForMissing {
			return nil, ErrNameNotRegistered
		}
		result = []any{addr}
	case method == "getMerkleRootFromLeaves":
		raw := args[0].([][32]byte)
		leaves := make([]common.Hash, len(raw))
		for i, leaf := range raw {
			leaves[i] = leaf
		}
		root, err := merkle.Root(leaves)
		if err != nil {
			return nil, &RevertError{Reason: err.Error()}
		}
		result = []any{[32]byte(root)}
	case len(m.Inputs) == 0 && len(m.Outputs) == 1 && m.Outputs[0].Type.T == abi.FixedBytesTy:
		// ParamManager accessors return keccak256 of their own name
		result = []any{[32]byte(crypto.Keccak256Hash([]byte(method)))}
	default:
		return nil, fmt.Errorf("chaintest: unsupported call %s", method)
	}

	// round-trip through the ABI so callers see the exact types a node would return
	data, err := m.Outputs.Pack(result...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s outputs: %w", method, err)
	}
	return m.Outputs.Unpack(data)
}

// Registered returns the raw registry entry for key at the registry deployed at registryAddr.
func (b *Backend) Registered(registryAddr common.Address, key [32]byte) (common.Address, bool) {
	addr, ok := b.registries[registryAddr][key]
	return addr, ok
}
