package registry

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type (
	caller interface {
		Call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error)
	}

	// ParamManager resolves registry keys from the deployed ParamManager library.
	// Keys are constants, so each one is fetched at most once.
	ParamManager struct {
		backend caller
		address common.Address
		abi     abi.ABI
		keys    map[Name]common.Hash
	}
)

func NewParamManager(backend caller, address common.Address, contractABI abi.ABI) (*ParamManager, error) {
	for _, name := range Names() {
		accessor, _ := name.Accessor()
		if _, ok := contractABI.Methods[accessor]; !ok {
			return nil, fmt.Errorf("ParamManager ABI has no accessor '%s' for %s", accessor, name)
		}
	}

	return &ParamManager{
		backend: backend,
		address: address,
		abi:     contractABI,
		keys:    make(map[Name]common.Hash),
	}, nil
}

// Key returns the bytes32 registry key for name.
func (p *ParamManager) Key(ctx context.Context, name Name) (common.Hash, error) {
	if key, ok := p.keys[name]; ok {
		return key, nil
	}

	accessor, err := name.Accessor()
	if err != nil {
		return common.Hash{}, err
	}

	out, err := p.backend.Call(ctx, p.address, p.abi, accessor)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to read registry key for %s: %w", name, err)
	}
	if len(out) != 1 {
		return common.Hash{}, fmt.Errorf("unexpected output length %d from %s", len(out), accessor)
	}

	key := *abi.ConvertType(out[0], new([32]byte)).(*[32]byte)
	p.keys[name] = key

	return key, nil
}
