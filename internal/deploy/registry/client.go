package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/compose-network/rollup-deployer/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	methodRegisterName       = "registerName"
	methodGetContractDetails = "getContractDetails"
)

type (
	// Registry is the service-discovery handle passed to every component that needs it.
	Registry interface {
		Register(ctx context.Context, name Name, address common.Address) error
		Lookup(ctx context.Context, name Name) (common.Address, error)
	}

	backend interface {
		caller
		Transact(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) error
	}

	keyResolver interface {
		Key(ctx context.Context, name Name) (common.Hash, error)
	}

	// Client talks to a deployed NameRegistry contract
	Client struct {
		backend backend
		address common.Address
		abi     abi.ABI
		keys    keyResolver
		logger  *slog.Logger
	}
)

func NewClient(backend backend, address common.Address, contractABI abi.ABI, keys keyResolver) (*Client, error) {
	for _, method := range []string{methodRegisterName, methodGetContractDetails} {
		if _, ok := contractABI.Methods[method]; !ok {
			return nil, fmt.Errorf("NameRegistry ABI has no method '%s'", method)
		}
	}

	return &Client{
		backend: backend,
		address: address,
		abi:     contractABI,
		keys:    keys,
		logger:  logger.Named("name_registry"),
	}, nil
}

// Register writes address under name. A later Register of the same name overwrites it.
func (c *Client) Register(ctx context.Context, name Name, address common.Address) error {
	key, err := c.keys.Key(ctx, name)
	if err != nil {
		return err
	}

	if err := c.backend.Transact(ctx, c.address, c.abi, methodRegisterName, [32]byte(key), address); err != nil {
		return fmt.Errorf("failed to register %s: %w", name, err)
	}

	c.logger.
		With("name", string(name)).
		With("key", key.Hex()).
		With("address", address.Hex()).
		Info("name registered")

	return nil
}

// Lookup returns the address registered under name. A revert or a zero address
// both mean the name is absent and yield ErrNotFound.
func (c *Client) Lookup(ctx context.Context, name Name) (common.Address, error) {
	if err := name.Validate(); err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	key, err := c.keys.Key(ctx, name)
	if err != nil {
		return common.Address{}, err
	}

	out, err := c.backend.Call(ctx, c.address, c.abi, methodGetContractDetails, [32]byte(key))
	if err != nil {
		if isRevert(err) {
			return common.Address{}, fmt.Errorf("%w: %s (%v)", ErrNotFound, name, err)
		}
		return common.Address{}, fmt.Errorf("failed to look up %s: %w", name, err)
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("unexpected output length %d from %s", len(out), methodGetContractDetails)
	}

	address := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	if address == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return address, nil
}

// revertErrorCode is the JSON-RPC code geth and anvil attach to a reverted eth_call.
const revertErrorCode = 3

// isRevert reports whether err is a revert returned by the node as a JSON-RPC error.
// Transport failures never qualify, whatever their text. Nodes that skip code 3 for
// reasonless reverts still use go-ethereum's "execution reverted" message.
func isRevert(err error) bool {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return false
	}
	return rpcErr.ErrorCode() == revertErrorCode || strings.HasPrefix(rpcErr.Error(), "execution reverted")
}
