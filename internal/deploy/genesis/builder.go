package genesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/compose-network/rollup-deployer/internal/deploy/registry"
	"github.com/compose-network/rollup-deployer/internal/logger"
	"github.com/compose-network/rollup-deployer/internal/merkle"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// MaxDepth bounds the tree so the whole leaf set fits in one eth_call.
const MaxDepth = 20

const methodGetMerkleRootFromLeaves = "getMerkleRootFromLeaves"

var (
	ErrDepthTooLarge          = errors.New("genesis: tree depth too large")
	ErrCoordinatorLeafIsEmpty = errors.New("genesis: coordinator leaf equals the empty-account leaf")
	ErrRootMismatch           = errors.New("genesis: on-chain root differs from local reduction")
)

type (
	lookup interface {
		Lookup(ctx context.Context, name registry.Name) (common.Address, error)
	}

	caller interface {
		Call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error)
	}

	Options struct {
		// EmptyLeaf fills every leaf after the coordinator's.
		EmptyLeaf common.Hash
		// VerifyLocally recomputes the root in process and fails on any difference.
		VerifyLocally bool
	}

	// Builder computes the genesis account-tree root by delegating the reduction
	// to the MerkleTreeUtils contract found through the name registry.
	Builder struct {
		registry lookup
		backend  caller
		abi      abi.ABI
		opts     Options
		logger   *slog.Logger
	}
)

func NewBuilder(registry lookup, backend caller, merkleUtilsABI abi.ABI, opts Options) (*Builder, error) {
	if _, ok := merkleUtilsABI.Methods[methodGetMerkleRootFromLeaves]; !ok {
		return nil, fmt.Errorf("MerkleTreeUtils ABI has no method '%s'", methodGetMerkleRootFromLeaves)
	}

	return &Builder{
		registry: registry,
		backend:  backend,
		abi:      merkleUtilsABI,
		opts:     opts,
		logger:   logger.Named("genesis_builder"),
	}, nil
}

// BuildLeaves returns the 2^maxDepth genesis leaves: the coordinator leaf at
// index 0 followed by emptyLeaf everywhere else.
func BuildLeaves(maxDepth uint, coordinatorLeaf, emptyLeaf common.Hash) ([]common.Hash, error) {
	if maxDepth > MaxDepth {
		return nil, fmt.Errorf("%w: %d > %d", ErrDepthTooLarge, maxDepth, MaxDepth)
	}
	if coordinatorLeaf == emptyLeaf {
		return nil, ErrCoordinatorLeafIsEmpty
	}

	leaves := make([]common.Hash, 1<<maxDepth)
	leaves[0] = coordinatorLeaf
	for i := 1; i < len(leaves); i++ {
		leaves[i] = emptyLeaf
	}

	return leaves, nil
}

// ComputeGenesisRoot returns the root of the genesis tree. The call is not retried.
func (b *Builder) ComputeGenesisRoot(ctx context.Context, maxDepth uint, coordinatorLeaf common.Hash) (common.Hash, error) {
	leaves, err := BuildLeaves(maxDepth, coordinatorLeaf, b.opts.EmptyLeaf)
	if err != nil {
		return common.Hash{}, err
	}

	merkleUtils, err := b.registry.Lookup(ctx, registry.NameMerkleUtils)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to resolve %s: %w", registry.NameMerkleUtils, err)
	}

	log := b.logger.With("max_depth", maxDepth).With("leaves", len(leaves)).With("merkle_utils", merkleUtils.Hex())
	log.Info("computing genesis root")

	raw := make([][32]byte, len(leaves))
	for i, leaf := range leaves {
		raw[i] = leaf
	}

	out, err := b.backend.Call(ctx, merkleUtils, b.abi, methodGetMerkleRootFromLeaves, raw)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to compute genesis root: %w", err)
	}
	if len(out) != 1 {
		return common.Hash{}, fmt.Errorf("unexpected output length %d from %s", len(out), methodGetMerkleRootFromLeaves)
	}
	root := common.Hash(*abi.ConvertType(out[0], new([32]byte)).(*[32]byte))

	if b.opts.VerifyLocally {
		local, err := merkle.Root(leaves)
		if err != nil {
			return common.Hash{}, err
		}
		if local != root {
			return common.Hash{}, fmt.Errorf("%w: chain %s, local %s", ErrRootMismatch, root.Hex(), local.Hex())
		}
	}

	log.With("root", root.Hex()).Info("genesis root computed")

	return root, nil
}
